// Package encoding normalises administrator exports to UTF-8 before parsing.
package encoding

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MaxSize bounds the statements Decode accepts.
const MaxSize = 10 << 20

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// charsets maps chardet results to decoders. Unlisted results fall back to Windows-1252,
// the usual charset of spreadsheet exports.
var charsets = map[string]encoding.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-15":  charmap.ISO8859_15,
	"UTF-16LE":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"UTF-16BE":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
}

// Decode reads the whole of r and returns it as UTF-8.
//
// A byte order mark wins; otherwise valid UTF-8 is returned unchanged, and anything
// else is decoded with the charset chardet considers most likely.
func Decode(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}

	if len(raw) > MaxSize {
		return nil, fmt.Errorf("statement exceeds %d bytes", MaxSize)
	}

	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return raw[len(bomUTF8):], nil
	case bytes.HasPrefix(raw, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), raw)
	case bytes.HasPrefix(raw, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.UseBOM), raw)
	}

	if utf8.Valid(raw) {
		return raw, nil
	}

	enc := encoding.Encoding(charmap.Windows1252)

	if result, err := chardet.NewTextDetector().DetectBest(raw); err == nil {
		if result.Charset == "UTF-8" {
			return raw, nil
		}

		if e, ok := charsets[result.Charset]; ok {
			enc = e
		}
	}

	return decodeWith(enc, raw)
}

func decodeWith(enc encoding.Encoding, raw []byte) ([]byte, error) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding statement: %w", err)
	}

	return out, nil
}
