package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/privcap/internal/encoding"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

// Parser reads capital statements exported by fund administrators and produces activity
// params. It auto-detects the delimiter, the column layout and the number format.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// delimiters are tried in order until one yields a recognised header.
var delimiters = []rune{';', ',', '\t'}

func (p *Parser) Parse(r io.Reader) ([]investment.ActivityParams, error) {
	content, err := enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	for _, comma := range delimiters {
		rows, err := readRows(content, comma)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		return parseRows(profile, cols, rows[headerIdx+1:], headerIdx)
	}

	return nil, fmt.Errorf("no matching statement layout found: expected date, description and amount columns")
}

func readRows(content []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	// Leading tabs are empty cells in tab-separated files.
	reader.TrimLeadingSpace = comma != '\t'

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

// colIndex maps normalised column names to their index in the row.
type colIndex map[string]int

// find returns the index of the first present spelling, or -1.
func (c colIndex) find(names []string) int {
	for _, name := range names {
		if i, ok := c[name]; ok {
			return i
		}
	}

	return -1
}

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := normalise(cell)
			if _, seen := cols[name]; name != "" && !seen {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, names := range p.roles() {
		if cols.find(names) < 0 {
			return false
		}
	}

	return true
}

// layout holds the resolved column indices of a matched profile.
type layout struct {
	profile *Profile
	date    int
	desc    int
	typ     int
	amount  int
	call    int
	distrib int
}

func newLayout(p *Profile, cols colIndex) layout {
	return layout{
		profile: p,
		date:    cols.find(p.DateCols),
		desc:    cols.find(p.DescCols),
		typ:     cols.find(p.TypeCols),
		amount:  cols.find(p.AmountCols),
		call:    cols.find(p.CallCols),
		distrib: cols.find(p.DistribCols),
	}
}

func (l layout) amountCells(rows [][]string) []string {
	var cells []string

	for _, row := range rows {
		for _, idx := range []int{l.amount, l.call, l.distrib} {
			if s := cellValue(row, idx); s != "" {
				cells = append(cells, s)
			}
		}
	}

	return cells
}

// parseRows extracts activities from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]investment.ActivityParams, error) {
	l := newLayout(p, cols)
	format := detectNumberFormat(l.amountCells(rows))

	var params []investment.ActivityParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(cellValue(row, l.date), format)
		if !ok {
			continue
		}

		desc := cellValue(row, l.desc)
		if desc == "" && !p.DescOptional {
			return nil, fmt.Errorf("row %d: missing description", rowNum)
		}

		rowParams, err := l.parseRow(row, format)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		for _, rp := range rowParams {
			rp.Date = date
			rp.Details = desc

			if rp.Details == "" {
				rp.Details = "Capital statement: " + strings.ToLower(strings.ReplaceAll(string(rp.Type), "_", " "))
			}

			params = append(params, rp)
		}
	}

	return params, nil
}

// parseRow returns the activities on one dated row; zero amounts yield none.
func (l layout) parseRow(row []string, format numberFormat) ([]investment.ActivityParams, error) {
	switch l.profile.AmountMode {
	case amountTyped:
		label := cellValue(row, l.typ)

		t, ok := activityType(label)
		if !ok {
			return nil, fmt.Errorf("unknown activity type %q", label)
		}

		amount, err := optionalAmount(row, l.amount, format)
		if err != nil || amount.IsZero() {
			return nil, err
		}

		return []investment.ActivityParams{{Type: t, Amount: amount.Abs()}}, nil

	case amountSplit:
		var out []investment.ActivityParams

		call, err := optionalAmount(row, l.call, format)
		if err != nil {
			return nil, err
		}

		if !call.IsZero() {
			out = append(out, investment.ActivityParams{Type: investment.ActivityCapitalCall, Amount: call.Abs()})
		}

		distrib, err := optionalAmount(row, l.distrib, format)
		if err != nil {
			return nil, err
		}

		if !distrib.IsZero() {
			out = append(out, investment.ActivityParams{Type: investment.ActivityDistribution, Amount: distrib.Abs()})
		}

		return out, nil

	case amountSigned:
		amount, err := optionalAmount(row, l.amount, format)
		if err != nil || amount.IsZero() {
			return nil, err
		}

		t := investment.ActivityDistribution
		if amount.IsNegative() {
			t = investment.ActivityCapitalCall
		}

		return []investment.ActivityParams{{Type: t, Amount: amount.Abs()}}, nil
	}

	return nil, nil
}

// optionalAmount parses the cell at idx; an empty cell is zero.
func optionalAmount(row []string, idx int, format numberFormat) (decimal.Decimal, error) {
	s := cellValue(row, idx)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	return parseAmount(s, format)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate tries the known layouts. Slash dates follow the number format: day first
// for European statements, month first otherwise. Returns false for empty cells or
// unparseable values (footer rows, totals).
func parseDate(s string, format numberFormat) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, pattern := range dateLayouts {
		if t, err := time.Parse(pattern, s); err == nil {
			return t, true
		}
	}

	slash := "01/02/2006"
	if format == formatEuropean {
		slash = "02/01/2006"
	}

	t, err := time.Parse(slash, s)

	return t, err == nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
