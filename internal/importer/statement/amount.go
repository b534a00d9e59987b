package statement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type numberFormat int

const (
	// formatUS uses a decimal point: "1,234.56".
	formatUS numberFormat = iota
	// formatEuropean uses a decimal comma: "1.234,56" or "1 234,56".
	formatEuropean
)

// digits keeps only digits and separators, dropping currency symbols, codes and spaces.
func digits(s string) string {
	var b strings.Builder

	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// detectNumberFormat votes over amount cells. Only a separator followed by one or two
// digits is conclusive; "1.234" could be either.
func detectNumberFormat(cells []string) numberFormat {
	var eu, us int

	for _, cell := range cells {
		c := digits(cell)

		i := strings.LastIndexAny(c, ".,")
		if i < 0 {
			continue
		}

		if frac := len(c) - i - 1; frac == 0 || frac > 2 {
			continue
		}

		if c[i] == ',' {
			eu++
		} else {
			us++
		}
	}

	if eu > us {
		return formatEuropean
	}

	return formatUS
}

// parseAmount parses a statement amount. Parentheses and leading or trailing minus
// signs mark negatives.
func parseAmount(s string, f numberFormat) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	negative := strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") ||
		(strings.Contains(s, "(") && strings.HasSuffix(s, ")"))

	clean := digits(s)
	if clean == "" {
		return decimal.Zero, fmt.Errorf("no digits in amount %q", s)
	}

	switch f {
	case formatEuropean:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case formatUS:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	if negative {
		d = d.Neg()
	}

	return d.Round(2), nil
}
