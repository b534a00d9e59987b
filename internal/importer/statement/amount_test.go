package statement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectNumberFormat(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  numberFormat
	}{
		{name: "US", cells: []string{"1,234.56", "-10.00"}, want: formatUS},
		{name: "European", cells: []string{"1.234,56", "-10,00"}, want: formatEuropean},
		{name: "SpaceThousands", cells: []string{"12 500,00"}, want: formatEuropean},
		{name: "AmbiguousDefaultsToUS", cells: []string{"1.234", "1,234"}, want: formatUS},
		{name: "NoCells", want: formatUS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectNumberFormat(tt.cells))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		format  numberFormat
		want    string
		wantErr bool
	}{
		{input: "1.234,56", format: formatEuropean, want: "1234.56"},
		{input: "-588,74", format: formatEuropean, want: "-588.74"},
		{input: "1.234.567,89 EUR", format: formatEuropean, want: "1234567.89"},
		{input: "12 500,00", format: formatEuropean, want: "12500"},
		{input: "1,234.56", format: formatUS, want: "1234.56"},
		{input: "$(2,000.00)", format: formatUS, want: "-2000"},
		{input: "(2,000.00)", format: formatUS, want: "-2000"},
		{input: "500.00-", format: formatUS, want: "-500"},
		{input: "USD 0.125", format: formatUS, want: "0.13"},
		{input: "n/a", format: formatUS, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}
