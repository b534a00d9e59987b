package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/privcap/internal/money"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "250.125", want: "250.13"},
		{in: "-250.125", want: "-250.13"},
		{in: "10", want: "10"},
		{in: "0.004", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := money.Round(decimal.RequireFromString(tt.in))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$10,000.00", money.Format(decimal.NewFromInt(10000)))
	assert.Equal(t, "-$12.35", money.Format(decimal.RequireFromString("-12.345")))
}
