// Package money holds the monetary helpers shared by the ledger, transfer and reporting code.
package money

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the reporting currency of every ledger amount.
const Currency = gomoney.USD

// Places is the number of decimal places money is stored with.
const Places = 2

// Round rounds d half away from zero to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders d for humans, e.g. "$10,000.00".
func Format(d decimal.Decimal) string {
	cur := gomoney.GetCurrency(Currency)
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()

	return gomoney.New(minor, Currency).Display()
}

// Float returns d as a float64 for statistics; never persist the result.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
