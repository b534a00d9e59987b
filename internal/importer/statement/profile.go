package statement

import (
	"strings"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

// amountMode determines how amounts and activity types are extracted from a row.
type amountMode int

const (
	// amountTyped means a type column ("Capital Call") next to an amount column.
	amountTyped amountMode = iota
	// amountSplit means separate contribution and distribution columns.
	amountSplit
	// amountSigned means one signed amount column; negatives are calls, positives distributions.
	amountSigned
)

// Profile describes the column layout of an administrator capital statement.
// Columns list the accepted header spellings, compared case-insensitively.
type Profile struct {
	Name         string
	DateCols     []string
	DescCols     []string
	TypeCols     []string
	AmountCols   []string
	CallCols     []string
	DistribCols  []string
	AmountMode   amountMode
	DescOptional bool
}

// roles returns the column groups that must each be present for this profile to match.
func (p Profile) roles() [][]string {
	roles := [][]string{p.DateCols}
	if !p.DescOptional {
		roles = append(roles, p.DescCols)
	}

	switch p.AmountMode {
	case amountTyped:
		roles = append(roles, p.TypeCols, p.AmountCols)
	case amountSplit:
		roles = append(roles, p.CallCols, p.DistribCols)
	case amountSigned:
		roles = append(roles, p.AmountCols)
	}

	return roles
}

var (
	dateCols   = []string{"date", "transaction date", "value date", "effective date", "data", "datum"}
	descCols   = []string{"description", "details", "memo", "narrative", "descrição", "libellé"}
	typeCols   = []string{"type", "transaction type", "activity", "activity type"}
	amountCols = []string{"amount", "net amount", "value", "montante", "montant", "betrag"}
)

// profiles is the ordered list of layouts tried during auto-detection.
// More specific profiles come first to avoid false matches.
var profiles = []Profile{
	{
		Name:         "typed",
		DateCols:     dateCols,
		DescCols:     descCols,
		TypeCols:     typeCols,
		AmountCols:   amountCols,
		AmountMode:   amountTyped,
		DescOptional: true,
	},
	{
		Name:         "split",
		DateCols:     dateCols,
		DescCols:     descCols,
		CallCols:     []string{"contributions", "contribution", "capital called", "calls", "paid in"},
		DistribCols:  []string{"distributions", "distribution", "distributed", "paid out"},
		AmountMode:   amountSplit,
		DescOptional: true,
	},
	{
		Name:       "signed",
		DateCols:   dateCols,
		DescCols:   descCols,
		AmountCols: amountCols,
		AmountMode: amountSigned,
	},
}

// typeLabels maps administrator wording to ledger activity types.
var typeLabels = map[string]investment.ActivityType{
	"initial investment":  investment.ActivityInitialInvestment,
	"initial":             investment.ActivityInitialInvestment,
	"subscription":        investment.ActivityInitialInvestment,
	"capital call":        investment.ActivityCapitalCall,
	"call":                investment.ActivityCapitalCall,
	"contribution":        investment.ActivityCapitalCall,
	"drawdown":            investment.ActivityCapitalCall,
	"distribution":        investment.ActivityDistribution,
	"income distribution": investment.ActivityDistribution,
	"return of capital":   investment.ActivityDistribution,
	"dividend":            investment.ActivityDistribution,
	"partial exit":        investment.ActivityPartialExit,
	"partial sale":        investment.ActivityPartialExit,
	"secondary sale":      investment.ActivityPartialExit,
}

// activityType resolves a type cell, accepting ledger constants as well as labels.
func activityType(label string) (investment.ActivityType, bool) {
	if t := investment.ActivityType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))); t.Valid() {
		return t, true
	}

	t, ok := typeLabels[normalise(label)]

	return t, ok
}

func normalise(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
