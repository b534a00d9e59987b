// Package analytics derives read-only portfolio reports from investments, capital activity
// and performance snapshots. Every function tolerates an empty portfolio.
package analytics

import (
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

var hundred = decimal.NewFromInt(100)

type PortfolioMetrics struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalInvested   decimal.Decimal `json:"total_invested"`
	UnrealizedGains decimal.Decimal `json:"unrealized_gains"`
	GainsPct        float64         `json:"unrealized_gains_percentage"`
	AverageIRR      float64         `json:"average_irr"`
	InvestmentCount int             `json:"investment_count"`
}

// Metrics aggregates open investments. irrs holds the IRR percentage per investment;
// investments without an entry or with a zero IRR are excluded from the weighted average.
func Metrics(invs []*investment.Investment, irrs map[uuid.UUID]float64) PortfolioMetrics {
	m := PortfolioMetrics{InvestmentCount: len(invs)}
	if len(invs) == 0 {
		return m
	}

	m.TotalValue, m.TotalInvested = totals(invs)
	m.UnrealizedGains = m.TotalValue.Sub(m.TotalInvested)
	m.GainsPct = percentOf(m.UnrealizedGains, m.TotalInvested)

	var values, weights []float64

	for _, inv := range invs {
		irr, ok := irrs[inv.ID]
		if !ok || irr == 0 {
			continue
		}

		values = append(values, irr)
		weights = append(weights, inv.TotalInvested.InexactFloat64())
	}

	if len(values) > 0 && floats.Sum(weights) != 0 {
		m.AverageIRR = round(stat.Mean(values, weights), 2)
	}

	return m
}

type SectorShare struct {
	Sector     investment.Sector `json:"sector"`
	Label      string            `json:"label"`
	Value      decimal.Decimal   `json:"amount"`
	Percentage float64           `json:"percentage"`
}

// SectorAllocation sums current value per sector, largest first.
func SectorAllocation(invs []*investment.Investment) []SectorShare {
	total, _ := totals(invs)

	bySector := make(map[investment.Sector]decimal.Decimal)
	for _, inv := range invs {
		bySector[inv.Sector] = bySector[inv.Sector].Add(inv.CurrentValue)
	}

	shares := make([]SectorShare, 0, len(bySector))
	for sector, value := range bySector {
		shares = append(shares, SectorShare{
			Sector:     sector,
			Label:      sector.Label(),
			Value:      value,
			Percentage: percentOf(value, total),
		})
	}

	slices.SortFunc(shares, func(a, b SectorShare) int {
		if c := b.Value.Cmp(a.Value); c != 0 {
			return c
		}

		return cmp.Compare(a.Sector, b.Sector)
	})

	return shares
}

type SectorAttribution struct {
	Sector       investment.Sector `json:"sector"`
	Label        string            `json:"label"`
	Invested     decimal.Decimal   `json:"invested"`
	CurrentValue decimal.Decimal   `json:"current_value"`
	Gain         decimal.Decimal   `json:"gain"`
	GainPct      float64           `json:"gain_percentage"`
	Investments  int               `json:"investment_count"`
}

// ReturnAttribution breaks unrealized gains down by sector, best performing first.
func ReturnAttribution(invs []*investment.Investment) []SectorAttribution {
	bySector := make(map[investment.Sector]*SectorAttribution)

	for _, inv := range invs {
		a, ok := bySector[inv.Sector]
		if !ok {
			a = &SectorAttribution{Sector: inv.Sector, Label: inv.Sector.Label()}
			bySector[inv.Sector] = a
		}

		a.Invested = a.Invested.Add(inv.TotalInvested)
		a.CurrentValue = a.CurrentValue.Add(inv.CurrentValue)
		a.Investments++
	}

	out := make([]SectorAttribution, 0, len(bySector))
	for _, a := range bySector {
		a.Gain = a.CurrentValue.Sub(a.Invested)
		a.GainPct = percentOf(a.Gain, a.Invested)
		out = append(out, *a)
	}

	slices.SortFunc(out, func(a, b SectorAttribution) int {
		if c := cmp.Compare(b.GainPct, a.GainPct); c != 0 {
			return c
		}

		return cmp.Compare(a.Sector, b.Sector)
	})

	return out
}

type ReturnsAnalysis struct {
	RealizedGains   decimal.Decimal `json:"realized_gains"`
	UnrealizedGains decimal.Decimal `json:"unrealized_gains"`
	TotalReturn     decimal.Decimal `json:"total_return"`
	TotalInvested   decimal.Decimal `json:"total_invested"`
	TotalValue      decimal.Decimal `json:"total_current_value"`
}

// Returns combines realized cash (distributions and partial exits) with the unrealized
// gains of open investments.
func Returns(open []*investment.Investment, realized []*investment.Activity) ReturnsAnalysis {
	var r ReturnsAnalysis

	for _, a := range realized {
		if a.Type.Outflow() {
			continue
		}

		r.RealizedGains = r.RealizedGains.Add(a.Amount)
	}

	r.TotalValue, r.TotalInvested = totals(open)
	r.UnrealizedGains = r.TotalValue.Sub(r.TotalInvested)
	r.TotalReturn = r.RealizedGains.Add(r.UnrealizedGains)

	return r
}

func totals(invs []*investment.Investment) (value, invested decimal.Decimal) {
	for _, inv := range invs {
		value = value.Add(inv.CurrentValue)
		invested = invested.Add(inv.TotalInvested)
	}

	return value, invested
}

// percentOf returns part/whole*100 rounded to two places, 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}

	return part.Div(whole).Mul(hundred).Round(2).InexactFloat64()
}

func round(f float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(f*p) / p
}
