package analytics

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

type assetClass struct {
	name    string
	target  float64
	sectors []investment.Sector
}

// A sector may feed more than one class, so class percentages need not sum to 100.
var assetClasses = []assetClass{
	{
		name:    "Private Equity",
		target:  60,
		sectors: []investment.Sector{investment.SectorTechnology, investment.SectorHealthcare, investment.SectorConsumer},
	},
	{
		name:    "Venture Capital",
		target:  30,
		sectors: []investment.Sector{investment.SectorFintech, investment.SectorTechnology},
	},
	{
		name:    "Real Estate",
		target:  10,
		sectors: []investment.Sector{investment.SectorRealEstate},
	},
}

type AssetAllocation struct {
	AssetClass string          `json:"asset_class"`
	Value      decimal.Decimal `json:"current_value"`
	CurrentPct float64         `json:"current_percentage"`
	TargetPct  float64         `json:"target_percentage"`
	Difference float64         `json:"difference"`
}

// Allocation compares the value held per asset class against its target share.
// It returns nothing when the portfolio has no value.
func Allocation(open []*investment.Investment) []AssetAllocation {
	total, _ := totals(open)
	if !total.IsPositive() {
		return []AssetAllocation{}
	}

	out := make([]AssetAllocation, 0, len(assetClasses))

	for _, ac := range assetClasses {
		var value decimal.Decimal

		for _, inv := range open {
			if slices.Contains(ac.sectors, inv.Sector) {
				value = value.Add(inv.CurrentValue)
			}
		}

		pct := percentOf(value, total)
		out = append(out, AssetAllocation{
			AssetClass: ac.name,
			Value:      value,
			CurrentPct: pct,
			TargetPct:  ac.target,
			Difference: round(pct-ac.target, 2),
		})
	}

	return out
}

type RebalanceStatus string

const (
	OnTarget    RebalanceStatus = "On Target"
	Overweight  RebalanceStatus = "Overweight"
	Underweight RebalanceStatus = "Underweight"
)

// RebalanceBand is the absolute drift, in percentage points, tolerated before a class is
// reported as off target.
const RebalanceBand = 2.0

type Recommendation struct {
	AssetClass string          `json:"asset_class"`
	Status     RebalanceStatus `json:"status"`
	Action     string          `json:"action"`
	CurrentPct float64         `json:"current_percentage"`
	TargetPct  float64         `json:"target_percentage"`
}

func Rebalancing(allocation []AssetAllocation) []Recommendation {
	out := make([]Recommendation, 0, len(allocation))

	for _, a := range allocation {
		r := Recommendation{AssetClass: a.AssetClass, CurrentPct: a.CurrentPct, TargetPct: a.TargetPct}
		drift := math.Abs(a.Difference)

		switch {
		case drift < RebalanceBand:
			r.Status = OnTarget
			r.Action = "Current allocation aligns with target"
		case a.Difference > 0:
			r.Status = Overweight
			r.Action = fmt.Sprintf("Consider reducing allocation by %.1f%% to reach target", drift)
		default:
			r.Status = Underweight
			r.Action = fmt.Sprintf("Consider increasing allocation by %.1f%% to reach target", drift)
		}

		out = append(out, r)
	}

	return out
}

type Distribution struct {
	ID             uuid.UUID               `json:"id"`
	InvestmentID   uuid.UUID               `json:"investment_id"`
	InvestmentName string                  `json:"investment_name"`
	Type           investment.ActivityType `json:"activity_type"`
	Amount         decimal.Decimal         `json:"amount"`
	Date           time.Time               `json:"date"`
	Details        string                  `json:"details"`
}

// DistributionHistory lists realized cash returned to the investor, newest first.
// names maps investment IDs to display names; exited investments are expected in it too.
func DistributionHistory(activities []*investment.Activity, names map[uuid.UUID]string) []Distribution {
	out := make([]Distribution, 0, len(activities))

	for _, a := range activities {
		if !slices.Contains(investment.RealizedTypes, a.Type) {
			continue
		}

		out = append(out, Distribution{
			ID:             a.ID,
			InvestmentID:   a.InvestmentID,
			InvestmentName: names[a.InvestmentID],
			Type:           a.Type,
			Amount:         a.Amount,
			Date:           a.Date,
			Details:        a.Details,
		})
	}

	slices.SortStableFunc(out, func(a, b Distribution) int {
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})

	return out
}
