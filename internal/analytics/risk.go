package analytics

import (
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

const (
	// MarketStdDev approximates the annual standard deviation of a broad equity index.
	MarketStdDev = 15.0
	// BenchmarkReturn is the yearly percentage alpha is measured against.
	BenchmarkReturn = 10.0

	DefaultRiskFreeRate  = 0.04
	DefaultVaRConfidence = 0.95
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// gainPcts returns the unrealized gain percentage of every investment.
func gainPcts(invs []*investment.Investment) []float64 {
	out := make([]float64, len(invs))
	for i, inv := range invs {
		out[i] = inv.UnrealizedGainPct().InexactFloat64()
	}

	return out
}

// Beta is the dispersion of per-investment gains relative to MarketStdDev.
func Beta(open []*investment.Investment) float64 {
	if len(open) == 0 {
		return 0
	}

	return round(stat.PopStdDev(gainPcts(open), nil)/MarketStdDev, 2)
}

// Sharpe is the excess portfolio return over riskFree divided by the dispersion of
// per-investment returns. Returns are fractions, not percentages.
func Sharpe(open []*investment.Investment, riskFree float64) float64 {
	value, invested := totals(open)
	if !invested.IsPositive() {
		return 0
	}

	returns := gainPcts(open)
	for i := range returns {
		returns[i] /= 100
	}

	sd := stat.PopStdDev(returns, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}

	portfolio := percentOf(value.Sub(invested), invested) / 100

	return round((portfolio-riskFree)/sd, 2)
}

// MaxDrawdown sums snapshots per date and returns the largest peak-to-trough decline
// of that series as a percentage.
func MaxDrawdown(snaps []*investment.Snapshot) float64 {
	if len(snaps) == 0 {
		return 0
	}

	byDate := make(map[int64]decimal.Decimal)
	for _, s := range snaps {
		k := investment.Day(s.Date).Unix()
		byDate[k] = byDate[k].Add(s.Value)
	}

	dates := make([]int64, 0, len(byDate))
	for k := range byDate {
		dates = append(dates, k)
	}

	slices.Sort(dates)

	peak := byDate[dates[0]].InexactFloat64()
	maxDD := 0.0

	for _, k := range dates {
		v := byDate[k].InexactFloat64()
		if v > peak {
			peak = v
		}

		if peak > 0 {
			maxDD = max(maxDD, (peak-v)/peak)
		}
	}

	return round(maxDD*100, 2)
}

// ValueAtRisk is the loss implied by the (1-confidence) percentile of per-investment
// returns applied to the current portfolio value.
func ValueAtRisk(open []*investment.Investment, confidence float64) decimal.Decimal {
	if len(open) == 0 {
		return decimal.Zero
	}

	returns := gainPcts(open)
	for i := range returns {
		returns[i] /= 100
	}

	slices.Sort(returns)

	total, _ := totals(open)
	loss := math.Abs(total.InexactFloat64() * percentile(returns, (1-confidence)*100))

	return decimal.NewFromFloat(loss).Round(2)
}

// percentile interpolates linearly between closest ranks of the sorted sample, matching
// the conventional definition used by spreadsheet and numpy tooling.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

type ConcentrationRisk struct {
	Top3      float64   `json:"top_3_concentration"`
	Top5      float64   `json:"top_5_concentration"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// Concentration measures how much of the portfolio value sits in the largest holdings.
func Concentration(open []*investment.Investment) ConcentrationRisk {
	total, _ := totals(open)
	if !total.IsPositive() {
		return ConcentrationRisk{RiskLevel: RiskLow}
	}

	sorted := slices.Clone(open)
	slices.SortStableFunc(sorted, func(a, b *investment.Investment) int {
		return b.CurrentValue.Cmp(a.CurrentValue)
	})

	top := func(n int) decimal.Decimal {
		v, _ := totals(sorted[:min(n, len(sorted))])
		return v
	}

	c := ConcentrationRisk{
		Top3: percentOf(top(3), total),
		Top5: percentOf(top(5), total),
	}

	switch {
	case c.Top3 > 75:
		c.RiskLevel = RiskHigh
	case c.Top3 > 50:
		c.RiskLevel = RiskMedium
	default:
		c.RiskLevel = RiskLow
	}

	return c
}

type VolatilityRisk struct {
	Volatility float64   `json:"volatility"`
	RiskLevel  RiskLevel `json:"risk_level"`
}

// Volatility pools the snapshot-to-snapshot percentage returns of the open investments
// and reports their standard deviation. Snapshots of other investments are ignored.
func Volatility(open []*investment.Investment, snaps []*investment.Snapshot) VolatilityRisk {
	series := make(map[uuid.UUID][]*investment.Snapshot, len(open))
	for _, inv := range open {
		series[inv.ID] = nil
	}

	for _, s := range snaps {
		if _, ok := series[s.InvestmentID]; ok {
			series[s.InvestmentID] = append(series[s.InvestmentID], s)
		}
	}

	var returns []float64

	for _, ss := range series {
		slices.SortFunc(ss, func(a, b *investment.Snapshot) int {
			return a.Date.Compare(b.Date)
		})

		for i := 1; i < len(ss); i++ {
			prev := ss[i-1].Value
			if !prev.IsPositive() {
				continue
			}

			r := ss[i].Value.Sub(prev).Div(prev).Mul(hundred)
			returns = append(returns, r.InexactFloat64())
		}
	}

	var v VolatilityRisk
	if len(returns) > 0 {
		v.Volatility = round(stat.PopStdDev(returns, nil), 1)
	}

	switch {
	case v.Volatility > 20:
		v.RiskLevel = RiskHigh
	case v.Volatility > 10:
		v.RiskLevel = RiskModerate
	default:
		v.RiskLevel = RiskLow
	}

	return v
}

type StressScenario struct {
	Scenario       string          `json:"scenario"`
	ImpactPct      float64         `json:"impact_percentage"`
	ExpectedLoss   decimal.Decimal `json:"expected_loss"`
	RecoveryMonths int             `json:"recovery_months"`
}

var stressScenarios = []StressScenario{
	{Scenario: "Market Correction (-20%)", ImpactPct: -12.8, RecoveryMonths: 18},
	{Scenario: "Economic Recession", ImpactPct: -18.4, RecoveryMonths: 24},
	{Scenario: "Interest Rate Shock", ImpactPct: -9.2, RecoveryMonths: 12},
	{Scenario: "Credit Crisis", ImpactPct: -22.1, RecoveryMonths: 30},
}

// StressTests applies each fixed shock to the portfolio value.
func StressTests(totalValue decimal.Decimal) []StressScenario {
	out := make([]StressScenario, len(stressScenarios))
	for i, s := range stressScenarios {
		s.ExpectedLoss = totalValue.Mul(decimal.NewFromFloat(s.ImpactPct)).Div(hundred).Round(2)
		out[i] = s
	}

	return out
}

// Alpha is the portfolio gain percentage in excess of BenchmarkReturn.
func Alpha(gainsPct float64) float64 {
	return round(gainsPct-BenchmarkReturn, 2)
}

type RiskMetrics struct {
	Beta          float64           `json:"beta"`
	SharpeRatio   float64           `json:"sharpe_ratio"`
	MaxDrawdown   float64           `json:"max_drawdown"`
	ValueAtRisk   decimal.Decimal   `json:"value_at_risk"`
	Alpha         float64           `json:"alpha"`
	Concentration ConcentrationRisk `json:"concentration_risk"`
	Volatility    VolatilityRisk    `json:"volatility"`
	StressTests   []StressScenario  `json:"stress_tests"`
}
