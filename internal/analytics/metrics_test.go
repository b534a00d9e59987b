package analytics_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, day int) time.Time {
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

func holding(sector investment.Sector, invested, value string) *investment.Investment {
	return &investment.Investment{
		ID:            uuid.New(),
		Name:          string(sector) + " fund",
		Status:        investment.StatusActive,
		Sector:        sector,
		TotalInvested: d(invested),
		CurrentValue:  d(value),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestMetrics_Empty(t *testing.T) {
	m := analytics.Metrics(nil, nil)

	assert.Equal(t, 0, m.InvestmentCount)
	assert.True(t, m.TotalValue.IsZero())
	assert.True(t, m.TotalInvested.IsZero())
	assert.True(t, m.UnrealizedGains.IsZero())
	assert.Zero(t, m.GainsPct)
	assert.Zero(t, m.AverageIRR)
}

func TestMetrics_WeightedIRR(t *testing.T) {
	a := holding(investment.SectorTechnology, "100000", "120000")
	b := holding(investment.SectorHealthcare, "50000", "45000")
	c := holding(investment.SectorTechnology, "50000", "50000")

	irrs := map[uuid.UUID]float64{
		a.ID: 12,
		b.ID: -5,
		c.ID: 0,
	}

	m := analytics.Metrics([]*investment.Investment{a, b, c}, irrs)

	assert.Equal(t, 3, m.InvestmentCount)
	assertDecimal(t, "215000", m.TotalValue)
	assertDecimal(t, "200000", m.TotalInvested)
	assertDecimal(t, "15000", m.UnrealizedGains)
	assert.Equal(t, 7.5, m.GainsPct)
	// (12*100000 - 5*50000) / 150000; c has a zero IRR and carries no weight.
	assert.Equal(t, 6.33, m.AverageIRR)
}

func TestMetrics_NoDefinedIRR(t *testing.T) {
	a := holding(investment.SectorTechnology, "1000", "1000")

	m := analytics.Metrics([]*investment.Investment{a}, map[uuid.UUID]float64{})

	assert.Zero(t, m.AverageIRR)
	assert.Zero(t, m.GainsPct)
}

func TestSectorAllocation(t *testing.T) {
	invs := []*investment.Investment{
		holding(investment.SectorHealthcare, "50000", "45000"),
		holding(investment.SectorTechnology, "100000", "120000"),
		holding(investment.SectorTechnology, "50000", "50000"),
	}

	shares := analytics.SectorAllocation(invs)
	require.Len(t, shares, 2)

	assert.Equal(t, investment.SectorTechnology, shares[0].Sector)
	assert.Equal(t, "Technology", shares[0].Label)
	assertDecimal(t, "170000", shares[0].Value)
	assert.Equal(t, 79.07, shares[0].Percentage)

	assert.Equal(t, investment.SectorHealthcare, shares[1].Sector)
	assertDecimal(t, "45000", shares[1].Value)
	assert.Equal(t, 20.93, shares[1].Percentage)
}

func TestSectorAllocation_ZeroValue(t *testing.T) {
	shares := analytics.SectorAllocation([]*investment.Investment{
		holding(investment.SectorEnergy, "1000", "0"),
	})

	require.Len(t, shares, 1)
	assert.Zero(t, shares[0].Percentage)
	assert.Empty(t, analytics.SectorAllocation(nil))
}

func TestReturnAttribution(t *testing.T) {
	invs := []*investment.Investment{
		holding(investment.SectorHealthcare, "50000", "45000"),
		holding(investment.SectorTechnology, "100000", "120000"),
		holding(investment.SectorTechnology, "50000", "50000"),
	}

	attr := analytics.ReturnAttribution(invs)
	require.Len(t, attr, 2)

	tech := attr[0]
	assert.Equal(t, investment.SectorTechnology, tech.Sector)
	assertDecimal(t, "150000", tech.Invested)
	assertDecimal(t, "170000", tech.CurrentValue)
	assertDecimal(t, "20000", tech.Gain)
	assert.Equal(t, 13.33, tech.GainPct)
	assert.Equal(t, 2, tech.Investments)

	health := attr[1]
	assert.Equal(t, investment.SectorHealthcare, health.Sector)
	assertDecimal(t, "-5000", health.Gain)
	assert.Equal(t, -10.0, health.GainPct)
	assert.Equal(t, 1, health.Investments)
}

func TestReturns(t *testing.T) {
	open := []*investment.Investment{
		holding(investment.SectorTechnology, "100000", "120000"),
		holding(investment.SectorHealthcare, "50000", "45000"),
	}

	realized := []*investment.Activity{
		{Type: investment.ActivityDistribution, Amount: d("5000")},
		{Type: investment.ActivityPartialExit, Amount: d("2500")},
		{Type: investment.ActivityCapitalCall, Amount: d("-100")},
	}

	r := analytics.Returns(open, realized)

	assertDecimal(t, "7500", r.RealizedGains)
	assertDecimal(t, "15000", r.UnrealizedGains)
	assertDecimal(t, "22500", r.TotalReturn)
	assertDecimal(t, "150000", r.TotalInvested)
	assertDecimal(t, "165000", r.TotalValue)
}

func TestReturns_Empty(t *testing.T) {
	r := analytics.Returns(nil, nil)

	assert.True(t, r.TotalReturn.IsZero())
	assert.True(t, r.RealizedGains.IsZero())
}
