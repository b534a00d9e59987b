package analytics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

var today = time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*analytics.Service, *analytics.MockLedger) {
	ctrl := gomock.NewController(t)
	ledger := analytics.NewMockLedger(ctrl)

	return analytics.NewService(ledger, zerolog.Nop(), analytics.DefaultSettings), ledger
}

func expectOpen(m *analytics.MockLedger, owner uuid.UUID, invs []*investment.Investment, err error) {
	m.EXPECT().
		ListByOwner(gomock.Any(), owner, investment.StatusActive, investment.StatusUnderperforming).
		Return(invs, err)
}

func TestService_EmptyPortfolio(t *testing.T) {
	owner := uuid.New()
	svc, ledger := newService(t)
	ctx := t.Context()

	expectOpen(ledger, owner, nil, nil)
	metrics, err := svc.GetPortfolioMetrics(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.InvestmentCount)
	assert.True(t, metrics.TotalValue.IsZero())
	assert.Zero(t, metrics.AverageIRR)

	expectOpen(ledger, owner, nil, nil)
	ledger.EXPECT().OwnerSnapshots(gomock.Any(), owner).Return(nil, nil)
	risk, err := svc.GetRiskMetrics(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, risk.Beta)
	assert.Zero(t, risk.SharpeRatio)
	assert.Zero(t, risk.MaxDrawdown)
	assert.True(t, risk.ValueAtRisk.IsZero())
	assert.Equal(t, analytics.RiskLow, risk.Concentration.RiskLevel)
	assert.Equal(t, analytics.RiskLow, risk.Volatility.RiskLevel)
	assert.Len(t, risk.StressTests, 4)

	expectOpen(ledger, owner, nil, nil)
	sectors, err := svc.GetSectorAllocation(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, sectors)

	expectOpen(ledger, owner, nil, nil)
	attribution, err := svc.GetReturnAttribution(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, attribution)

	expectOpen(ledger, owner, nil, nil)
	report, err := svc.GetAssetAllocation(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, report.Allocation)
	assert.Empty(t, report.Recommendations)
}

func TestService_GetPortfolioMetrics(t *testing.T) {
	owner := uuid.New()
	svc, ledger := newService(t)

	inv := holding(investment.SectorTechnology, "1000", "1100")
	other := holding(investment.SectorHealthcare, "500", "500")

	expectOpen(ledger, owner, []*investment.Investment{inv, other}, nil)
	ledger.EXPECT().
		ListActivities(gomock.Any(), investment.ActivityFilter{OwnerID: &owner}).
		Return([]*investment.Activity{
			{InvestmentID: inv.ID, Type: investment.ActivityInitialInvestment, Amount: d("-1000"), Date: date(2024, 6, 30)},
		}, nil)
	ledger.EXPECT().Now().Return(today)

	m, err := svc.GetPortfolioMetrics(t.Context(), owner)
	require.NoError(t, err)

	assert.Equal(t, 2, m.InvestmentCount)
	assertDecimal(t, "1600", m.TotalValue)
	assertDecimal(t, "100", m.UnrealizedGains)
	assert.Equal(t, 6.67, m.GainsPct)
	// Only inv has capital history: -1000 a year before a 1100 mark.
	assert.InDelta(t, 10.0, m.AverageIRR, 0.01)
}

func TestService_GetReturnsAnalysis(t *testing.T) {
	owner := uuid.New()
	svc, ledger := newService(t)

	expectOpen(ledger, owner, []*investment.Investment{holding(investment.SectorTechnology, "1000", "1500")}, nil)
	ledger.EXPECT().
		ListActivities(gomock.Any(), investment.ActivityFilter{OwnerID: &owner, Types: investment.RealizedTypes}).
		Return([]*investment.Activity{
			{Type: investment.ActivityDistribution, Amount: d("250")},
		}, nil)

	r, err := svc.GetReturnsAnalysis(t.Context(), owner)
	require.NoError(t, err)

	assertDecimal(t, "250", r.RealizedGains)
	assertDecimal(t, "500", r.UnrealizedGains)
	assertDecimal(t, "750", r.TotalReturn)
}

func TestService_GetDistributionHistory(t *testing.T) {
	owner := uuid.New()
	svc, ledger := newService(t)

	exited := holding(investment.SectorFintech, "0", "0")
	exited.Status = investment.StatusExited

	ledger.EXPECT().ListByOwner(gomock.Any(), owner).Return([]*investment.Investment{exited}, nil)
	ledger.EXPECT().
		ListActivities(gomock.Any(), investment.ActivityFilter{OwnerID: &owner, Types: investment.RealizedTypes}).
		Return([]*investment.Activity{
			{InvestmentID: exited.ID, Type: investment.ActivityDistribution, Amount: d("900"), Date: date(2025, 2, 1)},
		}, nil)

	history, err := svc.GetDistributionHistory(t.Context(), owner)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, exited.Name, history[0].InvestmentName)
}

func TestService_RiskMetricsUsesSettings(t *testing.T) {
	invs := []*investment.Investment{
		holding(investment.SectorTechnology, "100000", "120000"),
		holding(investment.SectorHealthcare, "50000", "45000"),
	}

	tests := []struct {
		name       string
		riskFree   float64
		wantSharpe float64
	}{
		{name: "OnePercent", riskFree: 0.01, wantSharpe: 0.6},
		{name: "ZeroRate", riskFree: 0, wantSharpe: 0.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := uuid.New()
			ctrl := gomock.NewController(t)
			ledger := analytics.NewMockLedger(ctrl)
			svc := analytics.NewService(ledger, zerolog.Nop(), analytics.Settings{RiskFreeRate: tt.riskFree, VaRConfidence: 0.95})

			expectOpen(ledger, owner, invs, nil)
			ledger.EXPECT().OwnerSnapshots(gomock.Any(), owner).Return(nil, nil)

			risk, err := svc.GetRiskMetrics(t.Context(), owner)
			require.NoError(t, err)

			assert.Equal(t, 1.0, risk.Beta)
			assert.InDelta(t, tt.wantSharpe, risk.SharpeRatio, 1e-9)
			assert.Equal(t, 0.0, risk.Alpha)
			assert.Equal(t, analytics.RiskHigh, risk.Concentration.RiskLevel)
		})
	}
}

func TestService_LedgerError(t *testing.T) {
	owner := uuid.New()
	svc, ledger := newService(t)
	boom := errors.New("connection reset")

	expectOpen(ledger, owner, nil, boom)

	_, err := svc.GetPortfolioMetrics(t.Context(), owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
