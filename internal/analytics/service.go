package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

// Ledger is the read side of the investment service the reports are computed from.
//
//go:generate mockgen -source=service.go -destination=service_mock.go -package=analytics
type Ledger interface {
	ListByOwner(ctx context.Context, owner uuid.UUID, statuses ...investment.Status) ([]*investment.Investment, error)
	ListActivities(ctx context.Context, filter investment.ActivityFilter) ([]*investment.Activity, error)
	OwnerSnapshots(ctx context.Context, owner uuid.UUID) ([]*investment.Snapshot, error)
	Now() time.Time
}

type Settings struct {
	RiskFreeRate  float64
	VaRConfidence float64
}

// DefaultSettings mirror the configuration defaults. A confidence outside (0, 1) falls back
// to DefaultVaRConfidence; the risk-free rate is used as given, zero included.
var DefaultSettings = Settings{RiskFreeRate: DefaultRiskFreeRate, VaRConfidence: DefaultVaRConfidence}

type Service struct {
	ledger   Ledger
	log      zerolog.Logger
	settings Settings
}

func NewService(ledger Ledger, log zerolog.Logger, settings Settings) *Service {
	if settings.VaRConfidence <= 0 || settings.VaRConfidence >= 1 {
		settings.VaRConfidence = DefaultSettings.VaRConfidence
	}

	return &Service{
		ledger:   ledger,
		log:      log.With().Str("service", "analytics").Logger(),
		settings: settings,
	}
}

func (s *Service) open(ctx context.Context, owner uuid.UUID) ([]*investment.Investment, error) {
	invs, err := s.ledger.ListByOwner(ctx, owner, investment.OpenStatuses...)
	if err != nil {
		return nil, fmt.Errorf("listing open investments: %w", err)
	}

	return invs, nil
}

// irrs computes the IRR of every investment that has one. Undefined results are skipped.
func (s *Service) irrs(ctx context.Context, owner uuid.UUID, invs []*investment.Investment) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64, len(invs))
	if len(invs) == 0 {
		return out, nil
	}

	activities, err := s.ledger.ListActivities(ctx, investment.ActivityFilter{OwnerID: &owner})
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	byInvestment := make(map[uuid.UUID][]*investment.Activity)
	for _, a := range activities {
		byInvestment[a.InvestmentID] = append(byInvestment[a.InvestmentID], a)
	}

	today := s.ledger.Now()

	for _, inv := range invs {
		pct, ok := investment.IRR(inv, byInvestment[inv.ID], today)
		if !ok {
			s.log.Debug().Stringer("investment_id", inv.ID).Msg("irr undefined, excluded from average")
			continue
		}

		out[inv.ID] = pct
	}

	return out, nil
}

func (s *Service) GetPortfolioMetrics(ctx context.Context, owner uuid.UUID) (PortfolioMetrics, error) {
	invs, err := s.open(ctx, owner)
	if err != nil {
		return PortfolioMetrics{}, err
	}

	irrs, err := s.irrs(ctx, owner, invs)
	if err != nil {
		return PortfolioMetrics{}, err
	}

	return Metrics(invs, irrs), nil
}

func (s *Service) GetSectorAllocation(ctx context.Context, owner uuid.UUID) ([]SectorShare, error) {
	invs, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}

	return SectorAllocation(invs), nil
}

func (s *Service) GetRiskMetrics(ctx context.Context, owner uuid.UUID) (*RiskMetrics, error) {
	invs, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}

	snaps, err := s.ledger.OwnerSnapshots(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	total, invested := totals(invs)

	return &RiskMetrics{
		Beta:          Beta(invs),
		SharpeRatio:   Sharpe(invs, s.settings.RiskFreeRate),
		MaxDrawdown:   MaxDrawdown(snaps),
		ValueAtRisk:   ValueAtRisk(invs, s.settings.VaRConfidence),
		Alpha:         Alpha(percentOf(total.Sub(invested), invested)),
		Concentration: Concentration(invs),
		Volatility:    Volatility(invs, snaps),
		StressTests:   StressTests(total),
	}, nil
}

func (s *Service) GetReturnAttribution(ctx context.Context, owner uuid.UUID) ([]SectorAttribution, error) {
	invs, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}

	return ReturnAttribution(invs), nil
}

func (s *Service) GetReturnsAnalysis(ctx context.Context, owner uuid.UUID) (ReturnsAnalysis, error) {
	invs, err := s.open(ctx, owner)
	if err != nil {
		return ReturnsAnalysis{}, err
	}

	realized, err := s.ledger.ListActivities(ctx, investment.ActivityFilter{OwnerID: &owner, Types: investment.RealizedTypes})
	if err != nil {
		return ReturnsAnalysis{}, fmt.Errorf("listing realized activities: %w", err)
	}

	return Returns(invs, realized), nil
}

type AllocationReport struct {
	Allocation      []AssetAllocation `json:"allocation"`
	Recommendations []Recommendation  `json:"recommendations"`
}

func (s *Service) GetAssetAllocation(ctx context.Context, owner uuid.UUID) (*AllocationReport, error) {
	invs, err := s.open(ctx, owner)
	if err != nil {
		return nil, err
	}

	allocation := Allocation(invs)

	return &AllocationReport{Allocation: allocation, Recommendations: Rebalancing(allocation)}, nil
}

func (s *Service) GetDistributionHistory(ctx context.Context, owner uuid.UUID) ([]Distribution, error) {
	invs, err := s.ledger.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing investments: %w", err)
	}

	names := make(map[uuid.UUID]string, len(invs))
	for _, inv := range invs {
		names[inv.ID] = inv.Name
	}

	activities, err := s.ledger.ListActivities(ctx, investment.ActivityFilter{OwnerID: &owner, Types: investment.RealizedTypes})
	if err != nil {
		return nil, fmt.Errorf("listing realized activities: %w", err)
	}

	return DistributionHistory(activities, names), nil
}
