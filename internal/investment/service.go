package investment

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
)

// DefaultHistoryDays is the performance history window when none is given.
const DefaultHistoryDays = 365

type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  log.With().Str("service", "investment").Logger(),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	OwnerID              uuid.UUID        `json:"owner_id"`
	Name                 string           `json:"name"`
	Sector               Sector           `json:"sector"`
	TotalInvested        decimal.Decimal  `json:"total_invested"`
	CurrentValue         decimal.Decimal  `json:"current_value"`
	FundSize             *decimal.Decimal `json:"fund_size"`
	UnfundedCommitment   decimal.Decimal  `json:"unfunded_commitment"`
	Manager              string           `json:"manager"`
	InvestmentDate       time.Time        `json:"investment_date"`
	ExpectedHorizonYears *int             `json:"expected_horizon_years"`
	FundVintage          *int             `json:"fund_vintage"`
}

func (p CreateParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.OwnerID, validation.By(requiredID)),
		validation.Field(&p.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&p.Sector, validation.Required, validation.By(func(any) error {
			if !p.Sector.Valid() {
				return fmt.Errorf("unknown sector %q", p.Sector)
			}

			return nil
		})),
		validation.Field(&p.TotalInvested, validation.By(positive)),
		validation.Field(&p.CurrentValue, validation.By(nonNegative)),
		validation.Field(&p.UnfundedCommitment, validation.By(nonNegative)),
		validation.Field(&p.InvestmentDate, validation.Required),
		validation.Field(&p.ExpectedHorizonYears, validation.NilOrNotEmpty, validation.Min(1), validation.Max(50)),
	)
}

func requiredID(v any) error {
	if id, _ := v.(uuid.UUID); id == uuid.Nil {
		return fmt.Errorf("cannot be blank")
	}

	return nil
}

func positive(v any) error {
	d, _ := v.(decimal.Decimal)
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than zero")
	}

	return nil
}

func nonNegative(v any) error {
	d, _ := v.(decimal.Decimal)
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Investment, error) {
	if err := params.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	inv := &Investment{
		OwnerID:              params.OwnerID,
		Name:                 params.Name,
		Status:               StatusActive,
		Sector:               params.Sector,
		TotalInvested:        params.TotalInvested.Round(2),
		CurrentValue:         params.CurrentValue.Round(2),
		FundSize:             params.FundSize,
		UnfundedCommitment:   params.UnfundedCommitment.Round(2),
		Manager:              params.Manager,
		InvestmentDate:       Day(params.InvestmentDate),
		ExpectedHorizonYears: params.ExpectedHorizonYears,
		FundVintage:          params.FundVintage,
	}
	if err := s.repo.CreateInvestment(ctx, inv); err != nil {
		return nil, err
	}

	s.captureSnapshot(ctx, inv)

	return inv, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Investment, error) {
	return s.repo.GetInvestment(ctx, id)
}

// GetOwned returns the investment only when owner holds it.
func (s *Service) GetOwned(ctx context.Context, id, owner uuid.UUID) (*Investment, error) {
	inv, err := s.repo.GetInvestment(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.OwnerID != owner {
		return nil, apperr.Authorization("investment %s is not owned by the caller", id)
	}

	return inv, nil
}

// ListByOwner lists an investor's investments, optionally restricted to statuses.
func (s *Service) ListByOwner(ctx context.Context, owner uuid.UUID, statuses ...Status) ([]*Investment, error) {
	return s.repo.ListInvestments(ctx, ListFilter{OwnerID: &owner, Statuses: statuses})
}

// Revalue updates the mark of an open investment and records today's snapshot.
func (s *Service) Revalue(ctx context.Context, id, owner uuid.UUID, value decimal.Decimal, status *Status) (*Investment, error) {
	if value.IsNegative() {
		return nil, apperr.Field("current_value", "must not be negative")
	}

	if status != nil && !status.Open() {
		return nil, apperr.Field("status", "must be ACTIVE or UNDERPERFORMING")
	}

	inv, err := s.GetOwned(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	if !inv.Status.Open() {
		return nil, apperr.State("investment %s is %s and cannot be revalued", id, inv.Status)
	}

	// A settlement may exit the investment after the read above; the guarded write reports it.
	updated, err := s.repo.UpdateValuation(ctx, id, value.Round(2), status)
	if err != nil {
		if errors.Is(err, ErrNotOpen) {
			return nil, apperr.State("investment %s is no longer open and cannot be revalued", id)
		}

		return nil, err
	}

	s.captureSnapshot(ctx, updated)

	return updated, nil
}

// captureSnapshot records today's valuation once per day. Failures do not undo the caller's write.
func (s *Service) captureSnapshot(ctx context.Context, inv *Investment) {
	if !inv.CurrentValue.IsPositive() {
		return
	}

	snap := &Snapshot{InvestmentID: inv.ID, Date: Day(s.now()), Value: inv.CurrentValue}

	created, err := s.repo.CreateSnapshot(ctx, snap)
	if err != nil {
		s.log.Warn().Err(err).Stringer("investment_id", inv.ID).Msg("failed to capture performance snapshot")
		return
	}

	if created {
		s.log.Debug().Stringer("investment_id", inv.ID).Str("value", inv.CurrentValue.StringFixed(2)).Msg("performance snapshot captured")
	}
}

type ActivityParams struct {
	Type    ActivityType
	Amount  decimal.Decimal
	Date    time.Time
	Details string
}

// RecordActivity appends a capital activity to an investment the owner holds.
func (s *Service) RecordActivity(ctx context.Context, id, owner uuid.UUID, params ActivityParams) (*Activity, error) {
	if _, err := s.GetOwned(ctx, id, owner); err != nil {
		return nil, err
	}

	a, err := NewActivity(id, params.Type, params.Amount, params.Date, params.Details)
	if err != nil {
		return nil, apperr.Field("activity", err.Error())
	}

	if err := s.repo.CreateActivity(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) ListActivities(ctx context.Context, filter ActivityFilter) ([]*Activity, error) {
	return s.repo.ListActivities(ctx, filter)
}

// InvestmentActivities lists the ledger of an investment the owner holds.
func (s *Service) InvestmentActivities(ctx context.Context, id, owner uuid.UUID) ([]*Activity, error) {
	if _, err := s.GetOwned(ctx, id, owner); err != nil {
		return nil, err
	}

	return s.repo.ListActivities(ctx, ActivityFilter{InvestmentID: &id})
}

// PerformanceHistory returns the snapshots of the last days days, oldest first.
func (s *Service) PerformanceHistory(ctx context.Context, id, owner uuid.UUID, days int) ([]*Snapshot, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	if _, err := s.GetOwned(ctx, id, owner); err != nil {
		return nil, err
	}

	since := Day(s.now()).AddDate(0, 0, -days)

	return s.repo.ListSnapshots(ctx, SnapshotFilter{InvestmentID: &id, Since: &since})
}

// OwnerSnapshots returns every snapshot across the investor's investments.
func (s *Service) OwnerSnapshots(ctx context.Context, owner uuid.UUID) ([]*Snapshot, error) {
	return s.repo.ListSnapshots(ctx, SnapshotFilter{OwnerID: &owner})
}

// CalculateIRR returns the annualized IRR percentage of an investment; ok is false when undefined.
func (s *Service) CalculateIRR(ctx context.Context, id uuid.UUID) (pct float64, ok bool, err error) {
	inv, err := s.repo.GetInvestment(ctx, id)
	if err != nil {
		return 0, false, err
	}

	activities, err := s.repo.ListActivities(ctx, ActivityFilter{InvestmentID: &id})
	if err != nil {
		return 0, false, err
	}

	pct, ok = IRR(inv, activities, s.now())

	return pct, ok, nil
}

// Now exposes the service clock to reporting callers.
func (s *Service) Now() time.Time {
	return s.now()
}
