package investment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

type investmentResponse struct {
	ID                   uuid.UUID         `json:"id"`
	OwnerID              uuid.UUID         `json:"owner_id"`
	Name                 string            `json:"name"`
	Status               investment.Status `json:"status"`
	Sector               investment.Sector `json:"sector"`
	TotalInvested        decimal.Decimal   `json:"total_invested"`
	CurrentValue         decimal.Decimal   `json:"current_value"`
	UnrealizedGain       decimal.Decimal   `json:"unrealized_gain"`
	UnrealizedGainPct    decimal.Decimal   `json:"unrealized_gain_percentage"`
	MOIC                 decimal.Decimal   `json:"moic"`
	FundSize             *decimal.Decimal  `json:"fund_size,omitempty"`
	UnfundedCommitment   decimal.Decimal   `json:"unfunded_commitment"`
	Manager              string            `json:"manager,omitempty"`
	InvestmentDate       time.Time         `json:"investment_date"`
	ExpectedHorizonYears *int              `json:"expected_horizon_years,omitempty"`
	FundVintage          *int              `json:"fund_vintage,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

type activityResponse struct {
	ID           uuid.UUID               `json:"id"`
	InvestmentID uuid.UUID               `json:"investment_id"`
	Type         investment.ActivityType `json:"activity_type"`
	Amount       decimal.Decimal         `json:"amount"`
	Date         time.Time               `json:"date"`
	Details      string                  `json:"details"`
}

type snapshotResponse struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// activityParamsDTO carries statement rows between the import preview and its confirmation.
type activityParamsDTO struct {
	Type    investment.ActivityType `json:"activity_type"`
	Amount  decimal.Decimal         `json:"amount"`
	Date    time.Time               `json:"date"`
	Details string                  `json:"details"`
}

type conflictDTO struct {
	Incoming activityParamsDTO `json:"incoming"`
	Existing activityResponse  `json:"existing"`
}

type importConflictResponse struct {
	New       []activityParamsDTO `json:"new"`
	Conflicts []conflictDTO       `json:"conflicts"`
}

type importSuccessResponse struct {
	Imported   int                `json:"imported"`
	Activities []activityResponse `json:"activities"`
}

func toResponse(inv *investment.Investment) investmentResponse {
	return investmentResponse{
		ID:                   inv.ID,
		OwnerID:              inv.OwnerID,
		Name:                 inv.Name,
		Status:               inv.Status,
		Sector:               inv.Sector,
		TotalInvested:        inv.TotalInvested,
		CurrentValue:         inv.CurrentValue,
		UnrealizedGain:       inv.UnrealizedGain(),
		UnrealizedGainPct:    inv.UnrealizedGainPct().Round(2),
		MOIC:                 inv.MOIC().Round(2),
		FundSize:             inv.FundSize,
		UnfundedCommitment:   inv.UnfundedCommitment,
		Manager:              inv.Manager,
		InvestmentDate:       inv.InvestmentDate,
		ExpectedHorizonYears: inv.ExpectedHorizonYears,
		FundVintage:          inv.FundVintage,
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
	}
}

func toActivityResponse(a *investment.Activity) activityResponse {
	return activityResponse{
		ID:           a.ID,
		InvestmentID: a.InvestmentID,
		Type:         a.Type,
		Amount:       a.Amount,
		Date:         a.Date,
		Details:      a.Details,
	}
}

func toActivityList(activities []*investment.Activity) []activityResponse {
	resp := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		resp = append(resp, toActivityResponse(a))
	}

	return resp
}

func toParamsDTO(p investment.ActivityParams) activityParamsDTO {
	return activityParamsDTO{Type: p.Type, Amount: p.Amount, Date: p.Date, Details: p.Details}
}

func (d activityParamsDTO) params() investment.ActivityParams {
	return investment.ActivityParams{Type: d.Type, Amount: d.Amount, Date: d.Date, Details: d.Details}
}
