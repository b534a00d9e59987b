package investment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotOpen is returned by the repository when a valuation targets an exited investment.
var ErrNotOpen = errors.New("investment is not open")

// Status represents the lifecycle state of an investment.
type Status string

const (
	StatusActive          Status = "ACTIVE"
	StatusUnderperforming Status = "UNDERPERFORMING"
	StatusExited          Status = "EXITED"
)

// Open reports whether the investment still holds value and counts towards the portfolio.
func (s Status) Open() bool {
	return s == StatusActive || s == StatusUnderperforming
}

// OpenStatuses are the statuses reporting reads consider.
var OpenStatuses = []Status{StatusActive, StatusUnderperforming}

type Sector string

const (
	SectorTechnology  Sector = "TECHNOLOGY"
	SectorHealthcare  Sector = "HEALTHCARE"
	SectorRealEstate  Sector = "REAL_ESTATE"
	SectorFintech     Sector = "FINTECH"
	SectorAgriculture Sector = "AGRICULTURE"
	SectorEnergy      Sector = "ENERGY"
	SectorConsumer    Sector = "CONSUMER"
	SectorIndustrial  Sector = "INDUSTRIAL"
	SectorOther       Sector = "OTHER"
)

var sectorLabels = map[Sector]string{
	SectorTechnology:  "Technology",
	SectorHealthcare:  "Healthcare",
	SectorRealEstate:  "Real Estate",
	SectorFintech:     "FinTech",
	SectorAgriculture: "Agriculture",
	SectorEnergy:      "Energy",
	SectorConsumer:    "Consumer",
	SectorIndustrial:  "Industrial",
	SectorOther:       "Other",
}

func (s Sector) Valid() bool {
	_, ok := sectorLabels[s]
	return ok
}

// Label is the display name of the sector.
func (s Sector) Label() string {
	if l, ok := sectorLabels[s]; ok {
		return l
	}

	return string(s)
}

// Investment is a position in a private fund held by exactly one investor.
type Investment struct {
	ID                   uuid.UUID
	OwnerID              uuid.UUID
	Name                 string
	Status               Status
	Sector               Sector
	TotalInvested        decimal.Decimal // cost basis
	CurrentValue         decimal.Decimal // mark
	FundSize             *decimal.Decimal
	UnfundedCommitment   decimal.Decimal
	Manager              string
	InvestmentDate       time.Time
	ExpectedHorizonYears *int
	FundVintage          *int
	ProgressPercentage   decimal.Decimal
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

var hundred = decimal.NewFromInt(100)

// UnrealizedGain is current value minus cost basis.
func (i *Investment) UnrealizedGain() decimal.Decimal {
	return i.CurrentValue.Sub(i.TotalInvested)
}

// UnrealizedGainPct is the gain as a percentage of cost basis, 0 without cost basis.
func (i *Investment) UnrealizedGainPct() decimal.Decimal {
	if !i.TotalInvested.IsPositive() {
		return decimal.Zero
	}

	return i.UnrealizedGain().Div(i.TotalInvested).Mul(hundred)
}

// MOIC is the multiple on invested capital, 0 without cost basis.
func (i *Investment) MOIC() decimal.Decimal {
	if !i.TotalInvested.IsPositive() {
		return decimal.Zero
	}

	return i.CurrentValue.Div(i.TotalInvested)
}

// CheckBalances verifies the balance invariants every persisted investment satisfies.
func (i *Investment) CheckBalances() error {
	if i.CurrentValue.IsNegative() {
		return fmt.Errorf("investment %s: current value %s is negative", i.ID, i.CurrentValue)
	}

	if i.TotalInvested.IsNegative() {
		return fmt.Errorf("investment %s: total invested %s is negative", i.ID, i.TotalInvested)
	}

	if i.Status == StatusExited && !(i.CurrentValue.IsZero() && i.TotalInvested.IsZero()) {
		return fmt.Errorf("investment %s: exited with non-zero balances", i.ID)
	}

	return nil
}

// Snapshot is the valuation of an investment on one day.
type Snapshot struct {
	ID           uuid.UUID
	InvestmentID uuid.UUID
	Date         time.Time
	Value        decimal.Decimal
	CreatedAt    time.Time
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
