package investment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ActivityType string

const (
	ActivityInitialInvestment ActivityType = "INITIAL_INVESTMENT"
	ActivityCapitalCall       ActivityType = "CAPITAL_CALL"
	ActivityDistribution      ActivityType = "DISTRIBUTION"
	ActivityPartialExit       ActivityType = "PARTIAL_EXIT"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityInitialInvestment, ActivityCapitalCall, ActivityDistribution, ActivityPartialExit:
		return true
	}

	return false
}

// Outflow reports whether the activity moves cash from the investor into the fund.
func (t ActivityType) Outflow() bool {
	return t == ActivityInitialInvestment || t == ActivityCapitalCall
}

// RealizedTypes are the activities that return cash to the investor.
var RealizedTypes = []ActivityType{ActivityDistribution, ActivityPartialExit}

// Activity is an append-only capital ledger row. Outflows are negative, inflows positive.
type Activity struct {
	ID           uuid.UUID
	InvestmentID uuid.UUID
	Type         ActivityType
	Amount       decimal.Decimal
	Date         time.Time
	Details      string
	CreatedAt    time.Time
}

// SignedAmount applies the sign implied by the activity type to the magnitude of amount.
func SignedAmount(t ActivityType, amount decimal.Decimal) decimal.Decimal {
	if t.Outflow() {
		return amount.Abs().Neg()
	}

	return amount.Abs()
}

// NewActivity builds a ledger row, normalising the amount sign from the type.
func NewActivity(investmentID uuid.UUID, t ActivityType, amount decimal.Decimal, date time.Time, details string) (*Activity, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown activity type %q", t)
	}

	amount = SignedAmount(t, amount).Round(2)
	if amount.IsZero() {
		return nil, fmt.Errorf("activity amount must not round to zero")
	}

	return &Activity{
		InvestmentID: investmentID,
		Type:         t,
		Amount:       amount,
		Date:         Day(date),
		Details:      details,
	}, nil
}

// Validate checks that the stored sign matches the activity class.
func (a *Activity) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("unknown activity type %q", a.Type)
	}

	if a.Type.Outflow() && !a.Amount.IsNegative() {
		return fmt.Errorf("%s amount must be negative, got %s", a.Type, a.Amount)
	}

	if !a.Type.Outflow() && !a.Amount.IsPositive() {
		return fmt.Errorf("%s amount must be positive, got %s", a.Type, a.Amount)
	}

	return nil
}
