package investment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=investment
type Repository interface {
	CreateInvestment(ctx context.Context, inv *Investment) error
	GetInvestment(ctx context.Context, id uuid.UUID) (*Investment, error)
	// UpdateValuation sets the mark, and the status when given, of an open investment and
	// returns the stored row. Balances are left as stored. It returns ErrNotOpen when the
	// investment has exited.
	UpdateValuation(ctx context.Context, id uuid.UUID, value decimal.Decimal, status *Status) (*Investment, error)
	ListInvestments(ctx context.Context, filter ListFilter) ([]*Investment, error)

	CreateActivity(ctx context.Context, a *Activity) error
	ListActivities(ctx context.Context, filter ActivityFilter) ([]*Activity, error)

	// CreateSnapshot stores s unless the investment already has a snapshot for that date.
	CreateSnapshot(ctx context.Context, s *Snapshot) (bool, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]*Snapshot, error)

	BeginImport(ctx context.Context, investmentID uuid.UUID) (ImportTx, error)
}

// ImportTx is a unit of work serialised per investment.
type ImportTx interface {
	FindDuplicates(ctx context.Context, investmentID uuid.UUID, params []ActivityParams) ([]*Activity, error)
	CreateActivities(ctx context.Context, activities []*Activity) error
	Commit() error
	Rollback() error
}

type ListFilter struct {
	OwnerID  *uuid.UUID
	Statuses []Status
}

type ActivityFilter struct {
	InvestmentID *uuid.UUID
	OwnerID      *uuid.UUID
	Types        []ActivityType
}

type SnapshotFilter struct {
	InvestmentID *uuid.UUID
	OwnerID      *uuid.UUID
	Since        *time.Time
}
