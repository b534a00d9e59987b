package transfer

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/investor"
)

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=transfer
type Repository interface {
	CreateTransfer(ctx context.Context, t *Transfer) error
	GetTransfer(ctx context.Context, id uuid.UUID) (*Transfer, error)
	// UpdateDraft rewrites the terms of a transfer that is still a draft; ErrStale otherwise.
	UpdateDraft(ctx context.Context, t *Transfer) error
	// UpdateStatus persists t's status and dates only if the stored status is still from; ErrStale otherwise.
	UpdateStatus(ctx context.Context, t *Transfer, from Status) error
	ListTransfers(ctx context.Context, filter ListFilter) ([]*Transfer, error)
	HasOutstanding(ctx context.Context, investmentID, fromUserID uuid.UUID) (bool, error)

	CreateDocument(ctx context.Context, d *Document) error
	ListDocuments(ctx context.Context, transferID uuid.UUID) ([]*Document, error)
}

type ListFilter struct {
	// PartyID matches transfers sent or received by the investor.
	PartyID    *uuid.UUID
	FromUserID *uuid.UUID
	ToUserID   *uuid.UUID
	Statuses   []Status
	// Unsettled restricts to completed transfers whose settlement has not run.
	Unsettled bool
}

// Investments resolves the investment a transfer moves value out of.
type Investments interface {
	Get(ctx context.Context, id uuid.UUID) (*investment.Investment, error)
}

// Investors resolves registered recipients.
type Investors interface {
	Get(ctx context.Context, id uuid.UUID) (*investor.Investor, error)
}

// Settler moves value between the two portfolios of a completed transfer. It must be
// idempotent: settling an already processed transfer is a no-op.
type Settler interface {
	Settle(ctx context.Context, transferID uuid.UUID) error
}
