// Package settlement moves value between the seller's and the buyer's investments once a
// transfer completes.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/audit"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	"github.com/MrJamesThe3rd/privcap/internal/money"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

// dust is the seller value below which a partial transfer is treated as a full exit.
var dust = decimal.RequireFromString("0.01")

type Repository interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one settlement unit. Nothing it writes is visible unless Commit succeeds.
type Tx interface {
	// LockTransfer loads the transfer and holds its row lock until the unit ends.
	LockTransfer(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error)
	LockInvestment(ctx context.Context, id uuid.UUID) (*investment.Investment, error)
	// FindOrCreateInvestment returns the investment of tmpl.OwnerID named tmpl.Name, locked,
	// inserting tmpl when there is none.
	FindOrCreateInvestment(ctx context.Context, tmpl *investment.Investment) (inv *investment.Investment, created bool, err error)
	UpdateBalances(ctx context.Context, inv *investment.Investment) error
	InsertActivity(ctx context.Context, a *investment.Activity) error
	InsertSnapshot(ctx context.Context, s *investment.Snapshot) error
	InvestorEmail(ctx context.Context, id uuid.UUID) (string, error)
	// MarkProcessed flips the idempotency flag and sets the completion date if unset.
	MarkProcessed(ctx context.Context, transferID uuid.UUID) error
	Commit() error
	Rollback() error
}

type Executor struct {
	repo  Repository
	audit audit.Recorder
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*Executor)

// WithClock overrides the executor clock.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(repo Repository, recorder audit.Recorder, log zerolog.Logger, opts ...Option) *Executor {
	e := &Executor{
		repo:  repo,
		audit: recorder,
		log:   log.With().Str("service", "settlement").Logger(),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Debit removes amount from the seller's position, moving a proportional share of its
// cost basis, and returns the cost basis moved. FULL transfers and transfers leaving less
// than a cent exit the position.
func Debit(seller *investment.Investment, amount decimal.Decimal, typ transfer.Type) (decimal.Decimal, error) {
	if amount.GreaterThan(seller.CurrentValue) {
		return decimal.Zero, apperr.Validation("transfer amount exceeds investment value", map[string]string{
			"transfer_amount": fmt.Sprintf("%s exceeds current value %s", money.Format(amount), money.Format(seller.CurrentValue)),
		})
	}

	ratio := decimal.Zero
	if seller.CurrentValue.IsPositive() {
		ratio = amount.Div(seller.CurrentValue)
	}

	moved := money.Round(seller.TotalInvested.Mul(ratio))

	seller.CurrentValue = seller.CurrentValue.Sub(amount)
	seller.TotalInvested = seller.TotalInvested.Sub(moved)

	if typ == transfer.TypeFull || seller.CurrentValue.LessThan(dust) {
		seller.Status = investment.StatusExited
		seller.CurrentValue = decimal.Zero
		seller.TotalInvested = decimal.Zero
	}

	return moved, nil
}

// Credit adds amount to the buyer's position at cost.
func Credit(buyer *investment.Investment, amount decimal.Decimal) {
	if buyer.Status == investment.StatusExited {
		buyer.Status = investment.StatusActive
	}

	buyer.TotalInvested = buyer.TotalInvested.Add(amount)
	buyer.CurrentValue = buyer.CurrentValue.Add(amount)
}

// buyerTemplate is the investment created for a recipient without a position of the same name.
func buyerTemplate(seller *investment.Investment, owner uuid.UUID, today time.Time) *investment.Investment {
	return &investment.Investment{
		OwnerID:        owner,
		Name:           seller.Name,
		Status:         investment.StatusActive,
		Sector:         seller.Sector,
		Manager:        seller.Manager,
		FundVintage:    seller.FundVintage,
		InvestmentDate: today,
	}
}

type outcome struct {
	transfer *transfer.Transfer
	seller   *investment.Investment
	buyer    *investment.Investment
}

// Settle applies a completed transfer to both portfolios in one unit. It is a no-op for
// transfers already processed and returns transfer.ErrExternalRecipient for recipients
// outside the platform.
func (e *Executor) Settle(ctx context.Context, transferID uuid.UUID) error {
	out, err := e.settle(ctx, transferID)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	e.log.Info().
		Stringer("transfer_id", transferID).
		Stringer("seller_investment_id", out.seller.ID).
		Stringer("buyer_investment_id", out.buyer.ID).
		Str("amount", out.transfer.Amount.StringFixed(2)).
		Msg("transfer settled")

	e.recordAudit(ctx, out)

	return nil
}

func (e *Executor) settle(ctx context.Context, transferID uuid.UUID) (*outcome, error) {
	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := tx.LockTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if t.Status != transfer.StatusCompleted {
		return nil, apperr.State("transfer %s is %s, only completed transfers settle", t.ID, t.Status)
	}

	if t.IsProcessed {
		e.log.Debug().Stringer("transfer_id", t.ID).Msg("transfer already settled")
		return nil, nil
	}

	if t.External() {
		e.log.Warn().Stringer("transfer_id", t.ID).Str("to_email", t.ToEmail).Msg("external recipient, settlement skipped")
		return nil, transfer.ErrExternalRecipient
	}

	seller, err := tx.LockInvestment(ctx, t.InvestmentID)
	if err != nil {
		return nil, err
	}

	amount := money.Round(t.Amount)

	if _, err := Debit(seller, amount, t.Type); err != nil {
		return nil, err
	}

	today := investment.Day(e.now())

	buyer, _, err := tx.FindOrCreateInvestment(ctx, buyerTemplate(seller, *t.ToUserID, today))
	if err != nil {
		return nil, err
	}

	Credit(buyer, amount)

	if err := tx.UpdateBalances(ctx, seller); err != nil {
		return nil, err
	}

	if err := tx.UpdateBalances(ctx, buyer); err != nil {
		return nil, err
	}

	sellerEmail, err := tx.InvestorEmail(ctx, t.FromUserID)
	if err != nil {
		return nil, err
	}

	buyerEmail, err := tx.InvestorEmail(ctx, *t.ToUserID)
	if err != nil {
		return nil, err
	}

	exitType := investment.ActivityDistribution
	if t.Type == transfer.TypePartial {
		exitType = investment.ActivityPartialExit
	}

	sellerActivity, err := investment.NewActivity(seller.ID, exitType, amount, today,
		fmt.Sprintf("Ownership transfer to %s (Transfer #%s)", buyerEmail, t.ID))
	if err != nil {
		return nil, err
	}

	buyerActivity, err := investment.NewActivity(buyer.ID, investment.ActivityInitialInvestment, amount, today,
		fmt.Sprintf("Ownership transfer from %s (Transfer #%s)", sellerEmail, t.ID))
	if err != nil {
		return nil, err
	}

	for _, a := range []*investment.Activity{sellerActivity, buyerActivity} {
		if err := tx.InsertActivity(ctx, a); err != nil {
			return nil, err
		}
	}

	for _, inv := range []*investment.Investment{seller, buyer} {
		if !inv.CurrentValue.IsPositive() {
			continue
		}

		if err := tx.InsertSnapshot(ctx, &investment.Snapshot{InvestmentID: inv.ID, Date: today, Value: inv.CurrentValue}); err != nil {
			return nil, err
		}
	}

	if err := tx.MarkProcessed(ctx, t.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing settlement: %w", err)
	}

	t.IsProcessed = true

	return &outcome{transfer: t, seller: seller, buyer: buyer}, nil
}

func (e *Executor) recordAudit(ctx context.Context, out *outcome) {
	t := out.transfer
	amount := money.Format(t.Amount)

	e.audit.Record(ctx, audit.Entry{
		UserID:      t.FromUserID,
		Type:        audit.PortfolioUpdate,
		Description: fmt.Sprintf("Transfer of %s completed", amount),
		Metadata:    map[string]any{"transfer_id": t.ID.String(), "type": "seller", "investment_id": out.seller.ID.String()},
	})

	e.audit.Record(ctx, audit.Entry{
		UserID:      *t.ToUserID,
		Type:        audit.PortfolioUpdate,
		Description: fmt.Sprintf("Received %s via transfer", amount),
		Metadata:    map[string]any{"transfer_id": t.ID.String(), "type": "buyer", "investment_id": out.buyer.ID.String()},
	})
}
