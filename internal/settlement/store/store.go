package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	investmentstore "github.com/MrJamesThe3rd/privcap/internal/investment/store"
	"github.com/MrJamesThe3rd/privcap/internal/settlement"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
	transferstore "github.com/MrJamesThe3rd/privcap/internal/transfer/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Begin(ctx context.Context) (settlement.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning settlement tx: %w", err)
	}

	return &settlementTx{tx: dbTx}, nil
}

type settlementTx struct {
	tx *sql.Tx
}

func (stx *settlementTx) Commit() error   { return stx.tx.Commit() }
func (stx *settlementTx) Rollback() error { return stx.tx.Rollback() }

func (stx *settlementTx) LockTransfer(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	query := `SELECT ` + transferstore.Columns + ` FROM ownership_transfers t WHERE t.id = $1 FOR UPDATE`

	t, err := transferstore.Scan(stx.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("transfer %s not found", id)
		}

		return nil, fmt.Errorf("locking transfer: %w", err)
	}

	return t, nil
}

func (stx *settlementTx) LockInvestment(ctx context.Context, id uuid.UUID) (*investment.Investment, error) {
	query := `SELECT ` + investmentstore.InvestmentColumns + ` FROM investments i WHERE i.id = $1 FOR UPDATE`

	inv, err := investmentstore.ScanInvestment(stx.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("investment %s not found", id)
		}

		return nil, fmt.Errorf("locking investment: %w", err)
	}

	return inv, nil
}

// positionLockKey serialises find-or-create of one owner's position by name.
func positionLockKey(owner uuid.UUID, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("investments"))
	h.Write([]byte{0})
	h.Write(owner[:])
	h.Write([]byte(name))

	return int64(h.Sum64())
}

func (stx *settlementTx) FindOrCreateInvestment(ctx context.Context, tmpl *investment.Investment) (*investment.Investment, bool, error) {
	if _, err := stx.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", positionLockKey(tmpl.OwnerID, tmpl.Name)); err != nil {
		return nil, false, fmt.Errorf("acquiring position lock: %w", err)
	}

	query := `SELECT ` + investmentstore.InvestmentColumns + `
		FROM investments i
		WHERE i.owner_id = $1 AND i.name = $2
		ORDER BY i.created_at ASC
		LIMIT 1
		FOR UPDATE`

	inv, err := investmentstore.ScanInvestment(stx.tx.QueryRowContext(ctx, query, tmpl.OwnerID, tmpl.Name))
	if err == nil {
		return inv, false, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("finding buyer investment: %w", err)
	}

	if err := investmentstore.InsertInvestment(ctx, stx.tx, tmpl); err != nil {
		return nil, false, err
	}

	return tmpl, true, nil
}

func (stx *settlementTx) UpdateBalances(ctx context.Context, inv *investment.Investment) error {
	return investmentstore.UpdateBalances(ctx, stx.tx, inv)
}

func (stx *settlementTx) InsertActivity(ctx context.Context, a *investment.Activity) error {
	return investmentstore.InsertActivity(ctx, stx.tx, a)
}

func (stx *settlementTx) InsertSnapshot(ctx context.Context, s *investment.Snapshot) error {
	_, err := investmentstore.InsertSnapshot(ctx, stx.tx, s)
	return err
}

func (stx *settlementTx) InvestorEmail(ctx context.Context, id uuid.UUID) (string, error) {
	var email string

	if err := stx.tx.QueryRowContext(ctx, `SELECT email FROM investors WHERE id = $1`, id).Scan(&email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("investor %s not found", id)
		}

		return "", fmt.Errorf("getting investor email: %w", err)
	}

	return email, nil
}

func (stx *settlementTx) MarkProcessed(ctx context.Context, transferID uuid.UUID) error {
	query := `
		UPDATE ownership_transfers
		SET is_processed = TRUE, completion_date = COALESCE(completion_date, NOW()), updated_at = NOW()
		WHERE id = $1 AND NOT is_processed
	`

	res, err := stx.tx.ExecContext(ctx, query, transferID)
	if err != nil {
		return fmt.Errorf("marking transfer processed: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("marking transfer processed: %w", transfer.ErrStale)
	}

	return nil
}
