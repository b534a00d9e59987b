package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/database"
	"github.com/MrJamesThe3rd/privcap/internal/investment/store"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

const outstandingIndex = "ownership_transfers_one_outstanding"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Columns is the column list Scan expects, aliased as t.
const Columns = `
	t.id, t.investment_id, t.from_user_id, t.to_user_id, t.to_email, t.to_name, t.transfer_type,
	t.percentage, t.transfer_amount, t.transfer_fee, t.net_amount, t.reason, t.status, t.is_processed,
	t.initiated_at, t.completion_date, t.estimated_completion_date, t.created_at, t.updated_at
`

// Scan reads a row selected with Columns.
func Scan(s store.Scanner) (*transfer.Transfer, error) {
	var t transfer.Transfer

	var typ, status string

	if err := s.Scan(
		&t.ID, &t.InvestmentID, &t.FromUserID, &t.ToUserID, &t.ToEmail, &t.ToName, &typ,
		&t.Percentage, &t.Amount, &t.Fee, &t.NetAmount, &t.Reason, &status, &t.IsProcessed,
		&t.InitiatedAt, &t.CompletedAt, &t.EstimatedCompletion, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Type = transfer.Type(typ)
	t.Status = transfer.Status(status)

	return &t, nil
}

func (s *Store) CreateTransfer(ctx context.Context, t *transfer.Transfer) error {
	t.ApplyFees()

	query := `
		INSERT INTO ownership_transfers (
			investment_id, from_user_id, to_user_id, to_email, to_name, transfer_type, percentage,
			transfer_amount, transfer_fee, net_amount, reason, status, initiated_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		t.InvestmentID,
		t.FromUserID,
		t.ToUserID,
		t.ToEmail,
		t.ToName,
		t.Type,
		t.Percentage,
		t.Amount,
		t.Fee,
		t.NetAmount,
		t.Reason,
		t.Status,
		t.InitiatedAt,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, outstandingIndex) {
			return apperr.Conflict("an outstanding transfer already exists for investment %s", t.InvestmentID)
		}

		return fmt.Errorf("creating transfer: %w", err)
	}

	return nil
}

func (s *Store) GetTransfer(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	query := `SELECT ` + Columns + ` FROM ownership_transfers t WHERE t.id = $1`

	t, err := Scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("transfer %s not found", id)
		}

		return nil, fmt.Errorf("getting transfer: %w", err)
	}

	return t, nil
}

func (s *Store) UpdateDraft(ctx context.Context, t *transfer.Transfer) error {
	t.ApplyFees()

	query := `
		UPDATE ownership_transfers
		SET to_user_id = $1, to_email = $2, to_name = $3, transfer_type = $4, percentage = $5,
			transfer_amount = $6, transfer_fee = $7, net_amount = $8, reason = $9, updated_at = NOW()
		WHERE id = $10 AND status = $11
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		t.ToUserID,
		t.ToEmail,
		t.ToName,
		t.Type,
		t.Percentage,
		t.Amount,
		t.Fee,
		t.NetAmount,
		t.Reason,
		t.ID,
		transfer.StatusDraft,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transfer.ErrStale
		}

		return fmt.Errorf("updating transfer draft: %w", err)
	}

	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, t *transfer.Transfer, from transfer.Status) error {
	query := `
		UPDATE ownership_transfers
		SET status = $1,
			completion_date = CASE WHEN $1 = 'COMPLETED' THEN COALESCE(completion_date, NOW()) ELSE completion_date END,
			estimated_completion_date = COALESCE($2, estimated_completion_date),
			updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING completion_date, estimated_completion_date, updated_at
	`

	err := s.db.QueryRowContext(ctx, query, t.Status, t.EstimatedCompletion, t.ID, from).
		Scan(&t.CompletedAt, &t.EstimatedCompletion, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transfer.ErrStale
		}

		return fmt.Errorf("updating transfer status: %w", err)
	}

	return nil
}

func (s *Store) ListTransfers(ctx context.Context, filter transfer.ListFilter) ([]*transfer.Transfer, error) {
	query := `SELECT ` + Columns + ` FROM ownership_transfers t WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.PartyID != nil {
		query += fmt.Sprintf(" AND (t.from_user_id = $%d OR t.to_user_id = $%d)", argIdx, argIdx)

		args = append(args, *filter.PartyID)
		argIdx++
	}

	if filter.FromUserID != nil {
		query += fmt.Sprintf(" AND t.from_user_id = $%d", argIdx)

		args = append(args, *filter.FromUserID)
		argIdx++
	}

	if filter.ToUserID != nil {
		query += fmt.Sprintf(" AND t.to_user_id = $%d", argIdx)

		args = append(args, *filter.ToUserID)
		argIdx++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}

		query += fmt.Sprintf(" AND t.status = ANY($%d)", argIdx)

		args = append(args, statuses)
	}

	if filter.Unsettled {
		query += " AND t.status = 'COMPLETED' AND NOT t.is_processed"
	}

	query += " ORDER BY t.initiated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*transfer.Transfer

	for rows.Next() {
		t, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}

		transfers = append(transfers, t)
	}

	return transfers, rows.Err()
}

func (s *Store) HasOutstanding(ctx context.Context, investmentID, fromUserID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ownership_transfers
			WHERE investment_id = $1 AND from_user_id = $2 AND status IN ('DRAFT', 'PENDING', 'APPROVED')
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, investmentID, fromUserID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking outstanding transfers: %w", err)
	}

	return exists, nil
}

func (s *Store) CreateDocument(ctx context.Context, d *transfer.Document) error {
	query := `
		INSERT INTO transfer_documents (transfer_id, document_type, file_ref)
		VALUES ($1, $2, $3)
		RETURNING id, uploaded_at
	`

	if err := s.db.QueryRowContext(ctx, query, d.TransferID, d.Type, d.FileRef).Scan(&d.ID, &d.UploadedAt); err != nil {
		return fmt.Errorf("creating transfer document: %w", err)
	}

	return nil
}

func (s *Store) ListDocuments(ctx context.Context, transferID uuid.UUID) ([]*transfer.Document, error) {
	query := `
		SELECT id, transfer_id, document_type, file_ref, uploaded_at
		FROM transfer_documents
		WHERE transfer_id = $1
		ORDER BY uploaded_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("listing transfer documents: %w", err)
	}
	defer rows.Close()

	var docs []*transfer.Document

	for rows.Next() {
		var (
			d   transfer.Document
			typ string
		)

		if err := rows.Scan(&d.ID, &d.TransferID, &typ, &d.FileRef, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning transfer document: %w", err)
		}

		d.Type = transfer.DocumentType(typ)
		docs = append(docs, &d)
	}

	return docs, rows.Err()
}
