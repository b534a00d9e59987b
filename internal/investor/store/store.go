package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/database"
	"github.com/MrJamesThe3rd/privcap/internal/investor"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectInvestorColumns = `id, email, name, is_staff, created_at`

func (s *Store) GetInvestor(ctx context.Context, id uuid.UUID) (*investor.Investor, error) {
	query := `SELECT ` + selectInvestorColumns + ` FROM investors WHERE id = $1`

	return s.getOne(ctx, query, id)
}

func (s *Store) GetInvestorByEmail(ctx context.Context, email string) (*investor.Investor, error) {
	query := `SELECT ` + selectInvestorColumns + ` FROM investors WHERE lower(email) = lower($1)`

	return s.getOne(ctx, query, email)
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*investor.Investor, error) {
	var inv investor.Investor

	err := s.db.QueryRowContext(ctx, query, arg).Scan(&inv.ID, &inv.Email, &inv.Name, &inv.IsStaff, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("investor %v not found", arg)
		}

		return nil, fmt.Errorf("getting investor: %w", err)
	}

	return &inv, nil
}

func (s *Store) CreateInvestor(ctx context.Context, inv *investor.Investor) error {
	query := `
		INSERT INTO investors (email, name, is_staff)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	if err := s.db.QueryRowContext(ctx, query, inv.Email, inv.Name, inv.IsStaff).Scan(&inv.ID, &inv.CreatedAt); err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperr.Conflict("investor with email %s already exists", inv.Email)
		}

		return fmt.Errorf("creating investor: %w", err)
	}

	return nil
}
