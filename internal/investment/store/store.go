package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Scanner is satisfied by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// InvestmentColumns is the column list ScanInvestment expects, aliased as i.
const InvestmentColumns = `
	i.id, i.owner_id, i.name, i.status, i.sector, i.total_invested, i.current_value,
	i.fund_size, i.unfunded_commitment, i.manager, i.investment_date,
	i.expected_horizon_years, i.fund_vintage, i.progress_percentage, i.created_at, i.updated_at
`

// ScanInvestment reads a row selected with InvestmentColumns.
func ScanInvestment(s Scanner) (*investment.Investment, error) {
	var inv investment.Investment

	var status, sector string

	if err := s.Scan(
		&inv.ID, &inv.OwnerID, &inv.Name, &status, &sector, &inv.TotalInvested, &inv.CurrentValue,
		&inv.FundSize, &inv.UnfundedCommitment, &inv.Manager, &inv.InvestmentDate,
		&inv.ExpectedHorizonYears, &inv.FundVintage, &inv.ProgressPercentage, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}

	inv.Status = investment.Status(status)
	inv.Sector = investment.Sector(sector)

	return &inv, nil
}

// ActivityColumns is the column list ScanActivity expects, aliased as a.
const ActivityColumns = `a.id, a.investment_id, a.activity_type, a.amount, a.date, a.details, a.created_at`

func ScanActivity(s Scanner) (*investment.Activity, error) {
	var a investment.Activity

	var typ string

	if err := s.Scan(&a.ID, &a.InvestmentID, &typ, &a.Amount, &a.Date, &a.Details, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Type = investment.ActivityType(typ)

	return &a, nil
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertInvestment creates inv through db, filling its generated fields.
func InsertInvestment(ctx context.Context, db Execer, inv *investment.Investment) error {
	if err := inv.CheckBalances(); err != nil {
		return err
	}

	query := `
		INSERT INTO investments (
			owner_id, name, status, sector, total_invested, current_value, fund_size,
			unfunded_commitment, manager, investment_date, expected_horizon_years, fund_vintage,
			progress_percentage, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := db.QueryRowContext(ctx, query,
		inv.OwnerID,
		inv.Name,
		inv.Status,
		inv.Sector,
		inv.TotalInvested,
		inv.CurrentValue,
		inv.FundSize,
		inv.UnfundedCommitment,
		inv.Manager,
		inv.InvestmentDate,
		inv.ExpectedHorizonYears,
		inv.FundVintage,
		inv.ProgressPercentage,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating investment: %w", err)
	}

	return nil
}

// UpdateBalances persists the status and balances of inv through db.
func UpdateBalances(ctx context.Context, db Execer, inv *investment.Investment) error {
	if err := inv.CheckBalances(); err != nil {
		return err
	}

	query := `
		UPDATE investments
		SET status = $1, total_invested = $2, current_value = $3, updated_at = NOW()
		WHERE id = $4
	`

	res, err := db.ExecContext(ctx, query, inv.Status, inv.TotalInvested, inv.CurrentValue, inv.ID)
	if err != nil {
		return fmt.Errorf("updating investment balances: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("investment %s not found", inv.ID)
	}

	return nil
}

// InsertActivity appends a to the ledger through db.
func InsertActivity(ctx context.Context, db Execer, a *investment.Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO capital_activities (investment_id, activity_type, amount, date, details, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := db.QueryRowContext(ctx, query, a.InvestmentID, a.Type, a.Amount, a.Date, a.Details).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating capital activity: %w", err)
	}

	return nil
}

// InsertSnapshot stores s unless one exists for the same investment and date.
func InsertSnapshot(ctx context.Context, db Execer, s *investment.Snapshot) (bool, error) {
	query := `
		INSERT INTO performance_snapshots (investment_id, date, value, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (investment_id, date) DO NOTHING
		RETURNING id, created_at
	`

	err := db.QueryRowContext(ctx, query, s.InvestmentID, s.Date, s.Value).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("creating performance snapshot: %w", err)
	}

	return true, nil
}

func (s *Store) CreateInvestment(ctx context.Context, inv *investment.Investment) error {
	return InsertInvestment(ctx, s.db, inv)
}

func (s *Store) GetInvestment(ctx context.Context, id uuid.UUID) (*investment.Investment, error) {
	query := `SELECT ` + InvestmentColumns + ` FROM investments i WHERE i.id = $1`

	inv, err := ScanInvestment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("investment %s not found", id)
		}

		return nil, fmt.Errorf("getting investment: %w", err)
	}

	return inv, nil
}

func (s *Store) UpdateValuation(
	ctx context.Context, id uuid.UUID, value decimal.Decimal, status *investment.Status,
) (*investment.Investment, error) {
	var newStatus sql.NullString
	if status != nil {
		newStatus = sql.NullString{String: string(*status), Valid: true}
	}

	query := `
		UPDATE investments i
		SET current_value = $1, status = COALESCE($2, i.status), updated_at = NOW()
		WHERE i.id = $3 AND i.status IN ('ACTIVE', 'UNDERPERFORMING')
		RETURNING ` + InvestmentColumns

	inv, err := ScanInvestment(s.db.QueryRowContext(ctx, query, value, newStatus, id))
	if err == nil {
		return inv, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("updating investment valuation: %w", err)
	}

	if _, gerr := s.GetInvestment(ctx, id); gerr != nil {
		return nil, gerr
	}

	return nil, investment.ErrNotOpen
}

func (s *Store) ListInvestments(ctx context.Context, filter investment.ListFilter) ([]*investment.Investment, error) {
	query := `SELECT ` + InvestmentColumns + ` FROM investments i WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND i.owner_id = $%d", argIdx)

		args = append(args, *filter.OwnerID)
		argIdx++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}

		query += fmt.Sprintf(" AND i.status = ANY($%d)", argIdx)

		args = append(args, statuses)
	}

	query += " ORDER BY i.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing investments: %w", err)
	}
	defer rows.Close()

	var invs []*investment.Investment

	for rows.Next() {
		inv, err := ScanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning investment: %w", err)
		}

		invs = append(invs, inv)
	}

	return invs, rows.Err()
}

func (s *Store) CreateActivity(ctx context.Context, a *investment.Activity) error {
	return InsertActivity(ctx, s.db, a)
}

func (s *Store) ListActivities(ctx context.Context, filter investment.ActivityFilter) ([]*investment.Activity, error) {
	query := `SELECT ` + ActivityColumns + `
		FROM capital_activities a
		JOIN investments i ON i.id = a.investment_id
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.InvestmentID != nil {
		query += fmt.Sprintf(" AND a.investment_id = $%d", argIdx)

		args = append(args, *filter.InvestmentID)
		argIdx++
	}

	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND i.owner_id = $%d", argIdx)

		args = append(args, *filter.OwnerID)
		argIdx++
	}

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}

		query += fmt.Sprintf(" AND a.activity_type = ANY($%d)", argIdx)

		args = append(args, types)
	}

	query += " ORDER BY a.date ASC, a.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing capital activities: %w", err)
	}
	defer rows.Close()

	var activities []*investment.Activity

	for rows.Next() {
		a, err := ScanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning capital activity: %w", err)
		}

		activities = append(activities, a)
	}

	return activities, rows.Err()
}

func (s *Store) CreateSnapshot(ctx context.Context, snap *investment.Snapshot) (bool, error) {
	return InsertSnapshot(ctx, s.db, snap)
}

func (s *Store) ListSnapshots(ctx context.Context, filter investment.SnapshotFilter) ([]*investment.Snapshot, error) {
	query := `SELECT p.id, p.investment_id, p.date, p.value, p.created_at
		FROM performance_snapshots p
		JOIN investments i ON i.id = p.investment_id
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.InvestmentID != nil {
		query += fmt.Sprintf(" AND p.investment_id = $%d", argIdx)

		args = append(args, *filter.InvestmentID)
		argIdx++
	}

	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND i.owner_id = $%d", argIdx)

		args = append(args, *filter.OwnerID)
		argIdx++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND p.date >= $%d", argIdx)

		args = append(args, *filter.Since)
	}

	query += " ORDER BY p.date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing performance snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*investment.Snapshot

	for rows.Next() {
		var snap investment.Snapshot
		if err := rows.Scan(&snap.ID, &snap.InvestmentID, &snap.Date, &snap.Value, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning performance snapshot: %w", err)
		}

		snaps = append(snaps, &snap)
	}

	return snaps, rows.Err()
}

func importLockKey(investmentID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("capital_activities"))
	h.Write([]byte{0})
	h.Write(investmentID[:])

	return int64(h.Sum64())
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context, investmentID uuid.UUID) (investment.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", importLockKey(investmentID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, investmentID uuid.UUID, params []investment.ActivityParams) ([]*investment.Activity, error) {
	if len(params) == 0 {
		return nil, nil
	}

	minDate := params[0].Date
	maxDate := params[0].Date

	for _, p := range params[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	query := `SELECT ` + ActivityColumns + `
		FROM capital_activities a
		WHERE a.investment_id = $1 AND a.date >= $2 AND a.date <= $3
		ORDER BY a.date ASC`

	rows, err := itx.tx.QueryContext(ctx, query, investmentID, investment.Day(minDate), investment.Day(maxDate))
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var existing []*investment.Activity

	for rows.Next() {
		a, err := ScanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning capital activity: %w", err)
		}

		existing = append(existing, a)
	}

	return existing, rows.Err()
}

func (itx *importTx) CreateActivities(ctx context.Context, activities []*investment.Activity) error {
	for _, a := range activities {
		if err := InsertActivity(ctx, itx.tx, a); err != nil {
			return err
		}
	}

	return nil
}
