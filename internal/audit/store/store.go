package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/audit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateEntry(ctx context.Context, e *audit.Entry) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encoding activity metadata: %w", err)
	}

	query := `
		INSERT INTO user_activities (user_id, activity_type, description, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query, e.UserID, e.Type, e.Description, metadata).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user activity: %w", err)
	}

	return nil
}

func (s *Store) ListEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*audit.Entry, error) {
	query := `
		SELECT id, user_id, activity_type, description, metadata, created_at
		FROM user_activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing user activities: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry

	for rows.Next() {
		var (
			e        audit.Entry
			metadata []byte
		)

		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Description, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user activity: %w", err)
		}

		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("decoding activity metadata: %w", err)
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
