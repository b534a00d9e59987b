// Package audit records the per-investor activity feed.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ActivityType string

const (
	TransferInitiated ActivityType = "TRANSFER_INITIATED"
	DocumentUploaded  ActivityType = "DOCUMENT_UPLOADED"
	PortfolioUpdate   ActivityType = "PORTFOLIO_UPDATE"
)

type Entry struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Type        ActivityType   `json:"activity_type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

//go:generate mockgen -source=audit.go -destination=repository_mock.go -package=audit
type Repository interface {
	CreateEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*Entry, error)
}

// Recorder appends entries to the feed. Recording never fails the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// DefaultListLimit caps feed reads when no limit is given.
const DefaultListLimit = 50

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "audit").Logger(),
	}
}

// Record persists e and logs, rather than returns, any failure.
func (s *Service) Record(ctx context.Context, e Entry) {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}

	if err := s.repo.CreateEntry(ctx, &e); err != nil {
		s.log.Error().Err(err).
			Stringer("user_id", e.UserID).
			Str("activity_type", string(e.Type)).
			Msg("failed to record activity")

		return
	}

	s.log.Info().Stringer("user_id", e.UserID).Str("activity_type", string(e.Type)).Msg("activity logged")
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	return s.repo.ListEntries(ctx, userID, limit)
}
