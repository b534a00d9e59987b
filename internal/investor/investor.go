package investor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Investor is a registered platform user that can own investments.
type Investor struct {
	ID        uuid.UUID
	Email     string
	Name      string
	IsStaff   bool
	CreatedAt time.Time
}

type Repository interface {
	GetInvestor(ctx context.Context, id uuid.UUID) (*Investor, error)
	GetInvestorByEmail(ctx context.Context, email string) (*Investor, error)
	CreateInvestor(ctx context.Context, inv *Investor) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Investor, error) {
	return s.repo.GetInvestor(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*Investor, error) {
	return s.repo.GetInvestorByEmail(ctx, email)
}

func (s *Service) Create(ctx context.Context, email, name string, staff bool) (*Investor, error) {
	inv := &Investor{Email: email, Name: name, IsStaff: staff}
	if err := s.repo.CreateInvestor(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}
