package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
	"github.com/MrJamesThe3rd/privcap/internal/audit"
	"github.com/MrJamesThe3rd/privcap/internal/money"
)

type Service struct {
	repo        Repository
	investments Investments
	investors   Investors
	settler     Settler
	audit       audit.Recorder
	log         zerolog.Logger
	now         func() time.Time
}

type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	repo Repository,
	investments Investments,
	investors Investors,
	settler Settler,
	recorder audit.Recorder,
	log zerolog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repo:        repo,
		investments: investments,
		investors:   investors,
		settler:     settler,
		audit:       recorder,
		log:         log.With().Str("service", "transfer").Logger(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create opens a draft transfer out of an investment the actor owns.
func (s *Service) Create(ctx context.Context, actor Actor, params CreateParams) (*Transfer, error) {
	if err := params.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	inv, err := s.investments.Get(ctx, params.InvestmentID)
	if err != nil {
		return nil, err
	}

	if inv.OwnerID != actor.ID {
		return nil, apperr.Authorization("you do not own investment %s", inv.ID)
	}

	if !inv.Status.Open() {
		return nil, apperr.Field("investment_id", "cannot transfer inactive investments")
	}

	if err := s.checkRecipient(ctx, actor, params.Terms); err != nil {
		return nil, err
	}

	outstanding, err := s.repo.HasOutstanding(ctx, inv.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("checking outstanding transfers: %w", err)
	}

	if outstanding {
		return nil, apperr.Conflict("you already have a pending transfer for this investment; complete or cancel it before creating a new one")
	}

	t := &Transfer{
		InvestmentID: inv.ID,
		FromUserID:   actor.ID,
		Status:       StatusDraft,
		InitiatedAt:  s.now(),
	}
	params.Terms.apply(t)

	if err := s.repo.CreateTransfer(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info().
		Stringer("transfer_id", t.ID).
		Stringer("investment_id", inv.ID).
		Str("amount", t.Amount.StringFixed(2)).
		Msg("transfer created")

	s.audit.Record(ctx, audit.Entry{
		UserID:      actor.ID,
		Type:        audit.TransferInitiated,
		Description: fmt.Sprintf("Initiated transfer of %s from %s", money.Format(t.Amount), inv.Name),
		Metadata: map[string]any{
			"transfer_id":   t.ID.String(),
			"investment_id": inv.ID.String(),
			"amount":        t.Amount.StringFixed(2),
		},
	})

	return t, nil
}

func (s *Service) checkRecipient(ctx context.Context, actor Actor, terms Terms) error {
	if terms.ToUserID == nil {
		return nil
	}

	if *terms.ToUserID == actor.ID {
		return apperr.Field("to_user_id", "cannot transfer to yourself")
	}

	if _, err := s.investors.Get(ctx, *terms.ToUserID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Field("to_user_id", "recipient is not a registered investor")
		}

		return err
	}

	return nil
}

// UpdateDraft replaces the terms of a draft the actor sent.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, actor Actor, terms Terms) (*Transfer, error) {
	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.FromUserID != actor.ID {
		return nil, apperr.Authorization("you can only update your own transfers")
	}

	if t.Status != StatusDraft {
		return nil, apperr.State("only draft transfers can be updated")
	}

	if err := terms.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	if err := s.checkRecipient(ctx, actor, terms); err != nil {
		return nil, err
	}

	terms.apply(t)

	if err := s.repo.UpdateDraft(ctx, t); err != nil {
		if errors.Is(err, ErrStale) {
			return nil, apperr.State("transfer %s is no longer a draft", id)
		}

		return nil, err
	}

	s.log.Info().Stringer("transfer_id", t.ID).Msg("transfer updated")

	return t, nil
}

// Get returns a transfer visible to the actor: its sender, its recipient or a reviewer.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*Transfer, error) {
	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.Staff && !t.Involves(actor.ID) {
		return nil, apperr.Authorization("you are not a party to transfer %s", id)
	}

	return t, nil
}

// transition moves a transfer along action after the guard allows it. mutate may set
// the dates that accompany the new status.
func (s *Service) transition(ctx context.Context, id uuid.UUID, actor Actor, action Action, mutate func(*Transfer)) (*Transfer, error) {
	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	from := t.Status

	to, err := Guard(t, action, actor)
	if err != nil {
		return nil, err
	}

	t.Status = to
	if mutate != nil {
		mutate(t)
	}

	if err := s.repo.UpdateStatus(ctx, t, from); err != nil {
		if errors.Is(err, ErrStale) {
			return nil, apperr.State("transfer %s was modified concurrently", id)
		}

		return nil, err
	}

	s.log.Info().
		Stringer("transfer_id", t.ID).
		Stringer("actor_id", actor.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("transfer " + string(action))

	return t, nil
}

// Submit sends a draft for review.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, actor Actor) (*Transfer, error) {
	return s.transition(ctx, id, actor, ActionSubmit, func(t *Transfer) {
		eta := s.now().Add(EstimatedReviewPeriod)
		t.EstimatedCompletion = &eta
	})
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor Actor) (*Transfer, error) {
	return s.transition(ctx, id, actor, ActionApprove, nil)
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor Actor) (*Transfer, error) {
	return s.transition(ctx, id, actor, ActionReject, nil)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*Transfer, error) {
	return s.transition(ctx, id, actor, ActionCancel, nil)
}

// Complete finalises an approved transfer and settles it. Completing an already completed
// transfer only drives settlement again, which is a no-op once processed. Settlement
// failures are logged and leave the transfer completed but unprocessed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor Actor) (*Transfer, error) {
	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.Status == StatusCompleted && actor.Staff {
		return s.settle(ctx, t)
	}

	t, err = s.transition(ctx, id, actor, ActionComplete, nil)
	if err != nil {
		if !errors.Is(err, apperr.ErrState) {
			return nil, err
		}

		// A concurrent completion may have won the race.
		current, gerr := s.repo.GetTransfer(ctx, id)
		if gerr != nil || current.Status != StatusCompleted {
			return nil, err
		}

		t = current
	}

	return s.settle(ctx, t)
}

func (s *Service) settle(ctx context.Context, t *Transfer) (*Transfer, error) {
	if !t.Settleable() {
		return t, nil
	}

	if err := s.settler.Settle(ctx, t.ID); err != nil {
		ev := s.log.Error()
		if errors.Is(err, ErrExternalRecipient) {
			ev = s.log.Warn()
		}

		ev.Err(err).Stringer("transfer_id", t.ID).Msg("settlement did not run, transfer left unprocessed")

		return t, nil
	}

	return s.repo.GetTransfer(ctx, t.ID)
}

// RetrySettlement re-runs settlement of a completed, unprocessed transfer and reports
// its outcome. Processed transfers are returned unchanged.
func (s *Service) RetrySettlement(ctx context.Context, id uuid.UUID, actor Actor) (*Transfer, error) {
	if !actor.Staff {
		return nil, apperr.Authorization("only reviewers may retry settlement")
	}

	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.Status != StatusCompleted {
		return nil, apperr.State("only completed transfers can be settled, transfer is %s", t.Status)
	}

	if t.IsProcessed {
		return t, nil
	}

	if err := s.settler.Settle(ctx, id); err != nil {
		s.log.Error().Err(err).Stringer("transfer_id", id).Msg("settlement retry failed")

		if errors.Is(err, ErrExternalRecipient) {
			return nil, &apperr.Error{Kind: apperr.KindState, Message: "transfer cannot be settled", Err: err}
		}

		return nil, err
	}

	s.log.Info().Stringer("transfer_id", id).Stringer("actor_id", actor.ID).Msg("settlement retried")

	return s.repo.GetTransfer(ctx, id)
}

type Direction string

const (
	DirectionAny      Direction = ""
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// List returns the actor's transfers, optionally narrowed by status and direction.
func (s *Service) List(ctx context.Context, actor Actor, status *Status, direction Direction) ([]*Transfer, error) {
	filter := ListFilter{}

	switch direction {
	case DirectionOutgoing:
		filter.FromUserID = &actor.ID
	case DirectionIncoming:
		filter.ToUserID = &actor.ID
	case DirectionAny:
		filter.PartyID = &actor.ID
	default:
		return nil, apperr.Field("direction", "must be outgoing or incoming")
	}

	if status != nil {
		filter.Statuses = []Status{*status}
	}

	return s.repo.ListTransfers(ctx, filter)
}

// ListPending returns the actor's transfers awaiting review or completion.
func (s *Service) ListPending(ctx context.Context, actor Actor) ([]*Transfer, error) {
	return s.repo.ListTransfers(ctx, ListFilter{PartyID: &actor.ID, Statuses: InReviewStatuses})
}

// ListHistory returns the actor's finished transfers.
func (s *Service) ListHistory(ctx context.Context, actor Actor) ([]*Transfer, error) {
	return s.repo.ListTransfers(ctx, ListFilter{PartyID: &actor.ID, Statuses: TerminalStatuses})
}

// ListReviewQueue returns every transfer awaiting a reviewer.
func (s *Service) ListReviewQueue(ctx context.Context, actor Actor) ([]*Transfer, error) {
	if !actor.Staff {
		return nil, apperr.Authorization("only reviewers may list the review queue")
	}

	return s.repo.ListTransfers(ctx, ListFilter{Statuses: InReviewStatuses})
}

// ListUnsettled returns completed transfers whose settlement has not run.
func (s *Service) ListUnsettled(ctx context.Context, actor Actor) ([]*Transfer, error) {
	if !actor.Staff {
		return nil, apperr.Authorization("only reviewers may list unsettled transfers")
	}

	return s.repo.ListTransfers(ctx, ListFilter{Unsettled: true})
}

// AttachDocument records a document reference on a transfer the actor sent.
func (s *Service) AttachDocument(ctx context.Context, id uuid.UUID, actor Actor, params DocumentParams) (*Document, error) {
	if err := params.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	t, err := s.repo.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.FromUserID != actor.ID {
		return nil, apperr.Authorization("you can only attach documents to your own transfers")
	}

	if params.Type == "" {
		params.Type = DocumentOther
	}

	doc := &Document{TransferID: id, Type: params.Type, FileRef: params.FileRef}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:      actor.ID,
		Type:        audit.DocumentUploaded,
		Description: fmt.Sprintf("Attached %s document to transfer #%s", params.Type, id),
		Metadata:    map[string]any{"transfer_id": id.String(), "document_id": doc.ID.String()},
	})

	return doc, nil
}

func (s *Service) ListDocuments(ctx context.Context, id uuid.UUID, actor Actor) ([]*Document, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}

	return s.repo.ListDocuments(ctx, id)
}
