// Package transfer manages the lifecycle of ownership transfers between investors.
package transfer

import (
	"errors"
	"fmt"
	"maps"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/money"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
)

var (
	// OutstandingStatuses may hold at most one transfer per investment and sender.
	OutstandingStatuses = []Status{StatusDraft, StatusPending, StatusApproved}
	// InReviewStatuses are awaiting a reviewer decision or completion.
	InReviewStatuses = []Status{StatusPending, StatusApproved}
	// TerminalStatuses never change again.
	TerminalStatuses = []Status{StatusCompleted, StatusCancelled, StatusRejected}
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

type Type string

const (
	TypeFull    Type = "FULL"
	TypePartial Type = "PARTIAL"
)

// FeeRate is the share of the transfer amount charged as a fee.
var FeeRate = decimal.RequireFromString("0.025")

// EstimatedReviewPeriod is added to the submission time to estimate completion.
const EstimatedReviewPeriod = 10 * 24 * time.Hour

// ErrExternalRecipient is returned by settlement for transfers to unregistered recipients.
var ErrExternalRecipient = errors.New("transfer recipient is not a registered investor")

// ErrStale is returned by the repository when a conditional status update matched no row.
var ErrStale = errors.New("transfer was modified concurrently")

type Transfer struct {
	ID                  uuid.UUID
	InvestmentID        uuid.UUID
	FromUserID          uuid.UUID
	ToUserID            *uuid.UUID
	ToEmail             string
	ToName              string
	Type                Type
	Percentage          *decimal.Decimal
	Amount              decimal.Decimal
	Fee                 decimal.Decimal
	NetAmount           decimal.Decimal
	Reason              string
	Status              Status
	IsProcessed         bool
	InitiatedAt         time.Time
	CompletedAt         *time.Time
	EstimatedCompletion *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Fee is the transfer fee charged on amount.
func Fee(amount decimal.Decimal) decimal.Decimal {
	return money.Round(amount.Mul(FeeRate))
}

// ApplyFees recomputes the fee and net amount from the transfer amount.
// Stores call it before every write.
func (t *Transfer) ApplyFees() {
	t.Amount = money.Round(t.Amount)
	t.Fee = Fee(t.Amount)
	t.NetAmount = t.Amount.Sub(t.Fee)
}

// External reports whether the recipient is outside the platform.
func (t *Transfer) External() bool {
	return t.ToUserID == nil
}

// Involves reports whether id is the sender or the registered recipient.
func (t *Transfer) Involves(id uuid.UUID) bool {
	return t.FromUserID == id || (t.ToUserID != nil && *t.ToUserID == id)
}

// Settleable reports whether settlement still has to run for the transfer.
func (t *Transfer) Settleable() bool {
	return t.Status == StatusCompleted && !t.IsProcessed
}

// Terms are the fields a sender chooses and may revise while the transfer is a draft.
type Terms struct {
	ToUserID   *uuid.UUID       `json:"to_user_id"`
	ToEmail    string           `json:"to_email"`
	ToName     string           `json:"to_name"`
	Type       Type             `json:"transfer_type"`
	Percentage *decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal  `json:"transfer_amount"`
	Reason     string           `json:"reason"`
}

var maxPercentage = decimal.NewFromInt(100)

func (t Terms) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ToEmail,
			validation.When(t.ToUserID == nil, validation.Required.Error("either to_user_id or to_email must be provided")),
			is.EmailFormat,
		),
		validation.Field(&t.ToName, validation.Length(0, 255)),
		validation.Field(&t.Type, validation.Required, validation.In(TypeFull, TypePartial)),
		validation.Field(&t.Percentage,
			validation.When(t.Type == TypePartial, validation.Required.Error("percentage is required for partial transfers")),
			validation.When(t.Type == TypePartial, validation.By(percentage)),
		),
		validation.Field(&t.Amount, validation.By(positiveAmount)),
		validation.Field(&t.Reason, validation.Required.Error("a reason is required for compliance")),
	)
}

func percentage(v any) error {
	p, _ := v.(*decimal.Decimal)
	if p == nil {
		return nil
	}

	if !p.IsPositive() || p.GreaterThan(maxPercentage) {
		return fmt.Errorf("must be greater than 0 and at most 100")
	}

	return nil
}

func positiveAmount(v any) error {
	d, _ := v.(decimal.Decimal)
	if !money.Round(d).IsPositive() {
		return fmt.Errorf("transfer amount must be greater than zero")
	}

	return nil
}

// apply copies the terms onto t and recomputes the derived amounts.
func (t Terms) apply(tr *Transfer) {
	tr.ToUserID = t.ToUserID
	tr.ToEmail = t.ToEmail
	tr.ToName = t.ToName
	tr.Type = t.Type
	tr.Percentage = t.Percentage

	// A full transfer moves the whole position.
	if t.Type == TypeFull {
		tr.Percentage = nil
	}
	tr.Amount = t.Amount
	tr.Reason = t.Reason
	tr.ApplyFees()
}

type CreateParams struct {
	InvestmentID uuid.UUID `json:"investment_id"`
	Terms
}

// Validate reports the investment and terms errors in one flat field map.
func (p CreateParams) Validate() error {
	errs := validation.Errors{}
	if p.InvestmentID == uuid.Nil {
		errs["investment_id"] = errors.New("cannot be blank")
	}

	if err := p.Terms.Validate(); err != nil {
		var terms validation.Errors
		if !errors.As(err, &terms) {
			return err
		}

		maps.Copy(errs, terms)
	}

	return errs.Filter()
}

type DocumentType string

const (
	DocumentReceipt    DocumentType = "RECEIPT"
	DocumentAgreement  DocumentType = "AGREEMENT"
	DocumentCompliance DocumentType = "COMPLIANCE"
	DocumentOther      DocumentType = "OTHER"
)

// Document references a file stored outside the service.
type Document struct {
	ID         uuid.UUID
	TransferID uuid.UUID
	Type       DocumentType
	FileRef    string
	UploadedAt time.Time
}

type DocumentParams struct {
	Type    DocumentType `json:"document_type"`
	FileRef string       `json:"file_ref"`
}

func (p DocumentParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Type, validation.In(DocumentReceipt, DocumentAgreement, DocumentCompliance, DocumentOther)),
		validation.Field(&p.FileRef, validation.Required, validation.Length(1, 1024)),
	)
}
