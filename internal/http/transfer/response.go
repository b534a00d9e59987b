package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

type transferResponse struct {
	ID                  uuid.UUID        `json:"id"`
	InvestmentID        uuid.UUID        `json:"investment_id"`
	FromUserID          uuid.UUID        `json:"from_user_id"`
	ToUserID            *uuid.UUID       `json:"to_user_id,omitempty"`
	ToEmail             string           `json:"to_email,omitempty"`
	ToName              string           `json:"to_name,omitempty"`
	Type                transfer.Type    `json:"transfer_type"`
	Percentage          *decimal.Decimal `json:"percentage,omitempty"`
	Amount              decimal.Decimal  `json:"transfer_amount"`
	Fee                 decimal.Decimal  `json:"transfer_fee"`
	NetAmount           decimal.Decimal  `json:"net_amount"`
	Reason              string           `json:"reason"`
	Status              transfer.Status  `json:"status"`
	IsProcessed         bool             `json:"is_processed"`
	InitiatedAt         time.Time        `json:"initiated_date"`
	CompletedAt         *time.Time       `json:"completion_date,omitempty"`
	EstimatedCompletion *time.Time       `json:"estimated_completion_date,omitempty"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type documentResponse struct {
	ID         uuid.UUID             `json:"id"`
	TransferID uuid.UUID             `json:"transfer_id"`
	Type       transfer.DocumentType `json:"document_type"`
	FileRef    string                `json:"file_ref"`
	UploadedAt time.Time             `json:"uploaded_at"`
}

func toResponse(t *transfer.Transfer) transferResponse {
	return transferResponse{
		ID:                  t.ID,
		InvestmentID:        t.InvestmentID,
		FromUserID:          t.FromUserID,
		ToUserID:            t.ToUserID,
		ToEmail:             t.ToEmail,
		ToName:              t.ToName,
		Type:                t.Type,
		Percentage:          t.Percentage,
		Amount:              t.Amount,
		Fee:                 t.Fee,
		NetAmount:           t.NetAmount,
		Reason:              t.Reason,
		Status:              t.Status,
		IsProcessed:         t.IsProcessed,
		InitiatedAt:         t.InitiatedAt,
		CompletedAt:         t.CompletedAt,
		EstimatedCompletion: t.EstimatedCompletion,
		UpdatedAt:           t.UpdatedAt,
	}
}

func toResponseList(ts []*transfer.Transfer) []transferResponse {
	resp := make([]transferResponse, 0, len(ts))
	for _, t := range ts {
		resp = append(resp, toResponse(t))
	}

	return resp
}

func toDocumentResponse(d *transfer.Document) documentResponse {
	return documentResponse{
		ID:         d.ID,
		TransferID: d.TransferID,
		Type:       d.Type,
		FileRef:    d.FileRef,
		UploadedAt: d.UploadedAt,
	}
}
