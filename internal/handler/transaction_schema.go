package handler

import (
	"time"

	"github.com/finbridge/backoffice/internal/model"
)

type createTransactionRequest struct {
	BatchID  string `json:"batch_id" validate:"required,uuid"`
	ClientID string `json:"client_id" validate:"required,uuid"`
	Type     string `json:"type" validate:"required,oneof=D W"`
	Amount   string `json:"amount" validate:"required,numeric"`
	Status   string `json:"status" validate:"omitempty,oneof=Complete Pending Failed"`
}

type voidTransactionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type transactionResponse struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	ClientID  string    `json:"client_id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTransactionResponse(t *model.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		BatchID:   t.BatchID,
		ClientID:  t.ClientID,
		Type:      string(t.Type),
		Amount:    t.Amount,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func newTransactionListResponse(txs []*model.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionResponse(t))
	}
	return out
}
