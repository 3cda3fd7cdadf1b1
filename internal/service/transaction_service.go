package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finbridge/backoffice/internal/metrics"
	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/queue"
)

// TransactionStore is the slice of the transaction repository the service
// needs.
type TransactionStore interface {
	Create(ctx context.Context, t *model.Transaction) error
	GetByID(ctx context.Context, id string) (*model.Transaction, error)
	ListByBatch(ctx context.Context, batchID string, page model.Page) ([]*model.Transaction, error)
	ListByClient(ctx context.Context, clientID string, page model.Page) ([]*model.Transaction, error)
	ListByClientAndType(ctx context.Context, clientID string, typ model.TransactionType, page model.Page) ([]*model.Transaction, error)
	Void(ctx context.Context, id, actorID, reason string) error
}

type TransactionService struct {
	store TransactionStore
	audit AuditPublisher
	log   zerolog.Logger
}

func NewTransactionService(store TransactionStore, audit AuditPublisher, log zerolog.Logger) *TransactionService {
	return &TransactionService{store: store, audit: audit, log: log}
}

// CreateTransactionInput is the validated payload for a ledger row.
type CreateTransactionInput struct {
	BatchID  string
	ClientID string
	Type     model.TransactionType
	Amount   string
	Status   model.TransactionStatus
}

// Create appends a transaction to the ledger.
func (s *TransactionService) Create(ctx context.Context, actor model.Identity, in CreateTransactionInput) (*model.Transaction, error) {
	t := &model.Transaction{
		ID:       uuid.NewString(),
		BatchID:  in.BatchID,
		ClientID: in.ClientID,
		Type:     in.Type,
		Amount:   in.Amount,
		Status:   in.Status,
	}
	if err := s.store.Create(ctx, t); err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("transaction", "create").Inc()
		return nil, err
	}
	metrics.RecordOpsTotal.WithLabelValues("transaction", "create").Inc()
	s.log.Info().Str("transaction_id", t.ID).Str("batch_id", t.BatchID).Msg("transaction recorded")
	if s.audit != nil {
		ev := queue.NewAuditEvent("transaction", t.ID, queue.ActionCreated, actor.ID)
		if err := s.audit.Publish(ctx, ev); err != nil {
			s.log.Warn().Err(err).Str("record_id", t.ID).Msg("audit publish failed")
		}
	}
	return t, nil
}

// Get returns a single active transaction.
func (s *TransactionService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	return s.store.GetByID(ctx, id)
}

// ListByBatch is admin-only: batches span clients, so exposing them to
// agents would leak other clients' activity.
func (s *TransactionService) ListByBatch(ctx context.Context, actor model.Identity, batchID string, page model.Page) ([]*model.Transaction, error) {
	if actor.Role != model.RoleAdmin {
		return nil, model.ErrForbidden
	}
	return s.store.ListByBatch(ctx, batchID, page.Normalize())
}

// ListByClient returns a client's active transactions, optionally filtered
// by D/W type.
func (s *TransactionService) ListByClient(ctx context.Context, clientID string, typ model.TransactionType, page model.Page) ([]*model.Transaction, error) {
	page = page.Normalize()
	if typ != "" {
		return s.store.ListByClientAndType(ctx, clientID, typ, page)
	}
	return s.store.ListByClient(ctx, clientID, page)
}

// Void soft-deletes a transaction. Admin-only; voiding an already-voided
// row fails with ErrInvalidTransition.
func (s *TransactionService) Void(ctx context.Context, actor model.Identity, id, reason string) error {
	if actor.Role != model.RoleAdmin {
		return model.ErrForbidden
	}
	if reason == "" {
		reason = "no reason provided"
	}
	if err := s.store.Void(ctx, id, actor.ID, reason); err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("transaction", "void").Inc()
		return err
	}
	metrics.RecordOpsTotal.WithLabelValues("transaction", "void").Inc()
	s.log.Info().Str("transaction_id", id).Str("actor_id", actor.ID).Msg("transaction voided")
	if s.audit != nil {
		ev := queue.NewAuditEvent("transaction", id, queue.ActionVoided, actor.ID)
		if err := s.audit.Publish(ctx, ev); err != nil {
			s.log.Warn().Err(err).Str("record_id", id).Msg("audit publish failed")
		}
	}
	return nil
}
