package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/finbridge/backoffice/internal/model"
)

type stubTransactionStore struct {
	byID map[string]*model.Transaction
}

func newStubTransactionStore() *stubTransactionStore {
	return &stubTransactionStore{byID: make(map[string]*model.Transaction)}
}

func (s *stubTransactionStore) Create(_ context.Context, t *model.Transaction) error {
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	clone := *t
	s.byID[t.ID] = &clone
	return nil
}

func (s *stubTransactionStore) GetByID(_ context.Context, id string) (*model.Transaction, error) {
	t, ok := s.byID[id]
	if !ok || !t.Active() {
		return nil, model.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *stubTransactionStore) ListByBatch(_ context.Context, batchID string, _ model.Page) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for _, t := range s.byID {
		if t.BatchID == batchID && t.Active() {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *stubTransactionStore) ListByClient(_ context.Context, clientID string, _ model.Page) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for _, t := range s.byID {
		if t.ClientID == clientID && t.Active() {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *stubTransactionStore) ListByClientAndType(ctx context.Context, clientID string, typ model.TransactionType, page model.Page) ([]*model.Transaction, error) {
	all, err := s.ListByClient(ctx, clientID, page)
	if err != nil {
		return nil, err
	}
	var out []*model.Transaction
	for _, t := range all {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTransactionStore) Void(_ context.Context, id, actorID, reason string) error {
	t, ok := s.byID[id]
	if !ok {
		return model.ErrNotFound
	}
	if !t.Active() {
		return model.ErrInvalidTransition
	}
	now := time.Now()
	t.DeletedAt = &now
	t.DeletedBy = &actorID
	t.DeleteReason = &reason
	return nil
}

func agentActor() model.Identity {
	return model.Identity{ID: "agent-1", Email: "agent@example.com", Role: model.RoleAgent}
}

func seedTransaction(t *testing.T, svc *TransactionService, batchID, clientID string, typ model.TransactionType) *model.Transaction {
	t.Helper()
	tx, err := svc.Create(context.Background(), admin("admin-1"), CreateTransactionInput{
		BatchID:  batchID,
		ClientID: clientID,
		Type:     typ,
		Amount:   "125.50",
		Status:   model.StatusComplete,
	})
	require.NoError(t, err)
	return tx
}

func TestTransactionService_ListByBatchAdminOnly(t *testing.T) {
	store := newStubTransactionStore()
	svc := NewTransactionService(store, nil, zerolog.Nop())

	seedTransaction(t, svc, "batch-1", "client-1", model.TypeDeposit)
	seedTransaction(t, svc, "batch-1", "client-2", model.TypeWithdrawal)

	_, err := svc.ListByBatch(context.Background(), agentActor(), "batch-1", model.Page{})
	require.ErrorIs(t, err, model.ErrForbidden)

	txs, err := svc.ListByBatch(context.Background(), admin("admin-1"), "batch-1", model.Page{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
}

func TestTransactionService_ListByClientTypeFilter(t *testing.T) {
	store := newStubTransactionStore()
	svc := NewTransactionService(store, nil, zerolog.Nop())

	seedTransaction(t, svc, "batch-1", "client-1", model.TypeDeposit)
	seedTransaction(t, svc, "batch-2", "client-1", model.TypeWithdrawal)

	txs, err := svc.ListByClient(context.Background(), "client-1", "", model.Page{})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	txs, err = svc.ListByClient(context.Background(), "client-1", model.TypeWithdrawal, model.Page{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, model.TypeWithdrawal, txs[0].Type)
}

func TestTransactionService_VoidAdminOnlyAndOnce(t *testing.T) {
	store := newStubTransactionStore()
	svc := NewTransactionService(store, nil, zerolog.Nop())

	tx := seedTransaction(t, svc, "batch-1", "client-1", model.TypeDeposit)

	err := svc.Void(context.Background(), agentActor(), tx.ID, "fraud")
	require.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, svc.Void(context.Background(), admin("admin-1"), tx.ID, "fraud"))

	err = svc.Void(context.Background(), admin("admin-1"), tx.ID, "fraud")
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	// Voided rows disappear from reads.
	_, err = svc.Get(context.Background(), tx.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}
