package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/finbridge/backoffice/internal/model"
)

// TransactionRepo encapsulates queries against the 'transactions' table.
// Transactions are written by the payment pipeline and read by batch or
// client; the only mutation is an admin-gated void (soft delete).
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txColumns = "id, batch_id, client_id, type, amount, status, created_at, updated_at, deleted_at, deleted_by, delete_reason"

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var (
		t       model.Transaction
		deleted sql.NullTime
		by      sql.NullString
		reason  sql.NullString
	)
	if err := row.Scan(&t.ID, &t.BatchID, &t.ClientID, &t.Type, &t.Amount, &t.Status,
		&t.CreatedAt, &t.UpdatedAt, &deleted, &by, &reason); err != nil {
		return nil, err
	}
	t.DeletedAt = nullTime(deleted)
	t.DeletedBy = nullStr(by)
	t.DeleteReason = nullStr(reason)
	return &t, nil
}

// Create inserts a ledger row and populates server-side timestamps.
func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	const qInsert = `INSERT INTO transactions (id, batch_id, client_id, type, amount, status)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, qInsert, t.ID, t.BatchID, t.ClientID, t.Type, t.Amount, t.Status); err != nil {
		return storeErr(err)
	}
	const qSelect = "SELECT " + txColumns + " FROM transactions WHERE id = ?"
	created, err := scanTransaction(r.db.QueryRowContext(ctx, qSelect, t.ID))
	if err != nil {
		return storeErr(err)
	}
	*t = *created
	return nil
}

// GetByID fetches an active transaction.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	const q = "SELECT " + txColumns + " FROM transactions WHERE id = ? AND deleted_at IS NULL"
	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, storeErr(err)
	}
	return t, nil
}

func (r *TransactionRepo) list(ctx context.Context, q string, args ...any) ([]*model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByBatch returns the batch's active transactions, newest first.
func (r *TransactionRepo) ListByBatch(ctx context.Context, batchID string, page model.Page) ([]*model.Transaction, error) {
	const q = "SELECT " + txColumns + ` FROM transactions
	           WHERE batch_id = ? AND deleted_at IS NULL
	           ORDER BY created_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	return r.list(ctx, q, batchID, page.Limit, page.Offset)
}

// ListByClient returns the client's active transactions, newest first.
func (r *TransactionRepo) ListByClient(ctx context.Context, clientID string, page model.Page) ([]*model.Transaction, error) {
	const q = "SELECT " + txColumns + ` FROM transactions
	           WHERE client_id = ? AND deleted_at IS NULL
	           ORDER BY created_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	return r.list(ctx, q, clientID, page.Limit, page.Offset)
}

// ListByClientAndType filters a client's active transactions by D/W type.
func (r *TransactionRepo) ListByClientAndType(ctx context.Context, clientID string, typ model.TransactionType, page model.Page) ([]*model.Transaction, error) {
	const q = "SELECT " + txColumns + ` FROM transactions
	           WHERE client_id = ? AND type = ? AND deleted_at IS NULL
	           ORDER BY created_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	return r.list(ctx, q, clientID, typ, page.Limit, page.Offset)
}

// Void soft-deletes a transaction, recording the acting admin and reason.
// Voiding an already-voided row fails with ErrInvalidTransition. Check and
// mutation share one transaction.
func (r *TransactionRepo) Void(ctx context.Context, id, actorID, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ErrUnavailable
	}
	defer func() { _ = tx.Rollback() }()

	var deletedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT deleted_at FROM transactions WHERE id = ? FOR UPDATE", id).Scan(&deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	if deletedAt.Valid {
		return model.ErrInvalidTransition
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		 SET deleted_at = NOW(6), deleted_by = ?, delete_reason = ?, updated_at = NOW(6)
		 WHERE id = ? AND deleted_at IS NULL`,
		actorID, reason, id)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return storeErr(tx.Commit())
}
