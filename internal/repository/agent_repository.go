package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/finbridge/backoffice/internal/model"
)

// AgentRepo encapsulates all queries against the 'agents' table. Every
// read and mutation is scoped by the owning admin in SQL, and active-state
// filtering happens in the query itself, never only in application code.
type AgentRepo struct {
	db *sql.DB
}

func NewAgentRepo(db *sql.DB) *AgentRepo { return &AgentRepo{db: db} }

const agentColumns = "id, admin_id, first_name, last_name, email, role, created_at, updated_at, deleted_at, deleted_by, delete_reason"

func scanAgent(row interface{ Scan(...any) error }) (*model.Agent, error) {
	var (
		a       model.Agent
		deleted sql.NullTime
		by      sql.NullString
		reason  sql.NullString
	)
	if err := row.Scan(&a.ID, &a.AdminID, &a.FirstName, &a.LastName, &a.Email, &a.Role,
		&a.CreatedAt, &a.UpdatedAt, &deleted, &by, &reason); err != nil {
		return nil, err
	}
	a.DeletedAt = nullTime(deleted)
	a.DeletedBy = nullStr(by)
	a.DeleteReason = nullStr(reason)
	return &a, nil
}

// Create inserts a new agent and populates the server-side timestamps via
// a follow-up SELECT. A duplicate email surfaces as ErrConflict.
func (r *AgentRepo) Create(ctx context.Context, a *model.Agent) error {
	const qInsert = `INSERT INTO agents (id, admin_id, first_name, last_name, email, role)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, qInsert, a.ID, a.AdminID, a.FirstName, a.LastName, a.Email, a.Role); err != nil {
		return storeErr(err)
	}
	const qSelect = "SELECT " + agentColumns + " FROM agents WHERE id = ?"
	created, err := scanAgent(r.db.QueryRowContext(ctx, qSelect, a.ID))
	if err != nil {
		return storeErr(err)
	}
	*a = *created
	return nil
}

// GetByIDAndOwner fetches an active agent owned by adminID. A missing,
// deleted, or foreign-owned row all return ErrNotFound.
func (r *AgentRepo) GetByIDAndOwner(ctx context.Context, id, adminID string) (*model.Agent, error) {
	const q = "SELECT " + agentColumns + ` FROM agents
	           WHERE id = ? AND admin_id = ? AND deleted_at IS NULL`
	a, err := scanAgent(r.db.QueryRowContext(ctx, q, id, adminID))
	if err != nil {
		return nil, storeErr(err)
	}
	return a, nil
}

// ListByOwner returns the admin's active agents, newest first. The id
// tiebreak keeps page boundaries deterministic for equal timestamps.
func (r *AgentRepo) ListByOwner(ctx context.Context, adminID string, page model.Page) ([]*model.Agent, error) {
	const q = "SELECT " + agentColumns + ` FROM agents
	           WHERE admin_id = ? AND deleted_at IS NULL
	           ORDER BY created_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, adminID, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []*model.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// lockAgent re-checks existence, ownership and active state inside the
// caller's transaction, taking a row lock so a concurrent delete cannot
// slip between the check and the mutation.
func lockAgent(ctx context.Context, tx *sql.Tx, id, adminID string) (deleted bool, err error) {
	var deletedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT deleted_at FROM agents WHERE id = ? AND admin_id = ? FOR UPDATE",
		id, adminID).Scan(&deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, model.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return deletedAt.Valid, nil
}

// Update applies the assignment list to an active owned agent and returns
// the updated row. The eligibility check and the UPDATE share one
// transaction. A deleted target reads as ErrNotFound.
func (r *AgentRepo) Update(ctx context.Context, id, adminID string, as Assignments) (*model.Agent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.ErrUnavailable
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := lockAgent(ctx, tx, id, adminID)
	if err != nil {
		return nil, err
	}
	if deleted {
		return nil, model.ErrNotFound
	}

	clause, args := as.setClause()
	args = append(args, id, adminID)
	res, err := tx.ExecContext(ctx,
		"UPDATE agents SET "+clause+", updated_at = NOW(6) WHERE id = ? AND admin_id = ? AND deleted_at IS NULL",
		args...)
	if err != nil {
		return nil, storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}

	a, err := scanAgent(tx.QueryRowContext(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = ?", id))
	if err != nil {
		return nil, storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	return a, nil
}

// SoftDelete marks an active owned agent deleted, recording who deleted it
// and why. Deleting an already-deleted agent fails with
// ErrInvalidTransition rather than succeeding silently: it signals a
// stale-state race the caller should see.
func (r *AgentRepo) SoftDelete(ctx context.Context, id, adminID, actorID, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ErrUnavailable
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := lockAgent(ctx, tx, id, adminID)
	if err != nil {
		return err
	}
	if deleted {
		return model.ErrInvalidTransition
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE agents
		 SET deleted_at = NOW(6), deleted_by = ?, delete_reason = ?, updated_at = NOW(6)
		 WHERE id = ? AND admin_id = ? AND deleted_at IS NULL`,
		actorID, reason, id, adminID)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return storeErr(tx.Commit())
}

// HardDelete removes the row entirely. It is allowed from either lifecycle
// state, but deleting zero rows is reported as ErrNotFound, never a silent
// no-op.
func (r *AgentRepo) HardDelete(ctx context.Context, id, adminID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM agents WHERE id = ? AND admin_id = ?", id, adminID)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}
