package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/finbridge/backoffice/internal/model"
)

// UserRepo encapsulates queries against the 'users' table, the local
// mirror of the remote user directory. Users are not owner-scoped; access
// policy (root-only handling of admin rows) lives in the service layer.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, first_name, last_name, email, role, directory_sub, password_hash, created_at, updated_at, deleted_at, deleted_by, delete_reason"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u       model.User
		sub     sql.NullString
		hash    sql.NullString
		deleted sql.NullTime
		by      sql.NullString
		reason  sql.NullString
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role,
		&sub, &hash, &u.CreatedAt, &u.UpdatedAt, &deleted, &by, &reason); err != nil {
		return nil, err
	}
	u.DirectorySub = nullStr(sub)
	u.PasswordHash = nullStr(hash)
	u.DeletedAt = nullTime(deleted)
	u.DeletedBy = nullStr(by)
	u.DeleteReason = nullStr(reason)
	return &u, nil
}

// Create inserts a new user mirror row. A duplicate email surfaces as
// ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const qInsert = `INSERT INTO users (id, first_name, last_name, email, role, directory_sub)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	var sub any
	if u.DirectorySub != nil {
		sub = *u.DirectorySub
	}
	if _, err := r.db.ExecContext(ctx, qInsert, u.ID, u.FirstName, u.LastName, u.Email, u.Role, sub); err != nil {
		return storeErr(err)
	}
	created, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", u.ID))
	if err != nil {
		return storeErr(err)
	}
	*u = *created
	return nil
}

// Revive reactivates a soft-deleted row for the same email, refreshing the
// mutable fields. Used when the directory account is recreated for an
// email whose mirror row was previously deleted.
func (r *UserRepo) Revive(ctx context.Context, u *model.User) error {
	var sub any
	if u.DirectorySub != nil {
		sub = *u.DirectorySub
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET first_name = ?, last_name = ?, role = ?, directory_sub = ?,
		     deleted_at = NULL, deleted_by = NULL, delete_reason = NULL, updated_at = NOW(6)
		 WHERE email = ? AND deleted_at IS NOT NULL`,
		u.FirstName, u.LastName, u.Role, sub, u.Email)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	revived, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", u.Email))
	if err != nil {
		return storeErr(err)
	}
	*u = *revived
	return nil
}

// GetByID fetches an active user.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const q = "SELECT " + userColumns + " FROM users WHERE id = ? AND deleted_at IS NULL"
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// GetByEmail fetches a user regardless of lifecycle state. Policy checks
// on disable/reset need to see deleted rows too.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = "SELECT " + userColumns + " FROM users WHERE email = ?"
	u, err := scanUser(r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// List returns active users, newest first. Unless includeAdmins is set,
// only agent-role rows are returned; the service layer grants
// includeAdmins to the root identity only.
func (r *UserRepo) List(ctx context.Context, includeAdmins bool, page model.Page) ([]*model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE deleted_at IS NULL"
	args := []any{}
	if !includeAdmins {
		q += " AND role = ?"
		args = append(args, model.RoleAgent)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func lockUser(ctx context.Context, tx *sql.Tx, id string) (deleted bool, err error) {
	var deletedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT deleted_at FROM users WHERE id = ? FOR UPDATE", id).Scan(&deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, model.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return deletedAt.Valid, nil
}

// Update applies the assignment list to an active user and returns the
// updated row. Eligibility check and UPDATE share one transaction; a
// deleted target reads as ErrNotFound.
func (r *UserRepo) Update(ctx context.Context, id string, as Assignments) (*model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.ErrUnavailable
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := lockUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if deleted {
		return nil, model.ErrNotFound
	}

	clause, args := as.setClause()
	args = append(args, id)
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET "+clause+", updated_at = NOW(6) WHERE id = ? AND deleted_at IS NULL",
		args...)
	if err != nil {
		return nil, storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}

	u, err := scanUser(tx.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, storeErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// SoftDelete marks an active user deleted. An already-deleted target fails
// with ErrInvalidTransition.
func (r *UserRepo) SoftDelete(ctx context.Context, id, actorID, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ErrUnavailable
	}
	defer func() { _ = tx.Rollback() }()

	deleted, err := lockUser(ctx, tx, id)
	if err != nil {
		return err
	}
	if deleted {
		return model.ErrInvalidTransition
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users
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

// EnsureRootAdmin inserts the root admin mirror row if it does not exist
// yet. The bootstrap credential hash is stored so the auth service can
// verify the very first login before the directory is reachable.
func (r *UserRepo) EnsureRootAdmin(ctx context.Context, id, email, passwordHash string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var existing string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, first_name, last_name, email, role, password_hash)
		 VALUES (?, 'Root', 'Admin', ?, ?, ?)`,
		id, email, model.RoleAdmin, passwordHash)
	if isDuplicate(err) {
		// Another replica won the race; the row exists, which is all we need.
		return nil
	}
	return storeErr(err)
}
