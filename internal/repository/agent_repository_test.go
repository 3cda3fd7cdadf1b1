package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/finbridge/backoffice/internal/model"
)

func newMockAgentRepo(t *testing.T) (*AgentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewAgentRepo(db), mock
}

func agentRows(t *testing.T, agents ...*model.Agent) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "admin_id", "first_name", "last_name", "email", "role",
		"created_at", "updated_at", "deleted_at", "deleted_by", "delete_reason",
	})
	for _, a := range agents {
		rows.AddRow(a.ID, a.AdminID, a.FirstName, a.LastName, a.Email, a.Role,
			a.CreatedAt, a.UpdatedAt, nil, nil, nil)
	}
	return rows
}

func TestAgentRepo_CreateDuplicateEmail(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	mock.ExpectExec("INSERT INTO agents").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.Agent{
		ID: "agent-1", AdminID: "admin-1", FirstName: "Ana", LastName: "Silva",
		Email: "ana@example.com", Role: model.RoleAgent,
	})
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAgentRepo_GetByIDAndOwnerMissing(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	mock.ExpectQuery("SELECT .+ FROM agents").
		WithArgs("agent-1", "admin-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIDAndOwner(context.Background(), "agent-1", "admin-2")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAgentRepo_ListByOwnerOrdering(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	now := time.Now()
	newer := &model.Agent{ID: "agent-2", AdminID: "admin-1", FirstName: "Bea", LastName: "Reis",
		Email: "bea@example.com", Role: model.RoleAgent, CreatedAt: now, UpdatedAt: now}
	older := &model.Agent{ID: "agent-1", AdminID: "admin-1", FirstName: "Ana", LastName: "Silva",
		Email: "ana@example.com", Role: model.RoleAgent, CreatedAt: now.Add(-time.Hour), UpdatedAt: now}

	// The query itself must carry the deterministic ordering and the
	// active-state filter; the repo never re-sorts in Go.
	mock.ExpectQuery(`(?s)SELECT .+ FROM agents.+WHERE admin_id = .+ AND deleted_at IS NULL.+ORDER BY created_at DESC, id DESC.+LIMIT .+ OFFSET`).
		WithArgs("admin-1", 20, 0).
		WillReturnRows(agentRows(t, newer, older))

	out, err := repo.ListByOwner(context.Background(), "admin-1", model.Page{Limit: 20, Offset: 0})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 || out[0].ID != "agent-2" || out[1].ID != "agent-1" {
		t.Fatalf("unexpected order: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAgentRepo_UpdateRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	as, err := BuildAgentUpdate(model.AgentPatch{FirstName: strPtr("Anna")})
	if err != nil {
		t.Fatalf("build update: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT deleted_at FROM agents").
		WithArgs("agent-1", "admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}).AddRow(nil))
	mock.ExpectExec("UPDATE agents SET").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = repo.Update(context.Background(), "agent-1", "admin-1", as)
	if err == nil {
		t.Fatalf("expected error")
	}
	// Rollback, never commit: the lock check and the failed UPDATE leave
	// no trace.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAgentRepo_UpdateDeletedTarget(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	as, err := BuildAgentUpdate(model.AgentPatch{FirstName: strPtr("Anna")})
	if err != nil {
		t.Fatalf("build update: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT deleted_at FROM agents").
		WithArgs("agent-1", "admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}).AddRow(time.Now()))
	mock.ExpectRollback()

	_, err = repo.Update(context.Background(), "agent-1", "admin-1", as)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAgentRepo_SoftDeleteCommits(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT deleted_at FROM agents").
		WithArgs("agent-1", "admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}).AddRow(nil))
	mock.ExpectExec("UPDATE agents").
		WithArgs("admin-1", "left company", "agent-1", "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SoftDelete(context.Background(), "agent-1", "admin-1", "admin-1", "left company"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAgentRepo_SoftDeleteAlreadyDeleted(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT deleted_at FROM agents").
		WithArgs("agent-1", "admin-1").
		WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}).AddRow(time.Now()))
	mock.ExpectRollback()

	err := repo.SoftDelete(context.Background(), "agent-1", "admin-1", "admin-1", "again")
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAgentRepo_HardDeleteZeroRows(t *testing.T) {
	repo, mock := newMockAgentRepo(t)

	mock.ExpectExec("DELETE FROM agents").
		WithArgs("agent-1", "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.HardDelete(context.Background(), "agent-1", "admin-1")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
