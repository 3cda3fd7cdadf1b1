package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/queue"
	"github.com/finbridge/backoffice/internal/repository"
)

// stubAgentStore is an in-memory AgentStore mirroring the repository's
// ownership and lifecycle semantics.
type stubAgentStore struct {
	byID      map[string]*model.Agent
	createErr error
}

func newStubAgentStore() *stubAgentStore {
	return &stubAgentStore{byID: make(map[string]*model.Agent)}
}

func (s *stubAgentStore) Create(_ context.Context, a *model.Agent) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, other := range s.byID {
		if other.Email == a.Email && other.Active() {
			return model.ErrConflict
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	clone := *a
	s.byID[a.ID] = &clone
	return nil
}

func (s *stubAgentStore) get(id, adminID string) *model.Agent {
	a, ok := s.byID[id]
	if !ok || a.AdminID != adminID {
		return nil
	}
	return a
}

func (s *stubAgentStore) GetByIDAndOwner(_ context.Context, id, adminID string) (*model.Agent, error) {
	a := s.get(id, adminID)
	if a == nil || !a.Active() {
		return nil, model.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *stubAgentStore) ListByOwner(_ context.Context, adminID string, _ model.Page) ([]*model.Agent, error) {
	var out []*model.Agent
	for _, a := range s.byID {
		if a.AdminID == adminID && a.Active() {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *stubAgentStore) Update(_ context.Context, id, adminID string, as repository.Assignments) (*model.Agent, error) {
	a := s.get(id, adminID)
	if a == nil || !a.Active() {
		return nil, model.ErrNotFound
	}
	for _, asg := range as {
		v, _ := asg.Value.(string)
		switch asg.Column {
		case "first_name":
			a.FirstName = v
		case "last_name":
			a.LastName = v
		case "email":
			a.Email = v
		}
	}
	a.UpdatedAt = time.Now()
	clone := *a
	return &clone, nil
}

func (s *stubAgentStore) SoftDelete(_ context.Context, id, adminID, actorID, reason string) error {
	a := s.get(id, adminID)
	if a == nil {
		return model.ErrNotFound
	}
	if !a.Active() {
		return model.ErrInvalidTransition
	}
	now := time.Now()
	a.DeletedAt = &now
	a.DeletedBy = &actorID
	a.DeleteReason = &reason
	return nil
}

func (s *stubAgentStore) HardDelete(_ context.Context, id, adminID string) error {
	if s.get(id, adminID) == nil {
		return model.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// stubPublisher records audit events instead of talking to a broker.
type stubPublisher struct {
	events []queue.AuditEvent
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, ev queue.AuditEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func admin(id string) model.Identity {
	return model.Identity{ID: id, Email: id + "@example.com", Role: model.RoleAdmin}
}

func TestAgentService_CreateAssignsOwnerAndRole(t *testing.T) {
	store := newStubAgentStore()
	pub := &stubPublisher{}
	svc := NewAgentService(store, pub, zerolog.Nop())

	a, err := svc.Create(context.Background(), admin("admin-1"), CreateAgentInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.Equal(t, "admin-1", a.AdminID)
	require.Equal(t, model.RoleAgent, a.Role)

	require.Len(t, pub.events, 1)
	require.Equal(t, queue.ActionCreated, pub.events[0].Action)
	require.Equal(t, a.ID, pub.events[0].RecordID)
}

func TestAgentService_CreateDuplicateEmail(t *testing.T) {
	store := newStubAgentStore()
	svc := NewAgentService(store, nil, zerolog.Nop())

	_, err := svc.Create(context.Background(), admin("admin-1"), CreateAgentInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), admin("admin-1"), CreateAgentInput{
		FirstName: "Other", LastName: "Person", Email: "ana@example.com",
	})
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestAgentService_GetScopedToOwner(t *testing.T) {
	store := newStubAgentStore()
	svc := NewAgentService(store, nil, zerolog.Nop())

	a, err := svc.Create(context.Background(), admin("admin-1"), CreateAgentInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	require.NoError(t, err)

	// Another admin cannot see the record, and cannot learn it exists.
	_, err = svc.Get(context.Background(), admin("admin-2"), a.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	got, err := svc.Get(context.Background(), admin("admin-1"), a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
}

func TestAgentService_UpdateEmptyPatch(t *testing.T) {
	store := newStubAgentStore()
	svc := NewAgentService(store, nil, zerolog.Nop())

	_, err := svc.Update(context.Background(), admin("admin-1"), "whatever", model.AgentPatch{})
	require.ErrorIs(t, err, model.ErrNoFields)
}

func TestAgentService_UpdateAppliesPatch(t *testing.T) {
	store := newStubAgentStore()
	svc := NewAgentService(store, nil, zerolog.Nop())

	a, err := svc.Create(context.Background(), admin("admin-1"), CreateAgentInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	require.NoError(t, err)

	first := "Anna"
	got, err := svc.Update(context.Background(), admin("admin-1"), a.ID, model.AgentPatch{FirstName: &first})
	require.NoError(t, err)
	require.Equal(t, "Anna", got.FirstName)
	require.Equal(t, "Silva", got.LastName)
}

func TestAgentService_SoftDeleteTwice(t *testing.T) {
	store := newStubAgentStore()
	pub := &stubPublisher{}
	svc := NewAgentService(store, pub, zerolog.Nop())

	a, err := svc.Create(context.Background(), admin("admin-1"), CreateAgentInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), admin("admin-1"), a.ID, ""))
	require.Equal(t, "no reason provided", *store.byID[a.ID].DeleteReason)

	err = svc.SoftDelete(context.Background(), admin("admin-1"), a.ID, "again")
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	// The deleted record disappears from reads.
	_, err = svc.Get(context.Background(), admin("admin-1"), a.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAgentService_HardDeleteMissing(t *testing.T) {
	store := newStubAgentStore()
	svc := NewAgentService(store, nil, zerolog.Nop())

	err := svc.HardDelete(context.Background(), admin("admin-1"), "nope")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAgentService_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := newStubAgentStore()
	pub := &stubPublisher{err: context.DeadlineExceeded}
	svc := NewAgentService(store, pub, zerolog.Nop())

	_, err := svc.Create(context.Background(), admin("admin-1"), CreateAgentInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	require.NoError(t, err)
}
