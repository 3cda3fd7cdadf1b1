// Package service holds the lifecycle policy engines: they resolve the
// acting identity, run eligibility and escalation checks, compose partial
// updates and drive the repositories. All authoritative state lives in the
// store; services keep no cross-request state.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finbridge/backoffice/internal/metrics"
	"github.com/finbridge/backoffice/internal/model"
	"github.com/finbridge/backoffice/internal/queue"
	"github.com/finbridge/backoffice/internal/repository"
)

// AgentStore is the slice of the agent repository the service needs.
type AgentStore interface {
	Create(ctx context.Context, a *model.Agent) error
	GetByIDAndOwner(ctx context.Context, id, adminID string) (*model.Agent, error)
	ListByOwner(ctx context.Context, adminID string, page model.Page) ([]*model.Agent, error)
	Update(ctx context.Context, id, adminID string, as repository.Assignments) (*model.Agent, error)
	SoftDelete(ctx context.Context, id, adminID, actorID, reason string) error
	HardDelete(ctx context.Context, id, adminID string) error
}

// AuditPublisher emits audit events for successful mutations. Publish
// failures are logged and ignored: auditing must not fail the request.
type AuditPublisher interface {
	Publish(ctx context.Context, ev queue.AuditEvent) error
}

type AgentService struct {
	store AgentStore
	audit AuditPublisher
	log   zerolog.Logger
}

func NewAgentService(store AgentStore, audit AuditPublisher, log zerolog.Logger) *AgentService {
	return &AgentService{store: store, audit: audit, log: log}
}

// CreateAgentInput is the validated payload for agent creation. The email
// arrives trimmed and lower-cased from the handler layer.
type CreateAgentInput struct {
	FirstName string
	LastName  string
	Email     string
}

// Create inserts a new agent owned by the acting admin. Role is fixed to
// "agent"; there is no escalation path through this entity family.
func (s *AgentService) Create(ctx context.Context, actor model.Identity, in CreateAgentInput) (*model.Agent, error) {
	a := &model.Agent{
		ID:        uuid.NewString(),
		AdminID:   actor.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Role:      model.RoleAgent,
	}
	if err := s.store.Create(ctx, a); err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("agent", "create").Inc()
		return nil, err
	}
	metrics.RecordOpsTotal.WithLabelValues("agent", "create").Inc()
	s.log.Info().Str("agent_id", a.ID).Str("admin_id", actor.ID).Msg("agent created")
	s.publish(ctx, queue.ActionCreated, a.ID, actor.ID)
	return a, nil
}

// Get returns an active agent owned by the actor, or ErrNotFound.
func (s *AgentService) Get(ctx context.Context, actor model.Identity, agentID string) (*model.Agent, error) {
	return s.store.GetByIDAndOwner(ctx, agentID, actor.ID)
}

// List returns the actor's active agents, paginated.
func (s *AgentService) List(ctx context.Context, actor model.Identity, page model.Page) ([]*model.Agent, error) {
	return s.store.ListByOwner(ctx, actor.ID, page.Normalize())
}

// Update applies a sparse patch to an owned agent. An empty patch fails
// with ErrNoFields before the store is touched.
func (s *AgentService) Update(ctx context.Context, actor model.Identity, agentID string, patch model.AgentPatch) (*model.Agent, error) {
	as, err := repository.BuildAgentUpdate(patch)
	if err != nil {
		return nil, err
	}
	a, err := s.store.Update(ctx, agentID, actor.ID, as)
	if err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("agent", "update").Inc()
		return nil, err
	}
	metrics.RecordOpsTotal.WithLabelValues("agent", "update").Inc()
	s.publish(ctx, queue.ActionUpdated, agentID, actor.ID)
	return a, nil
}

// SoftDelete marks an owned agent deleted, recording the actor and reason.
func (s *AgentService) SoftDelete(ctx context.Context, actor model.Identity, agentID, reason string) error {
	if reason == "" {
		reason = "no reason provided"
	}
	if err := s.store.SoftDelete(ctx, agentID, actor.ID, actor.ID, reason); err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("agent", "soft_delete").Inc()
		return err
	}
	metrics.RecordOpsTotal.WithLabelValues("agent", "soft_delete").Inc()
	s.log.Info().Str("agent_id", agentID).Str("actor_id", actor.ID).Str("reason", reason).Msg("agent soft-deleted")
	s.publish(ctx, queue.ActionSoftDeleted, agentID, actor.ID)
	return nil
}

// HardDelete removes an owned agent row entirely, losing its audit trail.
func (s *AgentService) HardDelete(ctx context.Context, actor model.Identity, agentID string) error {
	if err := s.store.HardDelete(ctx, agentID, actor.ID); err != nil {
		metrics.RecordErrorsTotal.WithLabelValues("agent", "hard_delete").Inc()
		return err
	}
	metrics.RecordOpsTotal.WithLabelValues("agent", "hard_delete").Inc()
	s.log.Info().Str("agent_id", agentID).Str("actor_id", actor.ID).Msg("agent hard-deleted")
	s.publish(ctx, queue.ActionHardDeleted, agentID, actor.ID)
	return nil
}

func (s *AgentService) publish(ctx context.Context, action, recordID, actorID string) {
	if s.audit == nil {
		return
	}
	ev := queue.NewAuditEvent("agent", recordID, action, actorID)
	if err := s.audit.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("record_id", recordID).Msg("audit publish failed")
	}
}
