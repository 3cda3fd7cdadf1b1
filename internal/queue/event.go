// Package queue defines the audit messages exchanged over the broker and
// the publisher/consumer that move them.
package queue

import "time"

// Audit actions. One event is published per successful mutation.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionSoftDeleted = "soft_deleted"
	ActionHardDeleted = "hard_deleted"
	ActionVoided      = "voided"
	ActionDisabled    = "disabled"
	ActionEnabled     = "enabled"
)

// AuditEvent records who did what to which record. Downstream consumers
// append these to the audit log without querying the primary database.
type AuditEvent struct {
	Entity     string `json:"entity"`
	RecordID   string `json:"record_id"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id"`
	OccurredAt string `json:"occurred_at"`
}

// NewAuditEvent stamps an event with the current UTC time.
func NewAuditEvent(entity, recordID, action, actorID string) AuditEvent {
	return AuditEvent{
		Entity:     entity,
		RecordID:   recordID,
		Action:     action,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
