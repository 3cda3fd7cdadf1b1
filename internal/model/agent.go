package model

import "time"

// Agent mirrors the 'agents' table. Every agent belongs to the admin that
// created it (AdminID) and all reads and mutations are scoped by that
// owner. Role is fixed to "agent" at creation and never changes.
type Agent struct {
	ID           string
	AdminID      string
	FirstName    string
	LastName     string
	Email        string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	DeletedBy    *string
	DeleteReason *string
}

// Active reports whether the agent has not been soft-deleted.
func (a *Agent) Active() bool { return a.DeletedAt == nil }

// AgentPatch is a sparse update: nil fields stay unchanged. Email changes
// are allowed and may collide with another row's unique email, which the
// store reports as ErrConflict. AdminID, ID and Role are not patchable.
type AgentPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}
