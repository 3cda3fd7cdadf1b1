package model

import "time"

// User mirrors the 'users' table: the local shadow of an account in the
// remote user directory. DirectorySub holds the directory's subject id
// once the remote account exists. PasswordHash is only populated for the
// bootstrap root admin row; regular users authenticate against the
// directory, not this service.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Role         string
	DirectorySub *string
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	DeletedBy    *string
	DeleteReason *string

	// Disabled is the directory's enabled flag, fetched on reads.
	// It is not a column.
	Disabled bool
}

// Active reports whether the user has not been soft-deleted locally.
func (u *User) Active() bool { return u.DeletedAt == nil }

// UserPatch is a sparse update. Email and ID are immutable; a role change
// from "agent" to "admin" is gated on the root identity and synced to the
// directory's groups by the service layer.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Role      *string
}
