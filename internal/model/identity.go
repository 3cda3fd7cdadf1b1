package model

import "strings"

// Roles carried in verified access tokens. Token issuance happens in a
// separate auth service; this service only verifies and consumes claims.
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	ID     string
	Email  string
	Role   string
	Groups []string
}

// IsRoot reports whether this identity is the distinguished root admin,
// matched by email case-insensitively against the configured value.
func (i Identity) IsRoot(rootEmail string) bool {
	return rootEmail != "" && strings.EqualFold(i.Email, rootEmail)
}
