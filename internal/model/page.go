package model

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Page carries pagination bounds for list queries. Results are ordered by
// (created_at DESC, id DESC) so pages stay stable when rows share a
// creation timestamp.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the bounds into their allowed ranges and applies the
// default limit when none was provided.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
