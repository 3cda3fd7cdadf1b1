// Package repository contains the data access layer. All queries are
// parametrized; column names are never interpolated from request data but
// drawn from the fixed allow-lists below.
package repository

import (
	"strings"

	"github.com/finbridge/backoffice/internal/model"
)

// Assignment pairs an allow-listed column with its bound value.
type Assignment struct {
	Column string
	Value  any
}

// Assignments is an ordered list of column updates for a single row.
type Assignments []Assignment

// set appends an assignment when the patch field is present.
func (a *Assignments) set(column string, v *string) {
	if v != nil {
		*a = append(*a, Assignment{Column: column, Value: *v})
	}
}

// setClause renders "col1 = ?, col2 = ?" plus the bound args, in the
// order the assignments were built.
func (a Assignments) setClause() (string, []any) {
	cols := make([]string, 0, len(a))
	args := make([]any, 0, len(a))
	for _, as := range a {
		cols = append(cols, as.Column+" = ?")
		args = append(args, as.Value)
	}
	return strings.Join(cols, ", "), args
}

// BuildAgentUpdate converts a sparse agent patch into column assignments.
// It returns model.ErrNoFields when nothing is set, so callers can reject
// no-op updates before opening a transaction.
func BuildAgentUpdate(p model.AgentPatch) (Assignments, error) {
	var a Assignments
	a.set("first_name", p.FirstName)
	a.set("last_name", p.LastName)
	a.set("email", p.Email)
	if len(a) == 0 {
		return nil, model.ErrNoFields
	}
	return a, nil
}

// BuildUserUpdate converts a sparse user patch into column assignments.
// Email is deliberately absent from the allow-list: it is the directory
// username and immutable here.
func BuildUserUpdate(p model.UserPatch) (Assignments, error) {
	var a Assignments
	a.set("first_name", p.FirstName)
	a.set("last_name", p.LastName)
	a.set("role", p.Role)
	if len(a) == 0 {
		return nil, model.ErrNoFields
	}
	return a, nil
}
