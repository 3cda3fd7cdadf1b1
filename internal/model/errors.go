// Package model holds the entities persisted by the service and the
// sentinel errors shared between repositories, services and handlers.
// Handlers translate these values into HTTP status codes; repositories
// and services never wrap them in a way that breaks errors.Is.
package model

import "errors"

// ErrNotFound covers both "record does not exist" and "record exists but
// is deleted or owned by someone else". The two cases are deliberately
// indistinguishable so callers cannot probe for records they do not own.
var ErrNotFound = errors.New("record not found")

// ErrForbidden is returned when the caller is authenticated but lacks the
// role or root privilege required for the operation.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals a unique-constraint violation, e.g. a duplicate email.
var ErrConflict = errors.New("conflict")

// ErrNoFields is returned when an update request contains none of the
// fields that are allowed to change. The store is never touched.
var ErrNoFields = errors.New("no fields to update")

// ErrInvalidTransition is returned when a lifecycle transition is not
// allowed, such as soft-deleting a record that is already deleted.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// ErrUnavailable indicates the record store could not be reached or the
// transaction could not be started.
var ErrUnavailable = errors.New("store unavailable")

// ErrDirectoryUnavailable indicates the remote user directory rejected or
// failed a call. The local record may already be committed; the caller is
// expected to retry the operation, which converges.
var ErrDirectoryUnavailable = errors.New("user directory unavailable")
