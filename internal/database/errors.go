package database

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced by the Store. Callers branch on these with
// errors.Is rather than inspecting driver error strings.
var (
	// ErrNotFound indicates the requested lead does not exist.
	ErrNotFound = errors.New("lead not found")

	// ErrUnavailable indicates the store call failed or timed out. It is
	// never silently collapsed into a not-found result.
	ErrUnavailable = errors.New("record store unavailable")
)

// DuplicateIdentifierError is returned when an insert or update violates one
// of the per-identifier unique indexes. The store's constraint is
// authoritative over any advisory pre-check, so this error can arrive even
// after a resolver reported no match.
type DuplicateIdentifierError struct {
	Column string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier value for %s", e.Column)
}

// asDuplicateError maps a SQLite unique-constraint violation to a
// DuplicateIdentifierError carrying the offending column, or returns nil.
func asDuplicateError(err error) *DuplicateIdentifierError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	const marker = "UNIQUE constraint failed: leads."
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return nil
	}
	column := msg[idx+len(marker):]
	if end := strings.IndexAny(column, " ,)"); end >= 0 {
		column = column[:end]
	}
	return &DuplicateIdentifierError{Column: column}
}

// mapStoreError classifies low-level errors as ErrUnavailable: timeouts,
// cancellations and driver failures all mean "the store could not answer",
// never "no such record". Constraint violations are intercepted before this
// point.
func mapStoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
