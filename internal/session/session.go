// Package session holds in-memory per-user conversation state. Sessions are
// transient and process-local: they exist only while a flow is in progress
// and are evicted after a configurable idle TTL.
package session

import (
	"errors"
	"time"
)

// Flow identifies which multi-step conversation a session is running.
type Flow string

const (
	FlowNone     Flow = ""
	FlowCheck    Flow = "check"
	FlowAdd      Flow = "add"
	FlowEdit     Flow = "edit"
	FlowTag      Flow = "tag"
	FlowTransfer Flow = "transfer"
)

// State is the coarse position of a session inside its flow.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingField        State = "awaiting_field"
	StateAwaitingPin          State = "awaiting_pin"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// ErrStale is returned by Store.Commit when the stored session advanced, or
// was removed, while the caller was working on a snapshot. The caller's
// changes are discarded; the event that raced ahead already owns (or already
// ended) the session.
var ErrStale = errors.New("session modified concurrently")

// Session is the per-user conversation state. Handlers work on snapshots
// (Clone) and commit them back; the Version field detects lost updates.
type Session struct {
	Owner int64
	Flow  Flow
	State State

	// Field names the field currently awaited while State == StateAwaitingField.
	Field string
	// Step is the ordinal position in the flow's field sequence.
	Step int
	// Collected maps field name to the provisional normalized value.
	Collected map[string]string
	// Suggested maps field name to a prefill extracted from forwarded
	// message metadata. Suggestions are offered, never silently accepted.
	Suggested map[string]string

	// ConfirmPending marks a detour taken from the confirmation step (a
	// conflicting identifier being replaced); once the field is answered the
	// flow returns to confirmation instead of re-walking later fields.
	ConfirmPending bool

	// PinAttempts counts consecutive wrong PIN entries in privileged flows.
	PinAttempts int
	// TargetLeadID is the lead being edited (edit flow only).
	TargetLeadID int64

	// LastActive is refreshed on every handled event; the TTL sweep
	// measures idleness against it.
	LastActive time.Time
	Version    uint64
}

// Clone returns a deep copy safe to mutate outside the store's lock.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Collected = make(map[string]string, len(s.Collected))
	for k, v := range s.Collected {
		copied.Collected[k] = v
	}
	if s.Suggested != nil {
		copied.Suggested = make(map[string]string, len(s.Suggested))
		for k, v := range s.Suggested {
			copied.Suggested[k] = v
		}
	}
	return &copied
}

// Set records a collected field value on the snapshot.
func (s *Session) Set(field, value string) {
	if s.Collected == nil {
		s.Collected = make(map[string]string)
	}
	s.Collected[field] = value
}

// Get returns a collected field value.
func (s *Session) Get(field string) string {
	return s.Collected[field]
}

// Touch marks the session as active at the given instant.
func (s *Session) Touch(now time.Time) {
	s.LastActive = now
}
