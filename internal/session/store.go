package session

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Store owns all active sessions, keyed by chat/user identity. Access is
// serialized by a single mutex; callers never hold the lock across external
// calls — they take a snapshot, work on it, and commit the result. Commit
// verifies the snapshot's version so two concurrent events for the same user
// cannot interleave into a corrupted session.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	logger   *slog.Logger
}

// NewStore creates a session store evicting sessions idle past ttl.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		logger:   logger.With("component", "session_store"),
	}
}

// GetOrCreate returns a snapshot of the owner's session, creating an idle
// one if none exists.
func (st *Store) GetOrCreate(owner int64, now time.Time) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[owner]
	if !ok {
		s = &Session{
			Owner:      owner,
			State:      StateIdle,
			Collected:  make(map[string]string),
			LastActive: now,
		}
		st.sessions[owner] = s
		st.logger.Debug("Session created", "owner", owner)
	}
	return s.Clone()
}

// Get returns a snapshot of the owner's session, or nil if none exists.
func (st *Store) Get(owner int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[owner].Clone()
}

// Commit stores the snapshot back if the session still exists and has not
// advanced since the snapshot was taken. On success the stored version is
// bumped; otherwise the snapshot is discarded and ErrStale returned. A
// removed session stays removed: committing into the gap would resurrect a
// flow the owner already quit or completed.
func (st *Store) Commit(snapshot *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	current, ok := st.sessions[snapshot.Owner]
	if !ok {
		st.logger.Warn("Discarding update for removed session", "owner", snapshot.Owner)
		return ErrStale
	}
	if current.Version != snapshot.Version {
		st.logger.Warn("Discarding stale session update",
			"owner", snapshot.Owner, "stored_version", current.Version, "snapshot_version", snapshot.Version)
		return ErrStale
	}

	stored := snapshot.Clone()
	stored.Version = snapshot.Version + 1
	st.sessions[snapshot.Owner] = stored
	return nil
}

// Remove destroys the owner's session (flow completion or quit).
func (st *Store) Remove(owner int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[owner]; ok {
		delete(st.sessions, owner)
		st.logger.Debug("Session removed", "owner", owner)
	}
}

// Sweep evicts every session idle longer than the TTL, regardless of its
// current step, and returns the eviction count. It takes the same lock as
// Commit, so a sweep never races a session mutation.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for owner, s := range st.sessions {
		if now.Sub(s.LastActive) > st.ttl {
			delete(st.sessions, owner)
			evicted++
		}
	}
	if evicted > 0 {
		st.logger.Info("Evicted idle sessions", "count", evicted, "remaining", len(st.sessions))
	}
	return evicted
}

// Len reports the number of active sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
