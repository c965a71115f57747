package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/leadops/leadbot/internal/session"
)

func TestGetOrCreateReturnsSnapshot(t *testing.T) {
	t.Parallel()

	st := session.NewStore(time.Hour, nil)
	now := time.Now()

	s := st.GetOrCreate(42, now)
	s.Set("fullname", "Anna Prime")

	// Mutating the snapshot must not leak into the store before Commit.
	again := st.GetOrCreate(42, now)
	if got := again.Get("fullname"); got != "" {
		t.Errorf("uncommitted snapshot leaked into store: fullname = %q", got)
	}
}

func TestCommitAndStaleDetection(t *testing.T) {
	t.Parallel()

	st := session.NewStore(time.Hour, nil)
	now := time.Now()

	first := st.GetOrCreate(42, now)
	second := st.GetOrCreate(42, now)

	first.Flow = session.FlowAdd
	first.State = session.StateAwaitingField
	if err := st.Commit(first); err != nil {
		t.Fatalf("first Commit failed: %v", err)
	}

	// The second snapshot is now stale and must be rejected.
	second.Flow = session.FlowCheck
	if err := st.Commit(second); !errors.Is(err, session.ErrStale) {
		t.Fatalf("stale Commit returned %v, want ErrStale", err)
	}

	stored := st.Get(42)
	if stored.Flow != session.FlowAdd {
		t.Errorf("stored flow = %q, want the first committer's %q", stored.Flow, session.FlowAdd)
	}
}

func TestCommitAfterRemoveIsStale(t *testing.T) {
	t.Parallel()

	st := session.NewStore(time.Hour, nil)
	s := st.GetOrCreate(42, time.Now())
	s.Flow = session.FlowAdd
	st.Remove(42)

	// A removed session stays removed: the snapshot's owner already quit or
	// finished, and committing it back would resurrect the dead flow.
	if err := st.Commit(s); !errors.Is(err, session.ErrStale) {
		t.Fatalf("Commit after Remove returned %v, want ErrStale", err)
	}
	if st.Get(42) != nil {
		t.Error("Commit after Remove resurrected the session")
	}
}

func TestSweepTTLBoundary(t *testing.T) {
	t.Parallel()

	ttl := time.Hour
	st := session.NewStore(ttl, nil)
	now := time.Now()

	fresh := st.GetOrCreate(1, now)
	fresh.Touch(now.Add(-ttl + time.Second)) // just inside the TTL
	if err := st.Commit(fresh); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	idle := st.GetOrCreate(2, now)
	idle.Touch(now.Add(-ttl - time.Second)) // just past the TTL
	if err := st.Commit(idle); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	evicted := st.Sweep(now)
	if evicted != 1 {
		t.Fatalf("Sweep evicted %d sessions, want 1", evicted)
	}
	if st.Get(1) == nil {
		t.Error("session inside the TTL was evicted")
	}
	if st.Get(2) != nil {
		t.Error("session past the TTL survived the sweep")
	}
}

func TestSweepIgnoresState(t *testing.T) {
	t.Parallel()

	ttl := time.Hour
	st := session.NewStore(ttl, nil)
	now := time.Now()

	s := st.GetOrCreate(1, now)
	s.Flow = session.FlowAdd
	s.State = session.StateAwaitingConfirmation
	s.Touch(now.Add(-2 * ttl))
	if err := st.Commit(s); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Even a session sitting on the final confirmation is evicted once idle
	// past the TTL.
	if evicted := st.Sweep(now); evicted != 1 {
		t.Fatalf("Sweep evicted %d sessions, want 1", evicted)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	st := session.NewStore(time.Hour, nil)
	st.GetOrCreate(42, time.Now())
	if st.Len() != 1 {
		t.Fatalf("Len = %d, want 1", st.Len())
	}

	st.Remove(42)
	if st.Get(42) != nil {
		t.Error("session survived Remove")
	}
	if st.Len() != 0 {
		t.Errorf("Len = %d after Remove, want 0", st.Len())
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	s := &session.Session{
		Owner:     1,
		Collected: map[string]string{"fullname": "Anna Prime"},
		Suggested: map[string]string{"telegram_user": "anna"},
	}
	c := s.Clone()
	c.Set("fullname", "Changed")
	c.Suggested["telegram_user"] = "changed"

	if s.Get("fullname") != "Anna Prime" {
		t.Error("Clone shares the Collected map with the original")
	}
	if s.Suggested["telegram_user"] != "anna" {
		t.Error("Clone shares the Suggested map with the original")
	}
}
