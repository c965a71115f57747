// Package ratelimit implements a per-user sliding-window request limiter.
package ratelimit

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Limiter counts admitted events per user within a trailing window and
// rejects further events once the limit is reached. A rejection does not
// consume a slot. Limit and window are process-wide configuration.
type Limiter struct {
	mu      sync.Mutex
	windows map[int64][]time.Time
	limit   int
	window  time.Duration
	enabled bool
	logger  *slog.Logger
}

// New creates a limiter admitting at most limit events per window for each
// user. A disabled limiter admits everything.
func New(limit int, window time.Duration, enabled bool, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Limiter{
		windows: make(map[int64][]time.Time),
		limit:   limit,
		window:  window,
		enabled: enabled,
		logger:  logger.With("component", "rate_limiter"),
	}
}

// Admit reports whether the user's event is allowed at the given instant.
// When rejected, the second return value is how long the user must wait
// before the oldest counted event leaves the window.
func (l *Limiter) Admit(user int64, now time.Time) (bool, time.Duration) {
	if !l.enabled {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	recent := l.windows[user][:0]
	for _, ts := range l.windows[user] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.limit {
		l.windows[user] = recent
		wait := recent[0].Sub(cutoff)
		l.logger.Warn("Rate limit exceeded", "user_id", user, "retry_after", wait)
		return false, wait
	}

	l.windows[user] = append(recent, now)
	return true, 0
}

// Sweep drops users whose windows contain no recent events, bounding memory
// between bursts. Returns the number of users removed.
func (l *Limiter) Sweep(now time.Time) int {
	if !l.enabled {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	removed := 0
	for user, stamps := range l.windows {
		empty := true
		for _, ts := range stamps {
			if ts.After(cutoff) {
				empty = false
				break
			}
		}
		if empty {
			delete(l.windows, user)
			removed++
		}
	}
	return removed
}
