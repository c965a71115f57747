package tasks

import (
	"context"
	"time"

	"github.com/leadops/leadbot/internal/metrics"
)

// newSessionSweepTask evicts conversation sessions idle past their TTL and
// drops expired rate-limiter windows in the same pass.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_sweep")

	return func(ctx context.Context) error {
		now := time.Now()

		evicted := deps.Sessions.Sweep(now)
		if evicted > 0 {
			metrics.SessionsEvicted.Add(float64(evicted))
		}

		var windows int
		if deps.Limiter != nil {
			windows = deps.Limiter.Sweep(now)
		}

		log.InfoContext(ctx, "Session sweep completed",
			"sessions_evicted", evicted,
			"rate_windows_dropped", windows,
			"sessions_remaining", deps.Sessions.Len())
		return nil
	}
}
