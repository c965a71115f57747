package tasks

import (
	"log/slog"

	"github.com/leadops/leadbot/internal/config"
	"github.com/leadops/leadbot/internal/database"
	"github.com/leadops/leadbot/internal/ratelimit"
	"github.com/leadops/leadbot/internal/session"
)

// TaskDeps provides dependencies for scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Sessions *session.Store
	Limiter  *ratelimit.Limiter
}
