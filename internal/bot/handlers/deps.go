package handlers

import (
	"log/slog"

	"github.com/leadops/leadbot/internal/config"
	"github.com/leadops/leadbot/internal/database"
	"github.com/leadops/leadbot/internal/flow"
	"github.com/leadops/leadbot/internal/ratelimit"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	Engine  *flow.Engine
	Limiter *ratelimit.Limiter
}
