// Package main contains the entrypoint for the lead intake bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/leadops/leadbot/internal/access"
	"github.com/leadops/leadbot/internal/bot"
	"github.com/leadops/leadbot/internal/bot/handlers"
	"github.com/leadops/leadbot/internal/bot/tasks"
	"github.com/leadops/leadbot/internal/config"
	"github.com/leadops/leadbot/internal/database"
	"github.com/leadops/leadbot/internal/flow"
	"github.com/leadops/leadbot/internal/leads"
	"github.com/leadops/leadbot/internal/logger"
	"github.com/leadops/leadbot/internal/ratelimit"
	"github.com/leadops/leadbot/internal/session"
	"github.com/leadops/leadbot/internal/storage"
	"github.com/leadops/leadbot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components, starts the orchestrator, and
// returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	sessions := session.NewStore(cfg.Session.TTL, log)
	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Enabled, log)
	gate := access.NewGate(cfg.Security.Pin)
	photos := storage.NewSupabaseStorage(
		cfg.Photos.SupabaseURL, cfg.Photos.SupabaseKey, cfg.Photos.Bucket,
		cfg.Photos.Enabled, cfg.Photos.UploadTimeout, log)
	resolver := leads.NewResolver(store, log, 5*time.Second)
	engine := flow.NewEngine(store, resolver, sessions, gate, photos, log)

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Store:   store,
		Engine:  engine,
		Limiter: limiter,
	}
	tDeps := tasks.TaskDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Sessions: sessions,
		Limiter:  limiter,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.AdminOnly(hDeps), handlers.RateLimit(hDeps)),
		tgbot.WithDefaultHandler(handlers.NewLeadRouter(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info",
		"bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, db, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
