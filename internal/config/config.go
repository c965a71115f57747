// Package config loads and validates application configuration from a YAML
// file with BOT_* environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
	Photos    PhotosConfig    `mapstructure:"photos"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds bot API credentials and runtime identity.
type TelegramConfig struct {
	Token       string `mapstructure:"token" validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id"`

	// BotInfo is populated at startup from GetMe, not from the config file.
	BotInfo *models.User `mapstructure:"-"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SecurityConfig holds the shared PIN protecting mutating flows.
type SecurityConfig struct {
	Pin string `mapstructure:"pin" validate:"required,min=4"`
}

// RateLimitConfig tunes the per-user sliding-window limiter.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests" validate:"min=1"`
	Window   time.Duration `mapstructure:"window"   validate:"min=1s"`
}

// SessionConfig tunes conversation session lifetime.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"min=1m"`
}

// PhotosConfig controls the optional lead photo feature. When disabled the
// photo step of the add flow is skipped entirely.
type PhotosConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	SupabaseURL   string        `mapstructure:"supabase_url"         validate:"required_if=Enabled true,omitempty,url"`
	SupabaseKey   string        `mapstructure:"supabase_service_key" validate:"required_if=Enabled true"`
	Bucket        string        `mapstructure:"bucket"               validate:"required_if=Enabled true"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
}

// MetricsConfig controls the Prometheus /metrics listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// TaskConfig enables a scheduled task and sets its cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds user-facing texts sent by top-level handlers.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"`
	Help            string `mapstructure:"help"`
	Unauthorized    string `mapstructure:"unauthorized"`
	RateLimitedFmt  string `mapstructure:"rate_limited_fmt"`
	GeneralError    string `mapstructure:"general_error"`
	Cancelled       string `mapstructure:"cancelled"`
	NothingToCancel string `mapstructure:"nothing_to_cancel"`
}

// LoadConfig reads the YAML file at path (optional), applies defaults and
// BOT_* environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus environment take over.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", "leads.db")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("session.ttl", time.Hour)

	v.SetDefault("photos.enabled", false)
	v.SetDefault("photos.bucket", "lead-photos")
	v.SetDefault("photos.upload_timeout", 30*time.Second)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"session_sweep":   {Enabled: true, Schedule: "0 */10 * * * *"},
		"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
	})

	v.SetDefault("messages.welcome", defaultWelcome)
	v.SetDefault("messages.help", defaultHelp)
	v.SetDefault("messages.unauthorized", "You are not authorized to use this bot.")
	v.SetDefault("messages.rate_limited_fmt", "Too many requests. Please wait %d seconds and try again.")
	v.SetDefault("messages.general_error", "Something went wrong. Please try again later.")
	v.SetDefault("messages.cancelled", "Cancelled. Send /help to see what I can do.")
	v.SetDefault("messages.nothing_to_cancel", "Nothing to cancel.")
}
