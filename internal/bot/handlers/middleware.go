// Package handlers contains Telegram command and message handlers, their
// registration logic and middleware.
package handlers

import (
	"context"
	"fmt"
	"math"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/leadops/leadbot/internal/metrics"
)

// RateLimit rejects a user's update once their sliding window is full. The
// rejection reply tells them how long to wait; the rejected update does not
// consume a slot.
func RateLimit(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			userID := update.Message.From.ID
			ok, retryAfter := deps.Limiter.Admit(userID, time.Now())
			if ok {
				next(ctx, b, update)
				return
			}

			metrics.RateLimited.Inc()
			log := deps.Logger.With("middleware", "rate_limit")
			log.WarnContext(ctx, "Update rejected by rate limiter",
				"user_id", userID, "retry_after", retryAfter)

			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   fmt.Sprintf(deps.Config.Messages.RateLimitedFmt, seconds),
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to send rate limit message", "error", err)
			}
		}
	}
}

// AdminOnly restricts a handler to the configured admin user. Unused unless
// an admin_user_id is configured; with it set to zero everything passes.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			adminID := deps.Config.Telegram.AdminUserID
			if adminID != 0 && update.Message.From.ID != adminID {
				log := deps.Logger.With("middleware", "admin_only")
				log.WarnContext(ctx, "Unauthorized access attempt",
					"user_id", update.Message.From.ID, "chat_id", update.Message.Chat.ID)

				_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   deps.Config.Messages.Unauthorized,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}
