package handlers

import (
	"context"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/leadops/leadbot/internal/flow"
)

// sendReply delivers an engine reply, rendering its options as a one-time
// reply keyboard. Replies without options clear any previous keyboard.
func sendReply(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, reply flow.Reply) {
	if reply.Text == "" {
		return
	}

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   reply.Text,
	}
	if len(reply.Options) > 0 {
		rows := make([][]models.KeyboardButton, 0, len(reply.Options))
		for _, option := range reply.Options {
			rows = append(rows, []models.KeyboardButton{{Text: option}})
		}
		params.ReplyMarkup = &models.ReplyKeyboardMarkup{
			Keyboard:        rows,
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	} else {
		params.ReplyMarkup = &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

func sendText(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	sendReply(ctx, b, log, chatID, flow.Reply{Text: text})
}
