package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCancelHandler returns a handler for the /cancel command, abandoning the
// sender's active flow.
func NewCancelHandler(deps HandlerDeps) bot.HandlerFunc {
	return cancelHandler{deps}.Handle
}

type cancelHandler struct {
	deps HandlerDeps
}

func (h cancelHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cancel")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	if h.deps.Engine.Cancel(update.Message.From.ID) {
		log.InfoContext(ctx, "Flow cancelled", "user_id", update.Message.From.ID)
		sendText(ctx, b, log, update.Message.Chat.ID, h.deps.Config.Messages.Cancelled)
		return
	}
	sendText(ctx, b, log, update.Message.Chat.ID, h.deps.Config.Messages.NothingToCancel)
}
