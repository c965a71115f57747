package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/leadops/leadbot/internal/session"
)

// NewFlowStartHandler returns a handler that starts the given flow for the
// sender. Any flow already in progress is replaced.
func NewFlowStartHandler(deps HandlerDeps, flowName session.Flow) bot.HandlerFunc {
	return flowStartHandler{deps: deps, flow: flowName}.Handle
}

type flowStartHandler struct {
	deps HandlerDeps
	flow session.Flow
}

func (h flowStartHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "flow_start", "flow", h.flow)

	if update.Message == nil || update.Message.From == nil {
		return
	}

	log.InfoContext(ctx, "Starting flow",
		"user_id", update.Message.From.ID, "chat_id", update.Message.Chat.ID)

	reply := h.deps.Engine.StartFlow(ctx, update.Message.From.ID, h.flow, nil)
	sendReply(ctx, b, log, update.Message.Chat.ID, reply)
}
