package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/leadops/leadbot/internal/flow"
	"github.com/leadops/leadbot/internal/session"
)

// NewLeadRouter returns the default handler: every non-command message is
// decoded into a flow event and fed to the sender's active flow. Forwarded
// messages with no active flow open the add flow with prefill suggestions.
func NewLeadRouter(deps HandlerDeps) bot.HandlerFunc {
	return leadRouter{deps}.Handle
}

type leadRouter struct {
	deps HandlerDeps
}

func (h leadRouter) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "lead_router")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	ev, ok := h.decodeEvent(ctx, b, log, msg)
	if !ok {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if reply, handled := h.deps.Engine.HandleEvent(ctx, userID, ev); handled {
		sendReply(ctx, b, log, chatID, reply)
		return
	}

	// No active flow. A forwarded contact is an invitation to register it.
	if msg.ForwardOrigin != nil {
		h.startAddFromForward(ctx, b, log, msg)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.Help)
}

// decodeEvent maps a Telegram message onto a flow event. Control words are
// decoded here, at the transport boundary, so the engine never parses text
// twice.
func (h leadRouter) decodeEvent(ctx context.Context, b *bot.Bot, log *slog.Logger, msg *models.Message) (flow.Event, bool) {
	if len(msg.Photo) > 0 {
		// Telegram orders photo sizes ascending; the last is the original.
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		data, contentType, err := DownloadPhoto(ctx, b, h.deps.Config.Telegram.Token, fileID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to download photo", "error", err, "file_id", fileID)
			return flow.Event{}, false
		}
		return flow.Event{Kind: flow.EventPhoto, Photo: &flow.Photo{Data: data, ContentType: contentType}}, true
	}

	text := strings.TrimSpace(msg.Text)
	switch strings.ToLower(text) {
	case "skip", "-":
		return flow.Event{Kind: flow.EventSkip}, true
	case "quit", "cancel":
		return flow.Event{Kind: flow.EventQuit}, true
	}
	return flow.Event{Kind: flow.EventText, Text: text}, true
}

// startAddFromForward opens the add flow prefilled with whatever identity
// the forward origin exposes. The values are suggestions only; the operator
// confirms or replaces each one.
func (h leadRouter) startAddFromForward(ctx context.Context, b *bot.Bot, log *slog.Logger, msg *models.Message) {
	suggested := make(map[string]string)

	origin := msg.ForwardOrigin
	switch {
	case origin.MessageOriginUser != nil:
		sender := origin.MessageOriginUser.SenderUser
		name := strings.TrimSpace(sender.FirstName + " " + sender.LastName)
		if name != "" {
			suggested["fullname"] = name
		}
		if sender.Username != "" {
			suggested["telegram_user"] = sender.Username
		}
		if sender.ID != 0 {
			suggested["telegram_id"] = strconv.FormatInt(sender.ID, 10)
		}
	case origin.MessageOriginHiddenUser != nil:
		if name := strings.TrimSpace(origin.MessageOriginHiddenUser.SenderUserName); name != "" {
			suggested["fullname"] = name
		}
	default:
		// Forwards from chats and channels carry no personal identity.
	}

	log.InfoContext(ctx, "Starting add flow from forwarded message",
		"user_id", msg.From.ID, "suggestions", len(suggested))

	reply := h.deps.Engine.StartFlow(ctx, msg.From.ID, session.FlowAdd, suggested)
	sendReply(ctx, b, log, msg.Chat.ID, reply)
}
