package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/leadops/leadbot/internal/session"
)

// RegisteredHandler bundles a command handler with its registration details
// and per-handler middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes the map of all bot commands. Rate limiting
// is applied globally through bot middleware, not per command.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(pattern string, h tgbot.HandlerFunc) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}

	handlers["/start"] = command("start", NewStartHandler(deps))
	handlers["/help"] = command("help", NewHelpHandler(deps))
	handlers["/cancel"] = command("cancel", NewCancelHandler(deps))

	handlers["/check"] = command("check", NewFlowStartHandler(deps, session.FlowCheck))
	handlers["/add"] = command("add", NewFlowStartHandler(deps, session.FlowAdd))
	handlers["/edit"] = command("edit", NewFlowStartHandler(deps, session.FlowEdit))
	handlers["/tag"] = command("tag", NewFlowStartHandler(deps, session.FlowTag))
	handlers["/transfer"] = command("transfer", NewFlowStartHandler(deps, session.FlowTransfer))

	return handlers
}
