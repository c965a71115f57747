package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadops/leadbot/internal/leads"
	"github.com/leadops/leadbot/internal/session"
)

// promptTransferFrom opens the transfer flow's first step.
func (e *Engine) promptTransferFrom(ctx context.Context, s *session.Session) (Reply, bool, error) {
	names, err := e.store.ListManagerNames(ctx)
	if err != nil {
		return Reply{}, false, err
	}
	if len(names) == 0 {
		return Reply{Text: "There are no leads yet, so there is nothing to transfer."}, true, nil
	}
	return Reply{
		Text:    "PIN accepted. Which manager is handing over their leads?",
		Options: names,
	}, false, nil
}

// handleTransfer runs the PIN-gated bulk reassignment of all of one
// manager's leads to another.
func (e *Engine) handleTransfer(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if s.State == session.StateAwaitingConfirmation {
		return e.handleTransferConfirmation(ctx, s, ev)
	}
	if ev.Kind == EventSkip && s.Field == "to_tag" {
		s.Set("to_tag", "")
		return e.promptTransferConfirm(s), false, nil
	}
	if ev.Kind != EventText {
		return Reply{Text: "Please answer in text."}, false, nil
	}
	text := strings.TrimSpace(ev.Text)

	switch s.Field {
	case "from_manager":
		name, err := leads.NormalizeName(text)
		if err != nil {
			return Reply{Text: "Send the manager's name exactly as it appears on the leads."}, false, nil
		}
		count, err := e.store.CountByManager(ctx, name)
		if err != nil {
			return Reply{}, false, err
		}
		if count == 0 {
			return Reply{Text: fmt.Sprintf("No leads belong to %q. The name must match exactly.", name)}, false, nil
		}
		s.Set("from_manager", name)
		s.Set("count", fmt.Sprintf("%d", count))
		s.Field = "to_manager"
		return Reply{Text: fmt.Sprintf("%d leads belong to %s. Who takes them over?", count, name)}, false, nil

	case "to_manager":
		name, err := leads.NormalizeName(text)
		if err != nil {
			return Reply{Text: "Send the receiving manager's name."}, false, nil
		}
		if name == s.Get("from_manager") {
			return Reply{Text: "That's the same manager. Who should receive the leads?"}, false, nil
		}
		s.Set("to_manager", name)
		s.Field = "to_tag"
		return Reply{
			Text:    fmt.Sprintf("Tag for %s's newly received leads? (or \"skip\" to leave them untagged)", name),
			Options: []string{"skip"},
		}, false, nil

	case "to_tag":
		tag := leads.NormalizeTag(text)
		if tag == "" {
			return Reply{Text: "That tag is empty after cleanup. Send a handle, or \"skip\".", Options: []string{"skip"}}, false, nil
		}
		s.Set("to_tag", tag)
		return e.promptTransferConfirm(s), false, nil

	default:
		return Reply{}, true, fmt.Errorf("transfer flow in unknown step %q", s.Field)
	}
}

func (e *Engine) promptTransferConfirm(s *session.Session) Reply {
	s.State = session.StateAwaitingConfirmation
	text := fmt.Sprintf("Move all %s leads from %s to %s", s.Get("count"), s.Get("from_manager"), s.Get("to_manager"))
	if tag := s.Get("to_tag"); tag != "" {
		text += fmt.Sprintf(" with tag @%s", tag)
	}
	return Reply{Text: text + "?", Options: []string{"confirm", "cancel"}}
}

func (e *Engine) handleTransferConfirmation(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if ev.Kind != EventText {
		return Reply{Text: "Please answer \"confirm\" or \"cancel\".", Options: []string{"confirm", "cancel"}}, false, nil
	}

	switch strings.ToLower(strings.TrimSpace(ev.Text)) {
	case "confirm", "yes", "y":
		count, err := e.store.TransferManagerLeads(ctx, s.Get("from_manager"), s.Get("to_manager"), s.Get("to_tag"))
		if err != nil {
			return Reply{}, false, err
		}
		e.logger.InfoContext(ctx, "Manager leads transferred",
			"from", s.Get("from_manager"), "to", s.Get("to_manager"), "count", count, "owner", s.Owner)
		return Reply{Text: fmt.Sprintf("Done. %d leads moved from %s to %s.",
			count, s.Get("from_manager"), s.Get("to_manager"))}, true, nil
	case "cancel", "no", "n":
		return Reply{Text: msgQuit}, true, nil
	default:
		return Reply{Text: "Please answer \"confirm\" or \"cancel\".", Options: []string{"confirm", "cancel"}}, false, nil
	}
}
