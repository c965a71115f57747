package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadops/leadbot/internal/leads"
	"github.com/leadops/leadbot/internal/session"
)

// promptTagManager opens the tag flow's first step, offering the known
// manager names as one-tap options.
func (e *Engine) promptTagManager(ctx context.Context, s *session.Session) (Reply, bool, error) {
	names, err := e.store.ListManagerNames(ctx)
	if err != nil {
		return Reply{}, false, err
	}
	if len(names) == 0 {
		return Reply{Text: "There are no leads yet, so there is nothing to tag."}, true, nil
	}

	s.Field = "manager_name"
	return Reply{
		Text:    "PIN accepted. Whose leads should get the new tag? The name must match exactly.",
		Options: names,
	}, false, nil
}

// handleTag runs the PIN-gated bulk tag change: pick a manager by exact
// name, send the new tag, every lead of that manager gets it.
func (e *Engine) handleTag(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if ev.Kind != EventText {
		return Reply{Text: "Please answer in text."}, false, nil
	}
	text := strings.TrimSpace(ev.Text)

	switch s.Field {
	case "manager_name":
		name, err := leads.NormalizeName(text)
		if err != nil {
			return Reply{Text: "Send the manager's name exactly as it appears on the leads."}, false, nil
		}
		count, err := e.store.CountByManager(ctx, name)
		if err != nil {
			return Reply{}, false, err
		}
		if count == 0 {
			return Reply{Text: fmt.Sprintf("No leads belong to %q. The name must match exactly — check the spelling.", name)}, false, nil
		}
		s.Set("manager_name", name)
		s.Field = "tag"
		return Reply{Text: fmt.Sprintf("%d leads belong to %s. What's the new tag? (@handle or t.me link)", count, name)}, false, nil

	case "tag":
		tag := leads.NormalizeTag(text)
		if tag == "" {
			return Reply{Text: "That tag is empty after cleanup. Send a handle like @team_lead or a t.me link."}, false, nil
		}
		count, err := e.store.BulkUpdateTag(ctx, s.Get("manager_name"), tag)
		if err != nil {
			return Reply{}, false, err
		}
		e.logger.InfoContext(ctx, "Manager tag changed",
			"manager_name", s.Get("manager_name"), "tag", tag, "count", count, "owner", s.Owner)
		return Reply{Text: fmt.Sprintf("Done. %d leads of %s now carry @%s.", count, s.Get("manager_name"), tag)}, true, nil

	default:
		return Reply{}, true, fmt.Errorf("tag flow in unknown step %q", s.Field)
	}
}
