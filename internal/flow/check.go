package flow

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/leadops/leadbot/internal/leads"
	"github.com/leadops/leadbot/internal/session"
)

// handleCheck runs the single-question lookup flow. The query type is
// auto-detected: every identifier column the value plausibly belongs to is
// tried in turn, and when the exact lookups all miss a word that could be a
// name falls through to the substring name search.
func (e *Engine) handleCheck(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if ev.Kind != EventText {
		return Reply{Text: "Send a phone, email, Telegram, Facebook link or part of a name."}, false, nil
	}

	query := leads.DetectQuery(ev.Text)
	switch query.Kind {
	case leads.QueryIdentifier:
		for _, cand := range query.Candidates {
			lead, err := e.store.FindByIdentifier(ctx, string(cand.Identifier), cand.Value, 0)
			if err != nil {
				return Reply{}, false, err
			}
			if lead == nil {
				continue
			}
			e.logger.InfoContext(ctx, "Check matched lead",
				"lead_id", lead.ID, "identifier_type", cand.Identifier, "owner", s.Owner)
			return Reply{Text: formatLead(lead)}, true, nil
		}
		// Exact lookups all missed; a bare word may still be part of a name.
		if fragment, ok := nameFragment(ev.Text); ok {
			return e.checkByName(ctx, fragment)
		}
		return Reply{Text: fmt.Sprintf("No lead found for %s.", strings.TrimSpace(ev.Text))}, true, nil

	case leads.QueryName:
		return e.checkByName(ctx, query.Value)

	default:
		return Reply{Text: "Couldn't make sense of that. Send a phone number, email, Telegram @username or ID, Facebook link, or at least 3 letters of a name."}, false, nil
	}
}

func (e *Engine) checkByName(ctx context.Context, fragment string) (Reply, bool, error) {
	found, err := e.store.SearchByNameFragment(ctx, fragment)
	if err != nil {
		return Reply{}, false, err
	}
	if len(found) == 0 {
		return Reply{Text: fmt.Sprintf("No leads with %q in the name.", fragment)}, true, nil
	}
	if len(found) == 1 {
		return Reply{Text: formatLead(&found[0])}, true, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d leads match %q:\n", len(found), fragment)
	for i := range found {
		b.WriteString(formatLeadShort(&found[i]))
		b.WriteString("\n")
	}
	b.WriteString("\nSend /check again with an identifier to narrow it down.")
	return Reply{Text: b.String()}, true, nil
}

// nameFragment reports whether a missed identifier-looking value is worth a
// name search: at least 3 runes after cleanup, containing a letter.
func nameFragment(raw string) (string, bool) {
	name, err := leads.NormalizeName(raw)
	if err != nil || len([]rune(name)) < 3 {
		return "", false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return name, true
		}
	}
	return "", false
}
