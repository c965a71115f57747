package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leadops/leadbot/internal/database"
	"github.com/leadops/leadbot/internal/leads"
	"github.com/leadops/leadbot/internal/metrics"
	"github.com/leadops/leadbot/internal/session"
)

// editableFields is the choice list offered after the target lead is found.
var editableFields = []string{
	"fullname", "manager_name", "manager_tag",
	"phone", "email", "facebook_link", "telegram_user", "telegram_id",
	"country",
}

// handleEdit runs the PIN-gated single-field edit: locate the lead by one of
// its identifiers, pick a field, send the replacement value.
func (e *Engine) handleEdit(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if ev.Kind != EventText {
		return Reply{Text: "Please answer in text."}, false, nil
	}
	text := strings.TrimSpace(ev.Text)

	switch s.Field {
	case "target":
		return e.editLocateTarget(ctx, s, text)
	case "field":
		return e.editPickField(s, text)
	case "value":
		return e.editApplyValue(ctx, s, text)
	default:
		return Reply{}, true, fmt.Errorf("edit flow in unknown step %q", s.Field)
	}
}

func (e *Engine) editLocateTarget(ctx context.Context, s *session.Session, text string) (Reply, bool, error) {
	query := leads.DetectQuery(text)
	if query.Kind != leads.QueryIdentifier {
		return Reply{Text: "To edit a lead I need one of its identifiers — phone, email, Telegram @username or ID, or Facebook link."}, false, nil
	}

	for _, cand := range query.Candidates {
		lead, err := e.store.FindByIdentifier(ctx, string(cand.Identifier), cand.Value, 0)
		if err != nil {
			return Reply{}, false, err
		}
		if lead == nil {
			continue
		}
		s.TargetLeadID = lead.ID
		s.Field = "field"
		return Reply{
			Text:    formatLead(lead) + "\n\nWhich field should change?",
			Options: editableFields,
		}, false, nil
	}

	return Reply{Text: fmt.Sprintf("No lead found for %s. %s", text, msgQuit)}, true, nil
}

func (e *Engine) editPickField(s *session.Session, text string) (Reply, bool, error) {
	column := strings.ToLower(strings.Join(strings.Fields(text), "_"))
	if !database.EditableColumn(column) || column == "photo_url" {
		return Reply{
			Text:    "Pick one of the listed fields.",
			Options: editableFields,
		}, false, nil
	}

	s.Set("column", column)
	s.Field = "value"

	prompt := fmt.Sprintf("New value for %s?", columnLabel(column))
	if isIdentifierColumn(column) {
		prompt += " Send \"clear\" to remove it."
	}
	return Reply{Text: prompt}, false, nil
}

func (e *Engine) editApplyValue(ctx context.Context, s *session.Session, text string) (Reply, bool, error) {
	column := s.Get("column")

	value, reply, ok := normalizeEditValue(column, text)
	if !ok {
		return reply, false, nil
	}

	lead, err := e.store.UpdateLeadField(ctx, s.TargetLeadID, column, value)
	if err != nil {
		var dup *database.DuplicateIdentifierError
		switch {
		case errors.As(err, &dup):
			metrics.IdentifierConflicts.Inc()
			existing, findErr := e.store.FindByIdentifier(ctx, dup.Column, value, s.TargetLeadID)
			if findErr == nil && existing != nil {
				return Reply{Text: fmt.Sprintf("That %s already belongs to %s. Send a different value.",
					columnLabel(dup.Column), formatLeadShort(existing))}, false, nil
			}
			return Reply{Text: fmt.Sprintf("That %s already belongs to another lead. Send a different value.",
				columnLabel(dup.Column))}, false, nil
		case errors.Is(err, database.ErrNotFound):
			return Reply{Text: "That lead no longer exists. " + msgQuit}, true, nil
		default:
			return Reply{}, false, err
		}
	}

	e.logger.InfoContext(ctx, "Lead field edited",
		"lead_id", lead.ID, "column", column, "owner", s.Owner)
	return Reply{Text: "Updated.\n\n" + formatLead(lead)}, true, nil
}

// normalizeEditValue canonicalizes the replacement value for its column.
// "clear" empties identifier and optional columns; required columns reject
// it.
func normalizeEditValue(column, text string) (string, Reply, bool) {
	if strings.EqualFold(strings.TrimSpace(text), "clear") {
		if column == "fullname" || column == "manager_name" {
			return "", Reply{Text: fmt.Sprintf("%s cannot be empty. Send a new value.", capitalize(columnLabel(column)))}, false
		}
		return "", Reply{}, true
	}

	if isIdentifierColumn(column) {
		value, err := leads.Normalize(leads.IdentifierType(column), text)
		if err != nil {
			return "", Reply{Text: fmt.Sprintf("That doesn't look right: %v. Try again.", err)}, false
		}
		return value, Reply{}, true
	}

	if column == "manager_tag" {
		tag := leads.NormalizeTag(text)
		if tag == "" {
			return "", Reply{Text: "That tag is empty after cleanup. Send a handle like @team_lead."}, false
		}
		return tag, Reply{}, true
	}

	value, err := leads.NormalizeName(text)
	if err != nil {
		return "", Reply{Text: fmt.Sprintf("That doesn't look right: %v. Try again.", err)}, false
	}
	return value, Reply{}, true
}

func isIdentifierColumn(column string) bool {
	switch leads.IdentifierType(column) {
	case leads.IdentifierPhone, leads.IdentifierEmail, leads.IdentifierFacebookLink,
		leads.IdentifierTelegramUser, leads.IdentifierTelegramID:
		return true
	}
	return false
}
