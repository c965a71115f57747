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

// addField is one step of the add flow. Identifier fields normalize through
// the shared canonicalizers so the value stored is the value the uniqueness
// indexes compare.
type addField struct {
	name     string
	prompt   string
	optional bool
	ident    leads.IdentifierType // zero for free-text fields
}

var addSequence = []addField{
	{name: "fullname", prompt: "Full name of the lead?"},
	{name: "manager_name", prompt: "Which manager owns this lead?"},
	{name: "phone", prompt: "Phone number?", optional: true, ident: leads.IdentifierPhone},
	{name: "email", prompt: "Email address?", optional: true, ident: leads.IdentifierEmail},
	{name: "facebook_link", prompt: "Facebook profile (link, username or ID)?", optional: true, ident: leads.IdentifierFacebookLink},
	{name: "telegram_user", prompt: "Telegram @username?", optional: true, ident: leads.IdentifierTelegramUser},
	{name: "telegram_id", prompt: "Telegram user ID?", optional: true, ident: leads.IdentifierTelegramID},
	{name: "country", prompt: "Country?", optional: true},
	{name: "photo", prompt: "Send a photo of the lead, or \"skip\".", optional: true},
}

// lastIdentifierStep is the index of telegram_id, the final identifier in
// the sequence. Skipping it with no identifier collected re-prompts instead
// of advancing: a lead without a single identifier can never be checked
// against.
const lastIdentifierStep = 6

func (e *Engine) handleAdd(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if s.State == session.StateAwaitingConfirmation {
		return e.handleAddConfirmation(ctx, s, ev)
	}
	if s.Step < 0 || s.Step >= len(addSequence) {
		return Reply{}, true, fmt.Errorf("add flow step %d out of range", s.Step)
	}

	field := addSequence[s.Step]

	switch ev.Kind {
	case EventSkip:
		if !field.optional {
			return Reply{Text: "This field is required. " + field.prompt}, false, nil
		}
		if !hasCollectedIdentifier(s) && (s.Step == lastIdentifierStep || (s.ConfirmPending && field.ident != "")) {
			return Reply{Text: "At least one identifier is needed to register a lead — a phone, email, Facebook or Telegram. " + field.prompt}, false, nil
		}
		return e.advanceAdd(s), false, nil

	case EventPhoto:
		if field.name != "photo" {
			return Reply{Text: "A photo is not expected yet. " + field.prompt}, false, nil
		}
		return e.collectPhoto(ctx, s, ev.Photo)

	case EventText:
		if field.name == "photo" {
			return Reply{Text: "Please send the photo as an image, or \"skip\"."}, false, nil
		}
		return e.collectAddText(s, field, ev.Text)

	default:
		return Reply{Text: field.prompt}, false, nil
	}
}

func (e *Engine) collectAddText(s *session.Session, field addField, text string) (Reply, bool, error) {
	var value string
	var err error
	if field.ident != "" {
		value, err = leads.Normalize(field.ident, text)
	} else {
		value, err = leads.NormalizeName(text)
	}
	if err != nil {
		return Reply{Text: fmt.Sprintf("That doesn't look right: %v. %s", err, field.prompt)}, false, nil
	}

	s.Set(field.name, value)
	return e.advanceAdd(s), false, nil
}

func (e *Engine) collectPhoto(ctx context.Context, s *session.Session, photo *Photo) (Reply, bool, error) {
	if photo == nil || len(photo.Data) == 0 {
		return Reply{Text: "The photo came through empty, please send it again or \"skip\"."}, false, nil
	}
	url, err := e.photos.Upload(ctx, photo.Data, photo.ContentType)
	if err != nil {
		e.logger.ErrorContext(ctx, "Photo upload failed during add flow", "owner", s.Owner, "error", err)
		return Reply{Text: "Couldn't store the photo right now. Send it again, or \"skip\"."}, false, nil
	}
	s.Set("photo_url", url)
	return e.advanceAdd(s), false, nil
}

// advanceAdd moves to the next field, jumping over the photo step when photo
// storage is disabled, and switches to confirmation after the last field. A
// conflict detour returns straight to confirmation: the later fields were
// already answered.
func (e *Engine) advanceAdd(s *session.Session) Reply {
	if s.ConfirmPending {
		s.ConfirmPending = false
		return promptAddConfirm(s)
	}
	s.Step++
	for s.Step < len(addSequence) {
		if addSequence[s.Step].name == "photo" && (e.photos == nil || !e.photos.Enabled()) {
			s.Step++
			continue
		}
		break
	}
	if s.Step >= len(addSequence) {
		return promptAddConfirm(s)
	}
	return e.promptAddField(s)
}

func promptAddConfirm(s *session.Session) Reply {
	s.State = session.StateAwaitingConfirmation
	return Reply{
		Text:    "Here's the lead so far:\n\n" + formatDraft(s) + "\n\nSave it?",
		Options: []string{"confirm", "cancel"},
	}
}

// promptAddField renders the prompt for the current field, surfacing any
// forwarded-message suggestion as a one-tap option.
func (e *Engine) promptAddField(s *session.Session) Reply {
	field := addSequence[s.Step]
	s.Field = field.name

	reply := Reply{Text: field.prompt}
	if field.optional {
		reply.Text += " (or \"skip\")"
		reply.Options = append(reply.Options, "skip")
	}
	if suggestion := s.Suggested[field.name]; suggestion != "" {
		reply.Text += fmt.Sprintf("\nFrom the forwarded message: %s", suggestion)
		reply.Options = append([]string{suggestion}, reply.Options...)
	}
	return reply
}

func (e *Engine) handleAddConfirmation(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if ev.Kind != EventText {
		return Reply{Text: "Save the lead?", Options: []string{"confirm", "cancel"}}, false, nil
	}

	switch strings.ToLower(strings.TrimSpace(ev.Text)) {
	case "confirm", "yes", "y", "save":
		return e.finalizeAdd(ctx, s)
	case "cancel", "no", "n":
		return Reply{Text: msgQuit}, true, nil
	default:
		return Reply{Text: "Please answer \"confirm\" or \"cancel\".", Options: []string{"confirm", "cancel"}}, false, nil
	}
}

// finalizeAdd resolves the collected identifiers against existing leads and
// inserts the record. The resolver pass is advisory; the unique indexes have
// the final word, so a duplicate-key rejection takes the same conflict path.
func (e *Engine) finalizeAdd(ctx context.Context, s *session.Session) (Reply, bool, error) {
	candidates := make(map[leads.IdentifierType]string)
	for _, typ := range leads.ResolvePrecedence {
		if v := s.Get(string(typ)); v != "" {
			candidates[typ] = v
		}
	}

	match, err := e.resolver.Resolve(ctx, candidates, 0)
	if err != nil {
		return Reply{}, false, err
	}
	if match.Lead != nil {
		return e.addConflict(s, string(match.Field), match.Lead), false, nil
	}

	lead := &database.Lead{
		FullName:    s.Get("fullname"),
		ManagerName: s.Get("manager_name"),
	}
	for _, typ := range leads.ResolvePrecedence {
		lead.SetIdentifier(string(typ), s.Get(string(typ)))
	}
	if country := s.Get("country"); country != "" {
		lead.Country.String, lead.Country.Valid = country, true
	}
	if photoURL := s.Get("photo_url"); photoURL != "" {
		lead.PhotoURL.String, lead.PhotoURL.Valid = photoURL, true
	}

	if err := e.store.InsertLead(ctx, lead); err != nil {
		var dup *database.DuplicateIdentifierError
		if errors.As(err, &dup) {
			// Another lead claimed the identifier between the advisory
			// check and the insert.
			return e.addConflictColumn(ctx, s, dup.Column), false, nil
		}
		return Reply{}, false, err
	}

	metrics.LeadsCreated.Inc()
	e.logger.InfoContext(ctx, "Lead registered",
		"lead_id", lead.ID, "manager_name", lead.ManagerName, "owner", s.Owner)
	return Reply{Text: fmt.Sprintf("Saved. %s", formatLeadShort(lead))}, true, nil
}

// addConflict sends the operator back to the offending field with the rest
// of their progress intact; the next answer returns to confirmation.
func (e *Engine) addConflict(s *session.Session, column string, existing *database.Lead) Reply {
	metrics.IdentifierConflicts.Inc()
	delete(s.Collected, column)
	s.State = session.StateAwaitingField
	s.Step = addStepFor(column)
	s.Field = column
	s.ConfirmPending = true

	text := fmt.Sprintf("That %s already belongs to %s.\nSend a different %s",
		columnLabel(column), formatLeadShort(existing), columnLabel(column))
	reply := Reply{Text: text + ", or \"skip\" to drop it.", Options: []string{"skip"}}
	return reply
}

func (e *Engine) addConflictColumn(ctx context.Context, s *session.Session, column string) Reply {
	existing, err := e.store.FindByIdentifier(ctx, column, s.Get(column), 0)
	if err != nil || existing == nil {
		metrics.IdentifierConflicts.Inc()
		delete(s.Collected, column)
		s.State = session.StateAwaitingField
		s.Step = addStepFor(column)
		s.Field = column
		s.ConfirmPending = true
		return Reply{
			Text:    fmt.Sprintf("That %s is already registered to another lead. Send a different one, or \"skip\" to drop it.", columnLabel(column)),
			Options: []string{"skip"},
		}
	}
	return e.addConflict(s, column, existing)
}

func addStepFor(column string) int {
	for i, f := range addSequence {
		if f.name == column {
			return i
		}
	}
	return 0
}

func hasCollectedIdentifier(s *session.Session) bool {
	for _, typ := range leads.ResolvePrecedence {
		if s.Get(string(typ)) != "" {
			return true
		}
	}
	return false
}

func columnLabel(column string) string {
	switch column {
	case "phone":
		return "phone number"
	case "email":
		return "email address"
	case "facebook_link":
		return "Facebook profile"
	case "telegram_user":
		return "Telegram username"
	case "telegram_id":
		return "Telegram ID"
	default:
		return strings.ReplaceAll(column, "_", " ")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatDraft renders the confirmation summary from collected values.
func formatDraft(s *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", s.Get("fullname"))
	fmt.Fprintf(&b, "Manager: %s\n", s.Get("manager_name"))
	for _, typ := range leads.ResolvePrecedence {
		if v := s.Get(string(typ)); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", capitalize(columnLabel(string(typ))), v)
		}
	}
	if v := s.Get("country"); v != "" {
		fmt.Fprintf(&b, "Country: %s\n", v)
	}
	if v := s.Get("photo_url"); v != "" {
		fmt.Fprintf(&b, "Photo: %s\n", v)
	}
	return strings.TrimRight(b.String(), "\n")
}
