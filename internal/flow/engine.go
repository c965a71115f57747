package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/leadops/leadbot/internal/access"
	"github.com/leadops/leadbot/internal/database"
	"github.com/leadops/leadbot/internal/leads"
	"github.com/leadops/leadbot/internal/metrics"
	"github.com/leadops/leadbot/internal/session"
	"github.com/leadops/leadbot/internal/storage"
)

const (
	msgQuit         = "Operation abandoned."
	msgBusy         = "Still working on your previous message, please wait a moment."
	msgUnavailable  = "The lead database is not responding right now. Your progress is saved — please try again in a moment."
	msgInternal     = "Something went wrong and the operation was abandoned. Please start over."
	msgAccessDenied = "Too many wrong PIN entries. Operation abandoned."
)

// Engine drives every multi-step conversation. It works on session
// snapshots: the per-user session is never locked across a database or
// storage call, and a snapshot that lost the race is discarded instead of
// committed.
type Engine struct {
	store    database.Store
	resolver *leads.Resolver
	sessions *session.Store
	gate     *access.Gate
	photos   storage.ObjectStorage
	logger   *slog.Logger
	clock    func() time.Time
}

// NewEngine wires the engine to its collaborators. photos may be a disabled
// storage client; the add flow then omits the photo step.
func NewEngine(store database.Store, resolver *leads.Resolver, sessions *session.Store,
	gate *access.Gate, photos storage.ObjectStorage, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:    store,
		resolver: resolver,
		sessions: sessions,
		gate:     gate,
		photos:   photos,
		logger:   logger.With("component", "flow_engine"),
		clock:    time.Now,
	}
}

// StartFlow begins a new flow for the owner, replacing any flow already in
// progress. suggested carries prefills extracted from forwarded-message
// metadata; they are offered to the operator, never silently accepted.
func (e *Engine) StartFlow(ctx context.Context, owner int64, flow session.Flow, suggested map[string]string) Reply {
	now := e.clock()
	e.sessions.Remove(owner)
	s := e.sessions.GetOrCreate(owner, now)
	s.Flow = flow
	s.Step = 0
	s.Suggested = suggested

	var reply Reply
	switch flow {
	case session.FlowCheck:
		s.State = session.StateAwaitingField
		s.Field = "query"
		reply = Reply{Text: "Who are we looking for? Send a phone number, email, Telegram @username or ID, Facebook link, or part of a name."}
	case session.FlowAdd:
		s.State = session.StateAwaitingField
		reply = e.promptAddField(s)
	case session.FlowEdit, session.FlowTag, session.FlowTransfer:
		s.State = session.StateAwaitingPin
		reply = Reply{Text: "This operation changes lead records. Please enter the PIN."}
	default:
		e.sessions.Remove(owner)
		return Reply{Text: msgInternal}
	}

	if err := e.sessions.Commit(s); err != nil {
		return Reply{Text: msgBusy}
	}
	return reply
}

// HandleEvent feeds one decoded operator update into the owner's active
// flow. The second return value is false when no flow is in progress, so the
// transport layer can fall back to its default response.
func (e *Engine) HandleEvent(ctx context.Context, owner int64, ev Event) (Reply, bool) {
	now := e.clock()
	s := e.sessions.Get(owner)
	if s == nil || s.Flow == session.FlowNone {
		return Reply{}, false
	}

	if ev.Kind == EventQuit {
		e.sessions.Remove(owner)
		return Reply{Text: msgQuit}, true
	}
	s.Touch(now)

	reply, done, err := e.dispatch(ctx, s, ev)
	switch {
	case err != nil && errors.Is(err, database.ErrUnavailable):
		// Progress is kept; the operator can retry the same answer.
		e.logger.WarnContext(ctx, "Flow step hit unavailable store",
			"owner", owner, "flow", s.Flow, "error", err)
		metrics.UpdatesProcessed.WithLabelValues("unavailable").Inc()
		if commitErr := e.sessions.Commit(s); commitErr != nil {
			return Reply{Text: msgBusy}, true
		}
		return Reply{Text: msgUnavailable}, true
	case err != nil && errors.Is(err, ErrAccessDenied):
		e.logger.WarnContext(ctx, "Privileged flow denied", "owner", owner, "flow", s.Flow)
		metrics.UpdatesProcessed.WithLabelValues("denied").Inc()
		e.sessions.Remove(owner)
		return Reply{Text: msgAccessDenied}, true
	case err != nil:
		// Unexpected fault: abandon the session rather than leave the
		// operator stuck on a broken step.
		e.logger.ErrorContext(ctx, "Flow step failed", "owner", owner, "flow", s.Flow, "error", err)
		metrics.UpdatesProcessed.WithLabelValues("error").Inc()
		e.sessions.Remove(owner)
		return Reply{Text: msgInternal}, true
	}

	if done {
		e.sessions.Remove(owner)
		metrics.UpdatesProcessed.WithLabelValues("completed").Inc()
		return reply, true
	}

	if err := e.sessions.Commit(s); err != nil {
		// A concurrent event for the same user advanced the session first.
		return Reply{Text: msgBusy}, true
	}
	metrics.UpdatesProcessed.WithLabelValues("advanced").Inc()
	return reply, true
}

// Cancel abandons the owner's flow. Returns false when nothing was active.
func (e *Engine) Cancel(owner int64) bool {
	s := e.sessions.Get(owner)
	if s == nil || s.Flow == session.FlowNone {
		return false
	}
	e.sessions.Remove(owner)
	return true
}

// Active reports whether the owner has a flow in progress.
func (e *Engine) Active(owner int64) bool {
	s := e.sessions.Get(owner)
	return s != nil && s.Flow != session.FlowNone
}

func (e *Engine) dispatch(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if s.State == session.StateAwaitingPin {
		return e.handlePin(ctx, s, ev)
	}

	switch s.Flow {
	case session.FlowCheck:
		return e.handleCheck(ctx, s, ev)
	case session.FlowAdd:
		return e.handleAdd(ctx, s, ev)
	case session.FlowEdit:
		return e.handleEdit(ctx, s, ev)
	case session.FlowTag:
		return e.handleTag(ctx, s, ev)
	case session.FlowTransfer:
		return e.handleTransfer(ctx, s, ev)
	default:
		return Reply{}, true, errors.New("session has no active flow")
	}
}

// handlePin gates the mutating flows. Wrong entries burn one of the limited
// attempts; control events do not.
func (e *Engine) handlePin(ctx context.Context, s *session.Session, ev Event) (Reply, bool, error) {
	if ev.Kind != EventText {
		return Reply{Text: "Please enter the PIN, or \"quit\" to abandon."}, false, nil
	}

	if !e.gate.Check(ev.Text) {
		s.PinAttempts++
		if s.PinAttempts >= pinAttemptLimit {
			return Reply{}, true, ErrAccessDenied
		}
		remaining := pinAttemptLimit - s.PinAttempts
		return Reply{Text: fmtAttempts(remaining)}, false, nil
	}

	s.State = session.StateAwaitingField
	s.Step = 0
	s.PinAttempts = 0

	switch s.Flow {
	case session.FlowEdit:
		s.Field = "target"
		return Reply{Text: "PIN accepted. Which lead should be edited? Send one of its identifiers (phone, email, Telegram or Facebook)."}, false, nil
	case session.FlowTag:
		return e.promptTagManager(ctx, s)
	case session.FlowTransfer:
		s.Field = "from_manager"
		return e.promptTransferFrom(ctx, s)
	default:
		return Reply{}, true, errors.New("pin state reached outside a privileged flow")
	}
}

func fmtAttempts(remaining int) string {
	if remaining == 1 {
		return "Wrong PIN. 1 attempt left."
	}
	return fmt.Sprintf("Wrong PIN. %d attempts left.", remaining)
}
