package leads

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/leadops/leadbot/internal/database"
)

// Finder is the read side of the record store the resolver consults. The
// database.Store satisfies it.
type Finder interface {
	FindByIdentifier(ctx context.Context, column, value string, excludeID int64) (*database.Lead, error)
}

// Match describes a resolution hit: which identifier type matched and the
// existing lead it belongs to. A nil Lead means no match.
type Match struct {
	Field IdentifierType
	Lead  *database.Lead
}

// Resolver decides whether a set of normalized candidate identifiers
// collides with an existing lead. Its pre-check is advisory: the store's
// unique indexes remain authoritative, so callers must still treat a
// duplicate-key rejection on insert as a conflict.
type Resolver struct {
	finder  Finder
	logger  *slog.Logger
	timeout time.Duration
}

// NewResolver creates a resolver over the given store with a per-lookup
// timeout applied to each identifier query.
func NewResolver(finder Finder, logger *slog.Logger, timeout time.Duration) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		finder:  finder,
		logger:  logger.With("component", "resolver"),
		timeout: timeout,
	}
}

// Resolve queries the store for each populated candidate in fixed
// precedence order (phone, email, facebook_link, telegram_user,
// telegram_id) and returns the first hit. excludeID > 0 ignores that lead,
// which lets the edit flow replace a value on the lead itself.
//
// A store failure is returned as a wrapped database.ErrUnavailable and is
// never reported as "no match".
func (r *Resolver) Resolve(ctx context.Context, candidates map[IdentifierType]string, excludeID int64) (Match, error) {
	for _, typ := range ResolvePrecedence {
		value := candidates[typ]
		if value == "" {
			continue
		}

		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		lead, err := r.finder.FindByIdentifier(lookupCtx, string(typ), value, excludeID)
		cancel()
		if err != nil {
			r.logger.ErrorContext(ctx, "Identifier lookup failed", "identifier_type", typ, "error", err)
			return Match{}, fmt.Errorf("resolve %s: %w", typ, err)
		}
		if lead != nil {
			r.logger.DebugContext(ctx, "Identifier matched existing lead",
				"identifier_type", typ, "lead_id", lead.ID)
			return Match{Field: typ, Lead: lead}, nil
		}
	}
	return Match{}, nil
}
