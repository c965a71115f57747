package leads_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leadops/leadbot/internal/database"
	"github.com/leadops/leadbot/internal/leads"
)

// fakeFinder resolves lookups from a fixed column/value table and records
// the order in which columns were queried.
type fakeFinder struct {
	matches map[string]*database.Lead // key: column + "=" + value
	queried []string
	err     error
}

func (f *fakeFinder) FindByIdentifier(_ context.Context, column, value string, excludeID int64) (*database.Lead, error) {
	f.queried = append(f.queried, column)
	if f.err != nil {
		return nil, f.err
	}
	lead := f.matches[column+"="+value]
	if lead != nil && lead.ID == excludeID {
		return nil, nil
	}
	return lead, nil
}

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	phoneLead := &database.Lead{ID: 1, FullName: "Phone Match"}
	emailLead := &database.Lead{ID: 2, FullName: "Email Match"}
	finder := &fakeFinder{matches: map[string]*database.Lead{
		"phone=15551234567":      phoneLead,
		"email=agent@example.io": emailLead,
	}}
	resolver := leads.NewResolver(finder, nil, 0)

	match, err := resolver.Resolve(context.Background(), map[leads.IdentifierType]string{
		leads.IdentifierEmail: "agent@example.io",
		leads.IdentifierPhone: "15551234567",
	}, 0)
	if err != nil {
		t.Fatalf("Resolve returned unexpected error: %v", err)
	}
	if match.Lead == nil || match.Lead.ID != phoneLead.ID {
		t.Fatalf("Resolve matched %+v, want phone lead %d", match.Lead, phoneLead.ID)
	}
	if match.Field != leads.IdentifierPhone {
		t.Errorf("Resolve matched on %q, want phone", match.Field)
	}
	// Phone wins, so email must never have been queried.
	for _, col := range finder.queried {
		if col == "email" {
			t.Errorf("email was queried even though phone matched first: %v", finder.queried)
		}
	}
}

func TestResolveNoMatch(t *testing.T) {
	t.Parallel()

	finder := &fakeFinder{matches: map[string]*database.Lead{}}
	resolver := leads.NewResolver(finder, nil, 0)

	match, err := resolver.Resolve(context.Background(), map[leads.IdentifierType]string{
		leads.IdentifierPhone:      "15551234567",
		leads.IdentifierTelegramID: "123456789",
	}, 0)
	if err != nil {
		t.Fatalf("Resolve returned unexpected error: %v", err)
	}
	if match.Lead != nil {
		t.Fatalf("Resolve matched %+v, want no match", match.Lead)
	}
	if len(finder.queried) != 2 {
		t.Errorf("Resolve queried %d columns, want 2 (every populated candidate)", len(finder.queried))
	}
}

func TestResolveSkipsEmptyCandidates(t *testing.T) {
	t.Parallel()

	finder := &fakeFinder{matches: map[string]*database.Lead{}}
	resolver := leads.NewResolver(finder, nil, 0)

	_, err := resolver.Resolve(context.Background(), map[leads.IdentifierType]string{
		leads.IdentifierPhone: "",
		leads.IdentifierEmail: "agent@example.io",
	}, 0)
	if err != nil {
		t.Fatalf("Resolve returned unexpected error: %v", err)
	}
	if len(finder.queried) != 1 || finder.queried[0] != "email" {
		t.Errorf("Resolve queried %v, want only email", finder.queried)
	}
}

func TestResolveExcludesLead(t *testing.T) {
	t.Parallel()

	self := &database.Lead{ID: 7, FullName: "Self"}
	finder := &fakeFinder{matches: map[string]*database.Lead{
		"phone=15551234567": self,
	}}
	resolver := leads.NewResolver(finder, nil, 0)

	match, err := resolver.Resolve(context.Background(), map[leads.IdentifierType]string{
		leads.IdentifierPhone: "15551234567",
	}, self.ID)
	if err != nil {
		t.Fatalf("Resolve returned unexpected error: %v", err)
	}
	if match.Lead != nil {
		t.Fatalf("Resolve matched the excluded lead %d", match.Lead.ID)
	}
}

// TestResolveStoreFailure verifies a store error is surfaced as an error,
// never silently treated as "no match".
func TestResolveStoreFailure(t *testing.T) {
	t.Parallel()

	storeErr := fmt.Errorf("lookup: %w", database.ErrUnavailable)
	finder := &fakeFinder{err: storeErr}
	resolver := leads.NewResolver(finder, nil, 0)

	_, err := resolver.Resolve(context.Background(), map[leads.IdentifierType]string{
		leads.IdentifierPhone: "15551234567",
	}, 0)
	if err == nil {
		t.Fatal("Resolve returned nil error for a failing store")
	}
	if !errors.Is(err, database.ErrUnavailable) {
		t.Errorf("Resolve error = %v, want wrapped ErrUnavailable", err)
	}
}
