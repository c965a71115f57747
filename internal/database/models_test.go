package database_test

import (
	"testing"

	"github.com/leadops/leadbot/internal/database"
)

func TestLeadIdentifierRoundTrip(t *testing.T) {
	t.Parallel()

	lead := &database.Lead{}
	if lead.HasAnyIdentifier() {
		t.Fatal("empty lead reports an identifier")
	}

	lead.SetIdentifier("phone", "15551234567")
	if got := lead.Identifier("phone"); got != "15551234567" {
		t.Errorf("Identifier(phone) = %q, want 15551234567", got)
	}
	if !lead.Phone.Valid {
		t.Error("SetIdentifier left the phone column NULL")
	}
	if !lead.HasAnyIdentifier() {
		t.Error("lead with a phone reports no identifier")
	}

	// An empty value clears the column back to NULL.
	lead.SetIdentifier("phone", "")
	if lead.Phone.Valid {
		t.Error("SetIdentifier with empty value did not clear the column")
	}
	if lead.HasAnyIdentifier() {
		t.Error("cleared lead still reports an identifier")
	}
}

func TestLeadIdentifierUnknownColumn(t *testing.T) {
	t.Parallel()

	lead := &database.Lead{}
	lead.SetIdentifier("fullname", "nope")
	if got := lead.Identifier("fullname"); got != "" {
		t.Errorf("Identifier(fullname) = %q, want empty for non-identifier column", got)
	}
}

func TestEditableColumn(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		column string
		want   bool
	}{
		{column: "fullname", want: true},
		{column: "manager_name", want: true},
		{column: "manager_tag", want: true},
		{column: "phone", want: true},
		{column: "country", want: true},
		{column: "photo_url", want: true},
		{column: "id", want: false},
		{column: "created_at", want: false},
		{column: "", want: false},
		{column: "phone; DROP TABLE leads", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.column, func(t *testing.T) {
			t.Parallel()
			if got := database.EditableColumn(tc.column); got != tc.want {
				t.Errorf("EditableColumn(%q) = %v, want %v", tc.column, got, tc.want)
			}
		})
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		path string
		want string
	}{
		{name: "plain path", path: "leads.db", want: "leads.db"},
		{name: "file scheme", path: "file:leads.db", want: "leads.db"},
		{name: "with query params", path: "file:leads.db?cache=shared", want: "leads.db"},
		{name: "url encoded", path: "file:lead%20data.db", want: "lead data.db"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := database.ExtractDBNameFromPath(tc.path); got != tc.want {
				t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}
