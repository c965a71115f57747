package leads_test

import (
	"testing"

	"github.com/leadops/leadbot/internal/leads"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "formatted international number",
			input:    "+1 (555) 123-4567",
			expected: "15551234567",
		},
		{
			name:     "same number different punctuation",
			input:    "+1(555)123-4567",
			expected: "15551234567",
		},
		{
			name:     "bare digits",
			input:    "15551234567",
			expected: "15551234567",
		},
		{
			name:     "spaces and dashes",
			input:    "380 67 123-45-67",
			expected: "380671234567",
		},
		{
			name:    "too few digits",
			input:   "+1 234",
			wantErr: true,
		},
		{
			name:    "no digits at all",
			input:   "call me",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := leads.NormalizePhone(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizePhone(%q) expected error, got %q", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "lowercase passthrough", input: "agent@example.com", expected: "agent@example.com"},
		{name: "uppercase folded", input: "Agent@Example.COM", expected: "agent@example.com"},
		{name: "surrounding whitespace", input: "  agent@example.com ", expected: "agent@example.com"},
		{name: "two at signs", input: "a@b@example.com", wantErr: true},
		{name: "no domain dot", input: "agent@localhost", wantErr: true},
		{name: "empty local part", input: "@example.com", wantErr: true},
		{name: "domain starts with dot", input: "agent@.com", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := leads.NormalizeEmail(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizeEmail(%q) expected error, got %q", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeEmail(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeTelegramUser(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "with at prefix", input: "@agent_007", expected: "agent_007"},
		{name: "without at prefix", input: "agent_007", expected: "agent_007"},
		{name: "case folded", input: "@Agent_007", expected: "agent_007"},
		{name: "too short", input: "@abc", wantErr: true},
		{name: "invalid characters", input: "@agent-007", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := leads.NormalizeTelegramUser(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizeTelegramUser(%q) expected error, got %q", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTelegramUser(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("NormalizeTelegramUser(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeFacebookLink(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "bare username", input: "john.doe", expected: "john.doe"},
		{name: "username case folded", input: "John.Doe", expected: "john.doe"},
		{name: "full profile url", input: "https://www.facebook.com/john.doe", expected: "john.doe"},
		{name: "url without scheme", input: "facebook.com/john.doe", expected: "john.doe"},
		{name: "url with trailing slash", input: "https://facebook.com/john.doe/", expected: "john.doe"},
		{name: "profile php id", input: "https://www.facebook.com/profile.php?id=100012345678901", expected: "100012345678901"},
		{name: "numeric profile id", input: "100012345678901", expected: "100012345678901"},
		{name: "numeric id too short", input: "1234", wantErr: true},
		{name: "username with spaces", input: "john doe", wantErr: true},
		{name: "username without letters rejected", input: "._-", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := leads.NormalizeFacebookLink(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizeFacebookLink(%q) expected error, got %q", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeFacebookLink(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("NormalizeFacebookLink(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

// TestNormalizeIdempotent verifies that feeding a normalizer its own output
// returns the same value: canonical forms are fixed points.
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := map[leads.IdentifierType][]string{
		leads.IdentifierPhone:        {"+1 (555) 123-4567", "380 67 123 45 67"},
		leads.IdentifierEmail:        {"Agent@Example.COM", "a.b@c.io"},
		leads.IdentifierTelegramUser: {"@Agent_007", "agent_007"},
		leads.IdentifierTelegramID:   {"123456789"},
		leads.IdentifierFacebookLink: {"https://facebook.com/John.Doe", "john.doe", "100012345678901"},
	}

	for typ, values := range inputs {
		for _, raw := range values {
			once, err := leads.Normalize(typ, raw)
			if err != nil {
				t.Fatalf("Normalize(%s, %q) unexpected error: %v", typ, raw, err)
			}
			twice, err := leads.Normalize(typ, once)
			if err != nil {
				t.Fatalf("Normalize(%s, %q) second pass error: %v", typ, once, err)
			}
			if once != twice {
				t.Errorf("Normalize(%s) not idempotent: %q -> %q -> %q", typ, raw, once, twice)
			}
		}
	}
}

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "at handle", input: "@team_lead", expected: "team_lead"},
		{name: "bare handle", input: "team_lead", expected: "team_lead"},
		{name: "tme link", input: "t.me/team_lead", expected: "team_lead"},
		{name: "full tme url", input: "https://t.me/team_lead", expected: "team_lead"},
		{name: "trailing query", input: "t.me/team_lead?start=1", expected: "team_lead"},
		{name: "whitespace", input: "  @team_lead  ", expected: "team_lead"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := leads.NormalizeTag(tc.input); got != tc.expected {
				t.Errorf("NormalizeTag(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "collapses whitespace", input: "  Anna   Prime ", expected: "Anna Prime"},
		{name: "keeps unicode letters", input: "Анна Прайм", expected: "Анна Прайм"},
		{name: "only whitespace", input: "   \t ", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := leads.NormalizeName(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizeName(%q) expected error, got %q", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeName(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
