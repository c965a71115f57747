package leads

import (
	"strings"
	"unicode"
)

// QueryKind classifies what an operator typed into the check prompt.
type QueryKind string

const (
	QueryIdentifier QueryKind = "identifier"
	QueryName       QueryKind = "name"
	QueryUnknown    QueryKind = "unknown"
)

// Candidate is one identifier column a lookup value plausibly belongs to,
// with the value already normalized for that column.
type Candidate struct {
	Identifier IdentifierType
	Value      string
}

// Query is the result of auto-detecting a check-flow input: one or more
// normalized identifier candidates, a name fragment for substring search, or
// unknown. Value holds the name fragment for QueryName and the raw input
// otherwise.
type Query struct {
	Kind       QueryKind
	Candidates []Candidate // set when Kind == QueryIdentifier, in lookup order
	Value      string
}

// DetectQuery guesses the identifier types of a free-form lookup value so
// the check flow can search without asking the operator what the value is.
//
// Ambiguous values yield every plausible column: a bare word like "agent007"
// is a valid Telegram username and a valid Facebook username, so both become
// candidates. Digit-only values are split by length (Telegram user IDs are
// at most 13 digits in practice, Facebook profile IDs at least 14) with a
// phone candidate added when the digit count is plausible for one.
// URL-looking values resolve as facebook links, values with spaces or
// non-Latin letters fall back to a name search.
func DetectQuery(raw string) Query {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Query{Kind: QueryUnknown, Value: value}
	}

	if isAllDigits(value) {
		var cands []Candidate
		switch {
		case len(value) >= 14:
			if id, err := NormalizeFacebookLink(value); err == nil {
				cands = append(cands, Candidate{IdentifierFacebookLink, id})
			}
		case len(value) >= 5:
			if id, err := NormalizeTelegramID(value); err == nil {
				cands = append(cands, Candidate{IdentifierTelegramID, id})
			}
			if digits, err := NormalizePhone(value); err == nil {
				cands = append(cands, Candidate{IdentifierPhone, digits})
			}
		}
		if len(cands) > 0 {
			return Query{Kind: QueryIdentifier, Candidates: cands, Value: value}
		}
		return Query{Kind: QueryUnknown, Value: value}
	}

	lower := strings.ToLower(value)
	looksLikeURL := strings.Contains(lower, "facebook.com") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.")
	if looksLikeURL {
		if id, err := NormalizeFacebookLink(value); err == nil {
			return Query{Kind: QueryIdentifier, Candidates: []Candidate{{IdentifierFacebookLink, id}}, Value: value}
		}
		return Query{Kind: QueryUnknown, Value: value}
	}

	if strings.Contains(value, "@") && strings.Contains(value, ".") {
		if addr, err := NormalizeEmail(value); err == nil {
			return Query{Kind: QueryIdentifier, Candidates: []Candidate{{IdentifierEmail, addr}}, Value: value}
		}
	}

	if looksLikePhone(value) {
		if digits, err := NormalizePhone(value); err == nil {
			return Query{Kind: QueryIdentifier, Candidates: []Candidate{{IdentifierPhone, digits}}, Value: value}
		}
	}

	if !containsNonLatinLetter(value) && !strings.ContainsAny(value, " \t") {
		var cands []Candidate
		if name, err := NormalizeTelegramUser(value); err == nil {
			cands = append(cands, Candidate{IdentifierTelegramUser, name})
		}
		if name, err := NormalizeFacebookLink(value); err == nil {
			cands = append(cands, Candidate{IdentifierFacebookLink, name})
		}
		if len(cands) > 0 {
			return Query{Kind: QueryIdentifier, Candidates: cands, Value: value}
		}
	}

	if name, err := NormalizeName(value); err == nil && len([]rune(name)) >= 3 {
		return Query{Kind: QueryName, Value: name}
	}
	return Query{Kind: QueryUnknown, Value: value}
}

// looksLikePhone reports whether a value reads as a phone number: a leading
// + or digit, and only digits, spaces and common separators after that.
func looksLikePhone(value string) bool {
	if value == "" {
		return false
	}
	if value[0] != '+' && (value[0] < '0' || value[0] > '9') {
		return false
	}
	for _, r := range strings.TrimPrefix(value, "+") {
		switch {
		case r >= '0' && r <= '9':
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return true
}

func containsNonLatinLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
