// Package leads contains the identifier normalization and identity
// resolution logic for lead records. Normalizers are pure functions: raw
// operator input goes in, the canonical comparable form (or a validation
// error) comes out. The same canonical form is stored in the database and
// used for every uniqueness check.
package leads

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// IdentifierType names one of the lead identifier columns subject to the
// per-field uniqueness invariant.
type IdentifierType string

const (
	IdentifierPhone        IdentifierType = "phone"
	IdentifierEmail        IdentifierType = "email"
	IdentifierFacebookLink IdentifierType = "facebook_link"
	IdentifierTelegramUser IdentifierType = "telegram_user"
	IdentifierTelegramID   IdentifierType = "telegram_id"
)

// ResolvePrecedence is the fixed order in which identifier types are
// consulted during identity resolution. The first populated type that hits
// an existing record is authoritative.
var ResolvePrecedence = []IdentifierType{
	IdentifierPhone,
	IdentifierEmail,
	IdentifierFacebookLink,
	IdentifierTelegramUser,
	IdentifierTelegramID,
}

const (
	minPhoneDigits      = 7
	minFacebookIDDigits = 5
	minFacebookUserLen  = 3
)

var telegramUserRe = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)

// Normalize canonicalizes raw input for the given identifier type.
func Normalize(typ IdentifierType, raw string) (string, error) {
	switch typ {
	case IdentifierPhone:
		return NormalizePhone(raw)
	case IdentifierEmail:
		return NormalizeEmail(raw)
	case IdentifierFacebookLink:
		return NormalizeFacebookLink(raw)
	case IdentifierTelegramUser:
		return NormalizeTelegramUser(raw)
	case IdentifierTelegramID:
		return NormalizeTelegramID(raw)
	default:
		return "", fmt.Errorf("unknown identifier type %q", typ)
	}
}

// NormalizePhone strips a leading + and all non-digit characters. The result
// must contain at least a plausible number of digits.
func NormalizePhone(raw string) (string, error) {
	digits := keepDigits(strings.TrimPrefix(strings.TrimSpace(raw), "+"))
	if len(digits) < minPhoneDigits {
		return "", fmt.Errorf("phone number must contain at least %d digits", minPhoneDigits)
	}
	return digits, nil
}

// NormalizeEmail lower-cases the address and checks the basic shape: exactly
// one @, a non-empty local part, and a dotted domain.
func NormalizeEmail(raw string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || strings.Contains(domain, "@") {
		return "", fmt.Errorf("email must contain exactly one @")
	}
	if local == "" {
		return "", fmt.Errorf("email local part cannot be empty")
	}
	if domain == "" || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", fmt.Errorf("email domain must contain a dot")
	}
	return addr, nil
}

// NormalizeTelegramUser strips a leading @ and validates the username shape.
func NormalizeTelegramUser(raw string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if !telegramUserRe.MatchString(name) {
		return "", fmt.Errorf("telegram username must be 5-32 letters, digits or underscores")
	}
	return strings.ToLower(name), nil
}

// NormalizeTelegramID accepts an all-digit Telegram user ID.
func NormalizeTelegramID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || keepDigits(id) != id {
		return "", fmt.Errorf("telegram ID must contain only digits")
	}
	return id, nil
}

// NormalizeFacebookLink accepts a bare username, a numeric profile ID, or a
// full profile URL (including the profile.php?id=... form) and extracts the
// lower-cased username or ID segment.
func NormalizeFacebookLink(raw string) (string, error) {
	link := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if link == "" {
		return "", fmt.Errorf("facebook link cannot be empty")
	}

	if isAllDigits(link) {
		if len(link) < minFacebookIDDigits {
			return "", fmt.Errorf("facebook profile ID is too short")
		}
		return link, nil
	}

	lower := strings.ToLower(link)
	looksLikeURL := strings.Contains(lower, "facebook.com") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.")

	if !looksLikeURL {
		return normalizeFacebookUsername(link)
	}

	target := link
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		target = "https://" + link
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid facebook link: %w", err)
	}

	// profile.php?id=123... carries the identity in the query string.
	if id := keepDigits(u.Query().Get("id")); len(id) >= minFacebookIDDigits {
		return id, nil
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return "", fmt.Errorf("facebook link has no profile segment")
	}
	return normalizeFacebookUsername(segments[len(segments)-1])
}

func normalizeFacebookUsername(name string) (string, error) {
	name = strings.TrimRight(name, "/?#")
	if len(name) < minFacebookUserLen || strings.ContainsAny(name, " \t") {
		return "", fmt.Errorf("facebook username must be at least %d characters without spaces", minFacebookUserLen)
	}
	hasLetter := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r) || r == '.' || r == '_' || r == '-':
		default:
			return "", fmt.Errorf("facebook username contains invalid character %q", r)
		}
	}
	if !hasLetter {
		return "", fmt.Errorf("facebook username must contain a letter")
	}
	return strings.ToLower(name), nil
}

// NormalizeName canonicalizes free-text name fields (fullname, manager
// name): trims, collapses runs of whitespace, drops non-printable runes.
func NormalizeName(raw string) (string, error) {
	cleaned := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			cleaned = append(cleaned, r)
		}
	}
	name := strings.Join(strings.Fields(string(cleaned)), " ")
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if len(name) > 500 {
		name = name[:500]
	}
	return name, nil
}

// NormalizeTag canonicalizes a manager tag: @handle, t.me/handle and full
// t.me URLs all reduce to the bare handle.
func NormalizeTag(raw string) string {
	tag := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if strings.HasPrefix(tag, prefix) {
			tag = strings.TrimPrefix(tag, prefix)
			break
		}
	}
	tag = strings.ReplaceAll(tag, "@", "")
	if i := strings.IndexAny(tag, "/?"); i >= 0 {
		tag = tag[:i]
	}
	return strings.TrimSpace(tag)
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	return s != "" && keepDigits(s) == s
}
