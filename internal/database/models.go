package database

import (
	"database/sql"
	"time"
)

// Lead represents a contact record registered by a field agent. The
// identifier columns (phone, facebook_link, telegram_user, telegram_id,
// email) hold normalized values and are each independently unique across all
// leads; absent identifiers are NULL so they never collide.
type Lead struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	FullName    string `db:"fullname"`
	ManagerName string `db:"manager_name"`
	ManagerTag  string `db:"manager_tag"`

	Phone        sql.NullString `db:"phone"`
	FacebookLink sql.NullString `db:"facebook_link"`
	TelegramUser sql.NullString `db:"telegram_user"`
	TelegramID   sql.NullString `db:"telegram_id"`
	Email        sql.NullString `db:"email"`

	Country  sql.NullString `db:"country"`
	PhotoURL sql.NullString `db:"photo_url"`
}

// Identifier returns the stored value of the named identifier column, or ""
// when the column is NULL or unknown.
func (l *Lead) Identifier(column string) string {
	switch column {
	case "phone":
		return l.Phone.String
	case "facebook_link":
		return l.FacebookLink.String
	case "telegram_user":
		return l.TelegramUser.String
	case "telegram_id":
		return l.TelegramID.String
	case "email":
		return l.Email.String
	default:
		return ""
	}
}

// SetIdentifier stores a normalized value into the named identifier column.
// An empty value clears the column back to NULL.
func (l *Lead) SetIdentifier(column, value string) {
	ns := sql.NullString{String: value, Valid: value != ""}
	switch column {
	case "phone":
		l.Phone = ns
	case "facebook_link":
		l.FacebookLink = ns
	case "telegram_user":
		l.TelegramUser = ns
	case "telegram_id":
		l.TelegramID = ns
	case "email":
		l.Email = ns
	}
}

// HasAnyIdentifier reports whether at least one identifier column is set.
func (l *Lead) HasAnyIdentifier() bool {
	return l.Phone.Valid || l.FacebookLink.Valid || l.TelegramUser.Valid ||
		l.TelegramID.Valid || l.Email.Valid
}
