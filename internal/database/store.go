package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// identifierColumns is the whitelist of columns FindByIdentifier may query.
var identifierColumns = map[string]bool{
	"phone":         true,
	"email":         true,
	"facebook_link": true,
	"telegram_user": true,
	"telegram_id":   true,
}

// editableColumns is the whitelist of columns UpdateLeadField may change.
var editableColumns = map[string]bool{
	"fullname":      true,
	"manager_name":  true,
	"manager_tag":   true,
	"phone":         true,
	"email":         true,
	"facebook_link": true,
	"telegram_user": true,
	"telegram_id":   true,
	"country":       true,
	"photo_url":     true,
}

// EditableColumn reports whether the named column may be changed through
// UpdateLeadField.
func EditableColumn(column string) bool { return editableColumns[column] }

// Store defines the data access interface for lead records. All methods
// accept context.Context for cancellation and timeouts; read failures
// surface as wrapped ErrUnavailable, never as empty results.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// InsertLead inserts a new lead. A unique-index violation is returned
	// as *DuplicateIdentifierError; on success the lead's ID and
	// timestamps are filled in.
	InsertLead(ctx context.Context, lead *Lead) error

	// GetLead retrieves a lead by ID. Returns ErrNotFound if absent.
	GetLead(ctx context.Context, id int64) (*Lead, error)

	// UpdateLeadField writes a single column of an existing lead and
	// refreshes updated_at. Returns ErrNotFound if the lead is gone and
	// *DuplicateIdentifierError when the new value collides.
	UpdateLeadField(ctx context.Context, id int64, column, value string) (*Lead, error)

	// FindByIdentifier looks up the lead whose identifier column equals
	// the normalized value. excludeID > 0 skips that lead (edit flow).
	// Returns nil, nil when there is no match.
	FindByIdentifier(ctx context.Context, column, value string, excludeID int64) (*Lead, error)

	// SearchByNameFragment returns leads whose fullname contains the
	// fragment, case-insensitively.
	SearchByNameFragment(ctx context.Context, fragment string) ([]Lead, error)

	// BulkUpdateTag sets manager_tag on every lead with the exact
	// manager_name and returns the number of rows changed.
	BulkUpdateTag(ctx context.Context, managerName, tag string) (int64, error)

	// TransferManagerLeads reassigns every lead of fromManager to
	// toManager (with toTag) and returns the number of rows changed.
	TransferManagerLeads(ctx context.Context, fromManager, toManager, toTag string) (int64, error)

	// ListManagerNames returns the distinct manager_name values, sorted.
	ListManagerNames(ctx context.Context) ([]string, error)

	// CountByManager counts leads with the exact manager_name.
	CountByManager(ctx context.Context, managerName string) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const leadColumns = `id, created_at, updated_at, fullname, manager_name,
	COALESCE(manager_tag, '') AS manager_tag,
	phone, facebook_link, telegram_user, telegram_id, email, country, photo_url`

func (s *sqlxStore) InsertLead(ctx context.Context, lead *Lead) error {
	if lead == nil {
		return fmt.Errorf("cannot insert nil lead")
	}
	if lead.FullName == "" {
		return fmt.Errorf("lead must have a non-empty fullname")
	}
	if lead.ManagerName == "" {
		return fmt.Errorf("lead must have a non-empty manager_name")
	}

	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for lead insert", "error", err)
		return mapStoreError("insert lead", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := `
        INSERT INTO leads (created_at, updated_at, fullname, manager_name, manager_tag,
                           phone, facebook_link, telegram_user, telegram_id, email, country, photo_url)
        VALUES (:created_at, :updated_at, :fullname, :manager_name, :manager_tag,
                :phone, :facebook_link, :telegram_user, :telegram_id, :email, :country, :photo_url);
    `

	result, err := tx.NamedExecContext(ctx, query, lead)
	if err != nil {
		if dup := asDuplicateError(err); dup != nil {
			s.logger.WarnContext(ctx, "Lead insert rejected by unique index",
				"column", dup.Column, "fullname", lead.FullName)
			return dup
		}
		s.logger.ErrorContext(ctx, "Error inserting lead", "fullname", lead.FullName, "error", err)
		return mapStoreError("insert lead", err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		lead.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after inserting lead", "error", idErr)
	}

	if err := tx.Commit(); err != nil {
		if dup := asDuplicateError(err); dup != nil {
			return dup
		}
		s.logger.ErrorContext(ctx, "Failed to commit lead insert", "error", err)
		return mapStoreError("insert lead", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Lead inserted successfully", "lead_id", lead.ID, "manager_name", lead.ManagerName)
	return nil
}

func (s *sqlxStore) GetLead(ctx context.Context, id int64) (*Lead, error) {
	if ctx.Err() != nil {
		return nil, mapStoreError("get lead", ctx.Err())
	}

	var lead Lead
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = ?`
	err := s.db.GetContext(ctx, &lead, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lead %d: %w", id, ErrNotFound)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting lead", "lead_id", id, "error", err)
		return nil, mapStoreError("get lead", err)
	}
	return &lead, nil
}

func (s *sqlxStore) UpdateLeadField(ctx context.Context, id int64, column, value string) (*Lead, error) {
	if !editableColumns[column] {
		return nil, fmt.Errorf("column %q is not editable", column)
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for lead update", "lead_id", id, "error", err)
		return nil, mapStoreError("update lead", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	// Identifier columns are nullable: an empty value clears them so the
	// unique index never sees empty strings.
	var stored any = value
	if value == "" && column != "fullname" && column != "manager_name" {
		stored = nil
	}

	query := fmt.Sprintf(`UPDATE leads SET %s = ?, updated_at = ? WHERE id = ?`, column)
	result, err := tx.ExecContext(ctx, query, stored, now, id)
	if err != nil {
		if dup := asDuplicateError(err); dup != nil {
			s.logger.WarnContext(ctx, "Lead update rejected by unique index", "lead_id", id, "column", dup.Column)
			return nil, dup
		}
		s.logger.ErrorContext(ctx, "Error updating lead field", "lead_id", id, "column", column, "error", err)
		return nil, mapStoreError("update lead", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for lead update", "lead_id", id, "error", err)
	} else if affected == 0 {
		return nil, fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}

	var lead Lead
	if err := tx.GetContext(ctx, &lead, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id); err != nil {
		s.logger.ErrorContext(ctx, "Error re-reading lead after update", "lead_id", id, "error", err)
		return nil, mapStoreError("update lead", err)
	}

	if err := tx.Commit(); err != nil {
		if dup := asDuplicateError(err); dup != nil {
			return nil, dup
		}
		s.logger.ErrorContext(ctx, "Failed to commit lead update", "lead_id", id, "error", err)
		return nil, mapStoreError("update lead", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Lead field updated successfully", "lead_id", id, "column", column)
	return &lead, nil
}

func (s *sqlxStore) FindByIdentifier(ctx context.Context, column, value string, excludeID int64) (*Lead, error) {
	if !identifierColumns[column] {
		return nil, fmt.Errorf("column %q is not an identifier", column)
	}
	if value == "" {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, mapStoreError("find by identifier", ctx.Err())
	}

	var lead Lead
	query := fmt.Sprintf(`SELECT `+leadColumns+` FROM leads WHERE %s = ? AND id != ? LIMIT 1`, column)
	err := s.db.GetContext(ctx, &lead, query, value, excludeID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error finding lead by identifier", "column", column, "error", err)
		return nil, mapStoreError("find by identifier", err)
	}
	return &lead, nil
}

func (s *sqlxStore) SearchByNameFragment(ctx context.Context, fragment string) ([]Lead, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, mapStoreError("search by name", ctx.Err())
	}

	var leadList []Lead
	// SQLite's LIKE is case-insensitive for ASCII; lower() widens that to
	// stored values with mixed case.
	query := `SELECT ` + leadColumns + ` FROM leads
	          WHERE lower(fullname) LIKE '%' || lower(?) || '%'
	          ORDER BY fullname ASC LIMIT 50`
	if err := s.db.SelectContext(ctx, &leadList, query, fragment); err != nil {
		s.logger.ErrorContext(ctx, "Error searching leads by name fragment", "error", err)
		return nil, mapStoreError("search by name", err)
	}
	s.logger.DebugContext(ctx, "Name search completed", "fragment", fragment, "count", len(leadList))
	return leadList, nil
}

func (s *sqlxStore) BulkUpdateTag(ctx context.Context, managerName, tag string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE leads SET manager_tag = ?, updated_at = ? WHERE manager_name = ?`,
		tag, time.Now().UTC(), managerName)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error bulk-updating manager tag", "manager_name", managerName, "error", err)
		return 0, mapStoreError("bulk update tag", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for tag update", "error", err)
		return 0, nil
	}
	s.logger.InfoContext(ctx, "Manager tag updated", "manager_name", managerName, "tag", tag, "count", count)
	return count, nil
}

func (s *sqlxStore) TransferManagerLeads(ctx context.Context, fromManager, toManager, toTag string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE leads SET manager_name = ?, manager_tag = ?, updated_at = ? WHERE manager_name = ?`,
		toManager, toTag, time.Now().UTC(), fromManager)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error transferring manager leads",
			"from", fromManager, "to", toManager, "error", err)
		return 0, mapStoreError("transfer leads", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for transfer", "error", err)
		return 0, nil
	}
	s.logger.InfoContext(ctx, "Manager leads transferred", "from", fromManager, "to", toManager, "count", count)
	return count, nil
}

func (s *sqlxStore) ListManagerNames(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, mapStoreError("list manager names", ctx.Err())
	}
	var names []string
	query := `SELECT DISTINCT manager_name FROM leads WHERE manager_name != '' ORDER BY manager_name ASC`
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing manager names", "error", err)
		return nil, mapStoreError("list manager names", err)
	}
	return names, nil
}

func (s *sqlxStore) CountByManager(ctx context.Context, managerName string) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM leads WHERE manager_name = ?`, managerName); err != nil {
		s.logger.ErrorContext(ctx, "Error counting leads by manager", "manager_name", managerName, "error", err)
		return 0, mapStoreError("count by manager", err)
	}
	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
