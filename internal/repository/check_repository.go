package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iconidentify/vidgate/internal/domain"
)

// SQLiteCheckRepository implements CheckRepository on SQLite.
type SQLiteCheckRepository struct {
	db *sql.DB
}

// OpenSQLite opens the check database at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteCheckRepository creates the repository and ensures the schema.
func NewSQLiteCheckRepository(db *sql.DB) (*SQLiteCheckRepository, error) {
	r := &SQLiteCheckRepository{db: db}
	if err := r.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return r, nil
}

func (r *SQLiteCheckRepository) initSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS checks (
			check_id TEXT PRIMARY KEY,
			source_url TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			completed_at INTEGER,
			final_url TEXT,
			head_status INTEGER,
			range_status INTEGER,
			content_type TEXT,
			accept_ranges TEXT,
			range_content_range TEXT,
			content_length INTEGER,
			has_ftyp INTEGER NOT NULL DEFAULT 0,
			ftyp_offset INTEGER,
			resolved_addrs TEXT,
			valid INTEGER NOT NULL DEFAULT 0,
			error_code TEXT,
			error_message TEXT,
			checked_at INTEGER,
			duration_ms INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_checks_status ON checks(status);
		CREATE INDEX IF NOT EXISTS idx_checks_created_at ON checks(created_at);
		CREATE INDEX IF NOT EXISTS idx_checks_correlation_id ON checks(correlation_id);
	`)
	if err != nil {
		return fmt.Errorf("create checks table: %w", err)
	}
	return nil
}

// Create stores a newly submitted check.
func (r *SQLiteCheckRepository) Create(ctx context.Context, check *domain.Check) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO checks (check_id, source_url, correlation_id, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, check.ID.String(), check.SourceURL, check.CorrelationID, string(check.Status), check.Error, check.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

// SaveOutcome records the probe outcome and final status for a check.
func (r *SQLiteCheckRepository) SaveOutcome(ctx context.Context, check *domain.Check) error {
	out := check.Outcome
	if out == nil {
		return fmt.Errorf("check %s has no outcome", check.ID)
	}

	var addrs []byte
	if len(out.ResolvedAddrs) > 0 {
		var err error
		addrs, err = json.Marshal(out.ResolvedAddrs)
		if err != nil {
			return fmt.Errorf("marshal resolved addrs: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE checks SET
			status = ?, error = ?, completed_at = ?,
			final_url = ?, head_status = ?, range_status = ?,
			content_type = ?, accept_ranges = ?, range_content_range = ?,
			content_length = ?, has_ftyp = ?, ftyp_offset = ?,
			resolved_addrs = ?, valid = ?, error_code = ?, error_message = ?,
			checked_at = ?, duration_ms = ?
		WHERE check_id = ?
	`,
		string(check.Status), check.Error, timePtrMilli(check.CompletedAt),
		out.FinalURL, intPtrValue(out.HeadStatus), intPtrValue(out.RangeStatus),
		out.ContentType, out.AcceptRanges, out.RangeContentRange,
		int64PtrValue(out.ContentLength), boolToInt(out.HasFtyp), intPtrValue(out.FtypOffset),
		nullIfEmptyBytes(addrs), boolToInt(out.Valid), string(out.ErrorCode), out.ErrorMessage,
		out.CheckedAt.UnixMilli(), out.DurationMs,
		check.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update check outcome: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrCheckNotFound
	}
	return nil
}

// UpdateStatus changes check status.
func (r *SQLiteCheckRepository) UpdateStatus(ctx context.Context, id domain.CheckID, status domain.CheckStatus, errMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE checks SET status = ?, error = ? WHERE check_id = ?
	`, string(status), errMsg, id.String())
	if err != nil {
		return fmt.Errorf("update check status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrCheckNotFound
	}
	return nil
}

const checkColumns = `
	check_id, source_url, correlation_id, status, error, created_at, completed_at,
	final_url, head_status, range_status, content_type, accept_ranges,
	range_content_range, content_length, has_ftyp, ftyp_offset, resolved_addrs,
	valid, error_code, error_message, checked_at, duration_ms`

// Get retrieves a check by ID.
func (r *SQLiteCheckRepository) Get(ctx context.Context, id domain.CheckID) (*domain.Check, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+checkColumns+` FROM checks WHERE check_id = ?`, id.String())
	return scanCheck(row)
}

// GetByCorrelationID retrieves the most recent check for a correlation ID.
func (r *SQLiteCheckRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Check, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT`+checkColumns+` FROM checks
		WHERE correlation_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, correlationID)
	return scanCheck(row)
}

// List returns checks newest first, optionally filtered by status.
func (r *SQLiteCheckRepository) List(ctx context.Context, status *domain.CheckStatus, limit, offset int) ([]*domain.Check, error) {
	query := `SELECT` + checkColumns + ` FROM checks`
	args := []any{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	var checks []*domain.Check
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, rows.Err()
}

// Count returns the number of checks, optionally filtered by status.
func (r *SQLiteCheckRepository) Count(ctx context.Context, status *domain.CheckStatus) (int, error) {
	query := `SELECT COUNT(*) FROM checks`
	args := []any{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count checks: %w", err)
	}
	return count, nil
}

// CountValid returns the number of checks whose source validated.
func (r *SQLiteCheckRepository) CountValid(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checks WHERE valid = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count valid checks: %w", err)
	}
	return count, nil
}

// Delete removes a check.
func (r *SQLiteCheckRepository) Delete(ctx context.Context, id domain.CheckID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM checks WHERE check_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete check: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrCheckNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (*domain.Check, error) {
	var (
		check       domain.Check
		status      string
		createdAt   int64
		completedAt sql.NullInt64
		finalURL    sql.NullString
		headStatus  sql.NullInt64
		rangeStatus sql.NullInt64
		contentType sql.NullString
		acceptRange sql.NullString
		contentRng  sql.NullString
		contentLen  sql.NullInt64
		hasFtyp     int
		ftypOffset  sql.NullInt64
		addrsJSON   sql.NullString
		valid       int
		errorCode   sql.NullString
		errorMsg    sql.NullString
		checkedAt   sql.NullInt64
		durationMs  sql.NullInt64
	)

	err := row.Scan(
		&check.ID, &check.SourceURL, &check.CorrelationID, &status, &check.Error,
		&createdAt, &completedAt,
		&finalURL, &headStatus, &rangeStatus, &contentType, &acceptRange,
		&contentRng, &contentLen, &hasFtyp, &ftypOffset, &addrsJSON,
		&valid, &errorCode, &errorMsg, &checkedAt, &durationMs,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCheckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan check: %w", err)
	}

	check.Status = domain.CheckStatus(status)
	check.CreatedAt = time.UnixMilli(createdAt).UTC()
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		check.CompletedAt = &t
	}

	// An outcome exists once the probe ran and recorded its timestamp.
	if checkedAt.Valid {
		out := &domain.Outcome{
			SourceURL:         check.SourceURL,
			CorrelationID:     check.CorrelationID,
			FinalURL:          finalURL.String,
			ContentType:       contentType.String,
			AcceptRanges:      acceptRange.String,
			RangeContentRange: contentRng.String,
			HasFtyp:           hasFtyp != 0,
			Valid:             valid != 0,
			ErrorCode:         domain.ErrorCode(errorCode.String),
			ErrorMessage:      errorMsg.String,
			CheckedAt:         time.UnixMilli(checkedAt.Int64).UTC(),
			DurationMs:        durationMs.Int64,
		}
		if headStatus.Valid {
			v := int(headStatus.Int64)
			out.HeadStatus = &v
		}
		if rangeStatus.Valid {
			v := int(rangeStatus.Int64)
			out.RangeStatus = &v
		}
		if contentLen.Valid {
			v := contentLen.Int64
			out.ContentLength = &v
		}
		if ftypOffset.Valid {
			v := int(ftypOffset.Int64)
			out.FtypOffset = &v
		}
		if addrsJSON.Valid && addrsJSON.String != "" {
			if err := json.Unmarshal([]byte(addrsJSON.String), &out.ResolvedAddrs); err != nil {
				return nil, fmt.Errorf("unmarshal resolved addrs: %w", err)
			}
		}
		check.Outcome = out
	}

	return &check, nil
}

func intPtrValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func int64PtrValue(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmptyBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func timePtrMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
