package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kpcl-automation/gatekeeper/internal/model"
)

// DB provides SQLite-based storage for run history.
//
// Design decision: One database file for all accounts rather than a file
// per account. Cross-account queries (how did this morning's pass go?)
// are the common case, and backup is a single file copy.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in the given directory.
// With CreateIfNotExists set, the directory and database file are
// created; without it, a missing database is an error.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "gatekeeper.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw refuses to create a
	// new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *DB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *DB) createTables() error {
	schema := `
	-- One row per firing pass
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trigger_kind TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per account per firing pass
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		identity TEXT NOT NULL,
		status TEXT NOT NULL,
		http_status INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		response_excerpt TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_identity ON outcomes(identity);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished run report with all its outcomes and returns
// the run's database ID. The insert is transactional: a run never
// appears without its outcomes.
func (hdb *DB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (trigger_kind, started_at, finished_at) VALUES (?, ?, ?)`,
		report.Trigger,
		report.StartedAt.Format(time.RFC3339Nano),
		report.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, o := range report.Outcomes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, identity, status, http_status, latency_ms, response_excerpt, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID,
			o.Identity,
			string(o.Status),
			o.HTTPStatus,
			o.Latency.Milliseconds(),
			o.ResponseExcerpt,
			o.Timestamp.Format(time.RFC3339Nano),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert outcome for %s: %w", o.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunMetadata summarizes one stored run without its outcomes.
type RunMetadata struct {
	// ID is the run's database ID.
	ID int64

	// Trigger records what started the run.
	Trigger string

	// StartedAt and FinishedAt bound the firing pass.
	StartedAt  time.Time
	FinishedAt time.Time

	// Succeeded and Failed count the run's outcomes by result.
	Succeeded int
	Failed    int
}

// RecentRuns returns metadata for the most recent runs, newest first.
func (hdb *DB) RecentRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
	SELECT r.id, r.trigger_kind, r.started_at, r.finished_at,
	       COALESCE(SUM(CASE WHEN o.status = 'success' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN o.status != 'success' THEN 1 ELSE 0 END), 0)
	FROM runs r
	LEFT JOIN outcomes o ON o.run_id = r.id
	GROUP BY r.id
	ORDER BY r.id DESC
	LIMIT ?
	`

	rows, err := hdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var started, finished string
		if err := rows.Scan(&meta.ID, &meta.Trigger, &started, &finished, &meta.Succeeded, &meta.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.FinishedAt = parseTimestamp(finished)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRun rebuilds a full run report, outcomes included, by run ID.
// Returns nil without error when the run does not exist.
func (hdb *DB) GetRun(ctx context.Context, id int64) (*model.RunReport, error) {
	var report model.RunReport
	var started, finished string

	err := hdb.db.QueryRowContext(ctx,
		`SELECT trigger_kind, started_at, finished_at FROM runs WHERE id = ?`, id,
	).Scan(&report.Trigger, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	report.StartedAt = parseTimestamp(started)
	report.FinishedAt = parseTimestamp(finished)

	rows, err := hdb.db.QueryContext(ctx,
		`SELECT identity, status, http_status, latency_ms, response_excerpt, recorded_at
		 FROM outcomes WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o model.SubmissionOutcome
		var status, recorded string
		var latencyMS int64
		var excerpt sql.NullString

		if err := rows.Scan(&o.Identity, &status, &o.HTTPStatus, &latencyMS, &excerpt, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Status = model.Status(status)
		o.Latency = time.Duration(latencyMS) * time.Millisecond
		o.ResponseExcerpt = excerpt.String
		o.Timestamp = parseTimestamp(recorded)
		report.Outcomes = append(report.Outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &report, nil
}

// IdentityHistory returns the most recent outcomes for one account,
// newest first.
func (hdb *DB) IdentityHistory(ctx context.Context, identity string, limit int) ([]model.SubmissionOutcome, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := hdb.db.QueryContext(ctx,
		`SELECT identity, status, http_status, latency_ms, response_excerpt, recorded_at
		 FROM outcomes WHERE identity = ? ORDER BY id DESC LIMIT ?`, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes for %s: %w", identity, err)
	}
	defer rows.Close()

	var outcomes []model.SubmissionOutcome
	for rows.Next() {
		var o model.SubmissionOutcome
		var status, recorded string
		var latencyMS int64
		var excerpt sql.NullString

		if err := rows.Scan(&o.Identity, &status, &o.HTTPStatus, &latencyMS, &excerpt, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Status = model.Status(status)
		o.Latency = time.Duration(latencyMS) * time.Millisecond
		o.ResponseExcerpt = excerpt.String
		o.Timestamp = parseTimestamp(recorded)
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats, returning the zero time if none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
