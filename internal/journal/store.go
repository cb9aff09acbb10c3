package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Attempt states. They mirror the per-video outcomes of a harvest.
const (
	StateOK              = "ok"
	StateAgeRestricted   = "age_restricted"
	StateNoSubtitles     = "no_subtitles"
	StateRetrievalFailed = "retrieval_failed"
	// StateHarvested marks a video whose clips were already on disk.
	StateHarvested = "already_harvested"
)

// Run is one harvest invocation.
type Run struct {
	ID         string
	Lang       string
	StartedAt  time.Time
	FinishedAt time.Time
	Videos     int
	Succeeded  int
	Samples    int
	Error      string
}

// Attempt is one processed video.
type Attempt struct {
	ID         int64
	RunID      string
	Lang       string
	Creator    string
	VideoID    string
	State      string
	Samples    int
	Seconds    int
	Skipped    int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether the attempt ended in a failure state.
func (a Attempt) Failed() bool {
	return a.State != StateOK && a.State != StateHarvested
}

// Store persists runs and attempts.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps pragmas applied for the store's lifetime.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// StartRun inserts a run row.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, lang, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Lang, formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the totals of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, videos = ?, succeeded = ?, samples = ?, error_message = ? WHERE id = ?`,
		formatTime(run.FinishedAt), run.Videos, run.Succeeded, run.Samples, nullableString(run.Error), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run: unknown run %s", run.ID)
	}
	return nil
}

// RecordAttempt appends one attempt and returns its id.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) (int64, error) {
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = a.FinishedAt
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (
            run_id, lang, creator, video_id, state, samples, seconds, skipped,
            error_message, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Lang, a.Creator, a.VideoID, a.State, a.Samples, a.Seconds, a.Skipped,
		nullableString(a.Error), formatTime(a.StartedAt), formatTime(a.FinishedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Filter narrows attempt queries. Zero values match everything.
type Filter struct {
	Lang       string
	Creator    string
	FailedOnly bool
	Limit      int
}

// Attempts lists attempts newest first.
func (s *Store) Attempts(ctx context.Context, f Filter) ([]Attempt, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Lang != "" {
		clauses = append(clauses, "lang = ?")
		args = append(args, f.Lang)
	}
	if f.Creator != "" {
		clauses = append(clauses, "creator = ?")
		args = append(args, f.Creator)
	}
	if f.FailedOnly {
		clauses = append(clauses, "state NOT IN (?, ?)")
		args = append(args, StateOK, StateHarvested)
	}
	query := `SELECT id, run_id, lang, creator, video_id, state, samples, seconds, skipped,
        error_message, started_at, finished_at FROM attempts`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a                 Attempt
			errMsg            sql.NullString
			started, finished string
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.Lang, &a.Creator, &a.VideoID, &a.State,
			&a.Samples, &a.Seconds, &a.Skipped, &errMsg, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Error = errMsg.String
		a.StartedAt = parseTime(started)
		a.FinishedAt = parseTime(finished)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Harvested reports whether an ok attempt exists for the video.
func (s *Store) Harvested(ctx context.Context, lang, creator, videoID string) (bool, error) {
	var found int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM attempts WHERE lang = ? AND creator = ? AND video_id = ? AND state = ?)`,
		lang, creator, videoID, StateOK,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("query harvested: %w", err)
	}
	return found == 1, nil
}

// StateCounts returns the number of attempts per state for a language.
func (s *Store) StateCounts(ctx context.Context, lang string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, COUNT(1) FROM attempts WHERE lang = ? GROUP BY state`, lang)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

// LastRun returns the most recently started run for lang.
func (s *Store) LastRun(ctx context.Context, lang string) (Run, bool, error) {
	var (
		run              Run
		finished, errMsg sql.NullString
		started          string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, lang, started_at, finished_at, videos, succeeded, samples, error_message
        FROM runs WHERE lang = ? ORDER BY started_at DESC LIMIT 1`, lang,
	).Scan(&run.ID, &run.Lang, &started, &finished, &run.Videos, &run.Succeeded, &run.Samples, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("query last run: %w", err)
	}
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	run.Error = errMsg.String
	return run, true, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
