package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/leakscan/internal/report"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// FindingsDB stores runs and their findings.
// It is safe for concurrent use; writes are serialised on one connection.
type FindingsDB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database file at path, creating parent
// directories as needed.
func Open(path string) (*FindingsDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	fdb := &FindingsDB{db: db, path: path}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := fdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return fdb, nil
}

// Close closes the database.
func (f *FindingsDB) Close() error {
	return f.db.Close()
}

// Path returns the database file path.
func (f *FindingsDB) Path() string {
	return f.path
}

func (f *FindingsDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		admitted INTEGER DEFAULT 0,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		matches INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		fingerprint TEXT NOT NULL,
		location TEXT NOT NULL,
		title TEXT NOT NULL,
		severity TEXT NOT NULL,
		rule_index INTEGER NOT NULL,
		masked TEXT NOT NULL,
		UNIQUE(run_id, fingerprint, location)
	);

	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_fingerprint ON findings(fingerprint);
	`
	_, err := f.db.ExecContext(ctx, schema)
	return err
}

// Fingerprint identifies a leak independently of where it was found.
// It is the hex SHA3-256 of the rule title and the matched text.
func Fingerprint(title, find string) string {
	sum := sha3.Sum256([]byte(title + "\x00" + find))
	return hex.EncodeToString(sum[:])
}

// Run is one recorded scan.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Totals     report.Totals
	Matches    int
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Finding is one stored match.
type Finding struct {
	RunID       string
	Fingerprint string
	Location    string
	Title       string
	Severity    string
	Index       int
	// Masked is the match with all but its first characters hidden.
	Masked string
}

// BeginRun records the start of a run.
func (f *FindingsDB) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	_, err := f.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		id, startedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to begin run: %w", err)
	}
	return nil
}

// FinishRun records the end of a run and its totals.
func (f *FindingsDB) FinishRun(ctx context.Context, id string, finishedAt time.Time, totals report.Totals, matches int) error {
	res, err := f.db.ExecContext(ctx, `
	UPDATE runs SET finished_at = ?, admitted = ?, succeeded = ?, failed = ?, matches = ?
	WHERE id = ?`,
		finishedAt.UTC().Format(timeLayout), totals.Admitted, totals.Succeeded, totals.Failed, matches, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// SaveFinding stores rec under runID. The same leak at the same location
// is stored once per run.
func (f *FindingsDB) SaveFinding(ctx context.Context, runID string, rec report.Record) error {
	_, err := f.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO findings (run_id, fingerprint, location, title, severity, rule_index, masked)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, Fingerprint(rec.Title, rec.Find), rec.Location, rec.Title, rec.Severity, rec.Index, report.Mask(rec.Find))
	if err != nil {
		return fmt.Errorf("failed to save finding: %w", err)
	}
	return nil
}

// ListRuns returns all runs, newest first.
func (f *FindingsDB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := f.db.QueryContext(ctx, `
	SELECT id, started_at, COALESCE(finished_at, ''), admitted, succeeded, failed, matches
	FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished,
			&r.Totals.Admitted, &r.Totals.Succeeded, &r.Totals.Failed, &r.Matches); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Findings returns the findings of a run ordered by rule and location.
func (f *FindingsDB) Findings(ctx context.Context, runID string) ([]Finding, error) {
	if err := f.requireRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := f.db.QueryContext(ctx, `
	SELECT run_id, fingerprint, location, title, severity, rule_index, masked
	FROM findings WHERE run_id = ? ORDER BY rule_index, location, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		var fd Finding
		if err := rows.Scan(&fd.RunID, &fd.Fingerprint, &fd.Location, &fd.Title,
			&fd.Severity, &fd.Index, &fd.Masked); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		out = append(out, fd)
	}
	return out, rows.Err()
}

// DiffResult compares two runs.
type DiffResult struct {
	// New are leaks present in the newer run only.
	New []Finding
	// Resolved are leaks present in the older run only.
	Resolved []Finding
}

// Diff compares the leaks of two runs by fingerprint. A leak found at
// several locations is reported once, at its first location.
func (f *FindingsDB) Diff(ctx context.Context, oldRun, newRun string) (DiffResult, error) {
	older, err := f.Findings(ctx, oldRun)
	if err != nil {
		return DiffResult{}, err
	}
	newer, err := f.Findings(ctx, newRun)
	if err != nil {
		return DiffResult{}, err
	}
	return DiffResult{
		New:      missingFrom(newer, older),
		Resolved: missingFrom(older, newer),
	}, nil
}

// missingFrom returns the findings of a whose fingerprint does not occur in b.
func missingFrom(a, b []Finding) []Finding {
	present := make(map[string]struct{}, len(b))
	for _, fd := range b {
		present[fd.Fingerprint] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []Finding
	for _, fd := range a {
		if _, ok := present[fd.Fingerprint]; ok {
			continue
		}
		if _, ok := seen[fd.Fingerprint]; ok {
			continue
		}
		seen[fd.Fingerprint] = struct{}{}
		out = append(out, fd)
	}
	return out
}

func (f *FindingsDB) requireRun(ctx context.Context, id string) error {
	var n int
	if err := f.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
