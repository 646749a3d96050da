package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"n5toc/internal/toc"

	_ "modernc.org/sqlite"
)

// Store writes finished scans into a SQLite database.
type Store struct {
	db *sql.DB
}

// ScanRecord is the persisted summary of one scan.
type ScanRecord struct {
	ID         string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Candidates int
	NonVolumes int
	Issues     int
	Entries    int
}

// Open initializes (or reuses) a SQLite database at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path cannot be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS scans (
        id TEXT PRIMARY KEY,
        root TEXT NOT NULL,
        started_at INTEGER NOT NULL,
        finished_at INTEGER NOT NULL,
        candidates INTEGER NOT NULL,
        non_volumes INTEGER NOT NULL,
        issues INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS toc_entries (
        scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
        path TEXT NOT NULL,
        sample TEXT NOT NULL,
        stage TEXT NOT NULL,
        section TEXT NOT NULL,
        version TEXT NOT NULL,
        full_version TEXT NOT NULL,
        name TEXT NOT NULL,
        offset_text TEXT NOT NULL,
        offset_link TEXT NOT NULL,
        link TEXT NOT NULL,
        PRIMARY KEY (scan_id, path)
);

CREATE INDEX IF NOT EXISTS idx_toc_entries_sample ON toc_entries(sample);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// SaveReport stores a scan and all of its entries in one transaction.
func (s *Store) SaveReport(ctx context.Context, report *toc.Report) (err error) {
	if report == nil {
		return errors.New("nil report")
	}
	if report.ID == "" {
		return errors.New("report has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO scans(id, root, started_at, finished_at, candidates, non_volumes, issues)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, report.ID, report.Root, report.StartedAt.UnixNano(), report.FinishedAt.UnixNano(),
		report.Candidates, report.NonVolumes, len(report.Issues))
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", report.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO toc_entries(scan_id, path, sample, stage, section, version, full_version, name, offset_text, offset_link, link)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range report.Sorted() {
		if _, err = stmt.ExecContext(ctx, report.ID, e.Path, e.Sample, e.Stage, e.Section,
			e.Version, e.FullVersion, e.Name, e.Offset, e.OffsetLink, e.Link); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit scan %s: %w", report.ID, err)
	}
	return nil
}

// Scan retrieves the summary of a stored scan.
func (s *Store) Scan(ctx context.Context, id string) (ScanRecord, error) {
	var (
		rec      = ScanRecord{ID: id}
		started  int64
		finished int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT s.root, s.started_at, s.finished_at, s.candidates, s.non_volumes, s.issues,
        (SELECT COUNT(*) FROM toc_entries e WHERE e.scan_id = s.id)
FROM scans s WHERE s.id = ?
`, id).Scan(&rec.Root, &started, &finished, &rec.Candidates, &rec.NonVolumes, &rec.Issues, &rec.Entries)
	if errors.Is(err, sql.ErrNoRows) {
		return ScanRecord{}, fmt.Errorf("scan %s: %w", id, err)
	}
	if err != nil {
		return ScanRecord{}, fmt.Errorf("query scan %s: %w", id, err)
	}

	rec.StartedAt = time.Unix(0, started)
	rec.FinishedAt = time.Unix(0, finished)
	return rec, nil
}

// Entries retrieves every entry of a stored scan ordered by path.
func (s *Store) Entries(ctx context.Context, scanID string) ([]toc.TocEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT path, sample, stage, section, version, full_version, name, offset_text, offset_link, link
FROM toc_entries WHERE scan_id = ? ORDER BY path
`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []toc.TocEntry
	for rows.Next() {
		var e toc.TocEntry
		if scanErr := rows.Scan(&e.Path, &e.Sample, &e.Stage, &e.Section, &e.Version,
			&e.FullVersion, &e.Name, &e.Offset, &e.OffsetLink, &e.Link); scanErr != nil {
			return nil, fmt.Errorf("scan entry: %w", scanErr)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}
