// Package archive keeps the history of generated reports in SQLite.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"reportgen/internal/domain"
)

// ErrNotFound is returned by Get for unknown report ids.
var ErrNotFound = errors.New("report not found")

const defaultListLimit = 50

// Store implements domain.Archive on a SQLite database file.
type Store struct {
	db *sql.DB
}

var _ domain.Archive = (*Store)(nil)

// Open opens or creates the archive database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		prompt TEXT NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		matches INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_owner ON reports(owner, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts the report, assigning an id and timestamp when missing.
func (s *Store) Save(ctx context.Context, r *domain.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, owner, prompt, source, content, matches, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Owner, r.Prompt, r.Source, r.Content, r.Matches, r.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

// List returns the owner's reports, newest first. limit <= 0 uses a default.
func (s *Store) List(ctx context.Context, owner string, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, prompt, source, content, matches, created_at
		FROM reports
		WHERE owner = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Get returns a single report by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, prompt, source, content, matches, created_at
		FROM reports WHERE id = ?
	`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (*domain.Report, error) {
	var (
		r       domain.Report
		created int64
	)
	if err := sc.Scan(&r.ID, &r.Owner, &r.Prompt, &r.Source, &r.Content, &r.Matches, &created); err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(created)
	return &r, nil
}
