package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sitepub/internal/core/domain"
	"sitepub/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL,
	raw_input  TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);
`

// Store implements ports.ArtifactStore on SQLite. The job metadata is kept
// as one JSON blob per artifact row.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateArtifact inserts a new artifact row.
func (s *Store) CreateArtifact(ctx context.Context, a *domain.Artifact) error {
	blob, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, kind, status, raw_input, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Kind, string(a.Status), a.RawInput, string(blob), formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}
	return nil
}

// LoadArtifact fetches one artifact by id.
func (s *Store) LoadArtifact(ctx context.Context, id string) (*domain.Artifact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, status, raw_input, metadata, created_at, updated_at
		FROM artifacts WHERE id = ?
	`, id)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ports.ErrArtifactNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SaveArtifact updates status, metadata and updated_at.
func (s *Store) SaveArtifact(ctx context.Context, a *domain.Artifact) error {
	blob, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE artifacts SET status = ?, metadata = ?, updated_at = ? WHERE id = ?
	`, string(a.Status), string(blob), formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ports.ErrArtifactNotFound, a.ID)
	}
	return nil
}

// ListArtifacts returns all artifacts, newest first.
func (s *Store) ListArtifacts(ctx context.Context) ([]domain.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, status, raw_input, metadata, created_at, updated_at
		FROM artifacts ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(sc scanner) (*domain.Artifact, error) {
	var (
		a                domain.Artifact
		status, blob     string
		created, updated string
	)
	if err := sc.Scan(&a.ID, &a.Kind, &status, &a.RawInput, &blob, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan artifact: %w", err)
	}
	a.Status = domain.ArtifactStatus(status)
	if err := json.Unmarshal([]byte(blob), &a.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata of %s: %w", a.ID, err)
	}
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}

// Fixed-width so that created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
