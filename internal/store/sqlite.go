package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/c4-hoofy/internal/c4"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteFile is the database file name inside the data directory.
const SQLiteFile = "c4.db"

// SQLiteStore implements Repository on a single SQLite file. Documents
// are stored as JSON; a few columns are lifted out for listing.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) dataDir/c4.db in WAL mode and runs
// migrations.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(dataDir, SQLiteFile))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			data       TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS diagrams (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			data       TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_diagrams_project ON diagrams(project_id, created_at);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*c4.Project, error) {
	var p c4.Project
	if err := s.getDoc(ctx, "SELECT data FROM projects WHERE id = ?", "project", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) PutProject(ctx context.Context, p *c4.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling project: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, created_at, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		p.ID, p.Created.UTC().Format(timeLayout), string(data))
	if err != nil {
		return fmt.Errorf("store: put project %q: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]c4.Project, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM projects ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []c4.Project
	for rows.Next() {
		var p c4.Project
		if err := scanDoc(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetDiagram(ctx context.Context, id string) (*c4.Diagram, error) {
	var d c4.Diagram
	if err := s.getDoc(ctx, "SELECT data FROM diagrams WHERE id = ?", "diagram", id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteStore) PutDiagram(ctx context.Context, d *c4.Diagram) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling diagram: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO diagrams (id, project_id, created_at, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id, data = excluded.data`,
		d.ID, d.ProjectID, d.Created.UTC().Format(timeLayout), string(data))
	if err != nil {
		return fmt.Errorf("store: put diagram %q: %w", d.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListDiagrams(ctx context.Context, projectID string) ([]c4.Diagram, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM diagrams WHERE project_id = ? ORDER BY created_at, id", projectID)
	if err != nil {
		return nil, fmt.Errorf("store: list diagrams: %w", err)
	}
	defer rows.Close()

	var out []c4.Diagram
	for rows.Next() {
		var d c4.Diagram
		if err := scanDoc(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// timeLayout sorts lexically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func (s *SQLiteStore) getDoc(ctx context.Context, query, kind, id string, v any) error {
	var data string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return c4.NotFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("store: get %s %q: %w", kind, id, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("store: parsing %s %q: %w", kind, id, err)
	}
	return nil
}

func scanDoc(rows *sql.Rows, v any) error {
	var data string
	if err := rows.Scan(&data); err != nil {
		return fmt.Errorf("store: scan: %w", err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("store: parsing row: %w", err)
	}
	return nil
}
