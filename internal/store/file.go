package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
)

const (
	// ProjectsDir holds one <id>.json per project.
	ProjectsDir = "projects"
	// DiagramsDir holds one <id>.json per diagram.
	DiagramsDir = "diagrams"
)

// FileStore implements Repository with one JSON document per record.
type FileStore struct {
	root string
}

// NewFileStore creates the directory layout under root.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{ProjectsDir, DiagramsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

// ProjectPath returns the document path for a project id.
func (fs *FileStore) ProjectPath(id string) string {
	return filepath.Join(fs.root, ProjectsDir, id+".json")
}

// DiagramPath returns the document path for a diagram id.
func (fs *FileStore) DiagramPath(id string) string {
	return filepath.Join(fs.root, DiagramsDir, id+".json")
}

func (fs *FileStore) GetProject(_ context.Context, id string) (*c4.Project, error) {
	if !validID(id) {
		return nil, c4.NotFound("project", id)
	}
	var p c4.Project
	if err := readDoc(fs.ProjectPath(id), "project", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (fs *FileStore) PutProject(_ context.Context, p *c4.Project) error {
	if !validID(p.ID) {
		return fmt.Errorf("invalid project id %q", p.ID)
	}
	return writeDoc(fs.ProjectPath(p.ID), p)
}

// ListProjects returns every project ordered by creation time.
func (fs *FileStore) ListProjects(ctx context.Context) ([]c4.Project, error) {
	ids, err := listIDs(filepath.Join(fs.root, ProjectsDir))
	if err != nil {
		return nil, err
	}
	out := make([]c4.Project, 0, len(ids))
	for _, id := range ids {
		p, err := fs.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out, nil
}

func (fs *FileStore) GetDiagram(_ context.Context, id string) (*c4.Diagram, error) {
	if !validID(id) {
		return nil, c4.NotFound("diagram", id)
	}
	var d c4.Diagram
	if err := readDoc(fs.DiagramPath(id), "diagram", id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (fs *FileStore) PutDiagram(_ context.Context, d *c4.Diagram) error {
	if !validID(d.ID) {
		return fmt.Errorf("invalid diagram id %q", d.ID)
	}
	return writeDoc(fs.DiagramPath(d.ID), d)
}

// ListDiagrams follows the project's DiagramIDs so diagrams come back in
// the order they were added to the project.
func (fs *FileStore) ListDiagrams(ctx context.Context, projectID string) ([]c4.Diagram, error) {
	p, err := fs.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]c4.Diagram, 0, len(p.DiagramIDs))
	for _, id := range p.DiagramIDs {
		d, err := fs.GetDiagram(ctx, id)
		if err != nil {
			if errors.Is(err, c4.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// Close is a no-op; FileStore holds no open handles.
func (fs *FileStore) Close() error { return nil }

// validID keeps ids from escaping the store directory.
func validID(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") && !strings.ContainsAny(id, `/\`)
}

func readDoc(path, kind, id string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c4.NotFound(kind, id)
		}
		return fmt.Errorf("reading %s %q: %w", kind, id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s %q: %w", kind, id, err)
	}
	return nil
}

// writeDoc replaces path atomically so a crash never leaves half a document.
func writeDoc(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func listIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
