// Package store persists projects and diagrams as whole documents.
//
// Every read returns a full value and every write replaces the full value.
// There is no field-level access and no concurrency token: the last writer
// of a diagram wins.
package store

import (
	"context"
	"fmt"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Repository is the persistence contract used by the diagram service.
// Lookups of unknown ids fail with a *c4.NotFoundError.
type Repository interface {
	GetProject(ctx context.Context, id string) (*c4.Project, error)
	PutProject(ctx context.Context, p *c4.Project) error
	ListProjects(ctx context.Context) ([]c4.Project, error)

	GetDiagram(ctx context.Context, id string) (*c4.Diagram, error)
	PutDiagram(ctx context.Context, d *c4.Diagram) error
	// ListDiagrams returns the diagrams of one project.
	ListDiagrams(ctx context.Context, projectID string) ([]c4.Diagram, error)

	Close() error
}

// Open returns the repository selected by backend, rooted at dataDir.
func Open(backend, dataDir string) (Repository, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dataDir)
	case BackendSQLite:
		return NewSQLiteStore(dataDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
