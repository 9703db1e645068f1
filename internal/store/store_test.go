package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// --- Helpers ---

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func backends(t *testing.T) map[string]Repository {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	sq, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Repository{BackendFile: fs, BackendSQLite: sq}
}

func sampleProject(id string, created time.Time) *c4.Project {
	return &c4.Project{ID: id, Name: "Shop " + id, RootPath: "/tmp/" + id, Created: created, Updated: created}
}

func sampleDiagram(id, projectID string, created time.Time) *c4.Diagram {
	wf := workflow.New()
	return &c4.Diagram{
		ID:        id,
		ProjectID: projectID,
		Name:      "Context " + id,
		Type:      c4.DiagramContext,
		Elements: []c4.Element{{
			ID:         "el_1",
			Kind:       c4.KindParticipant,
			Name:       "Billing",
			Descriptor: c4.Descriptor{BaseType: c4.BaseSystem, Variant: c4.VariantStandard},
			Created:    created,
		}},
		Relationships: []c4.Relationship{},
		Metadata:      map[string]string{"layout": "left_right"},
		Workflow:      &wf,
		Created:       created,
		Updated:       created,
	}
}

// --- Contract ---

func TestRepository_ProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p := sampleProject("p1", t0)
			p.DiagramIDs = []string{"d1"}
			require.NoError(t, repo.PutProject(ctx, p))

			got, err := repo.GetProject(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, p.Name, got.Name)
			assert.Equal(t, []string{"d1"}, got.DiagramIDs)
			assert.True(t, p.Created.Equal(got.Created))

			p.Name = "Renamed"
			require.NoError(t, repo.PutProject(ctx, p))
			got, err = repo.GetProject(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, "Renamed", got.Name)
		})
	}
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.GetProject(ctx, "missing")
			var nf *c4.NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, "project", nf.Kind)
			assert.Equal(t, "missing", nf.ID)

			_, err = repo.GetDiagram(ctx, "missing")
			assert.True(t, errors.Is(err, c4.ErrNotFound))

			_, err = repo.ListDiagrams(ctx, "missing")
			assert.True(t, errors.Is(err, c4.ErrNotFound))
		})
	}
}

func TestRepository_DiagramRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := sampleDiagram("d1", "p1", t0)
			require.NoError(t, repo.PutDiagram(ctx, d))

			got, err := repo.GetDiagram(ctx, "d1")
			require.NoError(t, err)
			assert.Equal(t, c4.DiagramContext, got.Type)
			require.Len(t, got.Elements, 1)
			assert.Equal(t, "Billing", got.Elements[0].Name)
			assert.Equal(t, "left_right", got.Metadata["layout"])
			require.NotNil(t, got.Workflow)
			assert.Equal(t, workflow.StateInitial, got.Workflow.CurrentState)
		})
	}
}

func TestRepository_ListOrdering(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.PutProject(ctx, sampleProject("b", t0.Add(time.Hour))))
			p := sampleProject("a", t0)
			p.DiagramIDs = []string{"d1", "d2"}
			require.NoError(t, repo.PutProject(ctx, p))

			require.NoError(t, repo.PutDiagram(ctx, sampleDiagram("d2", "a", t0.Add(2*time.Minute))))
			require.NoError(t, repo.PutDiagram(ctx, sampleDiagram("d1", "a", t0.Add(time.Minute))))
			require.NoError(t, repo.PutDiagram(ctx, sampleDiagram("other", "b", t0)))

			projects, err := repo.ListProjects(ctx)
			require.NoError(t, err)
			require.Len(t, projects, 2)
			assert.Equal(t, "a", projects[0].ID)
			assert.Equal(t, "b", projects[1].ID)

			diagrams, err := repo.ListDiagrams(ctx, "a")
			require.NoError(t, err)
			require.Len(t, diagrams, 2)
			assert.Equal(t, "d1", diagrams[0].ID)
			assert.Equal(t, "d2", diagrams[1].ID)
		})
	}
}

// --- FileStore specifics ---

func TestFileStore_WritesIndentedJSON(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.PutDiagram(context.Background(), sampleDiagram("d1", "p1", t0)))

	data, err := os.ReadFile(fs.DiagramPath("d1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"diagramType\": \"context\"")

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(fs.root, DiagramsDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_RejectsPathLikeIDs(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = fs.GetDiagram(context.Background(), "../projects/x")
	assert.True(t, errors.Is(err, c4.ErrNotFound))

	err = fs.PutProject(context.Background(), sampleProject("a/b", t0))
	assert.Error(t, err)
}

func TestFileStore_ListDiagramsSkipsMissingDocuments(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	p := sampleProject("p1", t0)
	p.DiagramIDs = []string{"gone", "d1"}
	require.NoError(t, fs.PutProject(ctx, p))
	require.NoError(t, fs.PutDiagram(ctx, sampleDiagram("d1", "p1", t0)))

	got, err := fs.ListDiagrams(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].ID)
}

// --- SQLiteStore specifics ---

func TestNewSQLiteStore_OpenFailure(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) {
		return nil, errors.New("disk on fire")
	}

	_, err := NewSQLiteStore(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.PutProject(ctx, sampleProject("p1", t0)))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Shop p1", got.Name)
}

func TestOpen(t *testing.T) {
	repo, err := Open("", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, repo)

	repo, err = Open(BackendSQLite, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, repo)
	require.NoError(t, repo.Close())

	_, err = Open("mongo", t.TempDir())
	assert.Error(t, err)
}
