// Package diagram implements the diagram aggregate: every mutation loads
// the whole document, applies the change in memory, checks the model
// invariants, advances the workflow and writes the document back.
//
// The service never generates or renders anything. Callers regenerate the
// PlantUML source after a successful mutation (see artifacts.Publisher).
package diagram

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/logging"
	"github.com/HendryAvila/c4-hoofy/internal/metrics"
	"github.com/HendryAvila/c4-hoofy/internal/store"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// timeNow is a package-level var to allow tests to freeze time.
var timeNow = time.Now

// newID returns an id that is also a valid PlantUML alias.
var newID = func(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

const (
	elementPrefix      = "el_"
	relationshipPrefix = "rel_"
)

// Service owns projects and diagrams.
type Service struct {
	repo store.Repository
	log  *logging.Logger
}

// NewService wires the service to a repository.
func NewService(repo store.Repository, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// --- Projects ---

// ProjectInput holds the fields accepted when creating a project.
type ProjectInput struct {
	Name        string
	Description string
	RootPath    string
}

// CreateProject validates and stores a new project.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (*c4.Project, error) {
	now := timeNow().UTC()
	p := &c4.Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		RootPath:    strings.TrimSpace(in.RootPath),
		DiagramIDs:  []string{},
		Created:     now,
		Updated:     now,
	}
	if err := c4.ValidateProject(p); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(p.RootPath)
	if err != nil {
		return nil, c4.Invalid("rootPath", err.Error())
	}
	p.RootPath = abs

	if err := s.repo.PutProject(ctx, p); err != nil {
		return nil, fmt.Errorf("saving project: %w", err)
	}
	s.log.Info("project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

// GetProject loads a project by id.
func (s *Service) GetProject(ctx context.Context, id string) (*c4.Project, error) {
	return s.repo.GetProject(ctx, id)
}

// ListProjects returns every project.
func (s *Service) ListProjects(ctx context.Context) ([]c4.Project, error) {
	return s.repo.ListProjects(ctx)
}

// --- Diagrams ---

// DiagramInput holds the fields accepted when creating a diagram.
type DiagramInput struct {
	ProjectID   string
	Name        string
	Description string
	Type        c4.DiagramType
	Metadata    map[string]string
}

// CreateDiagram stores a new diagram in the INITIAL workflow state and
// appends it to its project.
func (s *Service) CreateDiagram(ctx context.Context, in DiagramInput) (*c4.Diagram, error) {
	p, err := s.repo.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, c4.Invalid("name", "is required")
	}
	dt, err := c4.ParseDiagramType(string(in.Type))
	if err != nil {
		return nil, err
	}

	now := timeNow().UTC()
	wf := workflow.New()
	d := &c4.Diagram{
		ID:            uuid.NewString(),
		ProjectID:     p.ID,
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Type:          dt,
		Elements:      []c4.Element{},
		Relationships: []c4.Relationship{},
		Metadata:      in.Metadata,
		Workflow:      &wf,
		Created:       now,
		Updated:       now,
	}
	if err := s.repo.PutDiagram(ctx, d); err != nil {
		return nil, fmt.Errorf("saving diagram: %w", err)
	}

	p.DiagramIDs = append(p.DiagramIDs, d.ID)
	p.Updated = now
	if err := s.repo.PutProject(ctx, p); err != nil {
		return nil, fmt.Errorf("saving project: %w", err)
	}

	metrics.Mutations.WithLabelValues("create_diagram", metrics.Result(nil)).Inc()
	s.log.Info("diagram created", "diagram_id", d.ID, "project_id", p.ID, "type", dt)
	return d, nil
}

// GetDiagram loads a diagram by id.
func (s *Service) GetDiagram(ctx context.Context, id string) (*c4.Diagram, error) {
	return s.repo.GetDiagram(ctx, id)
}

// ListDiagrams returns the diagrams of a project.
func (s *Service) ListDiagrams(ctx context.Context, projectID string) ([]c4.Diagram, error) {
	return s.repo.ListDiagrams(ctx, projectID)
}

// Load returns a diagram together with its owning project.
func (s *Service) Load(ctx context.Context, diagramID string) (*c4.Project, *c4.Diagram, error) {
	d, err := s.repo.GetDiagram(ctx, diagramID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.repo.GetProject(ctx, d.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return p, d, nil
}

// --- Workflow ---

// AdvanceWorkflow performs an explicit transition. Unlike the transitions
// driven by mutations, a rejected transition is returned to the caller.
func (s *Service) AdvanceWorkflow(ctx context.Context, diagramID string, target workflow.State) (workflow.Context, error) {
	var out workflow.Context
	_, err := s.apply(ctx, diagramID, "advance_workflow", func(d *c4.Diagram, _ time.Time) (workflow.Event, error) {
		next, err := workflow.Advance(*d.Workflow, target)
		if err != nil {
			return "", err
		}
		*d.Workflow = next
		out = next
		return "", nil
	})
	return out, err
}

// RecordWorkflowError annotates the diagram's workflow with a failure
// that happened after the model change was stored (a failed render).
func (s *Service) RecordWorkflowError(ctx context.Context, diagramID, message string) error {
	_, err := s.apply(ctx, diagramID, "record_error", func(d *c4.Diagram, _ time.Time) (workflow.Event, error) {
		*d.Workflow = workflow.Recover(*d.Workflow, message, "")
		return "", nil
	})
	return err
}

// --- Mutation plumbing ---

// mutation changes d in place. now is the diagram's new Updated stamp and
// is used as the creation time of anything added. A non-empty event
// advances the workflow.
type mutation func(d *c4.Diagram, now time.Time) (workflow.Event, error)

// apply runs fn against a freshly loaded copy of the diagram and writes
// the result back. Nothing is written when fn fails.
func (s *Service) apply(ctx context.Context, diagramID, op string, fn mutation) (d *c4.Diagram, err error) {
	defer func() {
		metrics.Mutations.WithLabelValues(op, metrics.Result(err)).Inc()
	}()

	d, err = s.repo.GetDiagram(ctx, diagramID)
	if err != nil {
		return nil, err
	}
	if d.Workflow == nil {
		wf := workflow.New()
		d.Workflow = &wf
	}

	now := nextStamp(d.Updated)
	ev, err := fn(d, now)
	if err != nil {
		return nil, err
	}
	d.Updated = now

	if ev != "" {
		*d.Workflow = workflow.ClearError(*d.Workflow)
		next, err := workflow.Observe(*d.Workflow, ev)
		var te *workflow.TransitionError
		switch {
		case errors.As(err, &te):
			metrics.WorkflowRejections.WithLabelValues(string(te.From), string(te.To)).Inc()
			s.log.Debug("workflow transition skipped", "diagram_id", d.ID, "op", op, "from", te.From, "to", te.To)
		case err != nil:
			return nil, err
		default:
			*d.Workflow = next
		}
	}

	if err := s.repo.PutDiagram(ctx, d); err != nil {
		return nil, fmt.Errorf("saving diagram: %w", err)
	}
	s.log.Info("diagram mutated", "op", op, "diagram_id", d.ID, "state", d.Workflow.CurrentState)
	return d, nil
}

// nextStamp returns now, or one nanosecond past prev when the clock has
// not moved, so Updated strictly increases.
func nextStamp(prev time.Time) time.Time {
	now := timeNow().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// uniqueID draws ids until one is unused in d.
func uniqueID(d *c4.Diagram, prefix string) string {
	for {
		id := newID(prefix)
		if d.ElementIndex(id) < 0 && d.RelationshipIndex(id) < 0 {
			return id
		}
	}
}
