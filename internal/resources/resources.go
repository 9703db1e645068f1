// Package resources implements MCP resource handlers for C4 models.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (c4://...) following MCP conventions.
package resources

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/diagram"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// Resource URIs.
const (
	ProjectsURI = "c4://projects"
	WorkflowURI = "c4://workflow"
)

// Handler manages C4 resource endpoints.
type Handler struct {
	diagrams *diagram.Service
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(diagrams *diagram.Service) *Handler {
	return &Handler{diagrams: diagrams}
}

// ProjectsResource returns the MCP resource definition for the project listing.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		ProjectsURI,
		"C4 Projects",
		mcp.WithResourceDescription("Every project with a summary of its diagrams and their workflow state"),
		mcp.WithMIMEType("application/json"),
	)
}

type diagramSummary struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Type          c4.DiagramType `json:"diagramType"`
	State         workflow.State `json:"state,omitempty"`
	Elements      int            `json:"elements"`
	Relationships int            `json:"relationships"`
	Updated       time.Time      `json:"updated"`
}

type projectSummary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	RootPath    string           `json:"rootPath"`
	Diagrams    []diagramSummary `json:"diagrams"`
}

// HandleProjects returns the project listing as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.diagrams.ListProjects(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	out := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		diagrams, err := h.diagrams.ListDiagrams(ctx, p.ID)
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		ps := projectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			RootPath:    p.RootPath,
			Diagrams:    make([]diagramSummary, 0, len(diagrams)),
		}
		for _, d := range diagrams {
			ds := diagramSummary{
				ID:            d.ID,
				Name:          d.Name,
				Type:          d.Type,
				Elements:      len(d.Elements),
				Relationships: len(d.Relationships),
				Updated:       d.Updated,
			}
			if d.Workflow != nil {
				ds.State = d.Workflow.CurrentState
			}
			ps.Diagrams = append(ps.Diagrams, ds)
		}
		out = append(out, ps)
	}
	return jsonResource(req.Params.URI, out)
}

// WorkflowResource returns the MCP resource definition for the workflow map.
func (h *Handler) WorkflowResource() mcp.Resource {
	return mcp.NewResource(
		WorkflowURI,
		"C4 Modeling Workflow",
		mcp.WithResourceDescription("Workflow states, the transitions allowed from each and what to do in them"),
		mcp.WithMIMEType("application/json"),
	)
}

type stateInfo struct {
	State       workflow.State   `json:"state"`
	Transitions []workflow.State `json:"transitions"`
	Actions     []string         `json:"actions"`
}

// HandleWorkflow returns the workflow map as JSON.
func (h *Handler) HandleWorkflow(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out := make([]stateInfo, len(workflow.States))
	for i, s := range workflow.States {
		out[i] = stateInfo{
			State:       s,
			Transitions: workflow.Transitions(s),
			Actions:     workflow.PendingActions(s),
		}
	}
	return jsonResource(req.Params.URI, out)
}
