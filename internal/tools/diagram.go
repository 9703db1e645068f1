package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/diagram"
	"github.com/HendryAvila/c4-hoofy/internal/plantuml"
)

// CreateDiagramTool handles c4_create_diagram.
type CreateDiagramTool struct {
	deps Deps
}

// NewCreateDiagramTool creates a CreateDiagramTool.
func NewCreateDiagramTool(deps Deps) *CreateDiagramTool {
	return &CreateDiagramTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateDiagramTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_create_diagram",
		mcp.WithDescription(
			"Create a diagram in a project. The type is fixed at creation. "+
				"The diagram starts in the INITIAL workflow state; add the main system first.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project that owns the diagram"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Diagram name, used in the title and file name"),
		),
		mcp.WithString("description",
			mcp.Description("What the diagram shows"),
		),
		mcp.WithString("diagram_type",
			mcp.Required(),
			mcp.Description("C4 level of the diagram"),
			mcp.Enum("context", "container", "component", "code", "interface", "sequence"),
		),
		mcp.WithString("layout",
			mcp.Description("Optional layout direction"),
			mcp.Enum("top_down", "left_right", "landscape"),
		),
		mcp.WithBoolean("legend",
			mcp.Description("Append SHOW_LEGEND() to the diagram"),
		),
	)
}

// Handle processes the c4_create_diagram tool call.
func (t *CreateDiagramTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dt, err := c4.ParseDiagramType(req.GetString("diagram_type", ""))
	if err != nil {
		return toolError(err)
	}

	meta := map[string]string{}
	if layout := req.GetString("layout", ""); layout != "" {
		meta[plantuml.MetaLayout] = layout
	}
	if req.GetBool("legend", false) {
		meta[plantuml.MetaLegend] = "true"
	}
	if len(meta) == 0 {
		meta = nil
	}

	d, err := t.deps.Diagrams.CreateDiagram(ctx, diagram.DiagramInput{
		ProjectID:   req.GetString("project_id", ""),
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Type:        dt,
		Metadata:    meta,
	})
	if err != nil {
		return toolError(err)
	}

	summary := fmt.Sprintf(
		"# %s Diagram Created\n\n"+
			"**Name:** %s\n"+
			"**ID:** `%s`\n"+
			"**Workflow:** %s\n\n"+
			"## Next Step\n\n%s",
		dt.Title(), d.Name, d.ID, d.Workflow.CurrentState,
		strings.Join(d.Workflow.PendingActions, "\n"),
	)
	return mutationResult(ctx, t.deps, d.ID, summary)
}

// GetDiagramTool handles c4_get_diagram.
type GetDiagramTool struct {
	diagrams *diagram.Service
}

// NewGetDiagramTool creates a GetDiagramTool.
func NewGetDiagramTool(diagrams *diagram.Service) *GetDiagramTool {
	return &GetDiagramTool{diagrams: diagrams}
}

// Definition returns the MCP tool definition for registration.
func (t *GetDiagramTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_get_diagram",
		mcp.WithDescription(
			"Return a diagram as JSON: elements with their ids, relationships, metadata and workflow state. "+
				"Use it to look up element ids before adding relationships.",
		),
		mcp.WithString("diagram_id",
			mcp.Required(),
			mcp.Description("Diagram to read"),
		),
	)
}

// Handle processes the c4_get_diagram tool call.
func (t *GetDiagramTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	d, err := t.diagrams.GetDiagram(ctx, id)
	if err != nil {
		return toolError(err)
	}
	out, err := toJSON(d)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(out), nil
}
