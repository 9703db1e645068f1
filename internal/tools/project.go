package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/diagram"
)

// CreateProjectTool handles c4_create_project.
type CreateProjectTool struct {
	diagrams *diagram.Service
}

// NewCreateProjectTool creates a CreateProjectTool.
func NewCreateProjectTool(diagrams *diagram.Service) *CreateProjectTool {
	return &CreateProjectTool{diagrams: diagrams}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_create_project",
		mcp.WithDescription(
			"Create a C4 modeling project. Diagrams belong to a project and their "+
				"generated .puml files are written under <root_path>/docs/c4/. "+
				"This is always the first step.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString("description",
			mcp.Description("What the modelled system does"),
		),
		mcp.WithString("root_path",
			mcp.Required(),
			mcp.Description("Absolute path of the repository the diagrams describe"),
		),
	)
}

// Handle processes the c4_create_project tool call.
func (t *CreateProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.diagrams.CreateProject(ctx, diagram.ProjectInput{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		RootPath:    req.GetString("root_path", ""),
	})
	if err != nil {
		return toolError(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Project Created\n\n"+
			"**Project:** %s\n"+
			"**ID:** `%s`\n"+
			"**Root:** `%s`\n\n"+
			"## Next Step\n\n"+
			"Create the system context diagram with `c4_create_diagram` "+
			"(project_id=`%s`, diagram_type=`context`).",
		p.Name, p.ID, p.RootPath, p.ID,
	)), nil
}

// ListProjectsTool handles c4_list_projects.
type ListProjectsTool struct {
	diagrams *diagram.Service
}

// NewListProjectsTool creates a ListProjectsTool.
func NewListProjectsTool(diagrams *diagram.Service) *ListProjectsTool {
	return &ListProjectsTool{diagrams: diagrams}
}

// Definition returns the MCP tool definition for registration.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_list_projects",
		mcp.WithDescription("List every C4 project with its diagrams."),
	)
}

// Handle processes the c4_list_projects tool call.
func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.diagrams.ListProjects(ctx)
	if err != nil {
		return toolError(err)
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects yet. Use `c4_create_project` to start."), nil
	}

	var b strings.Builder
	b.WriteString("# Projects\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "\n## %s\n\n**ID:** `%s`\n**Root:** `%s`\n", p.Name, p.ID, p.RootPath)
		diagrams, err := t.diagrams.ListDiagrams(ctx, p.ID)
		if err != nil {
			return toolError(err)
		}
		if len(diagrams) == 0 {
			b.WriteString("\n_No diagrams._\n")
			continue
		}
		b.WriteString("\n| Diagram | Type | State | ID |\n|---|---|---|---|\n")
		for _, d := range diagrams {
			state := ""
			if d.Workflow != nil {
				state = string(d.Workflow.CurrentState)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | `%s` |\n", d.Name, d.Type, state, d.ID)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
