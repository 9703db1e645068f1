package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/c4-hoofy/internal/artifacts"
	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/render"
)

// GenerateDiagramTool handles c4_generate_diagram.
type GenerateDiagramTool struct {
	deps Deps
}

// NewGenerateDiagramTool creates a GenerateDiagramTool.
func NewGenerateDiagramTool(deps Deps) *GenerateDiagramTool {
	return &GenerateDiagramTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *GenerateDiagramTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_generate_diagram",
		mcp.WithDescription(
			"Regenerate a diagram's C4-PlantUML source, write it under docs/c4/ and return it. "+
				"The image is re-rendered when rendering is enabled.",
		),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram to generate")),
	)
}

// Handle processes the c4_generate_diagram tool call.
func (t *GenerateDiagramTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	p, d, err := t.deps.Diagrams.Load(ctx, diagramID)
	if err != nil {
		return toolError(err)
	}

	var res *artifacts.Result
	if t.deps.Publisher != nil {
		res, err = t.deps.Publisher.Publish(ctx, p, d)
	} else {
		res, err = artifacts.WriteSource(p, d)
	}
	if err != nil {
		return toolError(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# %s\n\n```plantuml\n%s\n```%s",
		d.Name, strings.TrimRight(res.Source, "\n"), describePublish(ctx, t.deps, diagramID, res),
	)), nil
}

// ExportDiagramTool handles c4_export_diagram.
type ExportDiagramTool struct {
	deps Deps
}

// NewExportDiagramTool creates an ExportDiagramTool.
func NewExportDiagramTool(deps Deps) *ExportDiagramTool {
	return &ExportDiagramTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *ExportDiagramTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_export_diagram",
		mcp.WithDescription(
			"Render a diagram to image files next to its .puml source through the PlantUML server. "+
				"Exports PNG and SVG unless a single format is requested.",
		),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram to export")),
		mcp.WithString("format",
			mcp.Description("Export only this format"),
			mcp.Enum("png", "svg"),
		),
	)
}

// Handle processes the c4_export_diagram tool call.
func (t *ExportDiagramTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	if t.deps.Render == nil {
		return mcp.NewToolResultError("rendering is disabled in the server configuration (render.enabled=false)"), nil
	}

	formats := []render.Format{render.FormatPNG, render.FormatSVG}
	if raw := req.GetString("format", ""); raw != "" {
		f, err := render.ParseFormat(raw)
		if err != nil {
			return toolError(c4.Invalid("format", err.Error()))
		}
		formats = []render.Format{f}
	}

	p, d, err := t.deps.Diagrams.Load(ctx, diagramID)
	if err != nil {
		return toolError(err)
	}
	res, err := artifacts.WriteSource(p, d)
	if err != nil {
		return toolError(err)
	}

	var mu sync.Mutex
	written := make(map[render.Format]string, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range formats {
		g.Go(func() error {
			out := render.OutputPath(res.SourcePath, f)
			if _, err := t.deps.Render.WithFormat(f).RenderAndSave(gctx, res.Source, out); err != nil {
				return fmt.Errorf("%s export: %w", f, err)
			}
			mu.Lock()
			written[f] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return toolError(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Exported %s\n\n**Source:** `%s`\n", d.Name, res.SourcePath)
	for _, f := range formats {
		fmt.Fprintf(&b, "**%s:** `%s`\n", strings.ToUpper(string(f)), written[f])
	}
	return mcp.NewToolResultText(b.String()), nil
}
