// Package tools implements the MCP tool handlers for c4-hoofy.
//
// Each tool is a struct holding its dependencies, with Definition for
// registration and Handle for calls. Caller mistakes (unknown ids, invalid
// input, render failures) come back as tool errors the model can read;
// anything else is returned as a Go error.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/artifacts"
	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/diagram"
	"github.com/HendryAvila/c4-hoofy/internal/logging"
	"github.com/HendryAvila/c4-hoofy/internal/render"
)

// Deps is shared by the diagram tools.
type Deps struct {
	Diagrams  *diagram.Service
	Publisher *artifacts.Publisher
	// Render is nil when rendering is disabled.
	Render *render.Client
	Log    *logging.Logger
}

func (d Deps) logger() *logging.Logger {
	if d.Log == nil {
		return logging.NewNop()
	}
	return d.Log
}

// toolError maps user-facing errors to a tool error result and passes
// everything else through.
func toolError(err error) (*mcp.CallToolResult, error) {
	if c4.IsUserError(err) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// requireString reads a required, non-blank string argument.
func requireString(req mcp.CallToolRequest, key string) (string, *mcp.CallToolResult) {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' is required", key))
	}
	return v, nil
}

// optString returns a pointer to the argument when it was sent at all.
func optString(req mcp.CallToolRequest, key string) *string {
	args := req.GetArguments()
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		s = fmt.Sprint(raw)
	}
	return &s
}

func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// publish regenerates the diagram's files after a mutation and describes
// the outcome. Render failures are recorded on the diagram's workflow and
// reported as a warning; the mutation itself stands.
func publish(ctx context.Context, deps Deps, diagramID string) (string, error) {
	if deps.Publisher == nil {
		return "", nil
	}
	p, d, err := deps.Diagrams.Load(ctx, diagramID)
	if err != nil {
		return "", err
	}
	res, err := deps.Publisher.Publish(ctx, p, d)
	if err != nil {
		return "", err
	}
	return describePublish(ctx, deps, diagramID, res), nil
}

func describePublish(ctx context.Context, deps Deps, diagramID string, res *artifacts.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n**Source:** `%s`", res.SourcePath)
	switch {
	case res.RenderErr != nil:
		if err := deps.Diagrams.RecordWorkflowError(ctx, diagramID, res.RenderErr.Error()); err != nil {
			deps.logger().Warn("recording render failure", "diagram_id", diagramID, "error", err)
		}
		fmt.Fprintf(&b, "\n**Warning:** the model was saved but rendering failed: %s", res.RenderErr)
	case res.ImagePath != "":
		fmt.Fprintf(&b, "\n**Image:** `%s`", res.ImagePath)
	}
	return b.String()
}

// mutationResult finishes a successful mutation: publish, then report.
func mutationResult(ctx context.Context, deps Deps, diagramID, summary string) (*mcp.CallToolResult, error) {
	note, err := publish(ctx, deps, diagramID)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(summary + note), nil
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling response: %w", err)
	}
	return string(data), nil
}
