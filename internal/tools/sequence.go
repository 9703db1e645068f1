package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
)

// markerOp is one of the four sequence timeline operations.
type markerOp struct {
	name    string
	desc    string
	argName string
	argDesc string
	verb    string
	call    func(ctx context.Context, deps Deps, diagramID, arg string) (*c4.Element, error)
}

var markerOps = map[string]markerOp{
	"c4_add_sequence_divider": {
		name:    "c4_add_sequence_divider",
		desc:    "Start a titled divider (== title ==) in a sequence diagram timeline.",
		argName: "title",
		argDesc: "Divider title",
		verb:    "Started divider",
		call: func(ctx context.Context, deps Deps, diagramID, arg string) (*c4.Element, error) {
			return deps.Diagrams.AddDivider(ctx, diagramID, arg)
		},
	},
	"c4_end_sequence_divider": {
		name:    "c4_end_sequence_divider",
		desc:    "Close a divider opened with c4_add_sequence_divider.",
		argName: "divider_id",
		argDesc: "Id returned when the divider was started",
		verb:    "Ended divider",
		call: func(ctx context.Context, deps Deps, diagramID, arg string) (*c4.Element, error) {
			return deps.Diagrams.EndDivider(ctx, diagramID, arg)
		},
	},
	"c4_start_sequence_group": {
		name:    "c4_start_sequence_group",
		desc:    "Open a titled group box in a sequence diagram timeline. Messages added until it is closed are drawn inside it.",
		argName: "title",
		argDesc: "Group title",
		verb:    "Started group",
		call: func(ctx context.Context, deps Deps, diagramID, arg string) (*c4.Element, error) {
			return deps.Diagrams.StartGroup(ctx, diagramID, arg)
		},
	},
	"c4_end_sequence_group": {
		name:    "c4_end_sequence_group",
		desc:    "Close a group opened with c4_start_sequence_group.",
		argName: "group_id",
		argDesc: "Id returned when the group was started",
		verb:    "Ended group",
		call: func(ctx context.Context, deps Deps, diagramID, arg string) (*c4.Element, error) {
			return deps.Diagrams.EndGroup(ctx, diagramID, arg)
		},
	},
}

// SequenceMarkerTool handles the divider and group tools. One instance
// serves one tool name.
type SequenceMarkerTool struct {
	deps Deps
	op   markerOp
}

// NewSequenceMarkerTool creates the tool registered under name. It panics
// on an unknown name, which is a wiring bug.
func NewSequenceMarkerTool(deps Deps, name string) *SequenceMarkerTool {
	op, ok := markerOps[name]
	if !ok {
		panic("tools: unknown sequence marker tool " + name)
	}
	return &SequenceMarkerTool{deps: deps, op: op}
}

// SequenceMarkerToolNames lists the tool names NewSequenceMarkerTool accepts.
func SequenceMarkerToolNames() []string {
	return []string{
		"c4_add_sequence_divider",
		"c4_end_sequence_divider",
		"c4_start_sequence_group",
		"c4_end_sequence_group",
	}
}

// Definition returns the MCP tool definition for registration.
func (t *SequenceMarkerTool) Definition() mcp.Tool {
	return mcp.NewTool(t.op.name,
		mcp.WithDescription(t.op.desc),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Sequence diagram")),
		mcp.WithString(t.op.argName, mcp.Required(), mcp.Description(t.op.argDesc)),
	)
}

// Handle processes the tool call.
func (t *SequenceMarkerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	arg, errRes := requireString(req, t.op.argName)
	if errRes != nil {
		return errRes, nil
	}

	m, err := t.op.call(ctx, t.deps, diagramID, arg)
	if err != nil {
		return toolError(err)
	}
	return mutationResult(ctx, t.deps, diagramID,
		fmt.Sprintf("%s **%s** (id `%s`)", t.op.verb, m.Title, m.ID))
}
