package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/diagram"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

func describeWorkflow(title string, wf workflow.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n**State:** %s\n", title, wf.CurrentState)
	if len(wf.CompletedSteps) > 0 {
		steps := make([]string, len(wf.CompletedSteps))
		for i, s := range wf.CompletedSteps {
			steps[i] = string(s)
		}
		fmt.Fprintf(&b, "**Completed:** %s\n", strings.Join(steps, " → "))
	}
	if wf.Error != "" {
		fmt.Fprintf(&b, "**Last error:** %s\n", wf.Error)
	}
	next := workflow.Transitions(wf.CurrentState)
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	fmt.Fprintf(&b, "**Can move to:** %s\n", strings.Join(names, ", "))

	b.WriteString("\n## Next Step\n\n")
	for _, a := range wf.PendingActions {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String()
}

// WorkflowStatusTool handles c4_workflow_status.
type WorkflowStatusTool struct {
	diagrams *diagram.Service
}

// NewWorkflowStatusTool creates a WorkflowStatusTool.
func NewWorkflowStatusTool(diagrams *diagram.Service) *WorkflowStatusTool {
	return &WorkflowStatusTool{diagrams: diagrams}
}

// Definition returns the MCP tool definition for registration.
func (t *WorkflowStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_workflow_status",
		mcp.WithDescription("Show where a diagram is in the guided modeling workflow and what to add next."),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram to inspect")),
	)
}

// Handle processes the c4_workflow_status tool call.
func (t *WorkflowStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	d, err := t.diagrams.GetDiagram(ctx, diagramID)
	if err != nil {
		return toolError(err)
	}
	wf := workflow.New()
	if d.Workflow != nil {
		wf = *d.Workflow
	}
	return mcp.NewToolResultText(describeWorkflow("Workflow: "+d.Name, wf)), nil
}

// WorkflowAdvanceTool handles c4_workflow_advance.
type WorkflowAdvanceTool struct {
	diagrams *diagram.Service
}

// NewWorkflowAdvanceTool creates a WorkflowAdvanceTool.
func NewWorkflowAdvanceTool(diagrams *diagram.Service) *WorkflowAdvanceTool {
	return &WorkflowAdvanceTool{diagrams: diagrams}
}

// Definition returns the MCP tool definition for registration.
func (t *WorkflowAdvanceTool) Definition() mcp.Tool {
	states := make([]string, len(workflow.States))
	for i, s := range workflow.States {
		states[i] = string(s)
	}
	return mcp.NewTool("c4_workflow_advance",
		mcp.WithDescription(
			"Move a diagram's workflow to another state, for example COMPLETE when the "+
				"diagram is finished or REFINEMENT to reopen it. Only allowed transitions succeed.",
		),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram to advance")),
		mcp.WithString("target_state",
			mcp.Required(),
			mcp.Description("State to move to"),
			mcp.Enum(states...),
		),
	)
}

// Handle processes the c4_workflow_advance tool call.
func (t *WorkflowAdvanceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	raw, errRes := requireString(req, "target_state")
	if errRes != nil {
		return errRes, nil
	}
	target, err := workflow.ParseState(strings.ToUpper(raw))
	if err != nil {
		return toolError(c4.Invalid("target_state", err.Error()))
	}

	wf, err := t.diagrams.AdvanceWorkflow(ctx, diagramID, target)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(describeWorkflow("Workflow Advanced", wf)), nil
}
