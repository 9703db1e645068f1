package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the c4-review MCP prompt.
// It instructs the AI to inspect a diagram and propose refinements.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("c4-review",
		mcp.WithPromptDescription(
			"Review a C4 diagram: shows its workflow state, checks it for gaps "+
				"and suggests what to add or refine next.",
		),
		mcp.WithArgument("diagram_id",
			mcp.ArgumentDescription("Diagram to review. Omit to pick one from c4_list_projects"),
		),
	)
}

// Handle processes the c4-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	target := "Run `c4_list_projects` and ask me which diagram to review."
	if id := argOr(req, "diagram_id", ""); id != "" {
		target = fmt.Sprintf("Review diagram `%s`.", id)
	}

	return &mcp.GetPromptResult{
		Description: "C4 Diagram Review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					target + "\n\n" +
						"Then:\n" +
						"1. Run `c4_workflow_status` and show me where the diagram is in the workflow\n" +
						"2. Run `c4_get_diagram` and point out elements without descriptions, containers or components " +
						"without technology, and elements no relationship touches\n" +
						"3. Suggest concrete fixes as `c4_update_element` / `c4_add_relationship` calls, but ask before applying them\n" +
						"4. If nothing is missing, offer to advance the workflow to COMPLETE with `c4_workflow_advance`",
				),
			},
		},
	}, nil
}
