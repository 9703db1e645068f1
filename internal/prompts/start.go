// Package prompts implements MCP prompt handlers for guided C4 modeling.
//
// Prompts are user-triggered workflows (like slash commands) that tell the
// AI which tools to call and in what order. Tools are called by the AI;
// prompts are started by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the c4-start MCP prompt.
// It walks the AI through creating a project and its context diagram.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("c4-start",
		mcp.WithPromptDescription(
			"Start modeling a software system with C4 diagrams. "+
				"Creates the project, then builds the system context diagram step by step.",
		),
		mcp.WithArgument("project_name",
			mcp.ArgumentDescription("Name of the system being modelled"),
		),
		mcp.WithArgument("root_path",
			mcp.ArgumentDescription("Repository the diagrams are written to (docs/c4/). Default: the current workspace"),
		),
	)
}

// Handle processes the c4-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := argOr(req, "project_name", "my-system")
	rootPath := argOr(req, "root_path", "")

	rootHint := "the absolute path of the current workspace"
	if rootPath != "" {
		rootHint = fmt.Sprintf("'%s'", rootPath)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start C4 model: %s", projectName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to document the architecture of '%s' with C4 diagrams.\n\n"+
						"Please:\n"+
						"1. Run `c4_create_project` with name='%s' and root_path=%s (ask me for a one-line description)\n"+
						"2. Run `c4_create_diagram` with diagram_type='context'\n"+
						"3. Ask me about the system, then add it with `c4_add_element` (base_type=system)\n"+
						"4. Ask who uses it and add each actor (base_type=person)\n"+
						"5. Ask which outside systems it depends on and add them (base_type=system, variant=external)\n"+
						"6. Connect everything with `c4_add_relationship`, one interaction at a time\n"+
						"7. Follow the **Next Step** hints from each tool, and check `c4_workflow_status` when unsure\n\n"+
						"Keep names short and put detail in descriptions. Show me the generated source "+
						"with `c4_generate_diagram` when the context diagram is done.",
					projectName, projectName, rootHint,
				)),
			},
		},
	}, nil
}

func argOr(req mcp.GetPromptRequest, key, fallback string) string {
	if args := req.Params.Arguments; args != nil {
		if v, ok := args[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}
