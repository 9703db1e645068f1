package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if res == nil || len(res.Messages) != 1 {
		t.Fatalf("expected one message, got %+v", res)
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Messages[0].Content)
	}
	if res.Messages[0].Role != mcp.RoleUser {
		t.Errorf("role = %q, want user", res.Messages[0].Role)
	}
	return tc.Text
}

func TestStartPrompt(t *testing.T) {
	p := NewStartPrompt()
	if name := p.Definition().Name; name != "c4-start" {
		t.Errorf("name = %q, want c4-start", name)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"project_name": "Webshop", "root_path": "/src/webshop"}
	res, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, res)
	for _, want := range []string{"'Webshop'", "root_path='/src/webshop'", "c4_create_project", "diagram_type='context'"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt should contain %q:\n%s", want, text)
		}
	}
	if res.Description != "Start C4 model: Webshop" {
		t.Errorf("description = %q", res.Description)
	}
}

func TestStartPrompt_Defaults(t *testing.T) {
	res, err := NewStartPrompt().Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "'my-system'") || !strings.Contains(text, "current workspace") {
		t.Errorf("defaults not applied:\n%s", text)
	}
}

func TestReviewPrompt(t *testing.T) {
	p := NewReviewPrompt()
	if name := p.Definition().Name; name != "c4-review" {
		t.Errorf("name = %q, want c4-review", name)
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"diagram_id": "d-123"}
	res, err := p.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if text := promptText(t, res); !strings.Contains(text, "Review diagram `d-123`") {
		t.Errorf("prompt should target the diagram:\n%s", text)
	}

	res, _ = p.Handle(context.Background(), mcp.GetPromptRequest{})
	if text := promptText(t, res); !strings.Contains(text, "c4_list_projects") {
		t.Errorf("prompt without id should ask to list projects:\n%s", text)
	}
}
