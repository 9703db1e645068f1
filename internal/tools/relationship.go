package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/diagram"
)

func relationshipOptions(required bool) []mcp.ToolOption {
	endpoint := func(desc string) []mcp.PropertyOption {
		opts := []mcp.PropertyOption{mcp.Description(desc)}
		if required {
			opts = append(opts, mcp.Required())
		}
		return opts
	}
	return []mcp.ToolOption{
		mcp.WithString("source_id", endpoint("Element the relationship starts at")...),
		mcp.WithString("target_id", endpoint("Element the relationship points to")...),
		mcp.WithString("description", mcp.Description("Label on the arrow, e.g. 'Reads orders from'")),
		mcp.WithString("technology", mcp.Description("Protocol or technology, e.g. 'HTTPS/JSON'")),
		mcp.WithString("direction",
			mcp.Description("Layout hint for structural diagrams"),
			mcp.Enum("up", "down", "left", "right"),
		),
		mcp.WithString("tag",
			mcp.Description("Interface diagrams only: kind of relationship"),
			mcp.Enum("implements", "extends", "uses", "returns"),
		),
		mcp.WithString("rel_style",
			mcp.Description("Sequence diagrams only: PlantUML arrow style, e.g. '->>' or '-->'"),
		),
	}
}

func describeRelationship(r *c4.Relationship) string {
	label := r.Description
	if label == "" {
		label = "(no description)"
	}
	return fmt.Sprintf("`%s` → `%s`: %s (id `%s`)", r.SourceID, r.TargetID, label, r.ID)
}

// AddRelationshipTool handles c4_add_relationship.
type AddRelationshipTool struct {
	deps Deps
}

// NewAddRelationshipTool creates an AddRelationshipTool.
func NewAddRelationshipTool(deps Deps) *AddRelationshipTool {
	return &AddRelationshipTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *AddRelationshipTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Connect two elements of the same diagram. In sequence diagrams relationships are " +
				"the messages of the timeline, in the order they are added.",
		),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Target diagram")),
	}
	opts = append(opts, relationshipOptions(true)...)
	return mcp.NewTool("c4_add_relationship", opts...)
}

// Handle processes the c4_add_relationship tool call.
func (t *AddRelationshipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	sourceID, errRes := requireString(req, "source_id")
	if errRes != nil {
		return errRes, nil
	}
	targetID, errRes := requireString(req, "target_id")
	if errRes != nil {
		return errRes, nil
	}

	r, err := t.deps.Diagrams.AddRelationship(ctx, diagramID, diagram.RelationshipInput{
		SourceID:    sourceID,
		TargetID:    targetID,
		Description: req.GetString("description", ""),
		Technology:  req.GetString("technology", ""),
		Direction:   req.GetString("direction", ""),
		Tag:         req.GetString("tag", ""),
		SeqStyle:    req.GetString("rel_style", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return mutationResult(ctx, t.deps, diagramID, "Added relationship "+describeRelationship(r))
}

// UpdateRelationshipTool handles c4_update_relationship.
type UpdateRelationshipTool struct {
	deps Deps
}

// NewUpdateRelationshipTool creates an UpdateRelationshipTool.
func NewUpdateRelationshipTool(deps Deps) *UpdateRelationshipTool {
	return &UpdateRelationshipTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateRelationshipTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Change fields of a relationship. Only the fields you send are changed."),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram holding the relationship")),
		mcp.WithString("relationship_id", mcp.Required(), mcp.Description("Relationship to change")),
	}
	opts = append(opts, relationshipOptions(false)...)
	return mcp.NewTool("c4_update_relationship", opts...)
}

// Handle processes the c4_update_relationship tool call.
func (t *UpdateRelationshipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	relID, errRes := requireString(req, "relationship_id")
	if errRes != nil {
		return errRes, nil
	}

	r, err := t.deps.Diagrams.UpdateRelationship(ctx, diagramID, relID, diagram.RelationshipPatch{
		SourceID:    optString(req, "source_id"),
		TargetID:    optString(req, "target_id"),
		Description: optString(req, "description"),
		Technology:  optString(req, "technology"),
		Direction:   optString(req, "direction"),
		Tag:         optString(req, "tag"),
		SeqStyle:    optString(req, "rel_style"),
	})
	if err != nil {
		return toolError(err)
	}
	return mutationResult(ctx, t.deps, diagramID, "Updated relationship "+describeRelationship(r))
}

// DeleteRelationshipTool handles c4_delete_relationship.
type DeleteRelationshipTool struct {
	deps Deps
}

// NewDeleteRelationshipTool creates a DeleteRelationshipTool.
func NewDeleteRelationshipTool(deps Deps) *DeleteRelationshipTool {
	return &DeleteRelationshipTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteRelationshipTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_delete_relationship",
		mcp.WithDescription("Delete a relationship. The elements it connects are kept."),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram holding the relationship")),
		mcp.WithString("relationship_id", mcp.Required(), mcp.Description("Relationship to delete")),
	)
}

// Handle processes the c4_delete_relationship tool call.
func (t *DeleteRelationshipTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	relID, errRes := requireString(req, "relationship_id")
	if errRes != nil {
		return errRes, nil
	}
	if err := t.deps.Diagrams.DeleteRelationship(ctx, diagramID, relID); err != nil {
		return toolError(err)
	}
	return mutationResult(ctx, t.deps, diagramID, fmt.Sprintf("Deleted relationship `%s`", relID))
}
