package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/diagram"
)

// descriptorOptions are shared by add and update.
func descriptorOptions(required bool) []mcp.ToolOption {
	base := []mcp.PropertyOption{
		mcp.Description("C4 concept the element stands for"),
		mcp.Enum("system", "person", "container", "component", "class", "interface", "note"),
	}
	if required {
		base = append(base, mcp.Required())
	}
	return []mcp.ToolOption{
		mcp.WithString("base_type", base...),
		mcp.WithString("variant",
			mcp.Description("How the element is drawn. Defaults to standard. Use boundary for a box that groups other elements."),
			mcp.Enum("standard", "external", "db", "queue", "boundary"),
		),
		mcp.WithString("boundary_type",
			mcp.Description("Only with variant=boundary: system or container boundary (generic boundary when omitted)"),
			mcp.Enum("system", "container"),
		),
		mcp.WithString("interface_type",
			mcp.Description("Only in interface diagrams: interface, type or enum"),
			mcp.Enum("interface", "type", "enum"),
		),
		mcp.WithBoolean("external",
			mcp.Description("Marks a db or queue variant as living outside the system"),
		),
		mcp.WithString("name", mcp.Description("Element label")),
		mcp.WithString("description", mcp.Description("What the element does")),
		mcp.WithString("technology", mcp.Description("Technology; required for containers and components")),
		mcp.WithString("parent_id", mcp.Description("Id of a boundary element that contains this one")),
		mcp.WithString("sprite", mcp.Description("Optional C4-PlantUML sprite")),
		mcp.WithString("tags", mcp.Description("Optional C4-PlantUML tags, joined with +")),
		mcp.WithString("link", mcp.Description("Optional URL attached to the element")),
	}
}

func readDescriptor(req mcp.CallToolRequest, base c4.Descriptor) c4.Descriptor {
	if v := optString(req, "base_type"); v != nil {
		base.BaseType = c4.BaseType(strings.ToLower(strings.TrimSpace(*v)))
	}
	if v := optString(req, "variant"); v != nil {
		base.Variant = c4.Variant(strings.ToLower(strings.TrimSpace(*v)))
	}
	if v := optString(req, "boundary_type"); v != nil {
		base.BoundaryType = c4.BoundaryType(strings.ToLower(strings.TrimSpace(*v)))
	}
	if v := optString(req, "interface_type"); v != nil {
		base.InterfaceType = c4.InterfaceType(strings.ToLower(strings.TrimSpace(*v)))
	}
	if hasArg(req, "external") {
		base.External = req.GetBool("external", false)
	}
	return base
}

func readStyle(req mcp.CallToolRequest, base c4.Style) c4.Style {
	if v := optString(req, "sprite"); v != nil {
		base.Sprite = *v
	}
	if v := optString(req, "tags"); v != nil {
		base.Tags = *v
	}
	if v := optString(req, "link"); v != nil {
		base.Link = *v
	}
	return base
}

func describeElement(e *c4.Element) string {
	kind := string(e.Descriptor.BaseType)
	if e.Descriptor.Variant != "" && e.Descriptor.Variant != c4.VariantStandard {
		kind += " (" + string(e.Descriptor.Variant) + ")"
	}
	return fmt.Sprintf("**%s** `%s`: %s", e.Name, e.ID, kind)
}

// AddElementTool handles c4_add_element.
type AddElementTool struct {
	deps Deps
}

// NewAddElementTool creates an AddElementTool.
func NewAddElementTool(deps Deps) *AddElementTool {
	return &AddElementTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *AddElementTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Add an element (person, system, container, component, class, interface, note or boundary) " +
				"to a diagram. Returns the new element id, which relationships and parent_id refer to.",
		),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Target diagram")),
	}
	opts = append(opts, descriptorOptions(true)...)
	return mcp.NewTool("c4_add_element", opts...)
}

// Handle processes the c4_add_element tool call.
func (t *AddElementTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}

	e, err := t.deps.Diagrams.AddElement(ctx, diagramID, diagram.ElementInput{
		Descriptor:  readDescriptor(req, c4.Descriptor{}),
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Technology:  req.GetString("technology", ""),
		ParentID:    req.GetString("parent_id", ""),
		Style:       readStyle(req, c4.Style{}),
	})
	if err != nil {
		return toolError(err)
	}
	return mutationResult(ctx, t.deps, diagramID, "Added "+describeElement(e))
}

// UpdateElementTool handles c4_update_element.
type UpdateElementTool struct {
	deps Deps
}

// NewUpdateElementTool creates an UpdateElementTool.
func NewUpdateElementTool(deps Deps) *UpdateElementTool {
	return &UpdateElementTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateElementTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Change fields of an existing element. Only the fields you send are changed."),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram holding the element")),
		mcp.WithString("element_id", mcp.Required(), mcp.Description("Element to change")),
	}
	opts = append(opts, descriptorOptions(false)...)
	return mcp.NewTool("c4_update_element", opts...)
}

// Handle processes the c4_update_element tool call.
func (t *UpdateElementTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	elementID, errRes := requireString(req, "element_id")
	if errRes != nil {
		return errRes, nil
	}

	d, err := t.deps.Diagrams.GetDiagram(ctx, diagramID)
	if err != nil {
		return toolError(err)
	}
	current := d.Element(elementID)
	if current == nil {
		return toolError(c4.NotFound("element", elementID))
	}

	patch := diagram.ElementPatch{
		Name:        optString(req, "name"),
		Description: optString(req, "description"),
		Technology:  optString(req, "technology"),
		ParentID:    optString(req, "parent_id"),
	}
	if desc := readDescriptor(req, current.Descriptor); desc != current.Descriptor {
		patch.Descriptor = &desc
	}
	if style := readStyle(req, current.Style); style != current.Style {
		patch.Style = &style
	}

	e, err := t.deps.Diagrams.UpdateElement(ctx, diagramID, elementID, patch)
	if err != nil {
		return toolError(err)
	}
	return mutationResult(ctx, t.deps, diagramID, "Updated "+describeElement(e))
}

// DeleteElementTool handles c4_delete_element.
type DeleteElementTool struct {
	deps Deps
}

// NewDeleteElementTool creates a DeleteElementTool.
func NewDeleteElementTool(deps Deps) *DeleteElementTool {
	return &DeleteElementTool{deps: deps}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteElementTool) Definition() mcp.Tool {
	return mcp.NewTool("c4_delete_element",
		mcp.WithDescription("Delete an element. Every relationship that touches it is deleted too."),
		mcp.WithString("diagram_id", mcp.Required(), mcp.Description("Diagram holding the element")),
		mcp.WithString("element_id", mcp.Required(), mcp.Description("Element to delete")),
	)
}

// Handle processes the c4_delete_element tool call.
func (t *DeleteElementTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diagramID, errRes := requireString(req, "diagram_id")
	if errRes != nil {
		return errRes, nil
	}
	elementID, errRes := requireString(req, "element_id")
	if errRes != nil {
		return errRes, nil
	}

	removed, err := t.deps.Diagrams.DeleteElement(ctx, diagramID, elementID)
	if err != nil {
		return toolError(err)
	}
	summary := fmt.Sprintf("Deleted element `%s`", elementID)
	if len(removed) > 0 {
		summary += fmt.Sprintf(" and %d relationship(s): `%s`", len(removed), strings.Join(removed, "`, `"))
	}
	return mutationResult(ctx, t.deps, diagramID, summary)
}
