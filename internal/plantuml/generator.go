// Package plantuml turns a diagram into C4-PlantUML source text.
//
// Generation is a pure function of (project, diagram): Build produces a
// statement list, Render serializes it. Nothing here touches a store.
package plantuml

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
)

const c4StdlibBase = "https://raw.githubusercontent.com/plantuml-stdlib/C4-PlantUML/master/"

// includes selects the C4-PlantUML stylesheet per diagram type. Code and
// Interface diagrams reuse the component library.
var includes = map[c4.DiagramType]string{
	c4.DiagramContext:   c4StdlibBase + "C4_Context.puml",
	c4.DiagramContainer: c4StdlibBase + "C4_Container.puml",
	c4.DiagramComponent: c4StdlibBase + "C4_Component.puml",
	c4.DiagramCode:      c4StdlibBase + "C4_Component.puml",
	c4.DiagramInterface: c4StdlibBase + "C4_Component.puml",
	c4.DiagramSequence:  c4StdlibBase + "C4_Sequence.puml",
}

// IncludeURL returns the stylesheet URL for a diagram type.
func IncludeURL(dt c4.DiagramType) string {
	return includes[dt]
}

// Metadata keys understood by the generator.
const (
	MetaLayout = "layout" // top_down | left_right | landscape
	MetaLegend = "legend" // "true" appends SHOW_LEGEND()
)

var layouts = map[string]string{
	"top_down":   "LAYOUT_TOP_DOWN()",
	"left_right": "LAYOUT_LEFT_RIGHT()",
	"landscape":  "LAYOUT_LANDSCAPE()",
}

// interfacePreamble styles the three interface element tags and the four
// interface relationship tags.
var interfacePreamble = []Statement{
	Line(`AddElementTag("interface", $bgColor="#1168bd", $fontColor="#ffffff", $borderColor="#0b4884")`),
	Line(`AddElementTag("type", $bgColor="#2e7d32", $fontColor="#ffffff", $borderColor="#1b5e20")`),
	Line(`AddElementTag("enum", $bgColor="#ef6c00", $fontColor="#ffffff", $borderColor="#e65100")`),
	Line(`AddRelTag("implements", $textColor="#1168bd", $lineColor="#1168bd", $lineStyle=DashedLine())`),
	Line(`AddRelTag("extends", $textColor="#2e7d32", $lineColor="#2e7d32")`),
	Line(`AddRelTag("uses", $textColor="#666666", $lineColor="#666666", $lineStyle=DottedLine())`),
	Line(`AddRelTag("returns", $textColor="#ef6c00", $lineColor="#ef6c00", $lineStyle=DashedLine())`),
}

// Generate returns the complete PlantUML source for d.
func Generate(project *c4.Project, d *c4.Diagram) (string, error) {
	stmts, err := Build(project, d)
	if err != nil {
		return "", err
	}
	return Render(stmts), nil
}

// Build returns the statement list for d. It fails with a not-found error
// when the owning project is missing or does not own the diagram.
func Build(project *c4.Project, d *c4.Diagram) ([]Statement, error) {
	if d == nil {
		return nil, c4.NotFound("diagram", "")
	}
	if project == nil || project.ID != d.ProjectID {
		return nil, c4.NotFound("project", d.ProjectID)
	}
	include, ok := includes[d.Type]
	if !ok {
		return nil, c4.Invalid("diagram_type", fmt.Sprintf("unsupported diagram type %q", d.Type))
	}

	stmts := []Statement{
		Line("@startuml"),
		Line("!include " + include),
		Line(""),
		Line("title " + titleText(d)),
	}

	if d.Type != c4.DiagramSequence {
		stmts = append(stmts, Line(""), descriptionNote(d), Line(""), ProjectNote(project))
	}

	if d.Type == c4.DiagramInterface {
		stmts = append(stmts, Line(""))
		stmts = append(stmts, interfacePreamble...)
	}
	if layout, ok := layouts[d.Metadata[MetaLayout]]; ok {
		stmts = append(stmts, Line(""), Line(layout))
	}

	stmts = append(stmts, Line(""))
	if d.Type == c4.DiagramSequence {
		stmts = append(stmts, SequenceParticipants(d)...)
		stmts = append(stmts, Line(""))
		stmts = append(stmts, SequenceEvents(d)...)
	} else {
		stmts = append(stmts, ElementStatements(d)...)
		stmts = append(stmts, Line(""))
		stmts = append(stmts, RelationshipStatements(d)...)
	}

	if d.Metadata[MetaLegend] == "true" {
		stmts = append(stmts, Line(""), Line("SHOW_LEGEND()"))
	}
	stmts = append(stmts, Line("@enduml"))
	return stmts, nil
}

func titleText(d *c4.Diagram) string {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = "Untitled"
	}
	return d.Type.Title() + " Diagram: " + strings.ReplaceAll(name, "\n", " ")
}

func descriptionNote(d *c4.Diagram) Note {
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = "No description provided"
	}
	return Note{Alias: "DiagramDescription", Lines: strings.Split(desc, "\n")}
}

// ProjectNote embeds the owning project so the id can be recovered from
// the generated text alone. The format is read back by ParseProjectID and
// must not change.
func ProjectNote(p *c4.Project) Note {
	return Note{
		Alias: "ExistingProject",
		Lines: []string{
			"Project ID: " + p.ID,
			"Project Name: " + strings.ReplaceAll(p.Name, "\n", " "),
		},
	}
}

// ParseProjectID recovers the project id from generated source.
func ParseProjectID(source string) (string, bool) {
	inNote := false
	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "note as ExistingProject":
			inNote = true
		case line == "end note":
			inNote = false
		case inNote && strings.HasPrefix(line, "Project ID: "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "Project ID: "))
			return id, id != ""
		}
	}
	return "", false
}

// ElementStatements runs the three element passes:
//
//  1. non-boundary elements without a parent, flat;
//  2. top-level boundaries as blocks holding their direct children, then
//     boundaries that have a parent, flat (nesting stops at one level);
//  3. anything left over (dangling or non-boundary parents), flat.
//
// Every element is emitted exactly once.
func ElementStatements(d *c4.Diagram) []Statement {
	var out []Statement
	processed := make(map[string]bool, len(d.Elements))

	// Pass 1.
	for i := range d.Elements {
		e := &d.Elements[i]
		if e.IsMarker() {
			processed[e.ID] = true
			continue
		}
		if !e.IsBoundary() && e.ParentID == "" {
			out = append(out, elementStatement(e, d.Type))
			processed[e.ID] = true
		}
	}

	// Pass 2: top-level boundaries with their children.
	for i := range d.Elements {
		b := &d.Elements[i]
		if processed[b.ID] || !b.IsBoundary() || b.ParentID != "" {
			continue
		}
		processed[b.ID] = true
		block := BoundaryBlock{Open: boundaryMacro(b)}
		for j := range d.Elements {
			c := &d.Elements[j]
			if processed[c.ID] || c.ParentID != b.ID {
				continue
			}
			block.Children = append(block.Children, elementStatement(c, d.Type))
			processed[c.ID] = true
		}
		out = append(out, block)
	}
	// Pass 2, continued: nested boundaries not already placed in a block.
	for i := range d.Elements {
		b := &d.Elements[i]
		if processed[b.ID] || !b.IsBoundary() {
			continue
		}
		out = append(out, elementStatement(b, d.Type))
		processed[b.ID] = true
	}

	// Pass 3.
	for i := range d.Elements {
		e := &d.Elements[i]
		if processed[e.ID] {
			continue
		}
		out = append(out, elementStatement(e, d.Type))
		processed[e.ID] = true
	}

	return out
}

// elementStatement renders one element without children.
func elementStatement(e *c4.Element, dt c4.DiagramType) Statement {
	if e.Descriptor.BaseType == c4.BaseNote && !e.IsBoundary() {
		lines := []string{e.Name}
		if e.Description != "" {
			lines = append(lines, strings.Split(e.Description, "\n")...)
		}
		return Note{Alias: e.ID, Lines: lines}
	}
	if e.IsBoundary() {
		return boundaryMacro(e)
	}

	macro := ResolveMacro(e.Descriptor)
	args := []string{e.ID, quote(e.Name)}

	tags := e.Style.Tags
	if dt == c4.DiagramInterface {
		tags = joinTags(string(e.Descriptor.InterfaceType), e.Style.Tags)
	}

	// Components keep all four positional arguments so tag styling lines up.
	if takesTechnology(macro) || e.Descriptor.Role() == c4.RoleInterfaceTyped {
		args = append(args, quote(e.Technology))
	}
	args = append(args, quote(e.Description))
	args = append(args, styleArgs(e.Style.Sprite, tags, e.Style.Link)...)
	return Macro{Name: macro, Args: args}
}

func boundaryMacro(e *c4.Element) Macro {
	return Macro{
		Name: ResolveMacro(e.Descriptor),
		Args: []string{e.ID, quote(e.Name), quote(e.Description)},
	}
}

func styleArgs(sprite, tags, link string) []string {
	var out []string
	if sprite != "" {
		out = append(out, named("sprite", sprite))
	}
	if tags != "" {
		out = append(out, named("tags", tags))
	}
	if link != "" {
		out = append(out, named("link", link))
	}
	return out
}

// joinTags combines tags with C4-PlantUML's "+" separator.
func joinTags(tags ...string) string {
	var parts []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "+")
}

var directionMacros = map[string]string{
	"up":    "Rel_U",
	"down":  "Rel_D",
	"left":  "Rel_L",
	"right": "Rel_R",
}

// RelationshipStatements renders relationships for structural diagrams.
// Relationships with a missing endpoint are skipped, and identical
// (source, target, description) triples are emitted once.
func RelationshipStatements(d *c4.Diagram) []Statement {
	var out []Statement
	seen := make(map[string]bool, len(d.Relationships))

	for i := range d.Relationships {
		r := &d.Relationships[i]
		if !resolvable(d, r) || !firstOccurrence(seen, r) {
			continue
		}

		macro := "Rel"
		if m, ok := directionMacros[r.Direction]; ok {
			macro = m
		}
		args := []string{quote(r.Description)}
		if r.Technology != "" {
			args = append(args, quote(r.Technology))
		}
		if d.Type == c4.DiagramInterface && r.Tag != "" {
			args = append(args, named("tags", r.Tag))
		}
		out = append(out, RelEdge{Macro: macro, From: r.SourceID, To: r.TargetID, Args: args})
	}
	return out
}

func resolvable(d *c4.Diagram, r *c4.Relationship) bool {
	return d.Element(r.SourceID) != nil && d.Element(r.TargetID) != nil
}

func firstOccurrence(seen map[string]bool, r *c4.Relationship) bool {
	key := r.SourceID + "|" + r.TargetID + "|" + r.Description
	if seen[key] {
		return false
	}
	seen[key] = true
	return true
}
