// Package c4 holds the diagram model: projects, diagrams, elements and
// relationships, the element descriptor that decides how an element is
// drawn, and the error taxonomy shared by every other package.
//
// The package is pure data plus validation. Persistence lives in store,
// mutation rules in diagram, text generation in plantuml.
package c4

import (
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// --- Diagram type enum ---

// DiagramType is fixed when a diagram is created.
type DiagramType string

const (
	DiagramContext   DiagramType = "context"
	DiagramContainer DiagramType = "container"
	DiagramComponent DiagramType = "component"
	DiagramCode      DiagramType = "code"
	DiagramInterface DiagramType = "interface"
	DiagramSequence  DiagramType = "sequence"
)

// DiagramTypes lists every diagram type in C4 abstraction order.
var DiagramTypes = []DiagramType{
	DiagramContext,
	DiagramContainer,
	DiagramComponent,
	DiagramCode,
	DiagramInterface,
	DiagramSequence,
}

// ParseDiagramType accepts any casing ("Context", "context").
func ParseDiagramType(s string) (DiagramType, error) {
	t := DiagramType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DiagramTypes {
		if t == known {
			return t, nil
		}
	}
	return "", Invalid("diagram_type", fmt.Sprintf(
		"invalid diagram type %q: must be one of: context, container, component, code, interface, sequence", s))
}

// Title returns the display name used in generated titles ("Container").
func (t DiagramType) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// --- Element kind enum ---

// ElementKind separates real participants from the timeline markers that
// only Sequence diagrams use.
type ElementKind string

const (
	KindParticipant  ElementKind = "participant"
	KindDividerStart ElementKind = "divider_start"
	KindDividerEnd   ElementKind = "divider_end"
	KindGroupStart   ElementKind = "group_start"
	KindGroupEnd     ElementKind = "group_end"
)

// --- Core data structures ---

// Style carries optional C4-PlantUML styling parameters.
type Style struct {
	Sprite string `json:"sprite,omitempty"`
	Tags   string `json:"tags,omitempty"`
	Link   string `json:"link,omitempty"`
}

// Element is one shape (or sequence marker) in a diagram.
type Element struct {
	ID          string      `json:"id"`
	Kind        ElementKind `json:"kind"`
	Descriptor  Descriptor  `json:"descriptor"`
	Name        string      `json:"name" validate:"required,max=200"`
	Description string      `json:"description,omitempty" validate:"max=2000"`
	Technology  string      `json:"technology,omitempty" validate:"max=200"`
	ParentID    string      `json:"parentId,omitempty"`
	Style       Style       `json:"style"`

	// Title is the label of a divider or group marker.
	Title string `json:"title,omitempty"`
	// MarkerRef points an end marker at the start marker it closes.
	MarkerRef string `json:"markerRef,omitempty"`

	// Created orders sequence events; it is never displayed.
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// IsMarker reports whether the element is a sequence divider or group marker.
func (e *Element) IsMarker() bool {
	return e.Kind != "" && e.Kind != KindParticipant
}

// IsBoundary reports whether the element can contain children.
func (e *Element) IsBoundary() bool {
	return e.Descriptor.Variant == VariantBoundary
}

// Relationship is a directed edge between two elements of the same diagram.
type Relationship struct {
	ID          string `json:"id"`
	SourceID    string `json:"sourceId" validate:"required"`
	TargetID    string `json:"targetId" validate:"required"`
	Description string `json:"description" validate:"max=500"`
	Technology  string `json:"technology,omitempty" validate:"max=200"`

	// Direction selects Rel_U/Rel_D/Rel_L/Rel_R.
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=up down left right"`
	// Tag is the interface relationship type (implements, extends, ...).
	Tag string `json:"tag,omitempty"`
	// SeqStyle is the $rel arrow style used by sequence diagrams.
	SeqStyle string `json:"seqStyle,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Diagram is the aggregate root persisted as one document.
type Diagram struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"projectId"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Type          DiagramType       `json:"diagramType"`
	Elements      []Element         `json:"elements"`
	Relationships []Relationship    `json:"relationships"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Workflow      *workflow.Context `json:"workflow,omitempty"`
	Created       time.Time         `json:"created"`
	Updated       time.Time         `json:"updated"`
}

// ElementIndex returns the position of the element with the given id, or -1.
func (d *Diagram) ElementIndex(id string) int {
	for i := range d.Elements {
		if d.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Element returns the element with the given id, or nil.
func (d *Diagram) Element(id string) *Element {
	if i := d.ElementIndex(id); i >= 0 {
		return &d.Elements[i]
	}
	return nil
}

// RelationshipIndex returns the position of the relationship with the given id, or -1.
func (d *Diagram) RelationshipIndex(id string) int {
	for i := range d.Relationships {
		if d.Relationships[i].ID == id {
			return i
		}
	}
	return -1
}

// Relationship returns the relationship with the given id, or nil.
func (d *Diagram) Relationship(id string) *Relationship {
	if i := d.RelationshipIndex(id); i >= 0 {
		return &d.Relationships[i]
	}
	return nil
}

// Project groups diagrams under one filesystem root.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description,omitempty"`
	RootPath    string    `json:"rootPath" validate:"required"`
	DiagramIDs  []string  `json:"diagramIds"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}
