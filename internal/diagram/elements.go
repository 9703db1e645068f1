package diagram

import (
	"context"
	"strings"
	"time"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// ElementInput holds the fields accepted when adding an element.
type ElementInput struct {
	Descriptor  c4.Descriptor
	Name        string
	Description string
	Technology  string
	ParentID    string
	Style       c4.Style
}

// ElementPatch lists the fields to change; nil means unchanged.
type ElementPatch struct {
	Descriptor  *c4.Descriptor
	Name        *string
	Description *string
	Technology  *string
	ParentID    *string
	Style       *c4.Style
}

// AddElement appends a new element with a fresh id.
func (s *Service) AddElement(ctx context.Context, diagramID string, in ElementInput) (*c4.Element, error) {
	var added c4.Element
	_, err := s.apply(ctx, diagramID, "add_element", func(d *c4.Diagram, now time.Time) (workflow.Event, error) {
		e := c4.Element{
			ID:          uniqueID(d, elementPrefix),
			Kind:        c4.KindParticipant,
			Descriptor:  in.Descriptor.Normalized(),
			Name:        strings.TrimSpace(in.Name),
			Description: strings.TrimSpace(in.Description),
			Technology:  strings.TrimSpace(in.Technology),
			ParentID:    strings.TrimSpace(in.ParentID),
			Style:       in.Style,
			Created:     now,
			Updated:     now,
		}
		if err := c4.ValidateElement(&e, d.Type); err != nil {
			return "", err
		}
		if err := checkParent(d, &e); err != nil {
			return "", err
		}
		d.Elements = append(d.Elements, e)
		added = e
		return addedEvent(&e), nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// UpdateElement merges patch into an existing element.
func (s *Service) UpdateElement(ctx context.Context, diagramID, elementID string, patch ElementPatch) (*c4.Element, error) {
	var updated c4.Element
	_, err := s.apply(ctx, diagramID, "update_element", func(d *c4.Diagram, now time.Time) (workflow.Event, error) {
		i := d.ElementIndex(elementID)
		if i < 0 || d.Elements[i].IsMarker() {
			return "", c4.NotFound("element", elementID)
		}
		e := d.Elements[i]
		wasBoundary := e.IsBoundary()

		if patch.Descriptor != nil {
			e.Descriptor = patch.Descriptor.Normalized()
		}
		if patch.Name != nil {
			e.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			e.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Technology != nil {
			e.Technology = strings.TrimSpace(*patch.Technology)
		}
		if patch.ParentID != nil {
			e.ParentID = strings.TrimSpace(*patch.ParentID)
		}
		if patch.Style != nil {
			e.Style = *patch.Style
		}
		e.Updated = now

		if err := c4.ValidateElement(&e, d.Type); err != nil {
			return "", err
		}
		if err := checkParent(d, &e); err != nil {
			return "", err
		}

		d.Elements[i] = e
		if wasBoundary && !e.IsBoundary() {
			orphanChildren(d, e.ID)
		}
		updated = e
		return workflow.EventRefined, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteElement removes an element and every relationship that touches
// it. Children of a deleted boundary move to the top level. It returns
// the ids of the removed relationships.
func (s *Service) DeleteElement(ctx context.Context, diagramID, elementID string) ([]string, error) {
	var removed []string
	_, err := s.apply(ctx, diagramID, "delete_element", func(d *c4.Diagram, _ time.Time) (workflow.Event, error) {
		i := d.ElementIndex(elementID)
		if i < 0 {
			return "", c4.NotFound("element", elementID)
		}
		d.Elements = append(d.Elements[:i], d.Elements[i+1:]...)

		kept := d.Relationships[:0]
		for _, r := range d.Relationships {
			if r.SourceID == elementID || r.TargetID == elementID {
				removed = append(removed, r.ID)
				continue
			}
			kept = append(kept, r)
		}
		d.Relationships = kept

		orphanChildren(d, elementID)
		return workflow.EventRefined, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// checkParent enforces that a parent is another boundary element of the
// same diagram.
func checkParent(d *c4.Diagram, e *c4.Element) error {
	if e.ParentID == "" {
		return nil
	}
	if e.ParentID == e.ID {
		return c4.Invalid("parentId", "an element cannot be its own parent")
	}
	parent := d.Element(e.ParentID)
	if parent == nil || parent.IsMarker() {
		return c4.Invalid("parentId", "parent element "+e.ParentID+" not found")
	}
	if !parent.IsBoundary() {
		return c4.Invalid("parentId", "parent element "+e.ParentID+" is not a boundary")
	}
	return nil
}

func orphanChildren(d *c4.Diagram, parentID string) {
	for i := range d.Elements {
		if d.Elements[i].ParentID == parentID {
			d.Elements[i].ParentID = ""
		}
	}
}

// addedEvent maps a new element to the workflow event it represents.
func addedEvent(e *c4.Element) workflow.Event {
	switch e.Descriptor.BaseType {
	case c4.BaseSystem:
		if e.Descriptor.IsExternal() {
			return workflow.EventExternalSystemAdded
		}
		if e.IsBoundary() {
			return workflow.EventRefined
		}
		return workflow.EventSystemAdded
	case c4.BasePerson:
		return workflow.EventPersonAdded
	default:
		return workflow.EventRefined
	}
}
