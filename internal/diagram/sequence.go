package diagram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// AddDivider opens a titled phase in a sequence diagram.
func (s *Service) AddDivider(ctx context.Context, diagramID, title string) (*c4.Element, error) {
	return s.addMarker(ctx, diagramID, "add_divider", c4.KindDividerStart, title, "")
}

// EndDivider closes the phase opened by dividerID.
func (s *Service) EndDivider(ctx context.Context, diagramID, dividerID string) (*c4.Element, error) {
	return s.addMarker(ctx, diagramID, "end_divider", c4.KindDividerEnd, "", dividerID)
}

// StartGroup opens a titled group in a sequence diagram.
func (s *Service) StartGroup(ctx context.Context, diagramID, title string) (*c4.Element, error) {
	return s.addMarker(ctx, diagramID, "start_group", c4.KindGroupStart, title, "")
}

// EndGroup closes the group opened by groupID.
func (s *Service) EndGroup(ctx context.Context, diagramID, groupID string) (*c4.Element, error) {
	return s.addMarker(ctx, diagramID, "end_group", c4.KindGroupEnd, "", groupID)
}

// closes maps an end marker kind to the start kind it must reference.
var closes = map[c4.ElementKind]c4.ElementKind{
	c4.KindDividerEnd: c4.KindDividerStart,
	c4.KindGroupEnd:   c4.KindGroupStart,
}

func (s *Service) addMarker(ctx context.Context, diagramID, op string, kind c4.ElementKind, title, ref string) (*c4.Element, error) {
	var added c4.Element
	_, err := s.apply(ctx, diagramID, op, func(d *c4.Diagram, now time.Time) (workflow.Event, error) {
		m := c4.Element{
			ID:        uniqueID(d, elementPrefix),
			Kind:      kind,
			Title:     strings.TrimSpace(title),
			MarkerRef: strings.TrimSpace(ref),
			Created:   now,
			Updated:   now,
		}
		if err := c4.ValidateElement(&m, d.Type); err != nil {
			return "", err
		}
		if startKind, isEnd := closes[kind]; isEnd {
			start := d.Element(m.MarkerRef)
			if start == nil || start.Kind != startKind {
				return "", c4.NotFound(string(startKind), m.MarkerRef)
			}
			if closed(d, m.MarkerRef) {
				return "", c4.Invalid("markerRef", fmt.Sprintf("%s %s is already closed", startKind, m.MarkerRef))
			}
			m.Title = start.Title
		}
		m.Name = m.Title
		d.Elements = append(d.Elements, m)
		added = m
		return workflow.EventRefined, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func closed(d *c4.Diagram, startID string) bool {
	for i := range d.Elements {
		if _, isEnd := closes[d.Elements[i].Kind]; isEnd && d.Elements[i].MarkerRef == startID {
			return true
		}
	}
	return false
}
