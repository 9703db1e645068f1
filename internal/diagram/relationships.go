package diagram

import (
	"context"
	"strings"
	"time"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

// RelationshipInput holds the fields accepted when adding a relationship.
type RelationshipInput struct {
	SourceID    string
	TargetID    string
	Description string
	Technology  string
	Direction   string
	Tag         string
	SeqStyle    string
}

// RelationshipPatch lists the fields to change; nil means unchanged.
type RelationshipPatch struct {
	SourceID    *string
	TargetID    *string
	Description *string
	Technology  *string
	Direction   *string
	Tag         *string
	SeqStyle    *string
}

// errEndpoints is the rejection for a relationship whose source or target
// does not resolve.
var errEndpoints = c4.Invalid("", "source or target element not found")

// AddRelationship appends a relationship after checking both endpoints
// exist. A rejected relationship leaves the diagram untouched.
func (s *Service) AddRelationship(ctx context.Context, diagramID string, in RelationshipInput) (*c4.Relationship, error) {
	var added c4.Relationship
	_, err := s.apply(ctx, diagramID, "add_relationship", func(d *c4.Diagram, now time.Time) (workflow.Event, error) {
		r := c4.Relationship{
			ID:          uniqueID(d, relationshipPrefix),
			SourceID:    strings.TrimSpace(in.SourceID),
			TargetID:    strings.TrimSpace(in.TargetID),
			Description: strings.TrimSpace(in.Description),
			Technology:  strings.TrimSpace(in.Technology),
			Direction:   strings.ToLower(strings.TrimSpace(in.Direction)),
			Tag:         strings.TrimSpace(in.Tag),
			SeqStyle:    strings.TrimSpace(in.SeqStyle),
			Created:     now,
			Updated:     now,
		}
		if err := c4.ValidateRelationship(&r); err != nil {
			return "", err
		}
		if !endpointsResolve(d, r.SourceID, r.TargetID) {
			return "", errEndpoints
		}
		d.Relationships = append(d.Relationships, r)
		added = r
		return workflow.EventRelationshipAdded, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// UpdateRelationship merges patch into an existing relationship. Changed
// endpoints are checked before anything is applied.
func (s *Service) UpdateRelationship(ctx context.Context, diagramID, relID string, patch RelationshipPatch) (*c4.Relationship, error) {
	var updated c4.Relationship
	_, err := s.apply(ctx, diagramID, "update_relationship", func(d *c4.Diagram, now time.Time) (workflow.Event, error) {
		i := d.RelationshipIndex(relID)
		if i < 0 {
			return "", c4.NotFound("relationship", relID)
		}
		r := d.Relationships[i]

		if patch.SourceID != nil || patch.TargetID != nil {
			if patch.SourceID != nil {
				r.SourceID = strings.TrimSpace(*patch.SourceID)
			}
			if patch.TargetID != nil {
				r.TargetID = strings.TrimSpace(*patch.TargetID)
			}
			if !endpointsResolve(d, r.SourceID, r.TargetID) {
				return "", errEndpoints
			}
		}
		if patch.Description != nil {
			r.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Technology != nil {
			r.Technology = strings.TrimSpace(*patch.Technology)
		}
		if patch.Direction != nil {
			r.Direction = strings.ToLower(strings.TrimSpace(*patch.Direction))
		}
		if patch.Tag != nil {
			r.Tag = strings.TrimSpace(*patch.Tag)
		}
		if patch.SeqStyle != nil {
			r.SeqStyle = strings.TrimSpace(*patch.SeqStyle)
		}
		r.Updated = now
		if err := c4.ValidateRelationship(&r); err != nil {
			return "", err
		}

		d.Relationships[i] = r
		updated = r
		return workflow.EventRefined, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRelationship removes a relationship by id.
func (s *Service) DeleteRelationship(ctx context.Context, diagramID, relID string) error {
	_, err := s.apply(ctx, diagramID, "delete_relationship", func(d *c4.Diagram, _ time.Time) (workflow.Event, error) {
		i := d.RelationshipIndex(relID)
		if i < 0 {
			return "", c4.NotFound("relationship", relID)
		}
		d.Relationships = append(d.Relationships[:i], d.Relationships[i+1:]...)
		return workflow.EventRefined, nil
	})
	return err
}

// endpointsResolve reports whether both ids name participants (not
// sequence markers) of d.
func endpointsResolve(d *c4.Diagram, sourceID, targetID string) bool {
	for _, id := range []string{sourceID, targetID} {
		e := d.Element(id)
		if e == nil || e.IsMarker() {
			return false
		}
	}
	return true
}
