package plantuml

import (
	"sort"
	"time"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
)

// SequenceParticipants declares every participant flat, in element order.
// Boundaries and notes have no sequence form and are left out.
func SequenceParticipants(d *c4.Diagram) []Statement {
	var out []Statement
	for i := range d.Elements {
		e := &d.Elements[i]
		if e.IsMarker() || e.IsBoundary() || e.Descriptor.BaseType == c4.BaseNote {
			continue
		}
		out = append(out, elementStatement(e, c4.DiagramSequence))
	}
	return out
}

type seqEvent struct {
	at   time.Time
	stmt Statement
}

// SequenceEvents rebuilds the timeline: divider and group markers and
// relationships are merged and ordered by their creation time. Events
// without a timestamp sort first; ties keep storage order with markers
// ahead of relationships.
func SequenceEvents(d *c4.Diagram) []Statement {
	var events []seqEvent

	for i := range d.Elements {
		e := &d.Elements[i]
		var stmt Statement
		switch e.Kind {
		case c4.KindDividerStart:
			stmt = DividerMarker{Title: e.Title}
		case c4.KindDividerEnd:
			stmt = DividerMarker{Title: markerTitle(d, e), End: true}
		case c4.KindGroupStart:
			stmt = GroupMarker{Title: e.Title}
		case c4.KindGroupEnd:
			stmt = GroupMarker{End: true}
		default:
			continue
		}
		events = append(events, seqEvent{at: e.Created, stmt: stmt})
	}

	seen := make(map[string]bool, len(d.Relationships))
	for i := range d.Relationships {
		r := &d.Relationships[i]
		if !resolvable(d, r) || !firstOccurrence(seen, r) {
			continue
		}
		events = append(events, seqEvent{at: r.Created, stmt: sequenceRel(r)})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return eventTime(events[i].at) < eventTime(events[j].at)
	})

	out := make([]Statement, len(events))
	for i, ev := range events {
		out[i] = ev.stmt
	}
	return out
}

// eventTime treats a zero timestamp as 0 so it sorts first.
func eventTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// markerTitle returns the title of the start marker an end marker closes.
func markerTitle(d *c4.Diagram, end *c4.Element) string {
	if end.MarkerRef != "" {
		if start := d.Element(end.MarkerRef); start != nil && start.Title != "" {
			return start.Title
		}
	}
	return end.Title
}

// sequenceRel fills the Rel positional slots ($techn, $descr, $sprite,
// $tags, $link, $index) so $rel lands where C4_Sequence expects it.
func sequenceRel(r *c4.Relationship) RelEdge {
	args := []string{quote(r.Description)}
	if r.SeqStyle == "" {
		if r.Technology != "" {
			args = append(args, quote(r.Technology))
		}
		return RelEdge{Macro: "Rel", From: r.SourceID, To: r.TargetID, Args: args}
	}
	args = append(args, quote(r.Technology), `""`, `""`, `""`, `""`, `""`, named("rel", r.SeqStyle))
	return RelEdge{Macro: "Rel", From: r.SourceID, To: r.TargetID, Args: args}
}
