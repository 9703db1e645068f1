package workflow

// Event names the kind of model mutation that was just applied.
type Event string

const (
	EventSystemAdded         Event = "system_added"
	EventPersonAdded         Event = "person_added"
	EventExternalSystemAdded Event = "external_system_added"
	EventRelationshipAdded   Event = "relationship_added"
	// EventRefined covers updates, deletes and every other element kind.
	EventRefined Event = "refined"
)

var eventTargets = map[Event]State{
	EventSystemAdded:         StateSystemIdentification,
	EventPersonAdded:         StateActorDiscovery,
	EventExternalSystemAdded: StateExternalSystemIdentification,
	EventRelationshipAdded:   StateRelationshipDefinition,
	EventRefined:             StateRefinement,
}

// TargetFor maps a mutation event to the state it should move the
// workflow into.
func TargetFor(ev Event) State {
	if s, ok := eventTargets[ev]; ok {
		return s
	}
	return StateRefinement
}

// Observe advances c in response to ev. It is Advance with the target
// picked by TargetFor.
func Observe(c Context, ev Event) (Context, error) {
	return Advance(c, TargetFor(ev))
}
