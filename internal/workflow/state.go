// Package workflow is the guided-modeling state machine attached to every
// diagram. It tells the caller which kind of entity to supply next.
//
// The machine is a pure function over Context values: callers persist the
// returned Context with the diagram. Invalid transitions leave the Context
// untouched and return a *TransitionError so the caller can decide whether
// to surface it.
package workflow

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidTransition is matched by every *TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is a step of the guided workflow.
type State string

const (
	StateInitial                      State = "INITIAL"
	StateSystemIdentification         State = "SYSTEM_IDENTIFICATION"
	StateActorDiscovery               State = "ACTOR_DISCOVERY"
	StateExternalSystemIdentification State = "EXTERNAL_SYSTEM_IDENTIFICATION"
	StateRelationshipDefinition       State = "RELATIONSHIP_DEFINITION"
	StateRefinement                   State = "REFINEMENT"
	StateComplete                     State = "COMPLETE"
)

// States lists every state in forward order.
var States = []State{
	StateInitial,
	StateSystemIdentification,
	StateActorDiscovery,
	StateExternalSystemIdentification,
	StateRelationshipDefinition,
	StateRefinement,
	StateComplete,
}

// transitions is the adjacency table. Discovery states loop on themselves,
// every discovery/definition state can fall back to refinement, refinement
// can reopen any substantive state or finish, and a finished diagram can
// only be reopened for refinement.
var transitions = map[State][]State{
	StateInitial: {StateSystemIdentification},
	StateSystemIdentification: {
		StateSystemIdentification,
		StateActorDiscovery,
		StateRefinement,
	},
	StateActorDiscovery: {
		StateActorDiscovery,
		StateExternalSystemIdentification,
		StateRefinement,
	},
	StateExternalSystemIdentification: {
		StateExternalSystemIdentification,
		StateRelationshipDefinition,
		StateRefinement,
	},
	StateRelationshipDefinition: {StateRefinement},
	StateRefinement: {
		StateSystemIdentification,
		StateActorDiscovery,
		StateExternalSystemIdentification,
		StateRelationshipDefinition,
		StateRefinement,
		StateComplete,
	},
	StateComplete: {StateRefinement},
}

// ParseState validates a state name.
func ParseState(s string) (State, error) {
	st := State(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown workflow state %q", s)
	}
	return st, nil
}

// Transitions returns the states reachable from s (a copy).
func Transitions(s State) []State {
	return slices.Clone(transitions[s])
}

// CanTransition reports whether from → to is in the adjacency table.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// Context is the per-diagram workflow record.
type Context struct {
	CurrentState   State     `json:"currentState"`
	PendingActions []string  `json:"pendingActions"`
	CompletedSteps []State   `json:"completedSteps,omitempty"`
	LastModified   time.Time `json:"lastModified,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// TransitionError reports a rejected transition.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s (allowed: %v)", e.From, e.To, transitions[e.From])
}

// Is lets errors.Is(err, ErrInvalidTransition) match.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// New returns the context every diagram starts with.
func New() Context {
	return Context{
		CurrentState:   StateInitial,
		PendingActions: PendingActions(StateInitial),
		LastModified:   timeNow().UTC(),
	}
}

// Advance moves c to target. When the edge is not in the adjacency table
// the original context is returned as-is together with a *TransitionError.
func Advance(c Context, target State) (Context, error) {
	if !CanTransition(c.CurrentState, target) {
		return c, &TransitionError{From: c.CurrentState, To: target}
	}

	next := Context{
		CurrentState:   target,
		PendingActions: PendingActions(target),
		CompletedSteps: slices.Clone(c.CompletedSteps),
		LastModified:   timeNow().UTC(),
	}
	if c.CurrentState != target && !slices.Contains(next.CompletedSteps, c.CurrentState) {
		next.CompletedSteps = append(next.CompletedSteps, c.CurrentState)
	}
	return next, nil
}

// Recover annotates c with an error message so the caller can keep going.
// A non-empty fallback replaces the current state without an adjacency
// check.
func Recover(c Context, message string, fallback State) Context {
	out := c
	out.CompletedSteps = slices.Clone(c.CompletedSteps)
	if fallback != "" {
		out.CurrentState = fallback
	}
	out.Error = message
	out.PendingActions = append([]string{"Resolve the last error: " + message}, PendingActions(out.CurrentState)...)
	out.LastModified = timeNow().UTC()
	return out
}

// ClearError drops a previous Recover annotation.
func ClearError(c Context) Context {
	if c.Error == "" {
		return c
	}
	c.Error = ""
	c.PendingActions = PendingActions(c.CurrentState)
	return c
}

// PendingActions is the instruction text for a state.
func PendingActions(s State) []string {
	switch s {
	case StateInitial:
		return []string{
			"Identify the software system at the centre of this diagram",
			"Call c4_add_element with base_type=system",
		}
	case StateSystemIdentification:
		return []string{
			"Add further systems you own, or move on to the people who use them",
			"Call c4_add_element with base_type=person to add an actor",
		}
	case StateActorDiscovery:
		return []string{
			"Add every user role or actor that interacts with the system",
			"Then add external systems with c4_add_element variant=external",
		}
	case StateExternalSystemIdentification:
		return []string{
			"Add third-party or legacy systems the system depends on",
			"Then connect elements with c4_add_relationship",
		}
	case StateRelationshipDefinition:
		return []string{
			"Describe how elements interact with c4_add_relationship",
			"Review the rendered diagram and refine names, descriptions and technologies",
		}
	case StateRefinement:
		return []string{
			"Refine elements and relationships (update, delete, add boundaries)",
			"Call c4_workflow_advance with target_state=COMPLETE when the diagram is done",
		}
	case StateComplete:
		return []string{
			"The diagram is complete",
			"Call c4_workflow_advance with target_state=REFINEMENT to reopen it",
		}
	default:
		return nil
	}
}
