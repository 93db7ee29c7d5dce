package component

// State is the OMX_STATETYPE subset in scope here: the seven-state
// automaton minus Pause's synonyms.
type State int32

const (
	StateInvalid State = iota
	StateLoaded
	StateWaitForResources
	StateIdle
	StateExecuting
	StatePause
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "Invalid"
	case StateLoaded:
		return "Loaded"
	case StateWaitForResources:
		return "WaitForResources"
	case StateIdle:
		return "Idle"
	case StateExecuting:
		return "Executing"
	case StatePause:
		return "Pause"
	default:
		return "Unknown"
	}
}

// transitions enumerates which states a component may request moving
// to from each current state. Invalid has no outgoing edges: it is
// terminal.
var transitions = map[State]map[State]bool{
	StateLoaded:           {StateIdle: true, StateWaitForResources: true, StateInvalid: true},
	StateIdle:             {StateLoaded: true, StateExecuting: true, StatePause: true, StateInvalid: true},
	StateExecuting:        {StateIdle: true, StatePause: true, StateInvalid: true},
	StatePause:            {StateIdle: true, StateExecuting: true, StateInvalid: true},
	StateWaitForResources: {StateLoaded: true, StateIdle: true, StateInvalid: true},
}

// Allowed reports whether the from→to transition is one the state
// diagram permits. Requesting the current state is handled separately
// by the caller (CodeSameState), not folded in here.
func Allowed(from, to State) bool {
	row, ok := transitions[from]
	if !ok {
		return false
	}
	return row[to]
}
