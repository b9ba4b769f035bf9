package upload

// State is the position of a File in the save workflow.
type State int

const (
	StateReceived State = iota
	StateTransportFailed
	StateDirectoryInvalid
	StateConstraintRejected
	StatePersistFailed
	StatePersisted
)

var stateNames = map[State]string{
	StateReceived:           "received",
	StateTransportFailed:    "transport_failed",
	StateDirectoryInvalid:   "directory_invalid",
	StateConstraintRejected: "constraint_rejected",
	StatePersistFailed:      "persist_failed",
	StatePersisted:          "persisted",
}

// validTransitions lists the states reachable from each state. Every state but
// StateReceived is terminal.
var validTransitions = map[State]map[State]bool{
	StateReceived: {
		StateTransportFailed:    true,
		StateDirectoryInvalid:   true,
		StateConstraintRejected: true,
		StatePersistFailed:      true,
		StatePersisted:          true,
	},
	StateTransportFailed:    {},
	StateDirectoryInvalid:   {},
	StateConstraintRejected: {},
	StatePersistFailed:      {},
	StatePersisted:          {},
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) CanTransitionTo(to State) bool {
	return validTransitions[s][to]
}

func (s State) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Failed reports whether s is a terminal failure.
func (s State) Failed() bool {
	return s.Terminal() && s != StatePersisted
}
