package store

// State is a position in the load pipeline. It only moves forward.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateValidated
	// StateRecovered means recovery adopted a new mapping.
	StateRecovered
	// StateUnchanged means recovery kept the loaded mapping.
	StateUnchanged
	StatePersisted
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateLoaded:        "loaded",
	StateValidated:     "validated",
	StateRecovered:     "recovered",
	StateUnchanged:     "unchanged",
	StatePersisted:     "persisted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
