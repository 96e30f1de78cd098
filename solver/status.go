package solver

import "fmt"

// Status is solver state.
//
//	Init -> Iterating -> {Converged, MaxIterations, Singular}
type Status int

const (
	// Init is the state before the first iteration.
	Init Status = iota
	// Iterating is the state while iterations are running.
	Iterating
	// Converged means either the state update or the relative cost
	// reduction fell below the configured tolerance.
	Converged
	// MaxIterations means the iteration cap was reached without convergence.
	MaxIterations
	// Singular means the geometry is degenerate: the normal matrix is
	// numerically rank deficient or the emitter hypothesis coincides with a receiver.
	Singular
)

var statusNames = map[Status]string{
	Init:          "INIT",
	Iterating:     "ITERATING",
	Converged:     "CONVERGED",
	MaxIterations: "MAX_ITERATIONS",
	Singular:      "SINGULAR",
}

// String implements the Stringer interface.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Terminal returns true if s is a terminal status.
func (s Status) Terminal() bool {
	return s == Converged || s == MaxIterations || s == Singular
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status: %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for st, name := range statusNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status: %q", text)
}
