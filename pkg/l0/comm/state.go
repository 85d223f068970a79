package comm

// State is the position of a Session in its update cycle, or the
// outcome of the last completed cycle.
type State int

// States of an update cycle.
const (
	StateIdle State = iota
	StateSending
	StateAwaitingResponse
	StateValidated
	StateTimedOut
	StateMalformed
	StateChecksumMismatch
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateSending:          "sending",
	StateAwaitingResponse: "awaiting-response",
	StateValidated:        "validated",
	StateTimedOut:         "timed-out",
	StateMalformed:        "malformed",
	StateChecksumMismatch: "checksum-mismatch",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// IsOutcome tells whether s is a final state of a cycle.
func (s State) IsOutcome() bool {
	return s >= StateValidated
}

// Stats counts cycle outcomes of a Session.
type Stats struct {
	Sent       uint64
	SendErrors uint64
	Validated  uint64
	Timeouts   uint64
	Malformed  uint64
	Mismatches uint64

	LastError  string
	LastSource string
}

func (s *Stats) record(state State) {
	switch state {
	case StateValidated:
		s.Validated++
	case StateTimedOut:
		s.Timeouts++
	case StateMalformed:
		s.Malformed++
	case StateChecksumMismatch:
		s.Mismatches++
	}
}
