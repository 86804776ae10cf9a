package rewire

// AsyncStatus represents the lifecycle state of an envelope's value
type AsyncStatus int

const (
	// StatusIdle is the initial state before any mutation is triggered
	StatusIdle AsyncStatus = iota
	// StatusWaiting is entered for asynchronous mutations between start and settlement
	StatusWaiting
	// StatusData indicates the last mutation settled with a value
	StatusData
	// StatusError indicates the last mutation settled with a failure
	StatusError
)

func (s AsyncStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusWaiting:
		return "waiting"
	case StatusData:
		return "data"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// statusTracker pairs an envelope's status with its last captured error.
// It performs no notification; the envelope decides when observers fire.
type statusTracker struct {
	status  AsyncStatus
	lastErr error
}

// transition moves the tracker to next. StatusError requires a non-nil cause,
// every other status forbids one.
func (t *statusTracker) transition(next AsyncStatus, cause error) error {
	if next == StatusError && cause == nil {
		return &InvalidTransitionError{From: t.status, To: next, Reason: "error status requires a cause"}
	}
	if next != StatusError && cause != nil {
		return &InvalidTransitionError{From: t.status, To: next, Reason: "non-error status forbids a cause"}
	}

	t.status = next
	t.lastErr = cause
	return nil
}

// mustTransition is used on internal paths where the arguments are known to
// satisfy the transition contract; a failure there is a programming fault.
func (t *statusTracker) mustTransition(next AsyncStatus, cause error) {
	if err := t.transition(next, cause); err != nil {
		panic(err)
	}
}
