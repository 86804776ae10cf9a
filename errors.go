package rewire

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// errStreamReplaced reports an extension Wrap that swapped the stream
// subscription result for something that is not the stream channel.
var errStreamReplaced = errors.New("stream subscription result replaced by extension")

// InvalidTransitionError signals an internal consistency violation in the
// status machine. It is treated as a programming fault, not a recoverable
// condition.
type InvalidTransitionError struct {
	From   AsyncStatus
	To     AsyncStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s: %s", e.From, e.To, e.Reason)
}

// MutationError captures a failure raised by a user-supplied callback
// (set function, rebuild, future, stream). It is stored as the envelope's
// last error and surfaced through StatusError, never re-raised to the
// mutation's caller.
type MutationError struct {
	EnvelopeID string
	Cause      error
	Context    string
	StackTrace []byte
}

func (e *MutationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("mutation error in envelope %s during %s: %v", e.EnvelopeID, e.Context, e.Cause)
	}
	return fmt.Sprintf("mutation error in envelope %s: %v", e.EnvelopeID, e.Cause)
}

func (e *MutationError) Unwrap() error {
	return e.Cause
}

func newMutationError(envelopeID string, cause error, context string) *MutationError {
	return &MutationError{
		EnvelopeID: envelopeID,
		Cause:      cause,
		Context:    context,
	}
}

func newMutationPanic(envelopeID string, recovered any, context string) *MutationError {
	return &MutationError{
		EnvelopeID: envelopeID,
		Cause:      fmt.Errorf("panic: %v", recovered),
		Context:    context,
		StackTrace: debug.Stack(),
	}
}

// ObserverError captures a panic raised by an observer callback during
// notification delivery. It is reported to the registry's extensions and
// never aborts delivery to the remaining observers.
type ObserverError struct {
	EnvelopeID string
	Recovered  any
	StackTrace []byte
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer panic in envelope %s: %v", e.EnvelopeID, e.Recovered)
}

// SafeTypeAssertion performs safe type assertion with proper error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}
