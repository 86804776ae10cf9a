package rewire

import (
	"context"
	"sync"
)

// Future is the settlement handle returned by RunFuture. It completes when
// the asynchronous mutation settles; the envelope's status and observers are
// the primary failure-observation channel, the future only reports the same
// outcome to the code that started the mutation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Done returns a channel closed when the mutation settles
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until settlement or context cancellation
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) settle(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// StreamEvent is one element of a stream-driven mutation. A non-nil Err
// terminates the stream with an error transition.
type StreamEvent[T any] struct {
	Value T
	Err   error
}

// StreamHandle cancels a stream-driven mutation. Cancelling stops further
// transitions and notifications but does not roll back the last delivered
// state.
type StreamHandle struct {
	mu        sync.Mutex
	cancelled bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// Cancel detaches the stream's status bookkeeping. Idempotent.
func (h *StreamHandle) Cancel() {
	h.mu.Lock()
	already := h.cancelled
	h.cancelled = true
	h.mu.Unlock()

	if !already {
		h.cancel()
	}
}

// Done returns a channel closed when the stream consumer has stopped
func (h *StreamHandle) Done() <-chan struct{} {
	return h.done
}

func (h *StreamHandle) isCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}
