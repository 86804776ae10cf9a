package rewire

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// anyEnvelope is a type-erased view of an envelope, used by the registry and
// the dependency graph for wiring and status queries.
type anyEnvelope interface {
	ID() string
	Status() AsyncStatus
	Err() error
	notifier() *notificationBus
}

// Envelope wraps one model value in a lifecycle-aware reactive container.
// It tracks asynchronous status (idle, waiting, data, error) and notifies
// observers on state transitions. One envelope exists per injected model;
// standalone envelopes created with NewEnvelope are owned by their creator
// and not registered.
type Envelope[T any] struct {
	envID string

	mu      sync.Mutex
	value   T
	tracker statusTracker

	bus *notificationBus
	reg *Registry
}

// NewEnvelope creates a standalone envelope holding initial. The envelope
// starts in StatusIdle; no observers fire until the first mutation.
func NewEnvelope[T any](initial T) *Envelope[T] {
	return newEnvelope(initial, nil)
}

func newEnvelope[T any](initial T, reg *Registry) *Envelope[T] {
	return newEnvelopeWithID(uuid.NewString(), initial, reg)
}

// newEnvelopeWithID keeps the model identity stable across re-injection
func newEnvelopeWithID[T any](id string, initial T, reg *Registry) *Envelope[T] {
	e := &Envelope[T]{
		envID: id,
		value: initial,
		reg:   reg,
	}
	e.bus = newNotificationBus(e.reportObserverError)
	return e
}

// ID returns the envelope's identity
func (e *Envelope[T]) ID() string {
	return e.envID
}

// Status returns the envelope's current status
func (e *Envelope[T]) Status() AsyncStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.status
}

// Err returns the last captured mutation failure, non-nil iff the status is
// StatusError
func (e *Envelope[T]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.lastErr
}

// Value returns the envelope's current value
func (e *Envelope[T]) Value() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Subscribe attaches an observer, invoked after every propagated transition
func (e *Envelope[T]) Subscribe(fn Callback) *Subscription {
	return e.bus.subscribe(fn)
}

// Unsubscribe detaches a subscription. It is a no-op if already removed.
func (e *Envelope[T]) Unsubscribe(sub *Subscription) {
	e.bus.unsubscribe(sub)
}

func (e *Envelope[T]) notifier() *notificationBus {
	return e.bus
}

// SetValue applies a synchronous mutation. On success the value is replaced
// and the status becomes StatusData; if fn returns an error or panics, the
// failure is captured and the status becomes StatusError. Observers are
// notified exactly once either way, before SetValue returns. The failure is
// never re-raised to the caller: all failure visibility flows through the
// status and observer channel.
func (e *Envelope[T]) SetValue(fn func(T) (T, error)) {
	e.apply(context.Background(), OpSet, fn, true)
}

// apply runs a synchronous mutation through the extension chain, settles the
// status, and optionally notifies observers. Rebuild triggers reuse it with
// propagation gated by the dependency configuration.
func (e *Envelope[T]) apply(ctx context.Context, kind OperationKind, fn func(T) (T, error), propagate bool) {
	exts := e.extensions()
	op := &Operation{Kind: kind, EnvelopeID: e.envID, Registry: e.reg}

	next := func() (any, error) {
		e.mu.Lock()
		current := e.value
		e.mu.Unlock()
		return e.runCallback(fn, current, string(kind))
	}

	result, err := e.wrap(ctx, exts, next, op)
	e.settle(result, err, op, exts)

	if propagate {
		e.bus.notifyAll()
	}
}

// RunFuture starts an asynchronous mutation. The envelope transitions to
// StatusWaiting and observers are notified synchronously before RunFuture
// returns; fn then runs on its own goroutine and the envelope settles to
// StatusData or StatusError with a second notification. Exactly two
// notifications per call.
//
// Concurrent calls on the same envelope are not serialized: the settlement
// that lands last wins the final status and value.
func (e *Envelope[T]) RunFuture(ctx context.Context, fn func(context.Context, T) (T, error)) *Future[T] {
	e.mu.Lock()
	current := e.value
	e.tracker.mustTransition(StatusWaiting, nil)
	e.mu.Unlock()
	e.bus.notifyAll()

	exts := e.extensions()
	op := &Operation{Kind: OpFuture, EnvelopeID: e.envID, Registry: e.reg}
	f := newFuture[T]()

	go func() {
		next := func() (any, error) {
			return e.runAsyncCallback(ctx, fn, current)
		}

		result, err := e.wrap(ctx, exts, next, op)
		value, err := e.settle(result, err, op, exts)
		e.bus.notifyAll()

		f.settle(value, err)
	}()

	return f
}

// RunStream starts a stream-driven mutation. The envelope transitions to
// StatusWaiting with one notification at subscription, then to StatusData for
// each emitted element and to StatusError on a stream failure, notifying per
// transition. Channel close ends the stream with no further transition.
// Cancelling the returned handle detaches all status bookkeeping.
func (e *Envelope[T]) RunStream(ctx context.Context, fn func(context.Context, T) <-chan StreamEvent[T]) *StreamHandle {
	streamCtx, cancel := context.WithCancel(ctx)
	h := &StreamHandle{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	current := e.value
	e.tracker.mustTransition(StatusWaiting, nil)
	e.mu.Unlock()
	e.bus.notifyAll()

	exts := e.extensions()
	op := &Operation{Kind: OpStream, EnvelopeID: e.envID, Registry: e.reg}

	next := func() (any, error) {
		return e.openStream(streamCtx, fn, current)
	}

	result, err := e.wrap(ctx, exts, next, op)
	if err != nil {
		e.fail(err, op, exts)
		e.bus.notifyAll()
		cancel()
		close(h.done)
		return h
	}

	ch, ok := result.(<-chan StreamEvent[T])
	if !ok {
		e.fail(newMutationError(e.envID, errStreamReplaced, string(OpStream)), op, exts)
		e.bus.notifyAll()
		cancel()
		close(h.done)
		return h
	}

	go func() {
		defer close(h.done)
		for {
			select {
			case <-streamCtx.Done():
				return
			case ev, open := <-ch:
				if !open {
					return
				}
				if h.isCancelled() {
					return
				}
				if ev.Err != nil {
					e.fail(ensureMutationError(e.envID, ev.Err, string(OpStream)), op, exts)
					e.bus.notifyAll()
					return
				}
				e.mu.Lock()
				e.value = ev.Value
				e.tracker.mustTransition(StatusData, nil)
				e.mu.Unlock()
				e.bus.notifyAll()
			}
		}
	}()

	return h
}

// wrap chains registered extensions around next in reverse order, so the
// last registered extension wraps first
func (e *Envelope[T]) wrap(ctx context.Context, exts []Extension, next func() (any, error), op *Operation) (any, error) {
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(ctx, currentNext, op)
		}
	}
	return next()
}

// settle finalizes a mutation: on success the value is replaced and the
// status becomes StatusData, otherwise the failure is captured and the
// status becomes StatusError. Returns the settled value and error.
func (e *Envelope[T]) settle(result any, err error, op *Operation, exts []Extension) (T, error) {
	if err == nil {
		typed, terr := SafeTypeAssertion[T](result)
		if terr == nil {
			e.mu.Lock()
			e.value = typed
			e.tracker.mustTransition(StatusData, nil)
			e.mu.Unlock()
			return typed, nil
		}
		err = terr
	}

	merr := ensureMutationError(e.envID, err, string(op.Kind))
	e.fail(merr, op, exts)
	var zero T
	return zero, merr
}

func (e *Envelope[T]) fail(err error, op *Operation, exts []Extension) {
	merr := ensureMutationError(e.envID, err, string(op.Kind))
	e.mu.Lock()
	e.tracker.mustTransition(StatusError, merr)
	e.mu.Unlock()

	for _, ext := range exts {
		ext.OnMutationError(merr, op, e.reg)
	}
}

func (e *Envelope[T]) runCallback(fn func(T) (T, error), current T, opContext string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newMutationPanic(e.envID, r, opContext)
		}
	}()

	value, err := fn(current)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (e *Envelope[T]) runAsyncCallback(ctx context.Context, fn func(context.Context, T) (T, error), current T) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newMutationPanic(e.envID, r, string(OpFuture))
		}
	}()

	value, err := fn(ctx, current)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (e *Envelope[T]) openStream(ctx context.Context, fn func(context.Context, T) <-chan StreamEvent[T], current T) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newMutationPanic(e.envID, r, string(OpStream))
		}
	}()

	return fn(ctx, current), nil
}

func (e *Envelope[T]) extensions() []Extension {
	if e.reg == nil {
		return nil
	}
	return e.reg.extensionSnapshot()
}

func (e *Envelope[T]) reportObserverError(oerr *ObserverError) {
	oerr.EnvelopeID = e.envID

	for _, ext := range e.extensions() {
		if ext.OnObserverError(oerr) {
			return
		}
	}

	slog.Warn("observer panic during notification",
		"envelope", e.envID,
		"panic", oerr.Recovered,
	)
}

func ensureMutationError(envelopeID string, err error, opContext string) *MutationError {
	if merr, ok := err.(*MutationError); ok {
		return merr
	}
	return newMutationError(envelopeID, err, opContext)
}
