package rewire

import "context"

// Controller is the consumer facade over one injected model, meant for
// integration layers that attach observers on mount and detach on unmount.
// It resolves the ref on every call, so it stays valid across re-injection.
type Controller[T any] struct {
	registry *Registry
	ref      *Ref[T]
}

// Accessor creates a controller for an injected model
func Accessor[T any](r *Registry, ref *Ref[T]) *Controller[T] {
	return &Controller[T]{
		registry: r,
		ref:      ref,
	}
}

// Get retrieves the model's current value
func (c *Controller[T]) Get() (T, error) {
	env, err := Resolve(c.registry, c.ref)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Value(), nil
}

// Status returns the model's current status. An unregistered ref reports
// StatusIdle.
func (c *Controller[T]) Status() AsyncStatus {
	env, err := Resolve(c.registry, c.ref)
	if err != nil {
		return StatusIdle
	}
	return env.Status()
}

// Err returns the model's last captured failure, non-nil iff the status is
// StatusError
func (c *Controller[T]) Err() error {
	env, err := Resolve(c.registry, c.ref)
	if err != nil {
		return nil
	}
	return env.Err()
}

// Subscribe attaches an observer to the model's current envelope
func (c *Controller[T]) Subscribe(fn Callback) (*Subscription, error) {
	env, err := Resolve(c.registry, c.ref)
	if err != nil {
		return nil, err
	}
	return env.Subscribe(fn), nil
}

// Unsubscribe detaches a subscription. No-op if already removed.
func (c *Controller[T]) Unsubscribe(sub *Subscription) {
	sub.Cancel()
}

// Set applies a synchronous mutation to the model
func (c *Controller[T]) Set(fn func(T) (T, error)) error {
	env, err := Resolve(c.registry, c.ref)
	if err != nil {
		return err
	}
	env.SetValue(fn)
	return nil
}

// RunFuture starts a future-driven mutation on the model
func (c *Controller[T]) RunFuture(ctx context.Context, fn func(context.Context, T) (T, error)) (*Future[T], error) {
	env, err := Resolve(c.registry, c.ref)
	if err != nil {
		return nil, err
	}
	return env.RunFuture(ctx, fn), nil
}

// RunStream starts a stream-driven mutation on the model
func (c *Controller[T]) RunStream(ctx context.Context, fn func(context.Context, T) <-chan StreamEvent[T]) (*StreamHandle, error) {
	env, err := Resolve(c.registry, c.ref)
	if err != nil {
		return nil, err
	}
	return env.RunStream(ctx, fn), nil
}
