// Package rewire provides a reactive state container with dependency-driven
// reinjection for Go.
//
// # Overview
//
// Rewire organizes application state around three core concepts:
//
//  1. Envelopes: lifecycle-aware wrappers holding one model's value, status,
//     and observers
//  2. Registry: holds one singleton envelope per injected model, looked up
//     through typed refs
//  3. Dependency graph: rebuilds a model from its previous value whenever one
//     of its dependencies notifies
//
// # Basic Usage
//
// Inject models and mutate them through their envelopes:
//
//	registry := rewire.NewRegistry()
//
//	counter, _ := rewire.Inject(registry, func() (int, error) {
//	    return 0, nil
//	})
//
//	env, _ := rewire.Resolve(registry, counter)
//	env.SetValue(func(n int) (int, error) {
//	    return n + 1, nil
//	})
//
// Observers attach to an envelope and read state back after each transition:
//
//	sub := env.Subscribe(func() {
//	    fmt.Println(env.Status(), env.Value())
//	})
//	defer env.Unsubscribe(sub)
//
// # Status Machine
//
// Every envelope tracks one AsyncStatus: StatusIdle before the first
// mutation, StatusWaiting while an asynchronous mutation is in flight, then
// StatusData or StatusError when it settles. A failing mutation never
// reaches the caller; the failure is captured as the envelope's last error
// and surfaced through StatusError, so synchronous and asynchronous failures
// share one observation path:
//
//	env.SetValue(func(n int) (int, error) {
//	    return 0, errors.New("rejected")
//	})
//	env.Status() // StatusError
//	env.Err()    // *rewire.MutationError wrapping "rejected"
//
// # Asynchronous Mutations
//
// RunFuture notifies observers twice: once entering StatusWaiting, once on
// settlement. RunStream notifies at subscription and then per element:
//
//	future := env.RunFuture(ctx, func(ctx context.Context, n int) (int, error) {
//	    return fetchCount(ctx)
//	})
//	val, err := future.Await(ctx)
//
//	handle := env.RunStream(ctx, func(ctx context.Context, n int) <-chan rewire.StreamEvent[int] {
//	    return watchCount(ctx)
//	})
//	defer handle.Cancel()
//
// Overlapping futures on one envelope are not serialized; the settlement
// that lands last wins the final status and value.
//
// # Dependency-Driven Reinjection
//
// A model can depend on other injected models. Whenever a dependency
// notifies, the dependent is rebuilt from its previous value:
//
//	auth, _ := rewire.Inject(registry, func() (Auth, error) {
//	    return Auth{}, nil
//	})
//
//	products, _ := rewire.Inject(registry,
//	    func() ([]Product, error) { return nil, nil },
//	    rewire.WithDependsOn(func(previous []Product) ([]Product, error) {
//	        return loadProducts(), nil
//	    }, auth),
//	)
//
// Each dependency firing runs the rebuild once; firings are never coalesced.
// WithoutPropagation replaces the dependent's value without notifying its
// own observers:
//
//	silent, _ := rewire.Inject(registry, factory,
//	    rewire.WithDependsOn(rebuild, auth),
//	    rewire.WithoutPropagation[Model](),
//	)
//
// # Controllers
//
// Controllers give integration layers a stable facade over one model:
//
//	ctrl := rewire.Accessor(registry, products)
//
//	val, err := ctrl.Get()
//	status := ctrl.Status()
//	lastErr := ctrl.Err()
//
//	sub, _ := ctrl.Subscribe(onChange)
//	defer ctrl.Unsubscribe(sub)
//
// # Re-injection and Teardown
//
// Replace swaps a model's envelope under the same ref, releasing the old
// dependency spec first and moving other dependents' triggers to the new
// envelope:
//
//	_ = rewire.Replace(registry, products, freshFactory,
//	    rewire.WithDependsOn(rebuild, auth),
//	)
//
// Clear tears down every dependency subscription and drops all envelopes;
// Dispose additionally disposes registered extensions.
//
// # Extensions
//
// Extensions provide cross-cutting concerns through lifecycle hooks:
//
//	type TimingExtension struct {
//	    rewire.BaseExtension
//	}
//
//	func (e *TimingExtension) Wrap(ctx context.Context, next func() (any, error), op *rewire.Operation) (any, error) {
//	    start := time.Now()
//	    result, err := next()
//	    log.Printf("%s took %v", op.Kind, time.Since(start))
//	    return result, err
//	}
//
//	registry := rewire.NewRegistry(
//	    rewire.WithExtension(&TimingExtension{
//	        BaseExtension: rewire.NewBaseExtension("timing"),
//	    }),
//	)
//
// Observer panics during notification are isolated: delivery continues to
// the remaining observers and the panic is reported through
// Extension.OnObserverError, falling back to slog.
//
// # Thread Safety
//
// All operations are thread-safe:
//   - Registries can be accessed concurrently
//   - Envelopes and controllers can be used from multiple goroutines
//   - Notification delivery snapshots the observer list, so callbacks may
//     subscribe or unsubscribe without affecting the current pass
package rewire
