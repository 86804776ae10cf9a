package rewire

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry holds one reactive envelope per injected model and owns the
// dependency graph wiring between them. It is the sole authority for
// replacing an envelope on re-injection.
type Registry struct {
	mu         sync.RWMutex
	envelopes  *envelopeStore
	graph      *DependencyGraph
	extensions []Extension
}

// RegistryOption is a modifier for registries
type RegistryOption func(*Registry)

// WithExtension returns an option that registers an extension to a registry
func WithExtension(ext Extension) RegistryOption {
	return func(r *Registry) {
		if err := r.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// NewRegistry creates a new registry with optional configuration
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		envelopes:  newEnvelopeStore(),
		graph:      NewDependencyGraph(),
		extensions: []Extension{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// AnyRef is a type-erased injection handle, usable as a dependency reference
type AnyRef interface {
	refID() string
}

// Ref is the typed opaque handle returned by Inject. All later lookups go
// through the ref; no runtime type reflection is involved.
type Ref[T any] struct {
	id string
}

func (r *Ref[T]) refID() string {
	return r.id
}

type injectConfig[T any] struct {
	rebuild   func(T) (T, error)
	watched   []AnyRef
	propagate bool
}

// InjectOption configures one injection
type InjectOption[T any] func(*injectConfig[T])

// WithDependsOn declares dependency-based reinjection: whenever any watched
// model notifies, rebuild is invoked with the dependent's previous value and
// the result replaces the dependent's value.
func WithDependsOn[T any](rebuild func(previous T) (T, error), watched ...AnyRef) InjectOption[T] {
	return func(cfg *injectConfig[T]) {
		cfg.rebuild = rebuild
		cfg.watched = watched
	}
}

// WithoutPropagation suppresses the dependent's own observer notifications
// after dependency-triggered rebuilds. The value is still replaced.
func WithoutPropagation[T any]() InjectOption[T] {
	return func(cfg *injectConfig[T]) {
		cfg.propagate = false
	}
}

// Inject creates the singleton envelope for a model and returns its ref.
// The envelope starts in StatusIdle holding the factory's value.
func Inject[T any](r *Registry, factory func() (T, error), opts ...InjectOption[T]) (*Ref[T], error) {
	cfg := injectConfig[T]{propagate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	initial, err := runFactory(factory)
	if err != nil {
		return nil, fmt.Errorf("injecting model: %w", err)
	}

	env := newEnvelopeWithID(uuid.NewString(), initial, r)
	ref := &Ref[T]{id: env.ID()}
	r.envelopes.store(ref.id, env)

	if err := wireSpec(r, ref, cfg); err != nil {
		r.envelopes.delete(ref.id)
		return nil, err
	}

	return ref, nil
}

// Resolve returns the current singleton envelope for a ref
func Resolve[T any](r *Registry, ref *Ref[T]) (*Envelope[T], error) {
	if ref == nil {
		return nil, fmt.Errorf("resolving model: nil ref")
	}

	env, ok := r.envelopes.load(ref.id)
	if !ok {
		return nil, fmt.Errorf("resolving model: no envelope registered for ref %s", ref.id)
	}

	return SafeTypeAssertion[*Envelope[T]](env)
}

// Replace re-injects a model under the same identity: the old dependency
// wiring is unregistered first so a subsequent dependency firing runs exactly
// one rebuild, and triggers other dependents hold on the replaced envelope
// are moved to the new one.
func Replace[T any](r *Registry, ref *Ref[T], factory func() (T, error), opts ...InjectOption[T]) error {
	old, ok := r.envelopes.load(ref.id)
	if !ok {
		return fmt.Errorf("replacing model: no envelope registered for ref %s", ref.id)
	}

	cfg := injectConfig[T]{propagate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Validate the new wiring before touching registry state, so a rejected
	// replacement leaves the old envelope and its triggers intact.
	if _, err := watchedEnvelopes(r, ref, cfg); err != nil {
		return err
	}

	initial, err := runFactory(factory)
	if err != nil {
		return fmt.Errorf("replacing model: %w", err)
	}

	r.graph.unregister(ref.id)

	env := newEnvelopeWithID(ref.id, initial, r)
	r.envelopes.store(ref.id, env)
	r.graph.rewireDependency(old.notifier(), env.notifier())

	return wireSpec(r, ref, cfg)
}

// Remove drops a model from the registry and releases the dependency
// subscriptions it holds
func (r *Registry) Remove(ref AnyRef) error {
	if _, ok := r.envelopes.load(ref.refID()); !ok {
		return fmt.Errorf("removing model: no envelope registered for ref %s", ref.refID())
	}

	r.graph.unregister(ref.refID())
	r.envelopes.delete(ref.refID())
	return nil
}

// Clear tears down the registry: every dependent's subscriptions are
// released through the graph, then all envelopes are dropped
func (r *Registry) Clear() {
	r.graph.unregisterAll()
	r.envelopes.clear()
}

// Dispose clears the registry and disposes all its extensions
func (r *Registry) Dispose() error {
	r.Clear()

	exts := r.extensionSnapshot()
	for _, ext := range exts {
		if err := ext.Dispose(r); err != nil {
			return fmt.Errorf("disposing extension %s: %w", ext.Name(), err)
		}
	}

	return nil
}

// UseExtension registers an extension to the registry
func (r *Registry) UseExtension(ext Extension) error {
	r.mu.Lock()
	r.extensions = append(r.extensions, ext)
	sort.Slice(r.extensions, func(i, j int) bool {
		return r.extensions[i].Order() < r.extensions[j].Order()
	})
	r.mu.Unlock()

	return ext.Init(r)
}

// Size returns the number of registered models
func (r *Registry) Size() int {
	return r.envelopes.size()
}

func (r *Registry) extensionSnapshot() []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]Extension, len(r.extensions))
	copy(exts, r.extensions)
	return exts
}

// watchedEnvelopes validates a dependency configuration and resolves the
// watched envelopes. A configuration without dependencies resolves to nil.
func watchedEnvelopes[T any](r *Registry, ref *Ref[T], cfg injectConfig[T]) ([]anyEnvelope, error) {
	if len(cfg.watched) == 0 {
		if cfg.rebuild != nil {
			return nil, fmt.Errorf("wiring model %s: rebuild declared without dependencies", ref.id)
		}
		return nil, nil
	}
	if cfg.rebuild == nil {
		return nil, fmt.Errorf("wiring model %s: dependencies declared without a rebuild function", ref.id)
	}

	watched := make([]anyEnvelope, 0, len(cfg.watched))
	for _, dep := range cfg.watched {
		if dep.refID() == ref.id {
			return nil, fmt.Errorf("wiring model %s: model cannot depend on itself", ref.id)
		}
		env, ok := r.envelopes.load(dep.refID())
		if !ok {
			return nil, fmt.Errorf("wiring model %s: dependency %s not registered", ref.id, dep.refID())
		}
		watched = append(watched, env)
	}
	return watched, nil
}

// wireSpec subscribes the rebuild trigger on every watched envelope
func wireSpec[T any](r *Registry, ref *Ref[T], cfg injectConfig[T]) error {
	watched, err := watchedEnvelopes(r, ref, cfg)
	if err != nil {
		return err
	}
	if len(watched) == 0 {
		return nil
	}

	trigger := func() {
		env, err := Resolve(r, ref)
		if err != nil {
			// dependent was removed; its subscriptions are gone or going
			return
		}
		env.apply(context.Background(), OpRebuild, cfg.rebuild, cfg.propagate)
	}

	r.graph.register(ref.id, watched, trigger)
	return nil
}

func runFactory[T any](factory func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in factory: %v", r)
		}
	}()

	return factory()
}
