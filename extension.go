package rewire

import "context"

// Extension provides hooks into the mutation lifecycle
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a registry
	Init(r *Registry) error

	// Wrap intercepts mutations (set, future, stream, rebuild)
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnMutationError handles failures captured into an envelope's error status
	OnMutationError(err *MutationError, op *Operation, r *Registry)

	// OnObserverError handles observer panics during notification delivery
	// Returns true if the error was handled, false to use default behavior
	OnObserverError(err *ObserverError) bool

	// Dispose is called when the registry is disposed
	Dispose(r *Registry) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(r *Registry) error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnMutationError(err *MutationError, op *Operation, r *Registry) {
}

func (e *BaseExtension) OnObserverError(err *ObserverError) bool {
	return false
}

func (e *BaseExtension) Dispose(r *Registry) error {
	return nil
}

// Operation describes what mutation is happening
type Operation struct {
	Kind       OperationKind
	EnvelopeID string
	Registry   *Registry
}

// OperationKind represents the type of mutation
type OperationKind string

const (
	// OpSet indicates a synchronous set mutation
	OpSet OperationKind = "set"
	// OpFuture indicates a future-driven mutation
	OpFuture OperationKind = "future"
	// OpStream indicates a stream-driven mutation
	OpStream OperationKind = "stream"
	// OpRebuild indicates a dependency-triggered rebuild
	OpRebuild OperationKind = "rebuild"
)
