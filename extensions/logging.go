package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	rewire "github.com/rewire-fn/rewire-go"
)

// LoggingExtension logs mutations, captured mutation failures, and observer
// panics.
//
// Usage:
//
//	// Human-readable formatted output
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelInfo)
//	ext := extensions.NewLoggingExtension(handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	ext := extensions.NewLoggingExtension(handler)
//
//	// Silent (for testing)
//	ext := extensions.NewLoggingExtension(extensions.NewSilentHandler())
//
// Mutations log at INFO level with their duration; failures and observer
// panics log at ERROR level.
type LoggingExtension struct {
	rewire.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension.
// logHandler: slog.Handler for logging (use HumanHandler for formatted
// output, or any other slog.Handler)
func NewLoggingExtension(logHandler slog.Handler) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: rewire.NewBaseExtension("logging"),
		logger:        slog.New(logHandler),
	}
}

// Wrap logs each mutation with its duration
func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *rewire.Operation) (any, error) {
	start := time.Now()
	result, err := next()

	duration := time.Since(start)
	if err != nil {
		e.logger.Error("Mutation Failed",
			"envelope", op.EnvelopeID,
			"operation", string(op.Kind),
			"duration", duration,
			"error", err.Error(),
		)
	} else {
		e.logger.Info("Mutation Completed",
			"envelope", op.EnvelopeID,
			"operation", string(op.Kind),
			"duration", duration,
		)
	}

	return result, err
}

// OnMutationError logs failures captured into an envelope's error status
func (e *LoggingExtension) OnMutationError(err *rewire.MutationError, op *rewire.Operation, r *rewire.Registry) {
	attrs := []any{
		"envelope", err.EnvelopeID,
		"operation", string(op.Kind),
		"error", err.Error(),
	}
	if len(err.StackTrace) > 0 {
		attrs = append(attrs, "stack_trace", string(err.StackTrace))
	}

	e.logger.Error("Mutation Error", attrs...)
}

// OnObserverError logs observer panics during notification delivery
func (e *LoggingExtension) OnObserverError(err *rewire.ObserverError) bool {
	e.logger.Error("Observer Panic",
		"envelope", err.EnvelopeID,
		"panic", fmt.Sprintf("%v", err.Recovered),
		"stack_trace", string(err.StackTrace),
	)

	return true
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false // Never enabled, discards everything
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil // Do nothing
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h // Return self, no state to modify
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h // Return self, no state to modify
}

// HumanHandler is a slog.Handler that formats logs for human readability
// with one line per attribute
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
