package history

import (
	"context"
	"time"
)

// Sink receives every event after it has been persisted. Forward must not
// block for long; the daemon uses it to push events to external systems.
type Sink interface {
	Forward(event Event)
}

// Emitter persists lifecycle events and keeps the projection current. A nil
// Emitter discards everything, so callers without history configured pass nil.
type Emitter struct {
	store      Store
	projection *Projection
	sink       Sink
}

// NewEmitter creates an emitter over the given store and projection. The
// projection may be nil.
func NewEmitter(store Store, projection *Projection) *Emitter {
	return &Emitter{store: store, projection: projection}
}

// WithSink forwards every persisted event to sink as well.
func (e *Emitter) WithSink(sink Sink) *Emitter {
	e.sink = sink
	return e
}

// Emit persists an event and applies it to the projection.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if e == nil || e.store == nil {
		return nil
	}

	if err := Record(ctx, e.store, event); err != nil {
		return err
	}
	if e.projection != nil {
		e.projection.Apply(event)
	}
	if e.sink != nil {
		e.sink.Forward(event)
	}
	return nil
}

// EmitQueued records that work entered the queue.
func (e *Emitter) EmitQueued(ctx context.Context, runID, name, kind, sweepName, version string) error {
	if e == nil {
		return nil
	}
	event, err := NewRunQueued(runID, name, kind, sweepName, version)
	if err != nil {
		return err
	}
	return e.Emit(ctx, event)
}

// EmitStarted records the start of execution.
func (e *Emitter) EmitStarted(ctx context.Context, runID string, worker, device int) error {
	if e == nil {
		return nil
	}
	event, err := NewRunStarted(runID, worker, device)
	if err != nil {
		return err
	}
	return e.Emit(ctx, event)
}

// EmitCompleted records successful completion.
func (e *Emitter) EmitCompleted(ctx context.Context, runID string, duration time.Duration) error {
	if e == nil {
		return nil
	}
	event, err := NewRunCompleted(runID, duration)
	if err != nil {
		return err
	}
	return e.Emit(ctx, event)
}

// EmitFailed records a failure.
func (e *Emitter) EmitFailed(ctx context.Context, runID string, exitCode int, errMsg string, duration time.Duration) error {
	if e == nil {
		return nil
	}
	event, err := NewRunFailed(runID, exitCode, errMsg, duration)
	if err != nil {
		return err
	}
	return e.Emit(ctx, event)
}

// EmitCanceled records cancellation.
func (e *Emitter) EmitCanceled(ctx context.Context, runID string, duration time.Duration) error {
	if e == nil {
		return nil
	}
	event, err := NewRunCanceled(runID, duration)
	if err != nil {
		return err
	}
	return e.Emit(ctx, event)
}
