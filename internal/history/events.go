package history

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/errors"
)

// Job kinds recorded in the history.
const (
	KindTarget = "target" // recipe target execution
	KindSweep  = "sweep"  // whole-sweep job
	KindRun    = "run"    // one run inside a sweep
)

// Event type names as stored and published.
const (
	TypeQueued    = "run.queued"
	TypeStarted   = "run.started"
	TypeCompleted = "run.completed"
	TypeFailed    = "run.failed"
	TypeCanceled  = "run.canceled"
)

// RunQueued is emitted when work enters the queue (or starts immediately for
// one-shot CLI invocations).
type RunQueued struct {
	BaseEvent
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Sweep   string `json:"sweep,omitempty"`
	Version string `json:"version,omitempty"`
}

// NewRunQueued creates a RunQueued event.
func NewRunQueued(runID, name, kind, sweepName, version string) (*RunQueued, error) {
	payload, err := json.Marshal(map[string]any{
		"name":    name,
		"kind":    kind,
		"sweep":   sweepName,
		"version": version,
	})
	if err != nil {
		return nil, errors.HistoryError("marshal RunQueued payload", err).
			WithContext("run_id", runID)
	}

	return &RunQueued{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeQueued,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Name:    name,
		Kind:    kind,
		Sweep:   sweepName,
		Version: version,
	}, nil
}

// RunStarted is emitted when execution begins.
type RunStarted struct {
	BaseEvent
	Worker int `json:"worker"`
	Device int `json:"device"`
}

// NewRunStarted creates a RunStarted event. Device -1 means no device
// assignment.
func NewRunStarted(runID string, worker, device int) (*RunStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"worker": worker,
		"device": device,
	})
	if err != nil {
		return nil, errors.HistoryError("marshal RunStarted payload", err).
			WithContext("run_id", runID)
	}

	return &RunStarted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeStarted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Worker: worker,
		Device: device,
	}, nil
}

// RunCompleted is emitted on success.
type RunCompleted struct {
	BaseEvent
	Duration time.Duration `json:"duration_ms"`
}

// NewRunCompleted creates a RunCompleted event.
func NewRunCompleted(runID string, duration time.Duration) (*RunCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, errors.HistoryError("marshal RunCompleted payload", err).
			WithContext("run_id", runID)
	}

	return &RunCompleted{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Duration: duration,
	}, nil
}

// RunFailed is emitted when execution fails.
type RunFailed struct {
	BaseEvent
	ExitCode int           `json:"exit_code"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration_ms"`
}

// NewRunFailed creates a RunFailed event.
func NewRunFailed(runID string, exitCode int, errMsg string, duration time.Duration) (*RunFailed, error) {
	payload, err := json.Marshal(map[string]any{
		"exit_code":   exitCode,
		"error":       errMsg,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, errors.HistoryError("marshal RunFailed payload", err).
			WithContext("run_id", runID)
	}

	return &RunFailed{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeFailed,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		ExitCode: exitCode,
		Error:    errMsg,
		Duration: duration,
	}, nil
}

// RunCanceled is emitted when execution is canceled before finishing.
type RunCanceled struct {
	BaseEvent
	Duration time.Duration `json:"duration_ms"`
}

// NewRunCanceled creates a RunCanceled event.
func NewRunCanceled(runID string, duration time.Duration) (*RunCanceled, error) {
	payload, err := json.Marshal(map[string]any{
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, errors.HistoryError("marshal RunCanceled payload", err).
			WithContext("run_id", runID)
	}

	return &RunCanceled{
		BaseEvent: BaseEvent{
			EventRunID:     runID,
			EventType:      TypeCanceled,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Duration: duration,
	}, nil
}
