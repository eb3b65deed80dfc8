package metrics

import (
	"context"
	"errors"
	"time"
)

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for target and sweep execution.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveTargetDuration(target string, d time.Duration)
	IncTargetResult(target string, result ResultLabel)
	ObserveRunDuration(sweep string, d time.Duration)
	IncRunResult(sweep string, result ResultLabel)
	SetQueueDepth(n int)
	SetActiveJobs(n int)
	IncScheduleFired(schedule string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTargetDuration(string, time.Duration) {}
func (NoopRecorder) IncTargetResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)    {}
func (NoopRecorder) IncRunResult(string, ResultLabel)            {}
func (NoopRecorder) SetQueueDepth(int)                           {}
func (NoopRecorder) SetActiveJobs(int)                           {}
func (NoopRecorder) IncScheduleFired(string)                     {}

// ResultFor maps an error to its counter label. Cancellation anywhere in the
// chain counts as canceled, not failed.
func ResultFor(err error) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultFailed
	}
}
