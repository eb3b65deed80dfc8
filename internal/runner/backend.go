// Package runner executes the runs of a sweep through pluggable backends.
// The processes backend launches runs locally under a device-slot worker
// pool; the slurm backend generates batch scripts for cluster submission.
package runner

import (
	"context"
	"io"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
	"git.home.luguber.info/inful/labrunner/internal/sweep"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
	"git.home.luguber.info/inful/labrunner/internal/workspace"
)

// Backend launches the runs of a sweep and reports per-run outcomes.
type Backend interface {
	// Name returns the name the backend registers under.
	Name() string
	// Execute processes the given runs and blocks until done.
	Execute(ctx context.Context, s *sweep.Sweep, runs []*sweep.Run, opts Options) (*Report, error)
}

// Options carries the collaborators a backend may use. Zero values are safe:
// a nil emitter skips history, a nil recorder skips metrics.
type Options struct {
	Exec      toolexec.Executor
	Workspace *workspace.Manager
	Emitter   *history.Emitter
	Recorder  metrics.Recorder
	Stdout    io.Writer
	PrintOnly bool // slurm: print scripts instead of writing them
}

func (o *Options) recorder() metrics.Recorder {
	if o.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return o.Recorder
}

// RunResult is the outcome of one run.
type RunResult struct {
	Run      *sweep.Run
	Status   string // history status constants
	ExitCode int
	Duration time.Duration
	Err      error
}

// Report aggregates a backend execution.
type Report struct {
	Sweep    string
	Results  []RunResult
	Scripts  []string // paths written by script-generating backends
	Duration time.Duration
}

// Counts returns completed, failed, and canceled run totals.
func (r *Report) Counts() (completed, failed, canceled int) {
	for _, res := range r.Results {
		switch res.Status {
		case history.StatusCompleted:
			completed++
		case history.StatusFailed:
			failed++
		case history.StatusCanceled:
			canceled++
		}
	}
	return completed, failed, canceled
}

// Err returns nil when every run completed, otherwise a sweep error
// summarizing the failures. Sibling runs keep going on individual failures;
// this is where the aggregate outcome surfaces.
func (r *Report) Err() error {
	completed, failed, canceled := r.Counts()
	if failed == 0 && canceled == 0 {
		return nil
	}
	return errors.New(errors.CategorySweep, errors.SeverityError, "sweep finished with failures").
		WithContext("sweep", r.Sweep).
		WithContext("completed", completed).
		WithContext("failed", failed).
		WithContext("canceled", canceled)
}
