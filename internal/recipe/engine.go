package recipe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
)

// Engine executes resolved plans. Tool output streams through unchanged;
// failures stop the plan at the failing target.
type Engine struct {
	exec     toolexec.Executor
	recorder metrics.Recorder
	stdout   io.Writer
	stderr   io.Writer
}

// NewEngine creates an engine backed by the given executor.
func NewEngine(exec toolexec.Executor) *Engine {
	return &Engine{
		exec:     exec,
		recorder: metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder.
func (e *Engine) WithRecorder(r metrics.Recorder) *Engine {
	if r != nil {
		e.recorder = r
	}
	return e
}

// WithOutput redirects tool output, mainly for tests and per-run log files.
func (e *Engine) WithOutput(stdout, stderr io.Writer) *Engine {
	e.stdout = stdout
	e.stderr = stderr
	return e
}

// RunPlan executes every target of the plan in order.
func (e *Engine) RunPlan(ctx context.Context, cfg *config.Config, plan *Plan, vars map[string]string) error {
	for _, target := range plan.Targets {
		if err := e.RunTarget(ctx, cfg, target, vars); err != nil {
			return err
		}
	}
	return nil
}

// RunTarget executes a single target without resolving its dependencies.
func (e *Engine) RunTarget(ctx context.Context, cfg *config.Config, target *Target, vars map[string]string) error {
	start := time.Now()
	slog.Info("Running target", logfields.Target(target.Name))

	err := e.runTarget(ctx, cfg, target, vars)

	duration := time.Since(start)
	e.recorder.ObserveTargetDuration(target.Name, duration)
	e.recorder.IncTargetResult(target.Name, metrics.ResultFor(err))

	if err != nil {
		slog.Error("Target failed",
			logfields.Target(target.Name),
			logfields.DurationMS(float64(duration.Milliseconds())),
			logfields.Error(err))
		return err
	}

	slog.Info("Target completed",
		logfields.Target(target.Name),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return nil
}

func (e *Engine) runTarget(ctx context.Context, cfg *config.Config, target *Target, vars map[string]string) error {
	if IsNativeClean(target) {
		return e.cleanArtifacts(cfg, vars)
	}

	invocations, err := ExpandTarget(target, vars)
	if err != nil {
		return err
	}

	for _, inv := range invocations {
		slog.Debug("Running step",
			logfields.Target(target.Name),
			logfields.Tool(inv.Argv[0]))

		_, err := e.exec.Run(ctx, toolexec.Command{
			Argv: inv.Argv,
			Dir:  inv.Dir,
			Env:  inv.Env,
		}, toolexec.Options{Stdout: e.stdout, Stderr: e.stderr})
		if err != nil {
			if lre, ok := err.(*errors.LabRunnerError); ok {
				return lre.WithContext("target", target.Name)
			}
			return err
		}
	}

	return nil
}

// cleanArtifacts removes the configured artifact paths. Paths may contain
// placeholders and globs; absolute paths are skipped.
func (e *Engine) cleanArtifacts(cfg *config.Config, vars map[string]string) error {
	for _, raw := range cfg.Project.CleanPaths {
		pattern := config.Interpolate(raw, vars)
		if filepath.IsAbs(pattern) {
			slog.Warn("Skipping absolute clean path", logfields.Path(pattern))
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			matches = nil
		}
		if matches == nil {
			// Not a glob, or no matches; treat it as a literal path.
			matches = []string{pattern}
		}

		for _, match := range matches {
			if _, statErr := os.Stat(match); statErr != nil {
				continue
			}
			if err := os.RemoveAll(match); err != nil {
				return errors.WorkspaceError("clean", err).WithContext("path", match)
			}
			slog.Info("Removed", logfields.Path(match))
		}
	}
	return nil
}
