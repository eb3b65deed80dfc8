package runner

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
	"git.home.luguber.info/inful/labrunner/internal/sweep"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
)

func init() {
	mustRegister(&ProcessesBackend{})
}

// ProcessesBackend runs sweeps locally. Concurrency is bounded by device
// slots: at most Parallelism() runs at once, each pinned to a device via
// CUDA_VISIBLE_DEVICES. A failing run never cancels its siblings.
type ProcessesBackend struct{}

// Name implements Backend.
func (b *ProcessesBackend) Name() string { return string(config.BackendProcesses) }

// Execute launches every run and blocks until the last one finishes.
func (b *ProcessesBackend) Execute(ctx context.Context, s *sweep.Sweep, runs []*sweep.Run, opts Options) (*Report, error) {
	if opts.Exec == nil {
		opts.Exec = toolexec.NewExecutor()
	}

	parallelism := s.Parallelism()
	slog.Info("Starting sweep",
		logfields.Sweep(s.Name),
		slog.Int("runs", len(runs)),
		slog.Int("parallelism", parallelism))

	for _, run := range runs {
		if err := opts.Emitter.EmitQueued(ctx, run.ID, run.Name, history.KindRun, s.Name, ""); err != nil {
			slog.Warn("Could not record run", logfields.Run(run.Name), logfields.Error(err))
		}
	}

	start := time.Now()
	report := &Report{
		Sweep:   s.Name,
		Results: make([]RunResult, len(runs)),
	}

	slots := make(chan int, parallelism)
	for i := 0; i < parallelism; i++ {
		slots <- i
	}

	var wg sync.WaitGroup
spawn:
	for i, run := range runs {
		var slot int
		select {
		case slot = <-slots:
		case <-ctx.Done():
			b.markCanceled(ctx, report, runs, i, opts)
			break spawn
		}

		wg.Add(1)
		go func(idx int, run *sweep.Run, slot int) {
			defer wg.Done()
			defer func() { slots <- slot }()
			report.Results[idx] = b.executeRun(ctx, s, run, slot, opts)
		}(i, run, slot)

		if s.PauseBetween > 0 && i < len(runs)-1 {
			select {
			case <-time.After(s.PauseBetween):
			case <-ctx.Done():
				b.markCanceled(ctx, report, runs, i+1, opts)
				break spawn
			}
		}
	}
	wg.Wait()

	report.Duration = time.Since(start)
	completed, failed, canceled := report.Counts()
	slog.Info("Sweep finished",
		logfields.Sweep(s.Name),
		slog.Int("completed", completed),
		slog.Int("failed", failed),
		slog.Int("canceled", canceled),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))

	return report, nil
}

// executeRun launches one run in its working directory with output captured
// to the run log.
func (b *ProcessesBackend) executeRun(ctx context.Context, s *sweep.Sweep, run *sweep.Run, slot int, opts Options) RunResult {
	device := s.DeviceForSlot(slot)
	run.Device = device

	env := make(map[string]string, len(run.Env)+1)
	for key, value := range run.Env {
		env[key] = value
	}
	if device >= 0 {
		env["CUDA_VISIBLE_DEVICES"] = strconv.Itoa(device)
	}

	cmd := toolexec.Command{Argv: run.Argv, Dir: run.Dir, Env: env}
	execOpts := toolexec.Options{}

	if opts.Workspace != nil {
		logFile, err := opts.Workspace.OpenRunLog(s.Name, run.Name)
		if err != nil {
			return b.finishRun(ctx, s, run, RunResult{Run: run, Status: history.StatusFailed, Err: err}, opts)
		}
		defer logFile.Close()
		execOpts.Stdout = logFile
		execOpts.Stderr = logFile
	}

	if err := opts.Emitter.EmitStarted(ctx, run.ID, slot, device); err != nil {
		slog.Warn("Could not record run start", logfields.Run(run.Name), logfields.Error(err))
	}
	slog.Info("Run started",
		logfields.Sweep(s.Name),
		logfields.Run(run.Name),
		logfields.Worker(strconv.Itoa(slot)),
		logfields.Device(device))

	start := time.Now()
	execResult, err := opts.Exec.Run(ctx, cmd, execOpts)
	duration := time.Since(start)

	result := RunResult{
		Run:      run,
		ExitCode: execResult.ExitCode,
		Duration: duration,
		Err:      err,
	}
	switch {
	case err == nil:
		result.Status = history.StatusCompleted
	case metrics.ResultFor(err) == metrics.ResultCanceled:
		result.Status = history.StatusCanceled
	default:
		result.Status = history.StatusFailed
	}

	return b.finishRun(ctx, s, run, result, opts)
}

func (b *ProcessesBackend) finishRun(ctx context.Context, s *sweep.Sweep, run *sweep.Run, result RunResult, opts Options) RunResult {
	recorder := opts.recorder()
	recorder.ObserveRunDuration(s.Name, result.Duration)

	switch result.Status {
	case history.StatusCompleted:
		recorder.IncRunResult(s.Name, metrics.ResultSuccess)
		if err := opts.Emitter.EmitCompleted(ctx, run.ID, result.Duration); err != nil {
			slog.Warn("Could not record run completion", logfields.Run(run.Name), logfields.Error(err))
		}
		slog.Info("Run completed",
			logfields.Sweep(s.Name),
			logfields.Run(run.Name),
			logfields.DurationMS(float64(result.Duration.Milliseconds())))

	case history.StatusCanceled:
		recorder.IncRunResult(s.Name, metrics.ResultCanceled)
		// Cancellation events must outlive the canceled context.
		if err := opts.Emitter.EmitCanceled(context.WithoutCancel(ctx), run.ID, result.Duration); err != nil {
			slog.Warn("Could not record run cancellation", logfields.Run(run.Name), logfields.Error(err))
		}
		slog.Warn("Run canceled", logfields.Sweep(s.Name), logfields.Run(run.Name))

	default:
		recorder.IncRunResult(s.Name, metrics.ResultFailed)
		message := ""
		if result.Err != nil {
			message = result.Err.Error()
		}
		if err := opts.Emitter.EmitFailed(ctx, run.ID, result.ExitCode, message, result.Duration); err != nil {
			slog.Warn("Could not record run failure", logfields.Run(run.Name), logfields.Error(err))
		}
		slog.Error("Run failed",
			logfields.Sweep(s.Name),
			logfields.Run(run.Name),
			logfields.ExitCode(result.ExitCode),
			logfields.Error(result.Err))
	}

	return result
}

// markCanceled records cancellation for runs that never got a slot.
func (b *ProcessesBackend) markCanceled(ctx context.Context, report *Report, runs []*sweep.Run, from int, opts Options) {
	ctx = context.WithoutCancel(ctx)
	for i := from; i < len(runs); i++ {
		report.Results[i] = RunResult{
			Run:    runs[i],
			Status: history.StatusCanceled,
			Err:    errors.New(errors.CategorySweep, errors.SeverityWarning, "run canceled before start"),
		}
		if err := opts.Emitter.EmitCanceled(ctx, runs[i].ID, 0); err != nil {
			slog.Warn("Could not record run cancellation", logfields.Run(runs[i].Name), logfields.Error(err))
		}
	}
}
