package daemon

import (
	"context"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
	"git.home.luguber.info/inful/labrunner/internal/recipe"
	"git.home.luguber.info/inful/labrunner/internal/runner"
	"git.home.luguber.info/inful/labrunner/internal/sweep"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
	"git.home.luguber.info/inful/labrunner/internal/workspace"
)

// jobExecutor turns queue jobs into recipe or sweep executions. It reads the
// configuration through the daemon on every job so config reloads take effect
// without restarting workers.
type jobExecutor struct {
	exec     toolexec.Executor
	emitter  *history.Emitter
	recorder metrics.Recorder
	version  func() string
	config   func() *config.Config
}

func (x *jobExecutor) ExecuteJob(ctx context.Context, job *Job) error {
	cfg := x.config()
	if cfg == nil {
		return errors.New(errors.CategoryDaemon, errors.SeverityError, "daemon has no configuration loaded")
	}

	switch job.Kind {
	case JobTarget:
		return x.runTarget(ctx, cfg, job)
	case JobSweep:
		return x.runSweep(ctx, cfg, job)
	default:
		return errors.New(errors.CategoryDaemon, errors.SeverityError, "unknown job kind").
			WithContext("kind", string(job.Kind)).
			WithContext("job_id", job.ID)
	}
}

func (x *jobExecutor) runTarget(ctx context.Context, cfg *config.Config, job *Job) error {
	rec := recipe.FromConfig(cfg)
	plan, err := rec.Plan(job.Name)
	if err != nil {
		return err
	}

	engine := recipe.NewEngine(x.exec).WithRecorder(x.recorder)
	return engine.RunPlan(ctx, cfg, plan, cfg.Placeholders(x.version()))
}

func (x *jobExecutor) runSweep(ctx context.Context, cfg *config.Config, job *Job) error {
	s, err := sweep.FromConfig(cfg, job.Name)
	if err != nil {
		return err
	}
	runs, err := s.Describe()
	if err != nil {
		return err
	}

	backend, err := runner.Get(string(s.Backend))
	if err != nil {
		return err
	}

	report, err := backend.Execute(ctx, s, runs, runner.Options{
		Exec:      x.exec,
		Workspace: workspace.ForConfig(cfg),
		Emitter:   x.emitter,
		Recorder:  x.recorder,
	})
	if err != nil {
		return err
	}
	return report.Err()
}
