package daemon

import (
	"testing"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
)

func newTestExecutor(cfg *config.Config) *jobExecutor {
	return &jobExecutor{
		exec:    toolexec.NewExecutor(),
		version: func() string { return "v0-test" },
		config:  func() *config.Config { return cfg },
	}
}

func TestExecutorRejectsUnknownKind(t *testing.T) {
	x := newTestExecutor(&config.Config{})
	err := x.ExecuteJob(t.Context(), &Job{ID: "j1", Kind: JobKind("cron"), Name: "x"})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if !errors.IsCategory(err, errors.CategoryDaemon) {
		t.Errorf("category = %v, want daemon", errors.GetCategory(err))
	}
}

func TestExecutorRejectsMissingConfig(t *testing.T) {
	x := newTestExecutor(nil)
	err := x.ExecuteJob(t.Context(), &Job{ID: "j1", Kind: JobTarget, Name: "check-all"})
	if err == nil {
		t.Fatal("expected error without configuration")
	}
}

func TestExecutorUnknownTargetFails(t *testing.T) {
	x := newTestExecutor(&config.Config{})
	err := x.ExecuteJob(t.Context(), NewJob(JobTarget, "does-not-exist", "manual"))
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestExecutorUnknownSweepFails(t *testing.T) {
	x := newTestExecutor(&config.Config{})
	err := x.ExecuteJob(t.Context(), NewJob(JobSweep, "does-not-exist", "manual"))
	if err == nil {
		t.Fatal("expected error for unknown sweep")
	}
	if !errors.IsCategory(err, errors.CategorySweep) {
		t.Errorf("category = %v, want sweep", errors.GetCategory(err))
	}
}
