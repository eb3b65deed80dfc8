package recipe

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
)

type fakeExecutor struct {
	calls  []toolexec.Command
	failOn string
}

func (f *fakeExecutor) Run(_ context.Context, cmd toolexec.Command, _ toolexec.Options) (toolexec.Result, error) {
	f.calls = append(f.calls, cmd)
	if len(cmd.Argv) > 0 && cmd.Argv[0] == f.failOn {
		return toolexec.Result{ExitCode: 2}, errors.ToolFailed(cmd.Argv[0], 2, nil)
	}
	return toolexec.Result{}, nil
}

type recordingRecorder struct {
	metrics.NoopRecorder
	results []string
}

func (r *recordingRecorder) IncTargetResult(target string, result metrics.ResultLabel) {
	r.results = append(r.results, target+":"+string(result))
}

func TestEngineRunsPlanInOrder(t *testing.T) {
	exec := &fakeExecutor{}
	engine := NewEngine(exec)

	r := FromConfig(testConfig())
	plan, err := r.Plan("upload")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	vars := map[string]string{"dist_dir": "dist"}
	if err := engine.RunPlan(context.Background(), testConfig(), plan, vars); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(exec.calls) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(exec.calls))
	}
	wantBuild := []string{"python", "-m", "build", "--outdir", "dist"}
	if !reflect.DeepEqual(exec.calls[0].Argv, wantBuild) {
		t.Fatalf("build argv = %v, want %v", exec.calls[0].Argv, wantBuild)
	}
	// No dist artifacts exist here, so the glob passes through for twine.
	wantUpload := []string{"twine", "upload", "dist/*"}
	if !reflect.DeepEqual(exec.calls[1].Argv, wantUpload) {
		t.Fatalf("upload argv = %v, want %v", exec.calls[1].Argv, wantUpload)
	}
}

func TestEngineStopsOnFailure(t *testing.T) {
	exec := &fakeExecutor{failOn: "python"}
	recorder := &recordingRecorder{}
	engine := NewEngine(exec).WithRecorder(recorder)

	r := FromConfig(testConfig())
	plan, err := r.Plan("upload")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	err = engine.RunPlan(context.Background(), testConfig(), plan, map[string]string{"dist_dir": "dist"})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if len(exec.calls) != 1 {
		t.Fatalf("plan should stop at the failing target, got %d calls", len(exec.calls))
	}

	lre := err.(*errors.LabRunnerError)
	if lre.Context["target"] != "build" {
		t.Fatalf("error should carry the failing target, got %v", lre.Context)
	}
	if !reflect.DeepEqual(recorder.results, []string{"build:failed"}) {
		t.Fatalf("recorder results = %v", recorder.results)
	}
}

func TestEngineRecordsSuccess(t *testing.T) {
	exec := &fakeExecutor{}
	recorder := &recordingRecorder{}
	engine := NewEngine(exec).WithRecorder(recorder)

	r := FromConfig(testConfig())
	plan, err := r.Plan("build")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := engine.RunPlan(context.Background(), testConfig(), plan, map[string]string{"dist_dir": "dist"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(recorder.results, []string{"build:success"}) {
		t.Fatalf("recorder results = %v", recorder.results)
	}
}

func TestEngineNativeClean(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	for _, sub := range []string{"dist", ".pytest_cache", "keepme"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "coverage.xml"), []byte("<xml/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Project.CleanPaths = []string{"{dist_dir}", ".pytest_cache", "coverage.xml", "*.egg-info"}

	engine := NewEngine(&fakeExecutor{})
	target := &Target{Name: "clean", Builtin: true}
	err := engine.RunTarget(context.Background(), cfg, target, map[string]string{"dist_dir": "dist"})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	for _, gone := range []string{"dist", ".pytest_cache", "coverage.xml"} {
		if _, statErr := os.Stat(filepath.Join(dir, gone)); !os.IsNotExist(statErr) {
			t.Fatalf("%s should be removed", gone)
		}
	}
	if _, statErr := os.Stat(filepath.Join(dir, "keepme")); statErr != nil {
		t.Fatalf("unrelated path removed: %v", statErr)
	}
}

func TestEngineCleanSkipsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	victim := filepath.Join(dir, "outside")
	if err := os.MkdirAll(victim, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Project.CleanPaths = []string{victim}

	engine := NewEngine(&fakeExecutor{})
	target := &Target{Name: "clean", Builtin: true}
	if err := engine.RunTarget(context.Background(), cfg, target, nil); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, statErr := os.Stat(victim); statErr != nil {
		t.Fatalf("absolute path should be skipped, got %v", statErr)
	}
}
