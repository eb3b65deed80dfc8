package history

import (
	"testing"
	"time"
)

func newTestEmitter(t *testing.T) (*Emitter, *Projection, *SQLiteStore) {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	projection := NewProjection(store, 10)
	return NewEmitter(store, projection), projection, store
}

func TestProjectionRunLifecycle(t *testing.T) {
	emitter, projection, _ := newTestEmitter(t)
	ctx := t.Context()

	if err := emitter.EmitQueued(ctx, "run-1", "doom_battle_seed_1111", KindRun, "baseline", "v1.4.0"); err != nil {
		t.Fatalf("emit queued: %v", err)
	}

	summary, ok := projection.Get("run-1")
	if !ok {
		t.Fatalf("run missing from projection")
	}
	if summary.Status != StatusQueued {
		t.Errorf("status = %s, want queued", summary.Status)
	}
	if summary.Name != "doom_battle_seed_1111" || summary.Sweep != "baseline" {
		t.Errorf("summary fields wrong: %+v", summary)
	}
	if summary.Version != "v1.4.0" {
		t.Errorf("version = %s", summary.Version)
	}

	if err := emitter.EmitStarted(ctx, "run-1", 2, 1); err != nil {
		t.Fatalf("emit started: %v", err)
	}
	summary, _ = projection.Get("run-1")
	if summary.Status != StatusRunning {
		t.Errorf("status = %s, want running", summary.Status)
	}
	if summary.Worker != 2 || summary.Device != 1 {
		t.Errorf("worker/device = %d/%d", summary.Worker, summary.Device)
	}

	if err := emitter.EmitCompleted(ctx, "run-1", 90*time.Second); err != nil {
		t.Fatalf("emit completed: %v", err)
	}
	summary, _ = projection.Get("run-1")
	if summary.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", summary.Status)
	}
	if summary.Duration != 90*time.Second {
		t.Errorf("duration = %v", summary.Duration)
	}

	recent := projection.Recent(0)
	if len(recent) != 1 || recent[0].RunID != "run-1" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestProjectionFailureCapturesError(t *testing.T) {
	emitter, projection, _ := newTestEmitter(t)
	ctx := t.Context()

	_ = emitter.EmitQueued(ctx, "run-2", "test", KindTarget, "", "")
	_ = emitter.EmitStarted(ctx, "run-2", 0, -1)
	if err := emitter.EmitFailed(ctx, "run-2", 2, "tool exited with failure", 5*time.Second); err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	summary, _ := projection.Get("run-2")
	if summary.Status != StatusFailed {
		t.Errorf("status = %s, want failed", summary.Status)
	}
	if summary.ExitCode != 2 {
		t.Errorf("exit code = %d", summary.ExitCode)
	}
	if summary.ErrorMessage != "tool exited with failure" {
		t.Errorf("error = %q", summary.ErrorMessage)
	}
}

func TestProjectionRebuildFromStore(t *testing.T) {
	emitter, _, store := newTestEmitter(t)
	ctx := t.Context()

	_ = emitter.EmitQueued(ctx, "run-3", "build", KindTarget, "", "")
	_ = emitter.EmitStarted(ctx, "run-3", 0, -1)
	_ = emitter.EmitCompleted(ctx, "run-3", time.Second)
	_ = emitter.EmitQueued(ctx, "run-4", "sweep", KindSweep, "baseline", "")

	// Fresh projection over the same store should reconstruct both runs.
	rebuilt := NewProjection(store, 10)
	if err := rebuilt.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	summary, ok := rebuilt.Get("run-3")
	if !ok || summary.Status != StatusCompleted {
		t.Errorf("run-3 after rebuild: %+v ok=%v", summary, ok)
	}

	active := rebuilt.Active()
	if len(active) != 1 || active[0].RunID != "run-4" {
		t.Errorf("active = %+v", active)
	}
	if rebuilt.LastSyncTime().IsZero() {
		t.Errorf("last sync time not set")
	}
}

func TestProjectionBoundedHistory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	projection := NewProjection(store, 3)
	emitter := NewEmitter(store, projection)
	ctx := t.Context()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_ = emitter.EmitQueued(ctx, id, "run-"+id, KindRun, "s", "")
		_ = emitter.EmitCompleted(ctx, id, time.Second)
	}

	recent := projection.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("expected bounded history of 3, got %d", len(recent))
	}
	// Newest first.
	if recent[0].RunID != "e" {
		t.Errorf("newest = %s, want e", recent[0].RunID)
	}

	if got := projection.Recent(1); len(got) != 1 {
		t.Errorf("Recent(1) = %d entries", len(got))
	}
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *Emitter
	if err := emitter.EmitQueued(t.Context(), "x", "n", KindRun, "", ""); err != nil {
		t.Fatalf("nil emitter should be a no-op, got %v", err)
	}
	if err := emitter.EmitCompleted(t.Context(), "x", time.Second); err != nil {
		t.Fatalf("nil emitter should be a no-op, got %v", err)
	}
}
