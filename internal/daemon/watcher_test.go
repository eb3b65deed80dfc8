package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/labrunner/internal/config"
)

type signalReloader struct {
	ch chan struct{}
}

func (r *signalReloader) ReloadConfig(ctx context.Context) error {
	select {
	case r.ch <- struct{}{}:
	default:
	}
	return nil
}

func TestWatcherReloadsOnConfigChange(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "labrunner.yaml")
	if err := os.WriteFile(configPath, []byte("project:\n  name: doom\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloader := &signalReloader{ch: make(chan struct{}, 1)}
	w, err := NewWatcher(configPath, config.WatchConfig{Debounce: "20ms"}, reloader, &collectEnqueuer{})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(configPath, []byte("project:\n  name: doom2\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-reloader.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("reload was not triggered")
	}
}

func TestWatcherEnqueuesTargetOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "labrunner.yaml")
	if err := os.WriteFile(configPath, []byte("project:\n  name: doom\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	srcDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("mkdir src: %v", err)
	}

	enq := &collectEnqueuer{}
	watch := config.WatchConfig{
		Enabled:  true,
		Paths:    []string{srcDir},
		Target:   "check-codestyle",
		Debounce: "20ms",
	}
	w, err := NewWatcher(configPath, watch, &signalReloader{ch: make(chan struct{}, 1)}, enq)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(srcDir, "train.py"), []byte("print()\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return len(enq.snapshot()) >= 1 })

	job := enq.snapshot()[0]
	if job.Kind != JobTarget || job.Name != "check-codestyle" {
		t.Errorf("job = %s/%s", job.Kind, job.Name)
	}
	if job.Source != "watch" {
		t.Errorf("source = %s", job.Source)
	}
}

func TestWatcherRejectsBadDebounce(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "labrunner.yaml")
	if err := os.WriteFile(configPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := NewWatcher(configPath, config.WatchConfig{Debounce: "never"}, &signalReloader{}, &collectEnqueuer{})
	if err == nil {
		t.Fatal("expected debounce parse error")
	}
}

func TestWatcherMissingPathFailsStart(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "labrunner.yaml")
	if err := os.WriteFile(configPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	watch := config.WatchConfig{Enabled: true, Paths: []string{filepath.Join(dir, "missing")}}
	w, err := NewWatcher(configPath, watch, &signalReloader{}, &collectEnqueuer{})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(t.Context()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing watch path")
	}
}

func TestIsSourceEvent(t *testing.T) {
	cases := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: "src/train.py", Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: "src/new.py", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "src/old.py", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "src/train.py", Op: fsnotify.Chmod}, false},
		{"hidden file", fsnotify.Event{Name: "src/.train.py.swp", Op: fsnotify.Write}, false},
		{"backup file", fsnotify.Event{Name: "src/train.py~", Op: fsnotify.Write}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isSourceEvent(tc.event); got != tc.want {
				t.Errorf("isSourceEvent(%v) = %v, want %v", tc.event, got, tc.want)
			}
		})
	}
}
