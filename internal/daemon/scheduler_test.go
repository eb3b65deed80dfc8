package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
)

type collectEnqueuer struct {
	mu   sync.Mutex
	jobs []*Job
}

func (c *collectEnqueuer) Enqueue(ctx context.Context, job *Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return nil
}

func (c *collectEnqueuer) snapshot() []*Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Job, len(c.jobs))
	copy(out, c.jobs)
	return out
}

func TestScheduleJobMapping(t *testing.T) {
	job := scheduleJob(config.ScheduleConfig{Name: "nightly", Target: "check-all"})
	if job.Kind != JobTarget || job.Name != "check-all" {
		t.Errorf("target schedule mapped to %s/%s", job.Kind, job.Name)
	}
	if job.Source != "schedule:nightly" {
		t.Errorf("source = %s", job.Source)
	}

	job = scheduleJob(config.ScheduleConfig{Name: "weekly", Sweep: "baseline"})
	if job.Kind != JobSweep || job.Name != "baseline" {
		t.Errorf("sweep schedule mapped to %s/%s", job.Kind, job.Name)
	}
}

func TestJobDefinitionValidation(t *testing.T) {
	cases := []struct {
		name    string
		sc      config.ScheduleConfig
		wantErr bool
	}{
		{"interval", config.ScheduleConfig{Name: "a", Every: "30m"}, false},
		{"cron", config.ScheduleConfig{Name: "b", Cron: "0 3 * * *"}, false},
		{"both set", config.ScheduleConfig{Name: "c", Every: "30m", Cron: "0 3 * * *"}, true},
		{"neither set", config.ScheduleConfig{Name: "d"}, true},
		{"bad duration", config.ScheduleConfig{Name: "e", Every: "soon"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := jobDefinition(tc.sc)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && !errors.IsCategory(err, errors.CategoryValidation) {
				t.Errorf("category = %v, want validation", errors.GetCategory(err))
			}
		})
	}
}

func TestSchedulerFiresIntervalJobs(t *testing.T) {
	enq := &collectEnqueuer{}
	s, err := NewScheduler(enq, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	schedules := []config.ScheduleConfig{{Name: "fast", Every: "10ms", Target: "check-codestyle"}}
	if err := s.Configure(schedules); err != nil {
		t.Fatalf("configure: %v", err)
	}

	s.Start()
	defer func() {
		if err := s.Stop(); err != nil {
			t.Errorf("stop: %v", err)
		}
	}()

	waitFor(t, 3*time.Second, func() bool { return len(enq.snapshot()) >= 2 })

	job := enq.snapshot()[0]
	if job.Kind != JobTarget || job.Name != "check-codestyle" {
		t.Errorf("fired job = %s/%s", job.Kind, job.Name)
	}
	if job.Source != "schedule:fast" {
		t.Errorf("source = %s", job.Source)
	}
}

func TestSchedulerConfigureRejectsBadSchedule(t *testing.T) {
	s, err := NewScheduler(&collectEnqueuer{}, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer func() { _ = s.Stop() }()

	err = s.Configure([]config.ScheduleConfig{{Name: "broken", Every: "yesterday"}})
	if err == nil {
		t.Fatal("expected configuration error")
	}
}
