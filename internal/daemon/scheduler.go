package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
)

// Enqueuer accepts jobs for execution. Implemented by Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// Scheduler wraps gocron and turns configured schedules into queue jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	enqueuer  Enqueuer
	recorder  metrics.Recorder
}

// NewScheduler creates a scheduler that feeds the given enqueuer.
func NewScheduler(enqueuer Enqueuer, recorder metrics.Recorder) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "failed to create scheduler")
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return &Scheduler{scheduler: s, enqueuer: enqueuer, recorder: recorder}, nil
}

// Configure registers one gocron job per schedule. Exactly one of Every or
// Cron must be set per schedule; config validation enforces the rest.
func (s *Scheduler) Configure(schedules []config.ScheduleConfig) error {
	for _, sc := range schedules {
		def, err := jobDefinition(sc)
		if err != nil {
			return err
		}

		if _, err := s.scheduler.NewJob(
			def,
			gocron.NewTask(s.fire, sc),
			gocron.WithName(sc.Name),
		); err != nil {
			return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "failed to register schedule").
				WithContext("schedule", sc.Name)
		}

		slog.Info("Schedule registered",
			logfields.ScheduleName(sc.Name),
			slog.String("every", sc.Every),
			slog.String("cron", sc.Cron))
	}
	return nil
}

func jobDefinition(sc config.ScheduleConfig) (gocron.JobDefinition, error) {
	switch {
	case sc.Every != "" && sc.Cron != "":
		return nil, errors.New(errors.CategoryValidation, errors.SeverityFatal, "schedule sets both every and cron").
			WithContext("schedule", sc.Name)
	case sc.Every != "":
		interval, err := time.ParseDuration(sc.Every)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, errors.SeverityFatal, "invalid schedule interval").
				WithContext("schedule", sc.Name).
				WithContext("every", sc.Every)
		}
		return gocron.DurationJob(interval), nil
	case sc.Cron != "":
		return gocron.CronJob(sc.Cron, false), nil
	default:
		return nil, errors.New(errors.CategoryValidation, errors.SeverityFatal, "schedule needs every or cron").
			WithContext("schedule", sc.Name)
	}
}

// fire is called by gocron when a schedule triggers.
func (s *Scheduler) fire(sc config.ScheduleConfig) {
	s.recorder.IncScheduleFired(sc.Name)

	job := scheduleJob(sc)
	slog.Info("Schedule fired",
		logfields.ScheduleName(sc.Name),
		logfields.JobID(job.ID),
		slog.String("kind", string(job.Kind)),
		slog.String("name", job.Name))

	if err := s.enqueuer.Enqueue(context.Background(), job); err != nil {
		slog.Error("Failed to enqueue scheduled job",
			logfields.ScheduleName(sc.Name),
			logfields.Error(err))
	}
}

// scheduleJob maps a schedule to the job it enqueues.
func scheduleJob(sc config.ScheduleConfig) *Job {
	if sc.Sweep != "" {
		return NewJob(JobSweep, sc.Sweep, "schedule:"+sc.Name)
	}
	return NewJob(JobTarget, sc.Target, "schedule:"+sc.Name)
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
