// Package history records run execution as an append-only event log and
// projects it into queryable summaries. Events persist in SQLite; the
// projection is an in-memory read model rebuilt from the log at startup.
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/util/sets"
)

// Run statuses derived from events.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// RunSummary is a read model for one run, target, or sweep execution.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	Name         string        `json:"name"`
	Kind         string        `json:"kind"`
	Sweep        string        `json:"sweep,omitempty"`
	Version      string        `json:"version,omitempty"`
	Status       string        `json:"status"`
	QueuedAt     time.Time     `json:"queued_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Worker       int           `json:"worker,omitempty"`
	Device       int           `json:"device,omitempty"`
	ExitCode     int           `json:"exit_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Projection maintains an in-memory view of run history, reconstructed from
// events in the store.
type Projection struct {
	mu       sync.RWMutex
	store    Store
	runs     map[string]*RunSummary
	history  []*RunSummary // ordered by queue time, newest first
	maxSize  int
	lastSync time.Time
}

// NewProjection creates a projection backed by the given store.
func NewProjection(store Store, maxHistorySize int) *Projection {
	if maxHistorySize <= 0 {
		maxHistorySize = 200
	}
	return &Projection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		history: make([]*RunSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store. Called at
// startup before serving queries.
func (p *Projection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = make([]*RunSummary, 0, p.maxSize)

	for _, event := range events {
		p.applyEventLocked(event)
	}

	p.sortHistoryLocked()
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event for real-time updates.
func (p *Projection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *Projection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:    runID,
			Status:   StatusQueued,
			QueuedAt: event.Timestamp(),
			Device:   -1,
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeQueued:
		summary.QueuedAt = event.Timestamp()
		summary.Status = StatusQueued
		var payload struct {
			Name    string `json:"name"`
			Kind    string `json:"kind"`
			Sweep   string `json:"sweep"`
			Version string `json:"version"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Name = payload.Name
			summary.Kind = payload.Kind
			summary.Sweep = payload.Sweep
			summary.Version = payload.Version
		}

	case TypeStarted:
		started := event.Timestamp()
		summary.StartedAt = &started
		summary.Status = StatusRunning
		var payload struct {
			Worker int `json:"worker"`
			Device int `json:"device"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Worker = payload.Worker
			summary.Device = payload.Device
		}

	case TypeCompleted:
		p.finishLocked(summary, event, StatusCompleted)

	case TypeFailed:
		p.finishLocked(summary, event, StatusFailed)
		var payload struct {
			ExitCode int    `json:"exit_code"`
			Error    string `json:"error"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ExitCode = payload.ExitCode
			summary.ErrorMessage = payload.Error
		}

	case TypeCanceled:
		p.finishLocked(summary, event, StatusCanceled)
	}
}

func (p *Projection) finishLocked(summary *RunSummary, event Event, status string) {
	now := event.Timestamp()
	summary.CompletedAt = &now
	summary.Status = status
	var payload struct {
		DurationMS int64 `json:"duration_ms"`
	}
	if err := json.Unmarshal(event.Payload(), &payload); err == nil && payload.DurationMS > 0 {
		summary.Duration = time.Duration(payload.DurationMS) * time.Millisecond
	} else if summary.StartedAt != nil {
		summary.Duration = now.Sub(*summary.StartedAt)
	}
	p.addToHistoryLocked(summary)
}

func (p *Projection) addToHistoryLocked(summary *RunSummary) {
	for _, h := range p.history {
		if h.RunID == summary.RunID {
			return
		}
	}

	p.history = append([]*RunSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()
}

// pruneRunsLocked keeps the bounded history plus anything still in flight.
func (p *Projection) pruneRunsLocked() {
	keep := sets.New[string]()
	for _, h := range p.history {
		if h != nil {
			keep.Add(h.RunID)
		}
	}

	for id, summary := range p.runs {
		if summary != nil && (summary.Status == StatusQueued || summary.Status == StatusRunning) {
			continue
		}
		if !keep.Has(id) {
			delete(p.runs, id)
		}
	}
}

func (p *Projection) sortHistoryLocked() {
	// Insertion sort; history is small.
	for i := 1; i < len(p.history); i++ {
		for j := i; j > 0 && p.history[j].QueuedAt.After(p.history[j-1].QueuedAt); j-- {
			p.history[j], p.history[j-1] = p.history[j-1], p.history[j]
		}
	}
}

// Recent returns finished runs, newest first, up to limit (0 means all).
func (p *Projection) Recent(limit int) []*RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.history)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]*RunSummary, n)
	for i := 0; i < n; i++ {
		cp := *p.history[i]
		result[i] = &cp
	}
	return result
}

// Get returns the summary for a specific run.
func (p *Projection) Get(runID string) (*RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.runs[runID]
	if !exists {
		return nil, false
	}
	cp := *summary
	return &cp, true
}

// Active returns runs that are queued or running.
func (p *Projection) Active() []*RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []*RunSummary
	for _, summary := range p.runs {
		if summary.Status == StatusQueued || summary.Status == StatusRunning {
			cp := *summary
			result = append(result, &cp)
		}
	}
	return result
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *Projection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
