package daemon

import (
	"fmt"
	"time"
)

// HealthState classifies overall daemon health.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// HealthCheck is the result of one component check.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  HealthState `json:"status"`
	Message string      `json:"message,omitempty"`
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status    HealthState   `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Checks    []HealthCheck `json:"checks"`
}

// Health runs all component checks and aggregates the overall state. Any
// non-healthy check degrades the aggregate; a stopped daemon is unhealthy.
func (d *Daemon) Health() *HealthResponse {
	checks := []HealthCheck{
		d.checkState(),
		d.checkQueue(),
		d.checkEvents(),
	}

	overall := HealthHealthy
	for _, check := range checks {
		switch check.Status {
		case HealthUnhealthy:
			overall = HealthUnhealthy
		case HealthDegraded:
			if overall == HealthHealthy {
				overall = HealthDegraded
			}
		}
	}

	return &HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Uptime:    d.Uptime().Round(time.Second).String(),
		Version:   d.Version(),
		Checks:    checks,
	}
}

func (d *Daemon) checkState() HealthCheck {
	state := d.State()
	check := HealthCheck{Name: "daemon", Status: HealthHealthy, Message: string(state)}
	switch state {
	case StateRunning:
	case StateStarting:
		check.Status = HealthDegraded
	default:
		check.Status = HealthUnhealthy
	}
	return check
}

func (d *Daemon) checkQueue() HealthCheck {
	check := HealthCheck{Name: "queue", Status: HealthHealthy}
	length := d.queue.Length()
	capacity := d.queue.Capacity()
	check.Message = fmt.Sprintf("%d/%d queued, %d active", length, capacity, len(d.queue.ActiveJobs()))
	if length >= capacity {
		check.Status = HealthDegraded
		check.Message = "queue is full"
	}
	return check
}

func (d *Daemon) checkEvents() HealthCheck {
	check := HealthCheck{Name: "events", Status: HealthHealthy}
	if d.publisher == nil {
		check.Message = "not configured"
		return check
	}
	if !d.publisher.Connected() {
		check.Status = HealthDegraded
		check.Message = "nats connection lost"
	}
	return check
}
