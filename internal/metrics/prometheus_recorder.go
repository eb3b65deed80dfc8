package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	registry       *prom.Registry
	targetDuration *prom.HistogramVec
	targetResults  *prom.CounterVec
	runDuration    *prom.HistogramVec
	runResults     *prom.CounterVec
	queueDepth     prom.Gauge
	activeJobs     prom.Gauge
	scheduleFired  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.targetDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "labrunner",
			Name:      "target_duration_seconds",
			Help:      "Duration of recipe target executions",
			Buckets:   prom.DefBuckets,
		}, []string{"target"})
		pr.targetResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "labrunner",
			Name:      "target_results_total",
			Help:      "Target result counts by outcome",
		}, []string{"target", "result"})
		pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "labrunner",
			Name:      "run_duration_seconds",
			Help:      "Duration of individual sweep runs",
			Buckets:   []float64{1, 10, 60, 300, 1800, 7200, 43200},
		}, []string{"sweep"})
		pr.runResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "labrunner",
			Name:      "run_results_total",
			Help:      "Sweep run counts by outcome",
		}, []string{"sweep", "result"})
		pr.queueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "labrunner",
			Name:      "queue_depth",
			Help:      "Jobs waiting in the daemon queue",
		})
		pr.activeJobs = prom.NewGauge(prom.GaugeOpts{
			Namespace: "labrunner",
			Name:      "active_jobs",
			Help:      "Jobs currently executing",
		})
		pr.scheduleFired = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "labrunner",
			Name:      "schedule_fired_total",
			Help:      "Schedule trigger counts",
		}, []string{"schedule"})
		reg.MustRegister(pr.targetDuration, pr.targetResults, pr.runDuration, pr.runResults, pr.queueDepth, pr.activeJobs, pr.scheduleFired)
	})
	return pr
}

// HTTPHandler serves the recorder's registry for the daemon /metrics endpoint.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveTargetDuration(target string, d time.Duration) {
	if p == nil || p.targetDuration == nil {
		return
	}
	p.targetDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTargetResult(target string, result ResultLabel) {
	if p == nil || p.targetResults == nil {
		return
	}
	p.targetResults.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(sweep string, d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.WithLabelValues(sweep).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunResult(sweep string, result ResultLabel) {
	if p == nil || p.runResults == nil {
		return
	}
	p.runResults.WithLabelValues(sweep, string(result)).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) SetActiveJobs(n int) {
	if p == nil || p.activeJobs == nil {
		return
	}
	p.activeJobs.Set(float64(n))
}

func (p *PrometheusRecorder) IncScheduleFired(schedule string) {
	if p == nil || p.scheduleFired == nil {
		return
	}
	p.scheduleFired.WithLabelValues(schedule).Inc()
}
