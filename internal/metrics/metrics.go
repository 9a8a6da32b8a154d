// Package metrics exposes Prometheus instrumentation for the worker
// loop, wired to internal/events the way internal/api already exposes
// promhttp.Handler() on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vin-jex/job-orchestrator/internal/events"
)

var (
	once sync.Once

	jobsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_orchestrator_jobs_completed_total",
		Help: "Jobs that ran their handler to success.",
	}, []string{"task_identifier"})

	jobsErrored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_orchestrator_jobs_errored_total",
		Help: "Handler invocations that returned an error, whether or not a retry remains.",
	}, []string{"task_identifier"})

	jobsFailedPermanently = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_orchestrator_jobs_failed_total",
		Help: "Jobs that exhausted max_attempts and will not be retried.",
	}, []string{"task_identifier"})

	jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_orchestrator_job_duration_seconds",
		Help:    "Handler execution time, recorded on both success and error.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task_identifier"})

	acquisitionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_orchestrator_acquisition_errors_total",
		Help: "GetJob calls that returned an error.",
	})

	emptyAcquisitions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_orchestrator_empty_acquisitions_total",
		Help: "GetJob calls that found no eligible job.",
	})

	workerFatalErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_orchestrator_worker_fatal_errors_total",
		Help: "Times a worker stopped itself after failing to report a job outcome.",
	})
)

// Register adds the worker metrics to reg. Safe to call more than once;
// only the first call has an effect.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(
			jobsCompleted,
			jobsErrored,
			jobsFailedPermanently,
			jobDuration,
			acquisitionErrors,
			emptyAcquisitions,
			workerFatalErrors,
		)
	})
}

// Observe subscribes to bus and updates the registered metrics as worker
// lifecycle events arrive. Call once per process after Register.
func Observe(bus *events.Bus) {
	bus.On(events.JobSuccess, func(ev events.Event) {
		jobsCompleted.WithLabelValues(ev.TaskID).Inc()
		jobDuration.WithLabelValues(ev.TaskID).Observe(float64(ev.DurationMS) / 1000)
	})

	bus.On(events.JobError, func(ev events.Event) {
		jobsErrored.WithLabelValues(ev.TaskID).Inc()
		jobDuration.WithLabelValues(ev.TaskID).Observe(float64(ev.DurationMS) / 1000)
	})

	bus.On(events.JobFailed, func(ev events.Event) {
		jobsFailedPermanently.WithLabelValues(ev.TaskID).Inc()
	})

	bus.On(events.WorkerGetJobError, func(events.Event) {
		acquisitionErrors.Inc()
	})

	bus.On(events.WorkerGetJobEmpty, func(events.Event) {
		emptyAcquisitions.Inc()
	})

	bus.On(events.WorkerFatalError, func(events.Event) {
		workerFatalErrors.Inc()
	})
}
