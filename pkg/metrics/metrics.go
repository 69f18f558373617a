package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline run metrics
	PipelineRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xvc_pipeline_run_duration_seconds",
			Help:    "Time taken for a full pipeline run to complete, by pipeline name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xvc_pipeline_runs_total",
			Help: "Total number of pipeline runs, by pipeline name and outcome",
		},
		[]string{"pipeline", "outcome"},
	)

	// Step state metrics
	StepStateTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "xvc_pipeline_step_state_total",
			Help: "Current number of steps in each state, by pipeline name and state",
		},
		[]string{"pipeline", "state"},
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xvc_pipeline_step_duration_seconds",
			Help:    "Time a step spent running its command, by pipeline and step name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline", "step"},
	)

	StepsBrokenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xvc_pipeline_steps_broken_total",
			Help: "Total number of steps that transitioned to Broken, by pipeline and step name",
		},
		[]string{"pipeline", "step"},
	)

	// Process pool metrics
	ProcessPoolOccupied = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "xvc_process_pool_occupied",
			Help: "Number of process pool slots currently in use",
		},
	)

	ProcessPoolCapacity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "xvc_process_pool_capacity",
			Help: "Total number of process pool slots configured",
		},
	)

	ProcessTerminatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "xvc_process_terminated_total",
			Help: "Total number of step command processes terminated for exceeding their timeout",
		},
	)

	// Cache metrics
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "xvc_cache_hits_total",
			Help: "Total number of recheck operations served from an existing cache entry",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "xvc_cache_misses_total",
			Help: "Total number of carry-in operations that moved new content into the cache",
		},
	)

	CacheEntriesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "xvc_cache_entries_total",
			Help: "Total number of distinct content-addressed entries currently in the cache",
		},
	)

	// File tracking metrics
	TrackedFilesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "xvc_tracked_files_total",
			Help: "Total number of paths currently tracked in the repository",
		},
	)

	FileTrackDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xvc_file_track_duration_seconds",
			Help:    "Time taken for a `file track` invocation to complete",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(PipelineRunDuration)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(StepStateTotal)
	prometheus.MustRegister(StepDuration)
	prometheus.MustRegister(StepsBrokenTotal)
	prometheus.MustRegister(ProcessPoolOccupied)
	prometheus.MustRegister(ProcessPoolCapacity)
	prometheus.MustRegister(ProcessTerminatedTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheEntriesTotal)
	prometheus.MustRegister(TrackedFilesTotal)
	prometheus.MustRegister(FileTrackDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
