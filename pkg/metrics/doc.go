/*
Package metrics provides Prometheus metrics collection and exposition for xvc.

The metrics package defines and registers every xvc metric using the Prometheus
client library, giving observability into pipeline execution, the process pool,
the cache, and file tracking. Handler returns a Prometheus HTTP handler for
scraping, and a small health/readiness subsystem is reused as-is from the
system this package was adapted from. No xvc command starts an HTTP server,
so neither the metrics handler nor the health handlers are served.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Pipeline: run duration, run outcome        │          │
	│  │  Step: state counts, duration, broken total │          │
	│  │  Process pool: occupancy, capacity          │          │
	│  │  Cache: hits, misses, entry count           │          │
	│  │  File: tracked count, track duration        │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Collector                      │          │
	│  │  Polls a live *pipeline.Run's Bulletin and  │          │
	│  │  Pool on a ticker, publishing step-state    │          │
	│  │  and pool-occupancy gauges. Counters and    │          │
	│  │  histograms are updated inline at the call  │          │
	│  │  site (the command layer) instead, since a  │          │
	│  │  poller cannot observe a duration or an     │          │
	│  │  edge-triggered event after the fact.       │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint               │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition        │          │
	│  │  - Handler: promhttp.Handler()               │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

Pipeline Metrics:

xvc_pipeline_run_duration_seconds{pipeline}:
  - Type: Histogram
  - Description: Time taken for a full pipeline run to complete

xvc_pipeline_runs_total{pipeline, outcome}:
  - Type: Counter
  - Description: Total pipeline runs, by outcome ("done", "broken")

Step Metrics:

xvc_pipeline_step_state_total{pipeline, state}:
  - Type: Gauge
  - Description: Current number of steps in each state machine state
  - Updated by: Collector, polling a Run's Bulletin snapshot

xvc_pipeline_step_duration_seconds{pipeline, step}:
  - Type: Histogram
  - Description: Time a step spent running its command
  - Updated by: nothing; registered only, it records no observations

xvc_pipeline_steps_broken_total{pipeline, step}:
  - Type: Counter
  - Description: Total steps that transitioned to Broken

Process Pool Metrics:

xvc_process_pool_occupied:
  - Type: Gauge
  - Description: Process pool slots currently in use
  - Updated by: Collector, polling Pool.Occupied()

xvc_process_pool_capacity:
  - Type: Gauge
  - Description: Total process pool slots configured

xvc_process_terminated_total:
  - Type: Counter
  - Description: Step command processes killed for exceeding their timeout
  - Updated by: nothing; registered only, it stays at zero

Cache Metrics:

xvc_cache_hits_total / xvc_cache_misses_total:
  - Type: Counter
  - Description: Recheck operations served from cache vs. carry-in operations
    that moved new content into it

xvc_cache_entries_total:
  - Type: Gauge
  - Description: Distinct content-addressed entries currently cached
  - Updated by: nothing; registered only, it stays at zero

File Tracking Metrics:

xvc_tracked_files_total:
  - Type: Gauge
  - Description: Paths currently tracked in the repository

xvc_file_track_duration_seconds:
  - Type: Histogram
  - Description: Time taken for a `file track` invocation to complete

# Health and Readiness

The health subsystem (health.go) is domain-agnostic: components register
themselves by name via RegisterComponent/UpdateComponent, and GetHealth/
GetReadiness aggregate their status for the /health, /ready, and /live HTTP
handlers. Readiness additionally requires the "repo" and "cache" components
to be registered and healthy before reporting ready, since neither pipeline
runs nor file operations can proceed without a valid repository and cache.
No xvc code outside this package registers any component.

# See Also

  - Prometheus client library: https://github.com/prometheus/client_golang
  - PromQL tutorial: https://prometheus.io/docs/prometheus/latest/querying/basics/
*/
package metrics
