package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkerRegistrationsTotal counts REGISTER_WORKER messages accepted by the dispatcher
	WorkerRegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worker_registrations_total",
			Help: "Total number of worker registrations accepted by the dispatcher.",
		},
	)

	// JobsDispatchedTotal counts forwarded jobs by worker and outcome
	JobsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_dispatched_total",
			Help: "Total number of jobs dispatched to workers.",
		},
		[]string{"worker", "status"},
	)

	// JobDispatchDuration observes the full forward round trip
	JobDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_dispatch_duration_seconds",
			Help:    "Time from picking a worker to receiving its reply.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"worker"},
	)

	// JobExecutionTotal counts tool executions on a worker
	JobExecutionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_executions_total",
			Help: "Total number of jobs executed by this worker.",
		},
		[]string{"tool", "status"},
	)

	// ToolCacheLookupsTotal counts tool cache hits and misses
	ToolCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_cache_lookups_total",
			Help: "Tool cache lookups by result (hit/miss).",
		},
		[]string{"result"},
	)

	// ToolProvisionsTotal counts calls to the tool provider
	ToolProvisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_provisions_total",
			Help: "Tool provisioning attempts by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	// TCPConnectionsTotal counts accepted connections by server and outcome
	TCPConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcp_connections_total",
			Help: "Accepted TCP connections by server and handling outcome.",
		},
		[]string{"server", "outcome"},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// UnresolvedTool replaces the tool label when a name never resolved to a
// tool, so arbitrary client-supplied names do not each get a series.
const UnresolvedTool = "unresolved"

