// Package metrics provides Prometheus-based metrics recording and querying
// for orchestration runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records orchestration metrics to Prometheus.
type Recorder struct {
	routingDecisions  *prometheus.CounterVec
	agentTurns        *prometheus.CounterVec
	agentDuration     *prometheus.HistogramVec
	sandboxExecutions *prometheus.CounterVec
	backendRequests   *prometheus.CounterVec
	backendDuration   *prometheus.HistogramVec
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
}

// NewRecorder creates a new Prometheus-based metrics recorder. Collectors
// register with the default registry, so create at most one per process;
// use Default for shared access.
func NewRecorder() *Recorder {
	return &Recorder{
		routingDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_routing_decisions_total",
				Help: "Total routing decisions by mode, task type, and chosen backend",
			},
			[]string{"mode", "task_type", "backend"},
		),
		agentTurns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_agent_turns_total",
				Help: "Total agent node executions by agent and status",
			},
			[]string{"agent", "status"},
		),
		agentDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conductor_agent_duration_seconds",
				Help:    "Duration of agent node executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
		sandboxExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_sandbox_executions_total",
				Help: "Total sandboxed code executions by outcome",
			},
			[]string{"outcome"},
		),
		backendRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_llm_requests_total",
				Help: "Total LLM completions by backend, agent role, and status",
			},
			[]string{"backend", "role", "status", "error_type"},
		),
		backendDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conductor_llm_request_duration_seconds",
				Help:    "Duration of LLM completions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "role"},
		),
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conductor_runs_total",
				Help: "Total orchestration runs by final status",
			},
			[]string{"status"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "conductor_run_duration_seconds",
				Help:    "End-to-end duration of orchestration runs in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
		),
	}
}

//nolint:gochecknoglobals // Single process-wide recorder; promauto forbids re-registration
var (
	defaultRecorder *Recorder
	defaultOnce     sync.Once
)

// Default returns the process-wide recorder, creating it on first use.
func Default() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewRecorder()
	})
	return defaultRecorder
}

// RecordRoutingDecision counts one router selection.
func (r *Recorder) RecordRoutingDecision(mode, taskType, backend string) {
	r.routingDecisions.WithLabelValues(mode, taskType, backend).Inc()
}

// RecordAgentTurn counts one agent node execution and its duration.
func (r *Recorder) RecordAgentTurn(agent, status string, duration time.Duration) {
	r.agentTurns.WithLabelValues(agent, status).Inc()
	r.agentDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordSandboxExecution counts one sandboxed code execution.
func (r *Recorder) RecordSandboxExecution(outcome string) {
	r.sandboxExecutions.WithLabelValues(outcome).Inc()
}

// RecordBackendRequest counts one LLM completion and its duration.
// errorType is empty for successful requests.
func (r *Recorder) RecordBackendRequest(backend, role string, err error, errorType string, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.backendRequests.WithLabelValues(backend, role, status, errorType).Inc()
	r.backendDuration.WithLabelValues(backend, role).Observe(duration.Seconds())
}

// RecordRun counts one completed orchestration run.
func (r *Recorder) RecordRun(status string, duration time.Duration) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration.Seconds())
}
