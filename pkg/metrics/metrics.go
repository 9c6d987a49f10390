package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run and step metrics, recorded by internal/runner, internal/action/execmanager
// and internal/scheduler.
var (
	WorkflowRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoqliq_workflow_runs_total",
			Help: "Total number of workflow runs by final status",
		},
		[]string{"workflow_name", "status"},
	)

	WorkflowRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoqliq_workflow_run_duration_seconds",
			Help:    "Workflow run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"workflow_name"},
	)

	ActionExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoqliq_action_executions_total",
			Help: "Total number of individual action executions by type and status",
		},
		[]string{"action_type", "status"},
	)

	ScheduledJobFiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoqliq_scheduled_job_fires_total",
			Help: "Total number of scheduled job fires by outcome",
		},
		[]string{"job_id", "outcome"},
	)

	ScheduledJobMisfiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoqliq_scheduled_job_misfires_total",
			Help: "Total number of scheduled job fires skipped because they were late",
		},
		[]string{"job_id"},
	)
)

// RecordWorkflowRun records a completed workflow run's final status and
// duration.
func RecordWorkflowRun(workflowName, status string, durationSeconds float64) {
	WorkflowRunsTotal.WithLabelValues(workflowName, status).Inc()
	WorkflowRunDuration.WithLabelValues(workflowName).Observe(durationSeconds)
}

// RecordAction records one action execution's outcome.
func RecordAction(actionType, status string) {
	ActionExecutionsTotal.WithLabelValues(actionType, status).Inc()
}

// RecordJobFire records a scheduled job's fire outcome ("started",
// "skipped_already_running", "throttled").
func RecordJobFire(jobID, outcome string) {
	ScheduledJobFiresTotal.WithLabelValues(jobID, outcome).Inc()
}

// RecordJobMisfire records a scheduled job fire skipped for being late.
func RecordJobMisfire(jobID string) {
	ScheduledJobMisfiresTotal.WithLabelValues(jobID).Inc()
}
