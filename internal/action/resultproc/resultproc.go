// Package resultproc turns a run's accumulated action.Results into the
// artifacts a caller actually wants: timing metrics, an overall status
// classification, a redacted/serializable log, and human-readable summary
// and detailed reports.
package resultproc

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
)

// Status is the overall outcome of a workflow run, distinct from
// action.Status which is per-step.
type Status string

const (
	StatusSuccessAll          Status = "SUCCESS"
	StatusCompletedWithErrors Status = "COMPLETED_WITH_ERRORS"
	StatusFailed              Status = "FAILED"
	StatusStopped             Status = "STOPPED"
)

// Log is the wire-shaped record of one workflow run (the ExecutionLog).
type Log struct {
	WorkflowName    string
	StartedAt       time.Time
	FinishedAt      time.Time
	DurationSeconds float64
	Status          Status
	ErrorMessage    string
	ErrorStrategy   action.ErrorStrategy
	Results         []action.Result
}

// BuildLog computes the time metrics and overall status for a completed
// (or terminated) run and assembles the Log. terminalErr is whatever ended
// the run before every step ran to completion — nil when every step was
// allowed to run and the run simply finished — and is what ClassifyStatus
// consults to distinguish STOPPED/FAILED from the ordinary per-step
// outcomes.
func BuildLog(workflowName string, startedAt, finishedAt time.Time, results []action.Result, terminalErr error, strategy action.ErrorStrategy) Log {
	status, errMsg := classify(results, terminalErr)
	return Log{
		WorkflowName:    workflowName,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		DurationSeconds: roundSeconds(finishedAt.Sub(startedAt)),
		Status:          status,
		ErrorMessage:    errMsg,
		ErrorStrategy:   strategy,
		Results:         results,
	}
}

// ClassifyStatus derives the overall run status the way BuildLog does,
// without building a full Log — handy for callers that already have a
// terminal error in hand and just need the verdict.
func ClassifyStatus(results []action.Result, terminalErr error) Status {
	status, _ := classify(results, terminalErr)
	return status
}

// classify is the status/error_message algorithm: a terminal error, when
// present, always decides the outcome — STOPPED if it was a user-requested
// cancellation, FAILED otherwise (naming the action that raised it, when
// known). Only in the absence of a terminal error do the per-step results
// decide between SUCCESS and COMPLETED_WITH_ERRORS.
func classify(results []action.Result, terminalErr error) (Status, string) {
	if terminalErr != nil {
		var wfErr *apperr.WorkflowError
		if errors.As(terminalErr, &wfErr) && wfErr.StoppedByUser {
			return StatusStopped, terminalErr.Error()
		}
		var actErr *apperr.ActionError
		if errors.As(terminalErr, &actErr) {
			return StatusFailed, fmt.Sprintf("action %q failed: %s", actErr.ActionName, actErr.Message)
		}
		return StatusFailed, terminalErr.Error()
	}
	if len(results) == 0 {
		return StatusSuccessAll, ""
	}
	for _, r := range results {
		if !r.IsSuccess() {
			return StatusCompletedWithErrors, ""
		}
	}
	return StatusSuccessAll, ""
}

// roundSeconds rounds d to 2 decimal places of wall-clock seconds, per the
// ExecutionLog's duration_seconds contract.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

// ToMap renders Log as the literal ExecutionLog wire shape, with every
// sensitive field fully redacted regardless of nesting depth.
func (l Log) ToMap() map[string]interface{} {
	results := make([]interface{}, len(l.Results))
	for i, r := range l.Results {
		results[i] = r.ToMap()
	}
	var errMsg interface{}
	if l.ErrorMessage != "" {
		errMsg = l.ErrorMessage
	}
	m := map[string]interface{}{
		"workflow_name":    l.WorkflowName,
		"start_time_iso":   l.StartedAt.Format(time.RFC3339),
		"end_time_iso":     l.FinishedAt.Format(time.RFC3339),
		"duration_seconds": l.DurationSeconds,
		"final_status":     string(l.Status),
		"error_message":    errMsg,
		"summary":          Summary(l),
		"error_strategy":   string(l.ErrorStrategy),
		"action_results":   results,
	}
	return RedactSensitive(m).(map[string]interface{})
}

// Summary renders a concise one-line human summary, e.g.
// "workflow \"login\" COMPLETED_WITH_ERRORS: 4/5 steps succeeded in 2.31s".
func Summary(l Log) string {
	total := len(l.Results)
	succeeded := 0
	for _, r := range l.Results {
		if r.IsSuccess() {
			succeeded++
		}
	}
	return fmt.Sprintf("workflow %q %s: %d/%d steps succeeded in %.2fs",
		l.WorkflowName, l.Status, succeeded, total, l.DurationSeconds)
}

// DetailedReport renders a per-step ✓/✗ report with each step's message.
func DetailedReport(l Log) string {
	report := Summary(l) + "\n"
	for i, r := range l.Results {
		mark := "✓"
		if !r.IsSuccess() {
			mark = "✗"
		}
		report += fmt.Sprintf("  %s Step %d [%s] %s: %s\n", mark, i+1, r.ActionType, r.ActionName, r.Message)
	}
	return report
}
