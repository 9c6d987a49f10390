// Package scheduler runs workflows on cron/interval/date triggers, firing
// each job at most once per occurrence and skipping (never catching up on)
// a fire that arrives too late, with at most one concurrent execution per
// job id.
package scheduler

import "time"

// TriggerKind is the closed set of ways a job's fire times are computed.
type TriggerKind string

const (
	TriggerCron     TriggerKind = "cron"
	TriggerInterval TriggerKind = "interval"
	TriggerDate     TriggerKind = "date"
)

// Trigger describes when a job should fire. Exactly one of Cron, Interval,
// or At is meaningful, selected by Kind.
type Trigger struct {
	Kind     TriggerKind
	Cron     string        // 5-field standard or 6-field (with seconds) robfig/cron expression, TriggerCron
	Interval time.Duration // TriggerInterval
	At       time.Time     // TriggerDate: fires exactly once
}

// Status is a job's lifecycle state within the registry.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// Job is a scheduled workflow run, as returned by ListJobs — a snapshot,
// not a live handle into the registry.
type Job struct {
	ID           string
	WorkflowName string
	Trigger      Trigger
	Status       Status
	NextRunAt    time.Time
	LastRunAt    time.Time
	LastStatus   string
}

// misfireGrace is how late a fire may arrive and still run; past this, the
// fire is skipped entirely rather than run late or queued to catch up. At
// most once, skip if late — fixed, not one of several configurable
// policies.
const misfireGrace = 10 * time.Second
