package action

// ErrorStrategy is the workflow-level policy for what happens after a step
// reports StatusFailure. Fixed at exactly two values — no third "retry"
// strategy is introduced here.
type ErrorStrategy string

const (
	StopOnError     ErrorStrategy = "STOP_ON_ERROR"
	ContinueOnError ErrorStrategy = "CONTINUE_ON_ERROR"
)

// StateKeyErrorStrategy is where the active ErrorStrategy is recorded in a
// run's Context.State, so nested control-flow handlers (which only see the
// Context, not the execution manager) can consult it without a separate
// plumbing path.
const StateKeyErrorStrategy = "error_strategy"
