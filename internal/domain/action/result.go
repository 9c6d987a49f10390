package action

// Status is the closed set of outcomes a single action execution can report.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result is what every action execution — leaf or control-flow — returns.
// It never panics or throws past its caller: a driver or handler failure is
// captured here as StatusFailure with Message/Cause set, never as a Go
// panic propagating out of Execute.
type Result struct {
	ActionName string
	ActionType string
	Status     Status
	Message    string
	Cause      error
	Data       map[string]interface{}
}

func Success(name, actionType, message string) Result {
	return Result{ActionName: name, ActionType: actionType, Status: StatusSuccess, Message: message}
}

func Failure(name, actionType, message string, cause error) Result {
	return Result{ActionName: name, ActionType: actionType, Status: StatusFailure, Message: message, Cause: cause}
}

func (r Result) IsSuccess() bool { return r.Status == StatusSuccess }

func (r Result) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"action_name": r.ActionName,
		"action_type": r.ActionType,
		"status":      string(r.Status),
		"message":     r.Message,
	}
	if r.Cause != nil {
		m["error"] = r.Cause.Error()
	}
	if r.Data != nil {
		m["data"] = r.Data
	}
	return m
}
