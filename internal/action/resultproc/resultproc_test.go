package resultproc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/autoqliq/autoqliq/internal/action/resultproc"
	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
)

func TestClassifyStatus_StoppedTakesPrecedence(t *testing.T) {
	results := []action.Result{action.Success("a", "Click", "")}
	stopErr := &apperr.WorkflowError{WorkflowName: "wf", Message: "stopped by request", StoppedByUser: true}
	assert.Equal(t, resultproc.StatusStopped, resultproc.ClassifyStatus(results, stopErr))
}

func TestClassifyStatus_VacuousRunIsSuccess(t *testing.T) {
	assert.Equal(t, resultproc.StatusSuccessAll, resultproc.ClassifyStatus(nil, nil))
}

func TestClassifyStatus_AllSuccess(t *testing.T) {
	results := []action.Result{action.Success("a", "Click", ""), action.Success("b", "Click", "")}
	assert.Equal(t, resultproc.StatusSuccessAll, resultproc.ClassifyStatus(results, nil))
}

func TestClassifyStatus_TerminalErrorFailsEvenWithOneSuccess(t *testing.T) {
	results := []action.Result{action.Success("a", "Click", ""), action.Failure("b", "Click", "not found", nil)}
	termErr := &apperr.ActionError{ActionName: "b", ActionType: "Click", Message: "not found"}
	assert.Equal(t, resultproc.StatusFailed, resultproc.ClassifyStatus(results, termErr))
}

func TestClassifyStatus_AllFailedWithoutTerminalErrorIsCompletedWithErrors(t *testing.T) {
	results := []action.Result{action.Failure("a", "Click", "x", nil), action.Failure("b", "Click", "y", nil)}
	assert.Equal(t, resultproc.StatusCompletedWithErrors, resultproc.ClassifyStatus(results, nil))
}

func TestClassifyStatus_Mixed(t *testing.T) {
	results := []action.Result{action.Success("a", "Click", ""), action.Failure("b", "Click", "y", nil)}
	assert.Equal(t, resultproc.StatusCompletedWithErrors, resultproc.ClassifyStatus(results, nil))
}

func TestBuildLog_RoundsDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	finish := start.Add(1500 * time.Millisecond)
	log := resultproc.BuildLog("wf", start, finish, nil, nil, action.StopOnError)
	assert.Equal(t, 1.5, log.DurationSeconds)
}

func TestBuildLog_TerminalErrorPopulatesErrorMessage(t *testing.T) {
	results := []action.Result{action.Failure("click", "Click", "not found", nil)}
	termErr := &apperr.ActionError{ActionName: "click", ActionType: "Click", Message: "not found"}
	log := resultproc.BuildLog("wf", time.Now(), time.Now(), results, termErr, action.StopOnError)
	assert.Equal(t, resultproc.StatusFailed, log.Status)
	assert.Contains(t, log.ErrorMessage, "click")
}

func TestLog_ToMap_RedactsNestedSensitiveData(t *testing.T) {
	results := []action.Result{
		{
			ActionName: "login",
			ActionType: "Type",
			Status:     action.StatusSuccess,
			Data: map[string]interface{}{
				"credential": map[string]interface{}{
					"password": "hunter2",
					"username": "alice",
				},
			},
		},
	}
	log := resultproc.BuildLog("wf", time.Now(), time.Now(), results, nil, action.StopOnError)
	m := log.ToMap()

	resultMaps := m["action_results"].([]interface{})
	resultMap := resultMaps[0].(map[string]interface{})
	data := resultMap["data"].(map[string]interface{})
	cred := data["credential"].(map[string]interface{})
	assert.Equal(t, "***REDACTED***", cred["password"])
	assert.Equal(t, "alice", cred["username"], "non-sensitive nested fields must survive redaction")
}

func TestLog_ToMap_WireShape(t *testing.T) {
	results := []action.Result{action.Success("a", "Click", "")}
	log := resultproc.BuildLog("wf", time.Now(), time.Now(), results, nil, action.ContinueOnError)
	m := log.ToMap()

	for _, key := range []string{
		"workflow_name", "start_time_iso", "end_time_iso", "duration_seconds",
		"final_status", "error_message", "summary", "error_strategy", "action_results",
	} {
		_, ok := m[key]
		assert.True(t, ok, "ToMap must include %q", key)
	}
	assert.Nil(t, m["error_message"])
	assert.Equal(t, "CONTINUE_ON_ERROR", m["error_strategy"])
}

func TestLog_ToMap_ErrorMessagePresentWhenTerminalErrorSet(t *testing.T) {
	results := []action.Result{action.Failure("a", "Click", "boom", nil)}
	termErr := errors.New("driver crashed")
	log := resultproc.BuildLog("wf", time.Now(), time.Now(), results, termErr, action.StopOnError)
	m := log.ToMap()
	assert.Equal(t, "driver crashed", m["error_message"])
}

func TestSummary_ReportsCounts(t *testing.T) {
	results := []action.Result{action.Success("a", "Click", ""), action.Failure("b", "Click", "y", nil)}
	log := resultproc.BuildLog("wf", time.Now(), time.Now(), results, nil, action.StopOnError)
	summary := resultproc.Summary(log)
	assert.Contains(t, summary, "1/2 steps succeeded")
}
