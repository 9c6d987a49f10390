package controlflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoqliq/autoqliq/internal/action/controlflow"
	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
	"github.com/autoqliq/autoqliq/internal/driver"
)

// fakeRunner runs each step by calling a stub result function, recording
// every step it was asked to run so tests can assert on call shape without
// needing a real driver or execution manager. It mimics the real manager's
// strategy handling just enough for these tests: a failing step under
// StopOnError raises a terminal error and stops the list early.
type fakeRunner struct {
	resultFor func(act action.Action) action.Result
	seen      []action.Action
}

func (f *fakeRunner) RunSteps(ctx context.Context, ectx *action.Context, steps []action.Action, drv driver.Driver) ([]action.Result, error) {
	results := make([]action.Result, 0, len(steps))
	strategy, _ := ectx.GetState(action.StateKeyErrorStrategy)
	for _, step := range steps {
		f.seen = append(f.seen, step)
		result := f.resultFor(step)
		results = append(results, result)
		ectx.RecordResult(result)
		if !result.IsSuccess() && strategy == action.StopOnError {
			return results, &apperr.ActionError{ActionName: step.Name(), ActionType: step.Type(), Message: result.Message}
		}
	}
	return results, nil
}

func alwaysSucceeds(act action.Action) action.Result {
	return action.Success(act.Name(), act.Type(), "ok")
}

func alwaysFails(act action.Action) action.Result {
	return action.Failure(act.Name(), act.Type(), "boom", nil)
}

func clickStep(name string) action.Action {
	f := action.NewFactory()
	act, err := f.Create(map[string]interface{}{"type": action.TypeClick, "name": name, "selector": "#x"})
	if err != nil {
		panic(err)
	}
	return act
}

func TestExecuteConditional_RunsThenWhenMatched(t *testing.T) {
	f := action.NewFactory()
	cond, err := f.Create(map[string]interface{}{
		"type": action.TypeConditional,
		"name": "branch",
		"conditions": []interface{}{
			map[string]interface{}{"field": "status", "operator": "equals", "value": "ok"},
		},
		"then": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "t", "selector": "#a"}},
		"else": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "e", "selector": "#b"}},
	})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	ectx.SetState("status", "ok")
	runner := &fakeRunner{resultFor: alwaysSucceeds}

	result, _ := controlflow.Execute(context.Background(), ectx, nil, cond, runner, nil)
	assert.True(t, result.IsSuccess())
	require.Len(t, runner.seen, 1)
	assert.Equal(t, "t", runner.seen[0].Name())
}

func TestExecuteConditional_RunsElseWhenNotMatched(t *testing.T) {
	f := action.NewFactory()
	cond, err := f.Create(map[string]interface{}{
		"type": action.TypeConditional,
		"name": "branch",
		"conditions": []interface{}{
			map[string]interface{}{"field": "status", "operator": "equals", "value": "ok"},
		},
		"then": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "t", "selector": "#a"}},
		"else": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "e", "selector": "#b"}},
	})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	ectx.SetState("status", "not-ok")
	runner := &fakeRunner{resultFor: alwaysSucceeds}

	result, _ := controlflow.Execute(context.Background(), ectx, nil, cond, runner, nil)
	assert.True(t, result.IsSuccess())
	require.Len(t, runner.seen, 1)
	assert.Equal(t, "e", runner.seen[0].Name())
}

func TestExecuteLoop_StopsEarlyOnFailureWithStopOnError(t *testing.T) {
	f := action.NewFactory()
	loop, err := f.Create(map[string]interface{}{
		"type":  action.TypeLoop,
		"name":  "loop",
		"items": []interface{}{"a", "b", "c"},
		"steps": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "c", "selector": "#x"}},
	})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	ectx.SetState(action.StateKeyErrorStrategy, action.StopOnError)
	runner := &fakeRunner{resultFor: alwaysFails}

	result, _ := controlflow.Execute(context.Background(), ectx, nil, loop, runner, nil)
	assert.False(t, result.IsSuccess())
	assert.Len(t, runner.seen, 1, "loop must stop after the first failing iteration under StopOnError")
}

func TestExecuteLoop_ContinuesOnFailureWithContinueOnError(t *testing.T) {
	f := action.NewFactory()
	loop, err := f.Create(map[string]interface{}{
		"type":  action.TypeLoop,
		"name":  "loop",
		"items": []interface{}{"a", "b", "c"},
		"steps": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "c", "selector": "#x"}},
	})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	ectx.SetState(action.StateKeyErrorStrategy, action.ContinueOnError)
	runner := &fakeRunner{resultFor: alwaysFails}

	_, _ = controlflow.Execute(context.Background(), ectx, nil, loop, runner, nil)
	assert.Len(t, runner.seen, 3, "loop must run every iteration under ContinueOnError")
}

func TestExecuteLoop_RespectsMaxIterations(t *testing.T) {
	f := action.NewFactory()
	loop, err := f.Create(map[string]interface{}{
		"type":           action.TypeLoop,
		"name":           "loop",
		"items":          []interface{}{"a", "b", "c", "d"},
		"max_iterations": 2.0,
		"steps":          []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "c", "selector": "#x"}},
	})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	runner := &fakeRunner{resultFor: alwaysSucceeds}

	_, _ = controlflow.Execute(context.Background(), ectx, nil, loop, runner, nil)
	assert.Len(t, runner.seen, 2)
}

func TestExecuteErrorHandling_SkipsCatchOnTrySuccess(t *testing.T) {
	f := action.NewFactory()
	eh, err := f.Create(map[string]interface{}{
		"type": action.TypeErrorHandling,
		"name": "eh",
		"try":  []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "t", "selector": "#a"}},
		"catch": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "c", "selector": "#b"}},
	})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	runner := &fakeRunner{resultFor: alwaysSucceeds}

	result, _ := controlflow.Execute(context.Background(), ectx, nil, eh, runner, nil)
	assert.True(t, result.IsSuccess())
	require.Len(t, runner.seen, 1)
	assert.Equal(t, "t", runner.seen[0].Name())
}

func TestExecuteErrorHandling_RunsCatchOnTryFailureAndSetsLastError(t *testing.T) {
	f := action.NewFactory()
	eh, err := f.Create(map[string]interface{}{
		"type":  action.TypeErrorHandling,
		"name":  "eh",
		"try":   []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "t", "selector": "#a"}},
		"catch": []interface{}{map[string]interface{}{"type": action.TypeClick, "name": "c", "selector": "#b"}},
	})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	calls := 0
	runner := &fakeRunner{resultFor: func(act action.Action) action.Result {
		calls++
		if calls == 1 {
			return alwaysFails(act)
		}
		return alwaysSucceeds(act)
	}}

	result, _ := controlflow.Execute(context.Background(), ectx, nil, eh, runner, nil)
	assert.True(t, result.IsSuccess(), "catch succeeding after a failed try must report success")
	require.Len(t, runner.seen, 2)
	lastErr, ok := ectx.GetState("last_error")
	require.True(t, ok)
	assert.Equal(t, "boom", lastErr)
}

type stubTemplates struct {
	steps []action.Action
	found bool
	err   error
}

func (s stubTemplates) Template(name string) ([]action.Action, bool, error) {
	return s.steps, s.found, s.err
}

func TestExecuteTemplate_ExpandsAndDetectsCycle(t *testing.T) {
	f := action.NewFactory()
	tmpl, err := f.Create(map[string]interface{}{"type": action.TypeTemplate, "name": "t", "template_name": "login"})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	runner := &fakeRunner{resultFor: alwaysSucceeds}
	provider := stubTemplates{steps: []action.Action{clickStep("step1")}, found: true}

	result, _ := controlflow.Execute(context.Background(), ectx, nil, tmpl, runner, provider)
	assert.True(t, result.IsSuccess())
	require.Len(t, runner.seen, 1)

	// Simulate re-entering the same template from within its own expansion.
	ok, exit := ectx.EnterTemplate("login")
	require.True(t, ok)
	defer exit()
	result2, _ := controlflow.Execute(context.Background(), ectx, nil, tmpl, runner, provider)
	assert.False(t, result2.IsSuccess(), "re-entering a template already on the expansion stack must fail")
}

func TestExecuteTemplate_NotFound(t *testing.T) {
	f := action.NewFactory()
	tmpl, err := f.Create(map[string]interface{}{"type": action.TypeTemplate, "name": "t", "template_name": "missing"})
	require.NoError(t, err)

	ectx := action.NewContext("wf", nil)
	runner := &fakeRunner{resultFor: alwaysSucceeds}
	provider := stubTemplates{found: false}

	result, _ := controlflow.Execute(context.Background(), ectx, nil, tmpl, runner, provider)
	assert.False(t, result.IsSuccess())
}
