package execmanager_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoqliq/autoqliq/internal/action/execmanager"
	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
	"github.com/autoqliq/autoqliq/internal/driver"
)

// fakeDriver is a minimal driver.Driver: every operation succeeds except
// Click on a selector named in failSelectors.
type fakeDriver struct {
	failSelectors map[string]bool
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error { return nil }
func (d *fakeDriver) Find(ctx context.Context, selector string) (driver.Element, error) {
	return nil, nil
}
func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	if d.failSelectors[selector] {
		return assert.AnError
	}
	return nil
}
func (d *fakeDriver) Type(ctx context.Context, selector, text string) error { return nil }
func (d *fakeDriver) IsPresent(ctx context.Context, selector string) (bool, error) {
	return true, nil
}
func (d *fakeDriver) Screenshot(ctx context.Context, filePath string) error { return nil }
func (d *fakeDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}
func (d *fakeDriver) ExecuteScript(ctx context.Context, script string, args ...interface{}) (interface{}, error) {
	return nil, nil
}
func (d *fakeDriver) CurrentURL(ctx context.Context) (string, error) { return "", nil }
func (d *fakeDriver) Title(ctx context.Context) (string, error)      { return "", nil }
func (d *fakeDriver) Quit(ctx context.Context) error                 { return nil }

func clickAction(t *testing.T, name, selector string) action.Action {
	t.Helper()
	f := action.NewFactory()
	act, err := f.Create(map[string]interface{}{"type": action.TypeClick, "name": name, "selector": selector})
	require.NoError(t, err)
	return act
}

func TestRunSteps_AllSucceed(t *testing.T) {
	m := execmanager.New(nil, nil)
	ectx := action.NewContext("wf", nil)
	drv := &fakeDriver{}
	steps := []action.Action{clickAction(t, "s1", "#a"), clickAction(t, "s2", "#b")}

	results, err := m.RunSteps(context.Background(), ectx, steps, drv)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].IsSuccess())
	assert.True(t, results[1].IsSuccess())
	assert.False(t, ectx.HadFailures())
}

func TestRunSteps_StopsOnFailureWithStopOnError(t *testing.T) {
	m := execmanager.New(nil, nil)
	ectx := action.NewContext("wf", nil)
	ectx.SetState(action.StateKeyErrorStrategy, action.StopOnError)
	drv := &fakeDriver{failSelectors: map[string]bool{"#a": true}}
	steps := []action.Action{clickAction(t, "s1", "#a"), clickAction(t, "s2", "#b")}

	results, err := m.RunSteps(context.Background(), ectx, steps, drv)
	require.Len(t, results, 1, "the second step must not run after the first fails under StopOnError")
	assert.False(t, results[0].IsSuccess())
	assert.True(t, ectx.HadFailures())
	var actErr *apperr.ActionError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, "s1", actErr.ActionName)
}

func TestRunSteps_ContinuesOnFailureWithContinueOnError(t *testing.T) {
	m := execmanager.New(nil, nil)
	ectx := action.NewContext("wf", nil)
	ectx.SetState(action.StateKeyErrorStrategy, action.ContinueOnError)
	drv := &fakeDriver{failSelectors: map[string]bool{"#a": true}}
	steps := []action.Action{clickAction(t, "s1", "#a"), clickAction(t, "s2", "#b")}

	results, err := m.RunSteps(context.Background(), ectx, steps, drv)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].IsSuccess())
	assert.True(t, results[1].IsSuccess())
}

func TestRunSteps_StopsOnCancellation(t *testing.T) {
	m := execmanager.New(nil, nil)
	ectx := action.NewContext("wf", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	drv := &fakeDriver{}
	steps := []action.Action{clickAction(t, "s1", "#a")}

	results, err := m.RunSteps(ctx, ectx, steps, drv)
	require.Len(t, results, 0)
	var wfErr *apperr.WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.True(t, wfErr.StoppedByUser)
	assert.Contains(t, wfErr.Error(), "stopped by request")
}

// unknownAction satisfies action.Action but matches none of the factory's
// registered types; it is not a control-flow variant, so dispatch hands it
// to executor.Execute and exercises that function's default branch.
type unknownAction struct {
	action.BaseAction
}

func (unknownAction) Validate() error                { return nil }
func (unknownAction) ToMap() map[string]interface{} { return nil }

func TestRunSteps_UnknownActionTypeFailsWithoutCrashing(t *testing.T) {
	m := execmanager.New(nil, nil)
	ectx := action.NewContext("wf", nil)
	drv := &fakeDriver{}

	step := unknownAction{BaseAction: action.BaseAction{ActionName: "weird", ActionType: "Weird"}}
	results, err := m.RunSteps(context.Background(), ectx, []action.Action{step}, drv)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].IsSuccess())
}
