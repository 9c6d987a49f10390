package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoqliq/autoqliq/internal/action/resultproc"
	"github.com/autoqliq/autoqliq/internal/adapters/memory"
	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/driver"
	"github.com/autoqliq/autoqliq/internal/runner"
)

type fakeDriver struct {
	clickErr error
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error { return nil }
func (d *fakeDriver) Find(ctx context.Context, selector string) (driver.Element, error) {
	return nil, nil
}
func (d *fakeDriver) Click(ctx context.Context, selector string) error { return d.clickErr }
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

type fakeFactory struct {
	clickErr error
}

func (f *fakeFactory) Create(ctx context.Context, opts driver.Options) (driver.Driver, error) {
	return &fakeDriver{clickErr: f.clickErr}, nil
}

func newTestRunner(t *testing.T, clickErr error, strategy action.ErrorStrategy) (*runner.Runner, *memory.WorkflowStore) {
	t.Helper()
	workflows := memory.NewWorkflowStore()
	credentials := memory.NewCredentialStore()
	templates := memory.NewTemplateStore()
	lifecycle := driver.NewLifecycleManager(&fakeFactory{clickErr: clickErr}, driver.LifecycleConfig{}, nil)
	return runner.New(workflows, credentials, templates, lifecycle, strategy, nil), workflows
}

func clickStep(t *testing.T, name string) action.Action {
	t.Helper()
	f := action.NewFactory()
	act, err := f.Create(map[string]interface{}{"type": action.TypeClick, "name": name, "selector": "#x"})
	require.NoError(t, err)
	return act
}

func TestRun_UnknownWorkflowReturnsError(t *testing.T) {
	r, _ := newTestRunner(t, nil, action.StopOnError)
	_, err := r.Run(context.Background(), "missing", driver.Options{BrowserType: driver.BrowserChrome})
	assert.Error(t, err)
}

func TestRun_SucceedsAndReportsStatus(t *testing.T) {
	r, workflows := newTestRunner(t, nil, action.StopOnError)
	require.NoError(t, workflows.Create(context.Background(), "wf1"))
	require.NoError(t, workflows.Save(context.Background(), "wf1", []action.Action{clickStep(t, "s1")}))

	h, err := r.Run(context.Background(), "wf1", driver.Options{BrowserType: driver.BrowserChrome})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	log, waitErr := h.Wait(ctx)
	require.NoError(t, waitErr)
	assert.Equal(t, resultproc.StatusSuccessAll, log.Status)
}

func TestRun_DriverFailureReportsFailedStatus(t *testing.T) {
	r, workflows := newTestRunner(t, errors.New("click failed"), action.StopOnError)
	require.NoError(t, workflows.Create(context.Background(), "wf1"))
	require.NoError(t, workflows.Save(context.Background(), "wf1", []action.Action{clickStep(t, "s1")}))

	h, err := r.Run(context.Background(), "wf1", driver.Options{BrowserType: driver.BrowserChrome})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	log, waitErr := h.Wait(ctx)
	require.NoError(t, waitErr)
	assert.Equal(t, resultproc.StatusFailed, log.Status)
}

func TestRun_CancelStopsRun(t *testing.T) {
	r, workflows := newTestRunner(t, nil, action.StopOnError)
	require.NoError(t, workflows.Create(context.Background(), "wf1"))
	require.NoError(t, workflows.Save(context.Background(), "wf1", []action.Action{clickStep(t, "s1")}))

	h, err := r.Run(context.Background(), "wf1", driver.Options{BrowserType: driver.BrowserChrome})
	require.NoError(t, err)
	h.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, waitErr := h.Wait(ctx)
	require.NoError(t, waitErr)
	assert.Equal(t, "wf1", h.WorkflowName())
}
