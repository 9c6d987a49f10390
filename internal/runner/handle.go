package runner

import (
	"context"
	"sync"

	"github.com/autoqliq/autoqliq/internal/action/resultproc"
)

// Handle is the caller-facing token for one in-flight workflow run: it can
// be waited on for the final Log, or cancelled cooperatively. Runs execute
// on their own goroutine — sequential within a run, parallel across runs,
// per the concurrency model — and a Handle never outlives exactly one run.
type Handle struct {
	workflowName string
	done         chan struct{}
	cancel       context.CancelFunc

	mu     sync.Mutex
	result resultproc.Log
	err    error
}

func newHandle(workflowName string, cancel context.CancelFunc) *Handle {
	return &Handle{workflowName: workflowName, done: make(chan struct{}), cancel: cancel}
}

func (h *Handle) finish(log resultproc.Log, err error) {
	h.mu.Lock()
	h.result = log
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Cancel requests cooperative cancellation of the run. It does not block
// until the run stops; call Wait for that.
func (h *Handle) Cancel() {
	h.cancel()
}

// Wait blocks until the run finishes (successfully, with errors, or
// because it was stopped), or until ctx is done, whichever comes first.
func (h *Handle) Wait(ctx context.Context) (resultproc.Log, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.result, h.err
	case <-ctx.Done():
		return resultproc.Log{}, ctx.Err()
	}
}

// WorkflowName is the name of the workflow this Handle is running.
func (h *Handle) WorkflowName() string { return h.workflowName }
