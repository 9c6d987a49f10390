// Package runner is the single workflow-running facade this module
// exposes: WorkflowRunner.Run. The source had three overlapping runner
// modules; here there is one, which loads a workflow, acquires exactly one
// driver handle for it, drives the execution manager over it, and produces
// a resultproc.Log — wiring C3/C4/C5/C6/C7/C8 together behind one call.
package runner

import (
	"context"
	"time"

	"github.com/autoqliq/autoqliq/internal/action/execmanager"
	"github.com/autoqliq/autoqliq/internal/action/resultproc"
	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
	"github.com/autoqliq/autoqliq/internal/driver"
	"github.com/autoqliq/autoqliq/internal/ports"
	"github.com/autoqliq/autoqliq/pkg/logger"
	"github.com/autoqliq/autoqliq/pkg/metrics"
)

// Runner is the WorkflowRunner: the caller-facing surface spec.md names.
type Runner struct {
	workflows     ports.WorkflowRepository
	credentials   ports.CredentialRepository
	templates     ports.TemplateRepository
	lifecycle     *driver.LifecycleManager
	errorStrategy action.ErrorStrategy
	log           logger.Logger
}

func New(workflows ports.WorkflowRepository, credentials ports.CredentialRepository, templates ports.TemplateRepository, lifecycle *driver.LifecycleManager, errorStrategy action.ErrorStrategy, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	if errorStrategy == "" {
		errorStrategy = action.StopOnError
	}
	return &Runner{
		workflows:     workflows,
		credentials:   credentials,
		templates:     templates,
		lifecycle:     lifecycle,
		errorStrategy: errorStrategy,
		log:           log,
	}
}

// Run loads workflowName, starts it on its own goroutine against a freshly
// acquired driver handle, and returns a Handle immediately. Each run gets
// its own driver handle — handles are never shared across runs — so two
// concurrent Run calls for the same or different workflows never contend
// for the same browser session.
func (r *Runner) Run(parent context.Context, workflowName string, opts driver.Options) (*Handle, error) {
	steps, err := r.workflows.Load(parent, workflowName)
	if err != nil {
		return nil, &apperr.RepositoryError{Operation: "load", Resource: workflowName, Cause: err}
	}
	if steps == nil {
		return nil, &apperr.WorkflowError{WorkflowName: workflowName, Message: "workflow not found"}
	}

	ctx, cancel := context.WithCancel(parent)
	h := newHandle(workflowName, cancel)

	go r.execute(ctx, workflowName, steps, opts, h)
	return h, nil
}

func (r *Runner) execute(ctx context.Context, workflowName string, steps []action.Action, opts driver.Options, h *Handle) {
	startedAt := time.Now()

	ectx := action.NewContext(workflowName, credentialResolver{ctx: ctx, repo: r.credentials})
	ectx.SetState(action.StateKeyErrorStrategy, r.errorStrategy)

	manager := execmanager.New(templateProvider{ctx: ctx, repo: r.templates}, r.log)

	var results []action.Result
	var stepsErr error
	runErr := r.lifecycle.WithDriver(ctx, opts, func(drv driver.Driver) error {
		results, stepsErr = manager.RunSteps(ctx, ectx, steps, drv)
		return stepsErr
	})

	terminalErr := stepsErr
	if terminalErr == nil && runErr != nil {
		terminalErr = &apperr.WorkflowError{
			WorkflowName: workflowName,
			Message:      "could not acquire or cleanly release a driver",
			Cause:        runErr,
		}
	}

	finishedAt := time.Now()
	runLog := resultproc.BuildLog(workflowName, startedAt, finishedAt, results, terminalErr, r.errorStrategy)

	metrics.RecordWorkflowRun(workflowName, string(runLog.Status), runLog.DurationSeconds)
	r.log.Info("workflow run finished",
		"workflow", workflowName, "status", string(runLog.Status), "duration_seconds", runLog.DurationSeconds)

	h.finish(runLog, nil)
}
