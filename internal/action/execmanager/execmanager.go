// Package execmanager is the one execution manager this module has: it
// runs a step list against a driver, consulting the active ErrorStrategy on
// every reported failure and checking for cancellation at every step
// boundary. Control-flow actions recurse back into it through the
// controlflow.Runner interface, so a Conditional nested inside a Loop
// nested inside a Template all go through this same loop — never a second,
// divergent copy, collapsing what the source spread across three runner
// modules into one.
package execmanager

import (
	"context"
	"fmt"

	"github.com/autoqliq/autoqliq/internal/action/controlflow"
	"github.com/autoqliq/autoqliq/internal/action/executor"
	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
	"github.com/autoqliq/autoqliq/internal/driver"
	"github.com/autoqliq/autoqliq/pkg/logger"
	"github.com/autoqliq/autoqliq/pkg/metrics"
)

// Manager implements controlflow.Runner; it is the only type in this
// module with a RunSteps method, by design.
type Manager struct {
	templates controlflow.TemplateProvider
	log       logger.Logger
}

func New(templates controlflow.TemplateProvider, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{templates: templates, log: log}
}

// RunSteps runs steps in order against drv, recording each Result onto
// ectx. It stops early on context cancellation (the cooperative
// cancellation point checked between every step), reporting that as a
// terminal *apperr.WorkflowError with StoppedByUser set. On a reported
// failure it stops early, raising a terminal *apperr.ActionError, only when
// ectx's ErrorStrategy is StopOnError — CONTINUE_ON_ERROR keeps going
// through the remaining steps and never returns a terminal error of its
// own. The returned error is nil exactly when every step ran to
// completion, whatever each one reported.
func (m *Manager) RunSteps(ctx context.Context, ectx *action.Context, steps []action.Action, drv driver.Driver) ([]action.Result, error) {
	results := make([]action.Result, 0, len(steps))
	strategy, _ := ectx.GetState(action.StateKeyErrorStrategy)

	for i, step := range steps {
		select {
		case <-ctx.Done():
			return results, &apperr.WorkflowError{
				WorkflowName:  ectx.WorkflowName,
				Message:       "stopped by request",
				StoppedByUser: true,
				Cause:         ctx.Err(),
			}
		default:
		}

		label := ectx.LogPath(fmt.Sprintf("Step %d (%s)", i+1, step.Name()))
		result, err := m.dispatch(ctx, ectx, drv, step)
		ectx.RecordResult(result)
		results = append(results, result)
		metrics.RecordAction(step.Type(), string(result.Status))
		m.log.Debug("step completed", "path", label, "status", string(result.Status))

		if err != nil {
			// A nested control-flow branch already raised a terminal error
			// under its own RunSteps call; let it keep bubbling.
			return results, err
		}

		if !result.IsSuccess() {
			if strategy == action.StopOnError {
				m.log.Warn("stopping run after failure", "path", label, "strategy", string(action.StopOnError))
				return results, &apperr.ActionError{
					ActionName: step.Name(),
					ActionType: step.Type(),
					Message:    result.Message,
					Cause:      result.Cause,
				}
			}
			m.log.Warn("continuing run after failure", "path", label, "strategy", string(action.ContinueOnError))
		}
	}
	return results, nil
}

// dispatch recovers from a panicking handler so one misbehaving action
// never aborts the whole run with a crashed goroutine — it is reported as
// a failed Result instead, matching the "driver release happens on every
// exit path" guarantee the lifecycle manager provides around the run. A
// panic is itself just a failure subject to the active strategy, not a
// terminal error on its own, so the error return here is nil whenever a
// handler neither panics nor delegates to control flow.
func (m *Manager) dispatch(ctx context.Context, ectx *action.Context, drv driver.Driver, step action.Action) (result action.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = action.Failure(step.Name(), step.Type(), "action handler panicked", fmt.Errorf("%v", r))
			result.Data = map[string]interface{}{"error_type": "unexpected_error"}
			err = nil
		}
	}()
	if controlflow.IsControlFlow(step) {
		return controlflow.Execute(ctx, ectx, drv, step, m, m.templates)
	}
	return executor.Execute(ctx, ectx, drv, step), nil
}
