package controlflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
	"github.com/autoqliq/autoqliq/internal/driver"
)

// Runner executes a nested step list the same way the top-level execution
// manager does — same cancellation checks, same log-path prefixing, same
// error-strategy handling — so control flow never runs a second, divergent
// copy of that logic. The returned error is the terminal error (if any)
// that stopped the nested list early; non-nil exactly when the same list,
// run as a top-level workflow, would have ended the whole run.
type Runner interface {
	RunSteps(ctx context.Context, ectx *action.Context, steps []action.Action, drv driver.Driver) ([]action.Result, error)
}

// TemplateProvider resolves a template name to the step list it expands
// into.
type TemplateProvider interface {
	Template(name string) ([]action.Action, bool, error)
}

// IsControlFlow reports whether act is one of the four variants this
// package handles.
func IsControlFlow(act action.Action) bool {
	switch act.(type) {
	case *action.ConditionalAction, *action.LoopAction, *action.ErrorHandlingAction, *action.TemplateAction:
		return true
	default:
		return false
	}
}

// Execute dispatches one of the four control-flow variants. Callers should
// only invoke this after confirming IsControlFlow(act). The returned error
// is a terminal error that must bubble all the way out to the top-level
// runner, not be treated as just another failed Result.
func Execute(ctx context.Context, ectx *action.Context, drv driver.Driver, act action.Action, runner Runner, templates TemplateProvider) (action.Result, error) {
	switch a := act.(type) {
	case *action.ConditionalAction:
		return executeConditional(ctx, ectx, drv, a, runner)
	case *action.LoopAction:
		return executeLoop(ctx, ectx, drv, a, runner)
	case *action.ErrorHandlingAction:
		return executeErrorHandling(ctx, ectx, drv, a, runner)
	case *action.TemplateAction:
		return executeTemplate(ctx, ectx, drv, a, runner, templates)
	default:
		return action.Failure(act.Name(), act.Type(), "not a control-flow action", fmt.Errorf("controlflow: %T", act)), nil
	}
}

func executeConditional(ctx context.Context, ectx *action.Context, drv driver.Driver, a *action.ConditionalAction, runner Runner) (action.Result, error) {
	matched, err := Evaluate(a.Conditions, a.Combinator, ectx)
	if err != nil {
		return action.Failure(a.Name(), a.Type(), "condition evaluation failed", err), nil
	}
	branch, label := a.Then, "Cond(then)"
	if !matched {
		branch, label = a.Else, "Cond(else)"
	}
	if len(branch) == 0 {
		return action.Success(a.Name(), a.Type(), fmt.Sprintf("condition %s, no steps to run", boolLabel(matched))), nil
	}
	ectx.PushPrefix(label)
	defer ectx.PopPrefix()
	results, runErr := runner.RunSteps(ctx, ectx, branch, drv)
	return summarize(a, fmt.Sprintf("condition %s", boolLabel(matched)), results), runErr
}

func executeLoop(ctx context.Context, ectx *action.Context, drv driver.Driver, a *action.LoopAction, runner Runner) (action.Result, error) {
	total := len(a.Items)
	if total > a.MaxIterations {
		total = a.MaxIterations
	}
	allResults := make([]action.Result, 0, total*len(a.Steps))
	for i := 0; i < total; i++ {
		ectx.SetState(a.LoopVariable, a.Items[i])
		ectx.PushPrefix(fmt.Sprintf("Loop[iter %d]", i+1))
		results, runErr := runner.RunSteps(ctx, ectx, a.Steps, drv)
		ectx.PopPrefix()
		allResults = append(allResults, results...)
		if runErr != nil {
			return summarize(a, fmt.Sprintf("ran %d of %d iterations", i+1, len(a.Items)), allResults), runErr
		}
	}
	return summarize(a, fmt.Sprintf("ran %d of %d iterations", total, len(a.Items)), allResults), nil
}

// executeErrorHandling runs Try, and — unless Try was interrupted by
// cancellation rather than an ordinary step failure — runs Catch whenever
// Try had any failing step, regardless of error strategy: that is the
// whole point of a Catch branch. A Catch branch that itself hits a
// terminal error (cancellation, or a failure under StopOnError) has
// nothing left to hand the failure to, so that error bubbles out.
func executeErrorHandling(ctx context.Context, ectx *action.Context, drv driver.Driver, a *action.ErrorHandlingAction, runner Runner) (action.Result, error) {
	ectx.PushPrefix("Try")
	tryResults, tryErr := runner.RunSteps(ctx, ectx, a.Try, drv)
	ectx.PopPrefix()
	if isCancellation(tryErr) {
		return action.Failure(a.Name(), a.Type(), "try interrupted by cancellation", tryErr), tryErr
	}
	if !anyFailed(tryResults) {
		return summarize(a, "try succeeded, catch skipped", tryResults), nil
	}
	ectx.SetState("last_error", firstFailureMessage(tryResults))
	ectx.PushPrefix("Catch")
	catchResults, catchErr := runner.RunSteps(ctx, ectx, a.Catch, drv)
	ectx.PopPrefix()
	if isCancellation(catchErr) {
		return action.Failure(a.Name(), a.Type(), "catch interrupted by cancellation", catchErr), catchErr
	}
	if anyFailed(catchResults) {
		return action.Failure(a.Name(), a.Type(), "try failed and catch also failed",
			&apperr.ActionError{ActionName: a.Name(), ActionType: a.Type(), Message: "catch branch failed"}), catchErr
	}
	return summarize(a, "try failed, catch handled it", catchResults), nil
}

// isCancellation reports whether err is the terminal error RunSteps raises
// for a user-requested cancellation — the one kind of terminal error a
// Catch branch must not swallow.
func isCancellation(err error) bool {
	var wfErr *apperr.WorkflowError
	return errors.As(err, &wfErr) && wfErr.StoppedByUser
}

func executeTemplate(ctx context.Context, ectx *action.Context, drv driver.Driver, a *action.TemplateAction, runner Runner, templates TemplateProvider) (action.Result, error) {
	if templates == nil {
		return action.Failure(a.Name(), a.Type(), "no template provider configured", fmt.Errorf("controlflow: template provider is nil")), nil
	}
	ok, exit := ectx.EnterTemplate(a.TemplateName)
	if !ok {
		return action.Failure(a.Name(), a.Type(), "template cycle detected",
			fmt.Errorf("controlflow: template %q is already being expanded in this call chain", a.TemplateName)), nil
	}
	defer exit()

	steps, found, err := templates.Template(a.TemplateName)
	if err != nil {
		return action.Failure(a.Name(), a.Type(), "template lookup failed", err), nil
	}
	if !found {
		return action.Failure(a.Name(), a.Type(), "template not found",
			fmt.Errorf("controlflow: template %q not registered", a.TemplateName)), nil
	}
	for key, value := range a.Parameters {
		ectx.SetState("param_"+key, value)
	}
	ectx.PushPrefix(fmt.Sprintf("Template(%s)", a.TemplateName))
	defer ectx.PopPrefix()
	results, runErr := runner.RunSteps(ctx, ectx, steps, drv)
	return summarize(a, fmt.Sprintf("expanded template %s", a.TemplateName), results), runErr
}

func anyFailed(results []action.Result) bool {
	for _, r := range results {
		if !r.IsSuccess() {
			return true
		}
	}
	return false
}

func firstFailureMessage(results []action.Result) string {
	for _, r := range results {
		if !r.IsSuccess() {
			return r.Message
		}
	}
	return ""
}

func summarize(act action.Action, message string, results []action.Result) action.Result {
	if anyFailed(results) {
		return action.Failure(act.Name(), act.Type(), message, fmt.Errorf("controlflow: one or more nested steps failed"))
	}
	return action.Success(act.Name(), act.Type(), message)
}

func boolLabel(b bool) string {
	if b {
		return "matched"
	}
	return "did not match"
}
