// Package executor runs the leaf action variants (Navigate, Click, Type,
// Wait, Screenshot) against a driver.Driver handle. Control-flow variants
// are not handled here — see internal/action/controlflow — keeping this
// package's dispatch switch to exactly the leaf action types.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
	"github.com/autoqliq/autoqliq/internal/driver"
)

// Closed set of error_type tags a failed Result's Data can carry. Every
// failure path in this package sets exactly one of these.
const (
	errTypeValidation   = "validation_error"
	errTypeActionError  = "action_error"
	errTypeElement      = "element_error"
	errTypeStaleElement = "stale_element"
	errTypeTimeout      = "timeout"
	errTypeWebDriver    = "webdriver_error"
	errTypeUnexpected   = "unexpected_error"
)

// Execute dispatches a single leaf action against drv. It never panics: a
// driver failure becomes a Failure Result wrapping an apperr.WebDriverError,
// never a bubbled-up Go error. Every action is validated before it runs, so
// a step built outside the registered factory (a hand-built template
// expansion, a deserialize path that skipped Factory.Create) still gets its
// invariants checked at the point it is actually run.
func Execute(ctx context.Context, ectx *action.Context, drv driver.Driver, act action.Action) action.Result {
	if err := act.Validate(); err != nil {
		return tagged(action.Failure(act.Name(), act.Type(), "validation failed", err), errTypeValidation)
	}

	switch a := act.(type) {
	case *action.NavigateAction:
		return execNavigate(ctx, ectx, drv, a)
	case *action.ClickAction:
		return execClick(ctx, drv, a)
	case *action.TypeAction:
		return execType(ctx, ectx, drv, a)
	case *action.WaitAction:
		return execWait(ctx, drv, a)
	case *action.ScreenshotAction:
		return execScreenshot(ctx, drv, a)
	default:
		return tagged(action.Failure(act.Name(), act.Type(), "unsupported leaf action type",
			fmt.Errorf("executor: no leaf handler for %T", act)), errTypeUnexpected)
	}
}

func execNavigate(ctx context.Context, ectx *action.Context, drv driver.Driver, a *action.NavigateAction) action.Result {
	url := substituteParams(a.URL, ectx)
	if err := drv.Navigate(ctx, url); err != nil {
		werr := &apperr.WebDriverError{Operation: "navigate", Message: url, Cause: err}
		return tagged(action.Failure(a.Name(), a.Type(), "navigation failed", werr), driverErrorType(err))
	}
	return action.Success(a.Name(), a.Type(), fmt.Sprintf("navigated to %s", url))
}

func execClick(ctx context.Context, drv driver.Driver, a *action.ClickAction) action.Result {
	if err := drv.Click(ctx, a.Selector); err != nil {
		werr := &apperr.WebDriverError{Operation: "click", Selector: a.Selector, Cause: err}
		return tagged(action.Failure(a.Name(), a.Type(), "click failed", werr), driverErrorType(err))
	}
	return action.Success(a.Name(), a.Type(), fmt.Sprintf("clicked %s", a.Selector))
}

func execType(ctx context.Context, ectx *action.Context, drv driver.Driver, a *action.TypeAction) action.Result {
	text, err := resolveCredentialPlaceholder(a.Text, ectx)
	if err != nil {
		return tagged(action.Failure(a.Name(), a.Type(), "credential resolution failed", err), errTypeActionError)
	}
	text = substituteParams(text, ectx)
	if err := drv.Type(ctx, a.Selector, text); err != nil {
		werr := &apperr.WebDriverError{Operation: "type", Selector: a.Selector, Cause: err}
		return tagged(action.Failure(a.Name(), a.Type(), "type failed", werr), driverErrorType(err))
	}
	return action.Success(a.Name(), a.Type(), fmt.Sprintf("typed into %s", a.Selector))
}

func execWait(ctx context.Context, drv driver.Driver, a *action.WaitAction) action.Result {
	if a.Selector != "" {
		timeout := durationFromSeconds(a.DurationSeconds)
		if err := drv.WaitFor(ctx, a.Selector, timeout); err != nil {
			werr := &apperr.WebDriverError{Operation: "wait_for", Selector: a.Selector, Cause: err}
			return tagged(action.Failure(a.Name(), a.Type(), "wait for selector failed", werr), driverErrorType(err))
		}
		return action.Success(a.Name(), a.Type(), fmt.Sprintf("waited for %s", a.Selector))
	}
	select {
	case <-ctx.Done():
		return tagged(action.Failure(a.Name(), a.Type(), "wait cancelled", ctx.Err()), errTypeTimeout)
	case <-timeAfterSeconds(a.DurationSeconds):
		return action.Success(a.Name(), a.Type(), fmt.Sprintf("waited %.1fs", a.DurationSeconds))
	}
}

func execScreenshot(ctx context.Context, drv driver.Driver, a *action.ScreenshotAction) action.Result {
	if err := drv.Screenshot(ctx, a.FilePath); err != nil {
		werr := &apperr.WebDriverError{Operation: "screenshot", Message: a.FilePath, Cause: err}
		return tagged(action.Failure(a.Name(), a.Type(), "screenshot failed", werr), driverErrorType(err))
	}
	return action.Success(a.Name(), a.Type(), fmt.Sprintf("saved screenshot to %s", a.FilePath))
}

// tagged stamps result.Data["error_type"] with kind, the only place in this
// package a Result's error_type is set, so every failure path in this
// package funnels through it.
func tagged(result action.Result, kind string) action.Result {
	if result.Data == nil {
		result.Data = map[string]interface{}{}
	}
	result.Data["error_type"] = kind
	return result
}

// driverErrorType classifies a driver fault into the closed error_type
// taxonomy by inspecting the underlying error text, since driver.Driver
// implementations (real and fake) report element/timeout faults as plain
// errors rather than a typed hierarchy of their own.
func driverErrorType(err error) string {
	if err == nil {
		return errTypeWebDriver
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errTypeTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "stale"):
		return errTypeStaleElement
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded"):
		return errTypeTimeout
	case strings.Contains(msg, "no such element") || strings.Contains(msg, "not found") || strings.Contains(msg, "not interactable") || strings.Contains(msg, "not visible"):
		return errTypeElement
	default:
		return errTypeWebDriver
	}
}

// resolveCredentialPlaceholder expands a single "{{credential:name.field}}"
// placeholder in text using ectx.Credentials. Text with no placeholder is
// returned unchanged.
func resolveCredentialPlaceholder(text string, ectx *action.Context) (string, error) {
	name, field, ok := parseCredentialPlaceholder(text)
	if !ok {
		return text, nil
	}
	if ectx.Credentials == nil {
		return "", &apperr.CredentialError{CredentialName: name, Message: "no credential resolver configured"}
	}
	fields, found := ectx.Credentials.Resolve(name)
	if !found {
		return "", &apperr.CredentialError{CredentialName: name, Message: "credential not found"}
	}
	value, ok := fields[field]
	if !ok {
		return "", &apperr.CredentialError{CredentialName: name, Message: fmt.Sprintf("field %q not present", field)}
	}
	return value, nil
}
