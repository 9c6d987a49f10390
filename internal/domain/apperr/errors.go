// Package apperr defines the closed set of error kinds the engine raises.
// Each kind is a concrete Go type rather than a shared struct distinguished
// by a code field, so a type switch (not string comparison) drives recovery
// decisions throughout internal/action and internal/runner.
package apperr

import "fmt"

// ValidationError reports a structurally invalid Action or Workflow
// definition, caught before any driver call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ActionError wraps a failure raised while executing a single action.
// ActionName/ActionType identify which step in a workflow failed; Cause is
// the underlying error (often a WebDriverError).
type ActionError struct {
	ActionName string
	ActionType string
	Message    string
	Cause      error
}

func (e *ActionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("action %q (%s): %s: %v", e.ActionName, e.ActionType, e.Message, e.Cause)
	}
	return fmt.Sprintf("action %q (%s): %s", e.ActionName, e.ActionType, e.Message)
}

func (e *ActionError) Unwrap() error { return e.Cause }

// WorkflowError reports a failure at the workflow level: a workflow that
// could not be loaded, validated, or that was deliberately stopped by the
// caller. StoppedByUser lets callers distinguish user-requested cancellation
// from every other workflow-level failure without string matching.
type WorkflowError struct {
	WorkflowName  string
	Message       string
	StoppedByUser bool
	Cause         error
}

func (e *WorkflowError) Error() string {
	if e.WorkflowName == "" {
		return e.Message
	}
	return fmt.Sprintf("workflow %q: %s", e.WorkflowName, e.Message)
}

func (e *WorkflowError) Unwrap() error { return e.Cause }

// WebDriverError wraps a failure returned by the browser driver backend
// (element not found, navigation timeout, session crashed, ...). DriverType
// names the backend involved (e.g. "chrome", "firefox") whenever the
// failure is tied to acquiring or driving a specific browser session.
type WebDriverError struct {
	Operation  string
	Selector   string
	Message    string
	DriverType string
	Cause      error
}

func (e *WebDriverError) Error() string {
	prefix := "webdriver"
	if e.DriverType != "" {
		prefix = fmt.Sprintf("webdriver[%s]", e.DriverType)
	}
	switch {
	case e.Selector != "" && e.Cause != nil:
		return fmt.Sprintf("%s %s %q: %s: %v", prefix, e.Operation, e.Selector, e.Message, e.Cause)
	case e.Selector != "":
		return fmt.Sprintf("%s %s %q: %s", prefix, e.Operation, e.Selector, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s %s: %s: %v", prefix, e.Operation, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s %s: %s", prefix, e.Operation, e.Message)
	}
}

func (e *WebDriverError) Unwrap() error { return e.Cause }

// CredentialError reports a missing or malformed credential reference.
type CredentialError struct {
	CredentialName string
	Message        string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential %q: %s", e.CredentialName, e.Message)
}

// ConfigError reports invalid or missing configuration.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return e.Message
	}
	return fmt.Sprintf("config %q: %s", e.Key, e.Message)
}

// RepositoryError wraps a failure from a workflow/credential persistence
// adapter (not found, I/O failure, serialization failure).
type RepositoryError struct {
	Operation string
	Resource  string
	Cause     error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s %q: %v", e.Operation, e.Resource, e.Cause)
}

func (e *RepositoryError) Unwrap() error { return e.Cause }
