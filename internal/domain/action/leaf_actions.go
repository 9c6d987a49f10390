package action

import "fmt"

// NavigateAction loads a URL in the driver's current window.
type NavigateAction struct {
	BaseAction
	URL string
}

func newNavigateAction(fields map[string]interface{}, _ *Factory) (Action, error) {
	return &NavigateAction{
		BaseAction: BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeNavigate},
		URL:        stringField(fields, "url"),
	}, nil
}

func (a *NavigateAction) Validate() error {
	if a.URL == "" {
		return &validationErr{field: "url", message: "navigate action requires a url"}
	}
	return nil
}

func (a *NavigateAction) ToMap() map[string]interface{} {
	return map[string]interface{}{"type": a.ActionType, "name": a.ActionName, "url": a.URL}
}

// ClickAction clicks the first element matching Selector.
type ClickAction struct {
	BaseAction
	Selector string
}

func newClickAction(fields map[string]interface{}, _ *Factory) (Action, error) {
	return &ClickAction{
		BaseAction: BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeClick},
		Selector:   stringField(fields, "selector"),
	}, nil
}

func (a *ClickAction) Validate() error {
	if a.Selector == "" {
		return &validationErr{field: "selector", message: "click action requires a selector"}
	}
	return nil
}

func (a *ClickAction) ToMap() map[string]interface{} {
	return map[string]interface{}{"type": a.ActionType, "name": a.ActionName, "selector": a.Selector}
}

// TypeAction types Text into the element matching Selector. Text may embed
// a "{{credential:name.field}}" placeholder, resolved against the run's
// CredentialResolver at execution time, never at validation time (a
// credential may not exist yet when a workflow is merely being edited).
type TypeAction struct {
	BaseAction
	Selector string
	Text     string
}

func newTypeAction(fields map[string]interface{}, _ *Factory) (Action, error) {
	return &TypeAction{
		BaseAction: BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeType},
		Selector:   stringField(fields, "selector"),
		Text:       stringField(fields, "text"),
	}, nil
}

func (a *TypeAction) Validate() error {
	if a.Selector == "" {
		return &validationErr{field: "selector", message: "type action requires a selector"}
	}
	return nil
}

func (a *TypeAction) ToMap() map[string]interface{} {
	return map[string]interface{}{"type": a.ActionType, "name": a.ActionName, "selector": a.Selector, "text": a.Text}
}

// WaitAction pauses DurationSeconds, or until Selector becomes present when
// Selector is set (an explicit wait rather than a fixed sleep).
type WaitAction struct {
	BaseAction
	DurationSeconds float64
	Selector        string
}

func newWaitAction(fields map[string]interface{}, _ *Factory) (Action, error) {
	return &WaitAction{
		BaseAction:      BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeWait},
		DurationSeconds: float64Field(fields, "duration_seconds", 0),
		Selector:        stringField(fields, "selector"),
	}, nil
}

func (a *WaitAction) Validate() error {
	if a.Selector == "" && a.DurationSeconds <= 0 {
		return &validationErr{field: "duration_seconds", message: "wait action requires a positive duration or a selector"}
	}
	return nil
}

func (a *WaitAction) ToMap() map[string]interface{} {
	m := map[string]interface{}{"type": a.ActionType, "name": a.ActionName, "duration_seconds": a.DurationSeconds}
	if a.Selector != "" {
		m["selector"] = a.Selector
	}
	return m
}

// ScreenshotAction captures the current page to FilePath.
type ScreenshotAction struct {
	BaseAction
	FilePath string
}

func newScreenshotAction(fields map[string]interface{}, _ *Factory) (Action, error) {
	return &ScreenshotAction{
		BaseAction: BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeScreenshot},
		FilePath:   stringField(fields, "file_path"),
	}, nil
}

func (a *ScreenshotAction) Validate() error {
	if a.FilePath == "" {
		return &validationErr{field: "file_path", message: "screenshot action requires a file_path"}
	}
	return nil
}

func (a *ScreenshotAction) ToMap() map[string]interface{} {
	return map[string]interface{}{"type": a.ActionType, "name": a.ActionName, "file_path": a.FilePath}
}

// validationErr is a lightweight local error so the data model package does
// not need to import internal/domain/apperr back (apperr stays a leaf
// package). Factory.Create returns it as is, and internal/action/executor
// carries it unchanged as a failed Result's Cause (tagged error_type
// "validation_error"); nothing converts it into apperr.ValidationError.
type validationErr struct {
	field   string
	message string
}

func (e *validationErr) Error() string { return fmt.Sprintf("%s: %s", e.field, e.message) }

func (e *validationErr) Field() string { return e.field }
