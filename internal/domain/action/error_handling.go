package action

// ErrorHandlingAction runs Try; if any step in Try reports StatusFailure,
// Catch runs next with Context.State["last_error"] set to the triggering
// failure's message, so a Catch step can reference what went wrong. Catch
// is never skipped because of an earlier failure strategy; within each
// branch, steps still run under the active STOP_ON_ERROR/CONTINUE_ON_ERROR
// strategy.
type ErrorHandlingAction struct {
	BaseAction
	Try   []Action
	Catch []Action
}

func newErrorHandlingAction(fields map[string]interface{}, f *Factory) (Action, error) {
	tryS, err := buildSteps(fields["try"], f)
	if err != nil {
		return nil, err
	}
	catchS, err := buildSteps(fields["catch"], f)
	if err != nil {
		return nil, err
	}
	return &ErrorHandlingAction{
		BaseAction: BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeErrorHandling},
		Try:        tryS,
		Catch:      catchS,
	}, nil
}

func (a *ErrorHandlingAction) Validate() error {
	if len(a.Try) == 0 {
		return &validationErr{field: "try", message: "error handling action requires at least one try step"}
	}
	if len(a.Catch) == 0 {
		return &validationErr{field: "catch", message: "error handling action requires at least one catch step"}
	}
	return nil
}

func (a *ErrorHandlingAction) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"type":  a.ActionType,
		"name":  a.ActionName,
		"try":   stepsToMaps(a.Try),
		"catch": stepsToMaps(a.Catch),
	}
}
