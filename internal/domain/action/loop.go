package action

// LoopAction runs Steps once per entry in Items, exposing the current item
// under Context.State[LoopVariable] ("loop_item" if unset). MaxIterations
// bounds a run regardless of len(Items), guarding against a runaway loop.
type LoopAction struct {
	BaseAction
	Items         []interface{}
	LoopVariable  string
	MaxIterations int
	Steps         []Action
}

const defaultMaxIterations = 1000

func newLoopAction(fields map[string]interface{}, f *Factory) (Action, error) {
	steps, err := buildSteps(fields["steps"], f)
	if err != nil {
		return nil, err
	}
	items, _ := fields["items"].([]interface{})
	loopVar := stringField(fields, "loop_variable")
	if loopVar == "" {
		loopVar = "loop_item"
	}
	maxIter := intField(fields, "max_iterations", defaultMaxIterations)
	return &LoopAction{
		BaseAction:    BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeLoop},
		Items:         items,
		LoopVariable:  loopVar,
		MaxIterations: maxIter,
		Steps:         steps,
	}, nil
}

func (a *LoopAction) Validate() error {
	if len(a.Steps) == 0 {
		return &validationErr{field: "steps", message: "loop action requires at least one step"}
	}
	if a.MaxIterations <= 0 {
		return &validationErr{field: "max_iterations", message: "max_iterations must be positive"}
	}
	return nil
}

func (a *LoopAction) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"type":           a.ActionType,
		"name":           a.ActionName,
		"items":          a.Items,
		"loop_variable":  a.LoopVariable,
		"max_iterations": a.MaxIterations,
		"steps":          stepsToMaps(a.Steps),
	}
}
