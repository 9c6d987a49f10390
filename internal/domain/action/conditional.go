package action

// Condition is one field/operator/value test, resolved against the run's
// Context.State via a dot-path field lookup. The operator set mirrors the
// teacher's own condition-node evaluator so "what predicate language does
// Conditional support" is answered by a set already proven in that corpus
// rather than invented here.
type Condition struct {
	Field    string
	Operator string
	Value    interface{}
}

// ConditionalAction branches into Then or Else depending on Conditions
// combined with Combinator ("and" — the default — or "or").
type ConditionalAction struct {
	BaseAction
	Conditions []Condition
	Combinator string
	Then       []Action
	Else       []Action
}

func newConditionalAction(fields map[string]interface{}, f *Factory) (Action, error) {
	conditions, err := parseConditions(fields["conditions"])
	if err != nil {
		return nil, err
	}
	thenSteps, err := buildSteps(fields["then"], f)
	if err != nil {
		return nil, err
	}
	elseSteps, err := buildSteps(fields["else"], f)
	if err != nil {
		return nil, err
	}
	combinator := stringField(fields, "combinator")
	if combinator == "" {
		combinator = "and"
	}
	return &ConditionalAction{
		BaseAction: BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeConditional},
		Conditions: conditions,
		Combinator: combinator,
		Then:       thenSteps,
		Else:       elseSteps,
	}, nil
}

func (a *ConditionalAction) Validate() error {
	if len(a.Conditions) == 0 {
		return &validationErr{field: "conditions", message: "conditional action requires at least one condition"}
	}
	if a.Combinator != "and" && a.Combinator != "or" {
		return &validationErr{field: "combinator", message: "combinator must be \"and\" or \"or\""}
	}
	if len(a.Then) == 0 {
		return &validationErr{field: "then", message: "conditional action requires at least one then step"}
	}
	return nil
}

func (a *ConditionalAction) ToMap() map[string]interface{} {
	conditions := make([]interface{}, len(a.Conditions))
	for i, c := range a.Conditions {
		conditions[i] = map[string]interface{}{"field": c.Field, "operator": c.Operator, "value": c.Value}
	}
	return map[string]interface{}{
		"type":       a.ActionType,
		"name":       a.ActionName,
		"conditions": conditions,
		"combinator": a.Combinator,
		"then":       stepsToMaps(a.Then),
		"else":       stepsToMaps(a.Else),
	}
}

func parseConditions(raw interface{}) ([]Condition, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, nil
	}
	conditions := make([]Condition, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		conditions = append(conditions, Condition{
			Field:    stringField(m, "field"),
			Operator: stringField(m, "operator"),
			Value:    m["value"],
		})
	}
	return conditions, nil
}

func buildSteps(raw interface{}, f *Factory) ([]Action, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, nil
	}
	steps := make([]Action, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		act, err := f.Create(m)
		if err != nil {
			return nil, err
		}
		steps = append(steps, act)
	}
	return steps, nil
}

func stepsToMaps(steps []Action) []interface{} {
	out := make([]interface{}, len(steps))
	for i, s := range steps {
		out[i] = s.ToMap()
	}
	return out
}
