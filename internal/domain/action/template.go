package action

// TemplateAction expands into the named template's step list at execution
// time via a controlflow.TemplateProvider (the template body is not carried in
// the action itself — it is looked up, so one template edit updates every
// workflow that references it). Parameters are bound into the execution
// context under "param_"+name and substituted into the expanded steps'
// NavigateAction.URL and TypeAction.Text fields wherever a "{{param:name}}"
// placeholder appears, matching the existing "{{credential:name.field}}"
// convention.
type TemplateAction struct {
	BaseAction
	TemplateName string
	Parameters   map[string]string
}

func newTemplateAction(fields map[string]interface{}, _ *Factory) (Action, error) {
	params := map[string]string{}
	if raw, ok := fields["parameters"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				params[k] = s
			}
		}
	}
	return &TemplateAction{
		BaseAction:   BaseAction{ActionName: stringField(fields, "name"), ActionType: TypeTemplate},
		TemplateName: stringField(fields, "template_name"),
		Parameters:   params,
	}, nil
}

func (a *TemplateAction) Validate() error {
	if a.TemplateName == "" {
		return &validationErr{field: "template_name", message: "template action requires a template_name"}
	}
	return nil
}

func (a *TemplateAction) ToMap() map[string]interface{} {
	params := make(map[string]interface{}, len(a.Parameters))
	for k, v := range a.Parameters {
		params[k] = v
	}
	return map[string]interface{}{
		"type":          a.ActionType,
		"name":          a.ActionName,
		"template_name": a.TemplateName,
		"parameters":    params,
	}
}
