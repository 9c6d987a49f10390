// Package action holds the Action data model: the tagged sum of action
// variants a workflow is built from, their validation rules, and the
// registry that reconstructs them from persisted/serialized form. It does
// not execute actions — see internal/action/executor and
// internal/action/controlflow for that — keeping the data model free of
// driver and execution-manager dependencies.
package action

import "fmt"

// Action is the capability every action variant satisfies: identity,
// validation, and round-trip serialization. Execution is deliberately not
// part of this interface; see internal/action/execmanager.
type Action interface {
	Name() string
	Type() string
	Validate() error
	ToMap() map[string]interface{}
}

// BaseAction carries the fields every variant shares.
type BaseAction struct {
	ActionName string
	ActionType string
}

func (b BaseAction) Name() string { return b.ActionName }
func (b BaseAction) Type() string { return b.ActionType }

// Known action type strings, used both as the map discriminator for
// serialized actions and as the ActionFactory registry key.
const (
	TypeNavigate      = "Navigate"
	TypeClick         = "Click"
	TypeType          = "Type"
	TypeWait          = "Wait"
	TypeScreenshot    = "Screenshot"
	TypeConditional   = "Conditional"
	TypeLoop          = "Loop"
	TypeErrorHandling = "ErrorHandling"
	TypeTemplate      = "Template"
)

// Constructor builds an Action from its serialized field map. Registered
// constructors are the only thing that knows how to turn a persisted
// map[string]interface{} back into a typed Action. The Factory is passed
// back in so control-flow constructors (Conditional/Loop/ErrorHandling) can
// recursively build their nested step lists through the same registry.
type Constructor func(fields map[string]interface{}, f *Factory) (Action, error)

// Factory is the single source of truth mapping an action's Type string to
// the constructor that builds it — the Go analogue of the source's
// isinstance-based dispatch, resolved once through a registry instead of a
// chain of type checks.
type Factory struct {
	constructors map[string]Constructor
}

func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	f.Register(TypeNavigate, newNavigateAction)
	f.Register(TypeClick, newClickAction)
	f.Register(TypeType, newTypeAction)
	f.Register(TypeWait, newWaitAction)
	f.Register(TypeScreenshot, newScreenshotAction)
	f.Register(TypeConditional, newConditionalAction)
	f.Register(TypeLoop, newLoopAction)
	f.Register(TypeErrorHandling, newErrorHandlingAction)
	f.Register(TypeTemplate, newTemplateAction)
	return f
}

// Register adds or replaces the constructor for a type string. Exposed so a
// caller can extend the factory with custom action types without forking it.
func (f *Factory) Register(actionType string, ctor Constructor) {
	f.constructors[actionType] = ctor
}

// Create builds and validates an Action from its serialized fields.
func (f *Factory) Create(fields map[string]interface{}) (Action, error) {
	actionType, _ := fields["type"].(string)
	if actionType == "" {
		return nil, fmt.Errorf("action: missing required field %q", "type")
	}
	ctor, ok := f.constructors[actionType]
	if !ok {
		return nil, fmt.Errorf("action: unknown action type %q", actionType)
	}
	act, err := ctor(fields, f)
	if err != nil {
		return nil, err
	}
	if err := act.Validate(); err != nil {
		return nil, err
	}
	return act, nil
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]interface{}, key string, def int) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func float64Field(fields map[string]interface{}, key string, def float64) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}
