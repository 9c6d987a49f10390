package action

import (
	"strings"
	"sync"
)

// Context is the mutable state threaded through one workflow run: the
// accumulated results, a small bag of state flags control-flow handlers
// read and write (e.g. had_action_failures), and the nested log-path prefix
// stack used to render "Step 3 > Cond > Step 1 > Loop [iter 2]" style
// identifiers for nested control flow. It is safe for concurrent read/write
// because a loop body or error handler may be invoked from a goroutine that
// outlives the step that spawned it during cancellation teardown.
type Context struct {
	mu           sync.RWMutex
	WorkflowName string
	StepIndex    int
	Results      []Result
	State        map[string]interface{}
	prefixStack  []string
	templateStack []string
	Credentials  CredentialResolver
}

// CredentialResolver resolves a named credential's fields for Type actions
// that reference "{{credential:name.field}}" placeholders. Defined here, not
// in internal/ports, so the action package stays free of any dependency on
// the persistence layer while still being injectable.
type CredentialResolver interface {
	Resolve(name string) (map[string]string, bool)
}

func NewContext(workflowName string, creds CredentialResolver) *Context {
	return &Context{
		WorkflowName: workflowName,
		State:        make(map[string]interface{}),
		Credentials:  creds,
	}
}

// PushPrefix and PopPrefix bracket a nested control-flow scope; LogPath
// renders the current nesting as a single human-readable string.
func (c *Context) PushPrefix(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixStack = append(c.prefixStack, label)
}

func (c *Context) PopPrefix() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.prefixStack) > 0 {
		c.prefixStack = c.prefixStack[:len(c.prefixStack)-1]
	}
}

func (c *Context) LogPath(stepLabel string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	parts := append(append([]string{}, c.prefixStack...), stepLabel)
	return strings.Join(parts, " > ")
}

func (c *Context) RecordResult(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Results = append(c.Results, r)
	if r.Status == StatusFailure {
		c.State["had_action_failures"] = true
	}
}

func (c *Context) SetState(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.State[key] = value
}

func (c *Context) GetState(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.State[key]
	return v, ok
}

func (c *Context) HadFailures() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, _ := c.State["had_action_failures"].(bool)
	return v
}

// EnterTemplate pushes templateName onto the in-progress expansion stack,
// reporting false if it is already on the stack — a direct or indirect
// template cycle. Callers must call the returned exit func exactly once,
// regardless of whether expansion succeeds, to pop the stack again.
func (c *Context) EnterTemplate(templateName string) (ok bool, exit func()) {
	c.mu.Lock()
	for _, name := range c.templateStack {
		if name == templateName {
			c.mu.Unlock()
			return false, func() {}
		}
	}
	c.templateStack = append(c.templateStack, templateName)
	c.mu.Unlock()
	return true, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.templateStack) > 0 {
			c.templateStack = c.templateStack[:len(c.templateStack)-1]
		}
	}
}

func (c *Context) SnapshotResults() []Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Result, len(c.Results))
	copy(out, c.Results)
	return out
}
