package controlflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoqliq/autoqliq/internal/action/controlflow"
	"github.com/autoqliq/autoqliq/internal/domain/action"
)

func newCtx(state map[string]interface{}) *action.Context {
	ctx := action.NewContext("wf", nil)
	for k, v := range state {
		ctx.SetState(k, v)
	}
	return ctx
}

func TestEvaluate_SimpleEquals(t *testing.T) {
	ctx := newCtx(map[string]interface{}{"status": "ok"})
	ok, err := controlflow.Evaluate(
		[]action.Condition{{Field: "status", Operator: "equals", Value: "ok"}}, "and", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_NestedPath(t *testing.T) {
	ctx := newCtx(map[string]interface{}{
		"user": map[string]interface{}{
			"roles": []interface{}{"admin", "editor"},
		},
	})
	ok, err := controlflow.Evaluate(
		[]action.Condition{{Field: "user.roles", Operator: "contains", Value: "editor"}}, "and", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_IndexedPath(t *testing.T) {
	ctx := newCtx(map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "first"},
			map[string]interface{}{"name": "second"},
		},
	})
	ok, err := controlflow.Evaluate(
		[]action.Condition{{Field: "items.[1].name", Operator: "equals", Value: "second"}}, "and", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_OrCombinator(t *testing.T) {
	ctx := newCtx(map[string]interface{}{"status": "failed"})
	ok, err := controlflow.Evaluate([]action.Condition{
		{Field: "status", Operator: "equals", Value: "ok"},
		{Field: "status", Operator: "equals", Value: "failed"},
	}, "or", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_AndCombinatorShortCircuitsFalse(t *testing.T) {
	ctx := newCtx(map[string]interface{}{"status": "failed"})
	ok, err := controlflow.Evaluate([]action.Condition{
		{Field: "status", Operator: "equals", Value: "ok"},
		{Field: "status", Operator: "equals", Value: "failed"},
	}, "and", ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_NumericComparison(t *testing.T) {
	ctx := newCtx(map[string]interface{}{"count": 5.0})
	ok, err := controlflow.Evaluate(
		[]action.Condition{{Field: "count", Operator: "greaterThan", Value: 3.0}}, "and", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_IsEmptyAndIsNull(t *testing.T) {
	ctx := newCtx(map[string]interface{}{"name": ""})
	ok, err := controlflow.Evaluate(
		[]action.Condition{{Field: "name", Operator: "isEmpty"}}, "and", ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = controlflow.Evaluate(
		[]action.Condition{{Field: "missing", Operator: "isNull"}}, "and", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_Regex(t *testing.T) {
	ctx := newCtx(map[string]interface{}{"email": "a@example.com"})
	ok, err := controlflow.Evaluate(
		[]action.Condition{{Field: "email", Operator: "regex", Value: `^[^@]+@example\.com$`}}, "and", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluate_UnknownOperator(t *testing.T) {
	ctx := newCtx(nil)
	_, err := controlflow.Evaluate(
		[]action.Condition{{Field: "x", Operator: "bogus"}}, "and", ctx)
	assert.Error(t, err)
}

func TestEvaluate_UnknownCombinator(t *testing.T) {
	ctx := newCtx(map[string]interface{}{"x": "y"})
	_, err := controlflow.Evaluate(
		[]action.Condition{{Field: "x", Operator: "equals", Value: "y"}}, "xor", ctx)
	assert.Error(t, err)
}

func TestEvaluate_NoConditions(t *testing.T) {
	ctx := newCtx(nil)
	_, err := controlflow.Evaluate(nil, "and", ctx)
	assert.Error(t, err)
}
