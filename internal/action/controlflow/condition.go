// Package controlflow implements the Conditional, Loop, ErrorHandling, and
// Template action variants. Each recurses back into whatever ran the
// top-level step list through the Runner interface, rather than importing
// internal/action/execmanager directly — avoiding an import cycle while
// keeping the recursion genuinely going through the one execution manager
// in the program, never a second copy of the step-running loop.
package controlflow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/autoqliq/autoqliq/internal/domain/action"
)

// Evaluate reports whether cond combined by combinator ("and"/"or") holds
// against ectx's state. Supported operators: equals, notEquals, contains,
// notContains, startsWith, endsWith, greaterThan, lessThan,
// greaterThanOrEqual, lessThanOrEqual, isEmpty, isNotEmpty, isNull,
// isNotNull, regex, in, notIn, isTrue, isFalse.
func Evaluate(conditions []action.Condition, combinator string, ectx *action.Context) (bool, error) {
	if len(conditions) == 0 {
		return false, fmt.Errorf("controlflow: no conditions to evaluate")
	}
	results := make([]bool, len(conditions))
	for i, cond := range conditions {
		ok, err := evaluateOne(cond, ectx)
		if err != nil {
			return false, err
		}
		results[i] = ok
	}
	switch combinator {
	case "", "and":
		for _, r := range results {
			if !r {
				return false, nil
			}
		}
		return true, nil
	case "or":
		for _, r := range results {
			if r {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("controlflow: unknown combinator %q", combinator)
	}
}

func evaluateOne(cond action.Condition, ectx *action.Context) (bool, error) {
	actual := getNestedValue(ectx, cond.Field)
	switch cond.Operator {
	case "equals":
		return compareEquals(actual, cond.Value), nil
	case "notEquals":
		return !compareEquals(actual, cond.Value), nil
	case "contains":
		return compareContains(actual, cond.Value), nil
	case "notContains":
		return !compareContains(actual, cond.Value), nil
	case "startsWith":
		return strings.HasPrefix(toString(actual), toString(cond.Value)), nil
	case "endsWith":
		return strings.HasSuffix(toString(actual), toString(cond.Value)), nil
	case "greaterThan":
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a > b })
	case "lessThan":
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a < b })
	case "greaterThanOrEqual":
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a >= b })
	case "lessThanOrEqual":
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a <= b })
	case "isEmpty":
		return isEmpty(actual), nil
	case "isNotEmpty":
		return !isEmpty(actual), nil
	case "isNull":
		return actual == nil, nil
	case "isNotNull":
		return actual != nil, nil
	case "regex":
		return compareRegex(actual, cond.Value)
	case "in":
		return compareIn(actual, cond.Value), nil
	case "notIn":
		return !compareIn(actual, cond.Value), nil
	case "isTrue":
		b, _ := actual.(bool)
		return b, nil
	case "isFalse":
		b, ok := actual.(bool)
		return ok && !b, nil
	default:
		return false, fmt.Errorf("controlflow: unknown operator %q", cond.Operator)
	}
}

// getNestedValue resolves a dot-path ("user.profile.age") and "[index]"
// path segments against the run's state bag.
func getNestedValue(ectx *action.Context, path string) interface{} {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	head, ok := ectx.GetState(segments[0])
	if !ok {
		return nil
	}
	current := head
	for _, seg := range segments[1:] {
		current = descend(current, seg)
		if current == nil {
			return nil
		}
	}
	return current
}

func descend(current interface{}, segment string) interface{} {
	if idx, isIndex := parseIndex(segment); isIndex {
		if list, ok := current.([]interface{}); ok && idx >= 0 && idx < len(list) {
			return list[idx]
		}
		return nil
	}
	if m, ok := current.(map[string]interface{}); ok {
		return m[segment]
	}
	return nil
}

func parseIndex(segment string) (int, bool) {
	if !strings.HasPrefix(segment, "[") || !strings.HasSuffix(segment, "]") {
		return 0, false
	}
	n, err := strconv.Atoi(segment[1 : len(segment)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func compareEquals(actual, expected interface{}) bool {
	return toString(actual) == toString(expected)
}

func compareContains(actual, expected interface{}) bool {
	if list, ok := actual.([]interface{}); ok {
		for _, v := range list {
			if toString(v) == toString(expected) {
				return true
			}
		}
		return false
	}
	return strings.Contains(toString(actual), toString(expected))
}

func compareIn(actual, expected interface{}) bool {
	list, ok := expected.([]interface{})
	if !ok {
		return false
	}
	for _, v := range list {
		if toString(v) == toString(actual) {
			return true
		}
	}
	return false
}

func compareRegex(actual, pattern interface{}) (bool, error) {
	re, err := regexp.Compile(toString(pattern))
	if err != nil {
		return false, fmt.Errorf("controlflow: invalid regex %q: %w", toString(pattern), err)
	}
	return re.MatchString(toString(actual)), nil
}

func compareNumeric(actual, expected interface{}, cmp func(a, b float64) bool) (bool, error) {
	a, ok := toFloat64(actual)
	if !ok {
		return false, fmt.Errorf("controlflow: value %v is not numeric", actual)
	}
	b, ok := toFloat64(expected)
	if !ok {
		return false, fmt.Errorf("controlflow: value %v is not numeric", expected)
	}
	return cmp(a, b), nil
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	default:
		return false
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
