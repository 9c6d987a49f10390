package resultproc

import "strings"

const redactedPlaceholder = "***REDACTED***"

// sensitiveKeyFragments are matched case-insensitively against a map key;
// any match masks that key's value when it is a scalar leaf (a map or slice
// value is recursed into instead).
var sensitiveKeyFragments = []string{"password", "token", "secret", "key", "credential", "auth"}

// RedactSensitive walks v recursively — through every nested map and slice,
// not just the top level — masking any leaf value whose key matches a
// sensitive fragment. This is a deliberate behavioral change from the
// original Python filter, which only inspected one level deep; recursing
// fully closes the gap where a sensitive field nested inside a result's
// "data" map would otherwise leak unredacted into a log or report. A
// sensitive key whose value is itself a map or slice is recursed into
// rather than masked outright, so a wrapper key like "credential" doesn't
// blank out sibling fields (e.g. a non-secret "username" alongside
// "password") that happen to live under it.
func RedactSensitive(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			switch val.(type) {
			case map[string]interface{}, []interface{}:
				out[k] = RedactSensitive(val)
			default:
				if isSensitiveKey(k) {
					out[k] = redactedPlaceholder
				} else {
					out[k] = val
				}
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = RedactSensitive(val)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
