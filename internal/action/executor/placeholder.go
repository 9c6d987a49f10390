package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/autoqliq/autoqliq/internal/domain/action"
)

const credentialPrefix = "{{credential:"
const paramPrefix = "{{param:"
const placeholderSuffix = "}}"

// parseCredentialPlaceholder recognizes a text value that is entirely a
// "{{credential:name.field}}" reference and splits it into name/field.
func parseCredentialPlaceholder(text string) (name, field string, ok bool) {
	if !strings.HasPrefix(text, credentialPrefix) || !strings.HasSuffix(text, placeholderSuffix) {
		return "", "", false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, credentialPrefix), placeholderSuffix)
	dot := strings.LastIndex(inner, ".")
	if dot < 0 {
		return "", "", false
	}
	return inner[:dot], inner[dot+1:], true
}

// substituteParams replaces every "{{param:name}}" occurrence in text with
// the value a TemplateAction bound for name, stored on ectx under
// "param_"+name by controlflow.executeTemplate. Unlike the credential
// placeholder, a param reference may appear inline alongside other text
// (e.g. a URL built from a template parameter), so this does a plain
// string replacement rather than requiring the whole field to be one
// placeholder. A name with no bound parameter is left as literal text,
// since a template may be expanded directly (no enclosing Template action)
// with no parameters to bind.
func substituteParams(text string, ectx *action.Context) string {
	if ectx == nil || !strings.Contains(text, paramPrefix) {
		return text
	}
	searchFrom := 0
	for {
		start := strings.Index(text[searchFrom:], paramPrefix)
		if start < 0 {
			return text
		}
		start += searchFrom
		end := strings.Index(text[start:], placeholderSuffix)
		if end < 0 {
			return text
		}
		end += start
		name := text[start+len(paramPrefix) : end]
		value, ok := ectx.GetState("param_" + name)
		if !ok {
			searchFrom = end + len(placeholderSuffix)
			continue
		}
		replacement := fmt.Sprintf("%v", value)
		text = text[:start] + replacement + text[end+len(placeholderSuffix):]
		searchFrom = start + len(replacement)
	}
}

func durationFromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func timeAfterSeconds(seconds float64) <-chan time.Time {
	return time.After(durationFromSeconds(seconds))
}
