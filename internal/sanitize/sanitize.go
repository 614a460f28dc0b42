// Package sanitize scrubs untrusted request input before it reaches
// validation or storage: markup is stripped from string fields, and map keys
// that could be interpreted as query operators are dropped.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Field strips all HTML markup from s and trims surrounding whitespace.
// Script content is removed entirely, not escaped.
func Field(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// Keys walks a decoded JSON value and drops any map key that begins with '$'
// or contains '.'. Such keys have operator meaning to document stores and
// must never reach a query. The input is not modified; maps and slices are
// rebuilt.
func Keys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
				continue
			}
			out[k] = Keys(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Keys(item)
		}
		return out
	default:
		return v
	}
}
