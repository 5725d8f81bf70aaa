package utils

import "strings"

// FirstString returns the first non-empty string held in a JSON decoded value,
// which may be a string or a list of strings.
func FirstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := FirstString(item); s != "" {
				return s
			}
		}
	}
	return ""
}
