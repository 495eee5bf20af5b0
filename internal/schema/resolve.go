package schema

import "strings"

// ResolveColumn maps a caller-supplied property name to a declared column
// name. Resolution order: exact match, case-insensitive match, then the
// title aliases ("title"/"name" resolve to whichever column is typed title).
// Unresolvable names pass through unchanged so a genuinely wrong name
// surfaces as an upstream property-not-found error instead of vanishing.
func ResolveColumn(columns map[string]Column, input string) string {
	if _, ok := columns[input]; ok {
		return input
	}

	lowered := strings.ToLower(input)
	for name := range columns {
		if strings.ToLower(name) == lowered {
			return name
		}
	}

	switch lowered {
	case "title", "name":
		for name, col := range columns {
			if col.Type == TypeTitle {
				return name
			}
		}
	}

	return input
}
