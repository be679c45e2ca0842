// Package strings holds small string-slice helpers shared across the
// services.
package strings

import (
	"strings"
)

// DedupeAndTrim trims whitespace from every element and drops blanks and
// duplicates, keeping first-seen order. Suffix lists built from directory
// answers stay in the order the directory reported them.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
