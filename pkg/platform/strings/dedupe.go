// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// CollapseSpace trims s and replaces every run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DedupeFold collapses whitespace in each element, drops empty elements and
// removes case-insensitive duplicates. The first spelling wins and order is
// preserved.
//
//	DedupeFold([]string{" Ecrã  partido", "ecrã partido", "", "Bateria"})
//	// []string{"Ecrã partido", "Bateria"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		clean := CollapseSpace(v)
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, clean)
	}
	return result
}
