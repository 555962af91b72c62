// Package strings normalizes string lists read from configuration.
package strings

import (
	"strings"
)

// Dedupe trims each value and drops blanks and repeats. Order is preserved.
func Dedupe(values []string) []string {
	return dedupe(values, nil)
}

// DedupeLower is Dedupe with values folded to lower case first, for lists
// such as file extensions.
func DedupeLower(values []string) []string {
	return dedupe(values, strings.ToLower)
}

// DedupeUpper is Dedupe with values folded to upper case first, for lists
// such as ISO country codes.
func DedupeUpper(values []string) []string {
	return dedupe(values, strings.ToUpper)
}

func dedupe(values []string, fold func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold != nil {
			v = fold(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
