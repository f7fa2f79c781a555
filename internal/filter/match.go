// Package filter holds the keyword and recency predicates shared by every
// source adapter, plus the global filter set threaded through a run.
package filter

import "strings"

// AnyMatch reports whether any keyword occurs in text, case-insensitively.
// An empty keyword list places no restriction and always matches.
func AnyMatch(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	hay := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(hay, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// NoneMatch reports whether no keyword occurs in text, case-insensitively.
// It is vacuously true for an empty keyword list.
func NoneMatch(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	hay := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(hay, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

// Haystack joins the fields keyword matching runs over.
func Haystack(parts ...string) string {
	return strings.Join(parts, "\n")
}
