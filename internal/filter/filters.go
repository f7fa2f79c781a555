package filter

import (
	"strings"
	"time"
)

// Filters is the read-only filter set shared by every adapter in one run.
type Filters struct {
	LookbackDays    int
	LookbackHours   int
	IncludeKeywords []string
	ExcludeKeywords []string
	// PriorityAuthors are case-folded names that bypass the include
	// keyword requirement on adapters exposing author metadata.
	PriorityAuthors []string
	// Now is captured once per run so every adapter judges recency against
	// the same instant. Zero means time.Now at the call site.
	Now time.Time
}

// Window is the lookback duration; hour granularity wins when set.
func (f Filters) Window() time.Duration {
	if f.LookbackHours > 0 {
		return time.Duration(f.LookbackHours) * time.Hour
	}
	return Days(f.LookbackDays)
}

// Clock returns the run's "now".
func (f Filters) Clock() time.Time {
	if f.Now.IsZero() {
		return time.Now().UTC()
	}
	return f.Now
}

// Recent applies IsRecent with the run's window and clock.
func (f Filters) Recent(ts time.Time) bool {
	return IsRecent(ts, f.Window(), f.Clock())
}

// WithLookbackDays returns a copy using a source-specific window.
func (f Filters) WithLookbackDays(days int) Filters {
	f.LookbackDays = days
	f.LookbackHours = 0
	return f
}

// IsPriorityAuthor reports whether any of names is a priority author.
func (f Filters) IsPriorityAuthor(names []string) bool {
	if len(f.PriorityAuthors) == 0 {
		return false
	}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		for _, p := range f.PriorityAuthors {
			if n != "" && n == strings.ToLower(p) {
				return true
			}
		}
	}
	return false
}

// Effective resolves a source-level keyword override against the global
// list: a present override (even an empty one) wins, an absent one inherits.
func Effective(override *[]string, global []string) []string {
	if override != nil {
		return *override
	}
	return global
}

// Union merges two keyword lists, dropping case-insensitive duplicates and
// keeping first-seen order.
func Union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, kw := range append(append([]string(nil), a...), b...) {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, kw)
	}
	return out
}

// Keywords is the resolved include/exclude pair for one adapter.
type Keywords struct {
	Include []string
	Exclude []string
}

// Admit applies the include and exclude lists to text. bypassInclude lets
// priority-author items skip the include requirement; the exclude list
// always applies.
func (k Keywords) Admit(text string, bypassInclude bool) bool {
	if !bypassInclude && !AnyMatch(text, k.Include) {
		return false
	}
	return NoneMatch(text, k.Exclude)
}

// NormalizeAuthors lower-cases and trims author names, dropping blanks.
func NormalizeAuthors(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			out = append(out, n)
		}
	}
	return out
}
