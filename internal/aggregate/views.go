package aggregate

import (
	"time"

	"github.com/Tomjg14/research-newsfeed/internal/item"
)

// Combined flattens buckets into one newest-first list, deduped by
// (source, id).
func Combined(b BucketMap) []item.Item {
	var all []item.Item
	b.Each(func(_ string, items []item.Item) {
		all = append(all, items...)
	})
	out := Dedupe(all, func(it item.Item) string {
		if it.Key() == "" {
			return ""
		}
		return it.Source + "\x00" + it.Key()
	})
	SortNewestFirst(out)
	return out
}

// FilterSince keeps items published at or after cutoff. Undated items are
// kept. Bucket names and order are preserved.
func FilterSince(b BucketMap, cutoff time.Time) BucketMap {
	out := NewBucketMap()
	b.Each(func(name string, items []item.Item) {
		kept := make([]item.Item, 0, len(items))
		for _, it := range items {
			if !it.Dated() || !it.Published.Before(cutoff) {
				kept = append(kept, it)
			}
		}
		out.Add(name, kept)
	})
	return out
}

// Limit caps every bucket at n items; n <= 0 leaves buckets untouched.
func Limit(b BucketMap, n int) BucketMap {
	out := NewBucketMap()
	b.Each(func(name string, items []item.Item) {
		if n > 0 && len(items) > n {
			items = items[:n]
		}
		out.Add(name, items)
	})
	return out
}

// FilterCategory keeps items of one category. An empty category keeps all.
func FilterCategory(items []item.Item, category string) []item.Item {
	if category == "" {
		return items
	}
	var out []item.Item
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Categories lists the distinct categories in first-seen order.
func Categories(items []item.Item) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if it.Category != "" && !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	return out
}
