package render

import (
	"fmt"
	"strings"

	"github.com/Tomjg14/research-newsfeed/internal/item"
)

// Markdown exports a flat item list, typically aggregate.Combined or one
// bucket, as a numbered Markdown document. MaxPerSource caps the list.
func Markdown(items []item.Item, o Options) string {
	if o.MaxPerSource > 0 && len(items) > o.MaxPerSource {
		items = items[:o.MaxPerSource]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s (%s)\n\n", o.title(), o.generated())
	if len(items) == 0 {
		sb.WriteString("No new items\n")
		return sb.String()
	}

	for i, it := range items {
		date := ""
		if it.Dated() {
			date = it.Published.UTC().Format(dateLayout)
		}
		fmt.Fprintf(&sb, "## %d. %s\n", i+1, it.Title)
		fmt.Fprintf(&sb, "- **Date:** %s\n", date)
		fmt.Fprintf(&sb, "- **Authors:** %s\n", item.FormatAuthors(it.Authors))
		fmt.Fprintf(&sb, "- **Source:** %s\n", it.Source)
		if it.Category != "" {
			fmt.Fprintf(&sb, "- **Category:** %s\n", it.Category)
		}
		if len(it.Tags) > 0 {
			fmt.Fprintf(&sb, "- **Tags:** %s\n", strings.Join(it.Tags, ", "))
		}
		if it.PDF != "" {
			fmt.Fprintf(&sb, "- **PDF:** %s\n", it.PDF)
		}
		fmt.Fprintf(&sb, "- **Link:** %s\n\n", it.Link)
		if s := item.Flatten(it.Summary); s != "" {
			fmt.Fprintf(&sb, "> %s\n\n", s)
		}
	}
	return sb.String()
}
