package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
)

// Plaintext renders the same content as HTML without markup, for the
// text/plain part of a digest email.
func Plaintext(b aggregate.BucketMap, o Options) string {
	var sb strings.Builder
	title := o.title()
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len([]rune(title))) + "\n")
	fmt.Fprintf(&sb, "Generated %s\n", o.generated())

	secs := sections(b, o)
	if len(secs) == 0 {
		sb.WriteString("\nNo new items\n")
		return sb.String()
	}

	for _, s := range secs {
		fmt.Fprintf(&sb, "\n%s (%d)\n", s.Name, s.Shown)
		sb.WriteString(strings.Repeat("-", len([]rune(s.Name))) + "\n")
		for i, e := range s.Items {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, e.Title)
			link := e.Link
			if link == "" {
				link = "(no link)"
			}
			sb.WriteString("   " + link + "\n")
			if meta := joinNonEmpty(" · ", e.Authors, e.Ago); meta != "" {
				sb.WriteString("   " + meta + "\n")
			}
			if e.Summary != "" {
				sb.WriteString("   " + e.Summary + "\n")
			}
		}
	}
	return sb.String()
}

func relative(then, now time.Time) string {
	if then.After(now) {
		return "just now"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
