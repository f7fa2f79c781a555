package tui

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Tomjg14/research-newsfeed/internal/item"
)

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "undated"
	}
	if now.Sub(t) > 30*24*time.Hour {
		return t.Format("Jan 2, 2006")
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func renderListItem(it item.Item, selected bool, width int, now time.Time) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + clip(it.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + clip(it.Title, width-4))
	}

	meta := "  " + itemSourceStyle.Render(it.Source)
	if it.Category != "" && it.Category != it.Source {
		meta += " " + itemTimeStyle.Render("· "+clip(it.Category, 24))
	}
	meta += " " + itemTimeStyle.Render("· "+relativeTime(it.Published, now))

	return title + "\n" + meta
}

// clip cuts s to n runes for single-line list rows.
func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + item.Ellipsis
}

func renderList(items []item.Item, cursor, height, width int, now time.Time) string {
	if len(items) == 0 {
		return centered("No items", width, height)
	}

	// two lines per item plus a separator
	visible := max(height/3, 1)

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(start+visible, len(items))

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(items[i], i == cursor, width, now))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func centered(s string, width, height int) string {
	pad := max((width-len([]rune(s)))/2, 0)
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
