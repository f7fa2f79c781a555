package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type statusInfo struct {
	count      int
	tab        string
	category   string
	query      string
	searching  bool
	refreshing bool
	notice     string
}

func renderStatusBar(s statusInfo, width int) string {
	left := fmt.Sprintf(" %d items", s.count)
	if s.tab != allTab {
		left += " · " + s.tab
	}
	if s.category != "" {
		left += " · " + s.category
	}
	if s.query != "" {
		left += fmt.Sprintf(" · %q", s.query)
	}
	if s.refreshing {
		left += " (refreshing...)"
	}
	if s.notice != "" {
		left += " · " + s.notice
	}

	right := " [/] source  c category  / search  o open  ? help  q quit "
	if s.searching {
		right = " esc cancel  enter search "
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return statusBarStyle.Width(width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}
