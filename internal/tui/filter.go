package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

const allTab = "All"

// sourceTabs is the single-select source switcher: "All" followed by every
// bucket name.
type sourceTabs struct {
	names  []string
	cursor int
}

func newSourceTabs(names []string, initial string) sourceTabs {
	t := sourceTabs{names: append([]string{allTab}, names...)}
	t.selectName(initial)
	return t
}

// selectName moves to the named tab, keeping the current one when absent.
func (t *sourceTabs) selectName(name string) {
	for i, n := range t.names {
		if n == name {
			t.cursor = i
			return
		}
	}
}

func (t *sourceTabs) setNames(names []string) {
	current := t.current()
	t.names = append([]string{allTab}, names...)
	t.cursor = 0
	t.selectName(current)
}

func (t *sourceTabs) next() {
	t.cursor = (t.cursor + 1) % len(t.names)
}

func (t *sourceTabs) prev() {
	t.cursor = (t.cursor - 1 + len(t.names)) % len(t.names)
}

func (t sourceTabs) current() string {
	if t.cursor < len(t.names) {
		return t.names[t.cursor]
	}
	return allTab
}

func (t sourceTabs) render(width int, counts map[string]int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var row string
	for i, n := range t.names {
		style := tabInactiveStyle
		if i == t.cursor {
			style = tabActiveStyle
		}
		label := n
		if c, ok := counts[n]; ok {
			label = n + " " + strconv.Itoa(c)
		}
		part := style.Render(label)

		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(surface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}

// categoryFilter cycles through the categories of one bucket; the empty
// value means every category.
type categoryFilter struct {
	options []string
	cursor  int
}

func newCategoryFilter(options []string) categoryFilter {
	return categoryFilter{options: append([]string{""}, options...)}
}

func (c *categoryFilter) next() {
	c.cursor = (c.cursor + 1) % len(c.options)
}

func (c categoryFilter) current() string {
	if c.cursor < len(c.options) {
		return c.options[c.cursor]
	}
	return ""
}
