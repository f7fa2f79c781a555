package tui

import "github.com/charmbracelet/lipgloss"

// Palette: slate surfaces, teal for sources, amber for the selection.
var (
	ink      = lipgloss.AdaptiveColor{Light: "#1F2933", Dark: "#E4E7EB"}
	muted    = lipgloss.AdaptiveColor{Light: "#7B8794", Dark: "#7B8794"}
	faint    = lipgloss.AdaptiveColor{Light: "#CBD2D9", Dark: "#3E4C59"}
	accent   = lipgloss.AdaptiveColor{Light: "#2680C2", Dark: "#47A3F3"}
	amber    = lipgloss.AdaptiveColor{Light: "#CB6E17", Dark: "#F7C948"}
	teal     = lipgloss.AdaptiveColor{Light: "#0C6B58", Dark: "#3EBD93"}
	surface  = lipgloss.AdaptiveColor{Light: "#F5F7FA", Dark: "#1F2933"}
	barFill  = lipgloss.AdaptiveColor{Light: "#E4E7EB", Dark: "#323F4B"}
	tabFill  = lipgloss.AdaptiveColor{Light: "#E4E7EB", Dark: "#323F4B"}
	tabFocus = lipgloss.AdaptiveColor{Light: "#2680C2", Dark: "#2680C2"}
)

func pane(border lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border)
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(accent).PaddingLeft(1)
	headerDateStyle = lipgloss.NewStyle().Foreground(muted)

	listPaneStyle          = pane(faint)
	listPaneActiveStyle    = pane(accent)
	previewPaneStyle       = pane(faint)
	previewPaneActiveStyle = pane(accent)

	itemTitleStyle    = lipgloss.NewStyle().Foreground(ink)
	itemSelectedStyle = lipgloss.NewStyle().Foreground(amber).Bold(true)
	itemSourceStyle   = lipgloss.NewStyle().Foreground(teal)
	itemTimeStyle     = lipgloss.NewStyle().Foreground(muted)

	previewTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ink).MarginBottom(1)
	previewSourceStyle  = lipgloss.NewStyle().Foreground(teal)
	previewAuthorsStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	previewBodyStyle    = lipgloss.NewStyle().Foreground(ink)
	previewLinkStyle    = lipgloss.NewStyle().Foreground(accent).Underline(true)

	tabActiveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(tabFocus).Bold(true).Padding(0, 1)
	tabInactiveStyle  = lipgloss.NewStyle().Foreground(muted).Background(tabFill).Padding(0, 1)
	tabSeparatorStyle = lipgloss.NewStyle().Foreground(faint)

	statusBarStyle    = lipgloss.NewStyle().Background(barFill).Foreground(ink).Padding(0, 1)
	spinnerStyle      = lipgloss.NewStyle().Foreground(amber)
	searchPromptStyle = lipgloss.NewStyle().Foreground(amber).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(amber).Bold(true)

	helpDimStyle  = lipgloss.NewStyle().Foreground(muted)
	helpCardStyle = pane(accent).Padding(1, 3)
)
