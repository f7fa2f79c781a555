package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tomjg14/research-newsfeed/internal/item"
)

type bodyMode int

const (
	bodySummary bodyMode = iota
	// bodyFull swaps the summary for FullText when the item carries one.
	bodyFull
	bodyHidden
)

func renderPreview(it *item.Item, mode bodyMode, width, height, scroll int) string {
	if it == nil {
		return centered("Select an item", width, height)
	}

	contentWidth := max(width-2, 10)

	title := previewTitleStyle.Width(contentWidth).Render(it.Title)

	meta := it.Source
	if it.Category != "" && it.Category != it.Source {
		meta += " · " + it.Category
	}
	if !it.Published.IsZero() {
		meta += " · " + it.Published.Format("Jan 2, 2006 15:04")
	}
	parts := []string{title, previewSourceStyle.Render(meta)}

	if authors := item.FormatAuthors(it.Authors); authors != "" {
		parts = append(parts, previewAuthorsStyle.Width(contentWidth).Render(authors))
	}

	if mode != bodyHidden {
		body := it.Summary
		if mode == bodyFull && it.FullText != "" {
			body = it.FullText
		}
		if strings.TrimSpace(body) == "" {
			body = "(No summary available)"
		}
		parts = append(parts, "", previewBodyStyle.Width(contentWidth).Render(wrapText(body, contentWidth)))
	}
	parts = append(parts, "")

	if len(it.Tags) > 0 {
		parts = append(parts, previewLinkStyle.Render("Tags: "+strings.Join(it.Tags, ", ")))
	}
	if it.PDF != "" {
		parts = append(parts, previewLinkStyle.Width(contentWidth).Render("PDF: "+it.PDF))
	}
	if it.Link != "" {
		parts = append(parts, previewLinkStyle.Width(contentWidth).Render(fmt.Sprintf("Link: %s", it.Link)))
	}

	lines := strings.Split(lipgloss.JoinVertical(lipgloss.Left, parts...), "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > width {
				out = append(out, line)
				line = w
			} else {
				line += " " + w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
