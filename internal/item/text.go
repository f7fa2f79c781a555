package item

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Ellipsis is appended to summaries cut by Truncate.
const Ellipsis = "…"

// Summary budgets, in runes.
const (
	RenderBudget = 280
	FeedBudget   = 240
)

// Truncate cuts s to at most n runes, backing off to the last whitespace
// inside the budget so no word is split, and appends Ellipsis. Strings
// within budget are returned unchanged. A budget of zero or less disables
// truncation. A single word longer than the budget is hard cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	cut := n
	if !unicode.IsSpace(runes[n]) {
		for i := n - 1; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + Ellipsis
}

// Flatten collapses all runs of whitespace, including newlines, to single
// spaces.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanHTML turns an HTML fragment into plain text: script and style
// elements are dropped, text nodes are joined with spaces and whitespace is
// collapsed. Input without markup is only trimmed.
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<>") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return Flatten(s)
	}
	doc.Find("script, style").Remove()

	var parts []string
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(doc.Selection)
	return Flatten(strings.Join(parts, " "))
}
