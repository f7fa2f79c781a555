package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/Tomjg14/research-newsfeed/internal/item"
)

func TestClip(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello w…"},
		{"abc", 3, "abc"},
		{"abcd", 1, "a"},
		{"", 5, ""},
		{"test", 0, ""},
		{"日本語テスト", 4, "日本語…"},
	}
	for _, tt := range tests {
		got := clip(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("clip(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"undated", time.Time{}, "undated"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"days", now.Add(-72 * time.Hour), "3 days ago"},
		{"old", now.Add(-60 * 24 * time.Hour), "Nov 11, 2023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTime(tt.t, now); got != tt.want {
				t.Errorf("relativeTime = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderListEmpty(t *testing.T) {
	out := renderList(nil, 0, 9, 40, time.Now())
	if !strings.Contains(out, "No items") {
		t.Errorf("empty list should say so, got %q", out)
	}
}

func TestRenderListScrollsToCursor(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	var items []item.Item
	for _, title := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		items = append(items, item.Item{Title: title, Source: "arXiv", Published: now})
	}

	// height 6 shows two items
	out := renderList(items, 4, 6, 40, now)
	if !strings.Contains(out, "echo") || !strings.Contains(out, "delta") {
		t.Errorf("cursor item should be visible: %q", out)
	}
	if strings.Contains(out, "alpha") {
		t.Errorf("first item should have scrolled away: %q", out)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four\nfive", 9)
	want := "one two\nthree\nfour\nfive"
	if got != want {
		t.Errorf("wrapText = %q, want %q", got, want)
	}
}

func TestRenderPreviewFullText(t *testing.T) {
	it := &item.Item{
		Title:    "[r/MachineLearning] Ask",
		Summary:  "short",
		FullText: "the whole post body",
		Authors:  item.Authors("alice"),
		Source:   "Reddit",
		Category: "MachineLearning",
		Link:     "https://reddit.com/x",
	}

	short := renderPreview(it, bodySummary, 60, 20, 0)
	if !strings.Contains(short, "short") || strings.Contains(short, "whole post") {
		t.Errorf("summary view wrong: %q", short)
	}
	full := renderPreview(it, bodyFull, 60, 20, 0)
	if !strings.Contains(full, "whole post") {
		t.Errorf("full view should show FullText: %q", full)
	}
	if !strings.Contains(full, "alice") || !strings.Contains(full, "https://reddit.com/x") {
		t.Errorf("preview should show authors and link: %q", full)
	}
	hidden := renderPreview(it, bodyHidden, 60, 20, 0)
	if strings.Contains(hidden, "short") || !strings.Contains(hidden, "https://reddit.com/x") {
		t.Errorf("hidden view should drop the body only: %q", hidden)
	}
}
