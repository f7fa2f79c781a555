package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func testBuckets() aggregate.BucketMap {
	b := aggregate.NewBucketMap()
	b.Add("arXiv", []item.Item{
		{ID: "a1", Title: "Diffusion models for tables", Source: "arXiv", Published: fixedNow.Add(-time.Hour), PDF: "https://arxiv.org/pdf/a1"},
		{ID: "a2", Title: "Sparse attention", Source: "arXiv", Published: fixedNow.Add(-3 * time.Hour)},
	})
	b.Add("Reddit", []item.Item{
		{ID: "r1", Title: "[r/MachineLearning] Weekly thread", Source: "Reddit", Category: "MachineLearning", Published: fixedNow.Add(-2 * time.Hour)},
		{ID: "r2", Title: "[r/LocalLLaMA] New quant", Source: "Reddit", Category: "LocalLLaMA", Published: fixedNow.Add(-4 * time.Hour)},
		{ID: "r3", Title: "[r/MachineLearning] Diffusion survey", Source: "Reddit", Category: "MachineLearning"},
	})
	b.Add("Hacker News", nil)
	return b
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(a *App, keys ...string) {
	for _, k := range keys {
		a.Update(key(k))
	}
}

func titles(items []item.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func newTestApp(opts RunOpts) *App {
	opts.Now = func() time.Time { return fixedNow }
	return NewApp(opts)
}

func TestAllTabCombinesNewestFirst(t *testing.T) {
	a := newTestApp(RunOpts{Buckets: testBuckets()})

	got := titles(a.items)
	want := []string{
		"Diffusion models for tables",
		"[r/MachineLearning] Weekly thread",
		"Sparse attention",
		"[r/LocalLLaMA] New quant",
		"[r/MachineLearning] Diffusion survey",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("All tab = %v, want %v", got, want)
	}
}

func TestInitialSourceTab(t *testing.T) {
	a := newTestApp(RunOpts{Buckets: testBuckets(), Source: "Reddit"})
	if a.tabs.current() != "Reddit" {
		t.Fatalf("tab = %q, want Reddit", a.tabs.current())
	}
	if len(a.items) != 3 {
		t.Errorf("items = %d, want 3", len(a.items))
	}
}

func TestTabSwitching(t *testing.T) {
	a := newTestApp(RunOpts{Buckets: testBuckets()})

	press(a, "]")
	if a.tabs.current() != "arXiv" || len(a.items) != 2 {
		t.Fatalf("after ] tab=%q items=%d", a.tabs.current(), len(a.items))
	}
	press(a, "]", "]")
	if a.tabs.current() != "Hacker News" || len(a.items) != 0 {
		t.Fatalf("tab=%q items=%d", a.tabs.current(), len(a.items))
	}
	press(a, "]")
	if a.tabs.current() != allTab {
		t.Errorf("tabs should wrap to All, got %q", a.tabs.current())
	}
	press(a, "[")
	if a.tabs.current() != "Hacker News" {
		t.Errorf("[ should wrap backwards, got %q", a.tabs.current())
	}
}

func TestSubredditFilter(t *testing.T) {
	a := newTestApp(RunOpts{Buckets: testBuckets(), Source: "Reddit"})

	press(a, "c")
	if a.category.current() != "MachineLearning" {
		t.Fatalf("category = %q", a.category.current())
	}
	if len(a.items) != 2 {
		t.Errorf("MachineLearning items = %d, want 2", len(a.items))
	}
	press(a, "c")
	if a.category.current() != "LocalLLaMA" || len(a.items) != 1 {
		t.Errorf("category=%q items=%d", a.category.current(), len(a.items))
	}
	press(a, "c")
	if a.category.current() != "" || len(a.items) != 3 {
		t.Errorf("should cycle back to all, got %q with %d", a.category.current(), len(a.items))
	}

	// switching tabs clears the category
	press(a, "c", "]")
	if a.category.current() != "" {
		t.Errorf("category should reset on tab change, got %q", a.category.current())
	}
}

func TestSingleCategoryOffersNoFilter(t *testing.T) {
	a := newTestApp(RunOpts{Buckets: testBuckets(), Source: "arXiv"})
	press(a, "c")
	if a.category.current() != "" || len(a.items) != 2 {
		t.Errorf("arXiv has no categories to cycle: %q %d", a.category.current(), len(a.items))
	}
}

func TestSearch(t *testing.T) {
	a := newTestApp(RunOpts{Buckets: testBuckets()})

	press(a, "/")
	if a.mode != modeSearch {
		t.Fatal("expected search mode")
	}
	a.searchInput.SetValue("diffusion")
	press(a, "enter")

	if a.mode != modeNormal {
		t.Error("enter should leave search mode")
	}
	if len(a.items) != 2 {
		t.Fatalf("matches = %v", titles(a.items))
	}

	press(a, "esc")
	if a.query != "" || len(a.items) != 5 {
		t.Errorf("esc should clear search, got %q with %d", a.query, len(a.items))
	}
}

func TestCursorBounds(t *testing.T) {
	a := newTestApp(RunOpts{Buckets: testBuckets(), Source: "arXiv"})

	press(a, "k")
	if a.cursor != 0 {
		t.Errorf("cursor = %d, want 0", a.cursor)
	}
	press(a, "j", "j", "j")
	if a.cursor != 1 {
		t.Errorf("cursor = %d, want 1", a.cursor)
	}
	press(a, "g")
	if a.cursor != 0 {
		t.Errorf("g should jump to top, got %d", a.cursor)
	}
}

func TestRefreshReplacesBuckets(t *testing.T) {
	fetched := aggregate.NewBucketMap()
	fetched.Add("arXiv", []item.Item{{ID: "n1", Title: "Fresh", Source: "arXiv", Published: fixedNow}})
	fetched.Add("OpenReview", []item.Item{{ID: "o1", Title: "Review", Source: "OpenReview", Published: fixedNow}})

	a := newTestApp(RunOpts{
		Buckets: testBuckets(),
		Source:  "arXiv",
		Fetch:   func(context.Context) aggregate.BucketMap { return fetched },
	})

	a.Update(key("r"))
	if !a.refreshing {
		t.Fatal("r should start a refresh")
	}
	msg := a.refreshCmd()()
	a.Update(msg)

	if a.refreshing {
		t.Error("refresh should finish")
	}
	if a.tabs.current() != "arXiv" {
		t.Errorf("tab should survive refresh, got %q", a.tabs.current())
	}
	if len(a.items) != 1 || a.items[0].Title != "Fresh" {
		t.Errorf("items = %v", titles(a.items))
	}
	if len(a.tabs.names) != 3 {
		t.Errorf("tabs = %v", a.tabs.names)
	}
}

func TestInitFetchesWhenEmpty(t *testing.T) {
	a := newTestApp(RunOpts{Fetch: func(context.Context) aggregate.BucketMap { return testBuckets() }})
	if cmd := a.Init(); cmd == nil {
		t.Fatal("Init should fetch when nothing is loaded")
	}
	if !a.refreshing {
		t.Error("should be refreshing")
	}

	b := newTestApp(RunOpts{Buckets: testBuckets()})
	if cmd := b.Init(); cmd != nil {
		t.Error("Init should not fetch when buckets are provided")
	}
}

func TestViewRenders(t *testing.T) {
	a := newTestApp(RunOpts{Title: "Research Newsfeed", Buckets: testBuckets()})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	out := a.View()
	for _, want := range []string{"Research Newsfeed", "Diffusion models for tables", "5 items"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	press(a, "?")
	if !strings.Contains(a.View(), "keyboard shortcuts") {
		t.Error("help view should render")
	}
	press(a, "?")
	if a.mode != modeNormal {
		t.Error("? should close help")
	}
}
