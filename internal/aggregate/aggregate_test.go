package aggregate

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
	"github.com/Tomjg14/research-newsfeed/internal/source"
)

type stubAdapter struct {
	key, name string
	items     []item.Item
	delay     time.Duration
	panics    bool
	calls     atomic.Int32
	lastSrc   config.Source
}

func (s *stubAdapter) Key() string  { return s.key }
func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context, src config.Source, f filter.Filters) []item.Item {
	s.calls.Add(1)
	s.lastSrc = src
	if s.panics {
		panic("provider exploded")
	}
	time.Sleep(s.delay)
	return append([]item.Item(nil), s.items...)
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func it(src, id string, published time.Time) item.Item {
	return item.Item{ID: id, Title: "title " + id, Source: src, Published: published}
}

func enabled(on bool) *bool { return &on }

func TestRunSortsNewestFirstWithUndatedLast(t *testing.T) {
	a := &stubAdapter{key: "arxiv", name: "arXiv", items: []item.Item{
		it("arXiv", "jan3", day(3)),
		it("arXiv", "undated", time.Time{}),
		it("arXiv", "jan1", day(1)),
	}}
	reg := source.NewRegistry(a)

	b := Run(context.Background(), reg, &config.Config{}, Options{Logger: zaptest.NewLogger(t)})
	var ids []string
	for _, x := range b.Get("arXiv") {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []string{"jan3", "jan1", "undated"}, ids)
}

func TestRunDedupesWithinBucketKeepingFirst(t *testing.T) {
	first := it("arXiv", "dup", day(2))
	first.Title = "first"
	second := it("arXiv", "dup", day(5))
	second.Title = "second"
	a := &stubAdapter{key: "arxiv", name: "arXiv", items: []item.Item{first, it("arXiv", "other", day(1)), second}}

	b := Run(context.Background(), source.NewRegistry(a), &config.Config{}, Options{})
	items := b.Get("arXiv")
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Title)
}

func TestRunDedupesByLinkWhenIDMissing(t *testing.T) {
	a := &stubAdapter{key: "hn", name: "Hacker News", items: []item.Item{
		{Link: "https://x/1", Title: "a"},
		{Link: "https://x/1", Title: "b"},
		{Link: "https://x/2", Title: "c"},
	}}
	b := Run(context.Background(), source.NewRegistry(a), &config.Config{}, Options{})
	assert.Len(t, b.Get("Hacker News"), 2)
}

func TestRunIsIdempotent(t *testing.T) {
	a := &stubAdapter{key: "arxiv", name: "arXiv", items: []item.Item{
		it("arXiv", "a", day(1)), it("arXiv", "b", time.Time{}), it("arXiv", "c", day(1)), it("arXiv", "d", day(4)),
	}}
	r := &stubAdapter{key: "reddit", name: "Reddit", items: []item.Item{it("Reddit", "x", day(2))}}
	reg := source.NewRegistry(a, r)

	first := Run(context.Background(), reg, &config.Config{}, Options{})
	second := Run(context.Background(), reg, &config.Config{}, Options{})
	assert.Equal(t, first, second)
}

func TestRunSkipsDisabledSources(t *testing.T) {
	a := &stubAdapter{key: "arxiv", name: "arXiv", items: []item.Item{it("arXiv", "a", day(1))}}
	r := &stubAdapter{key: "reddit", name: "Reddit", items: []item.Item{it("Reddit", "x", day(2))}}
	cfg := &config.Config{Sources: map[string]config.Source{"arxiv": {Enabled: enabled(false)}}}

	b := Run(context.Background(), source.NewRegistry(a, r), cfg, Options{})
	assert.Equal(t, []string{"Reddit"}, b.Names)
	assert.Empty(t, b.Get("arXiv"))
	assert.Zero(t, a.calls.Load())
	for _, x := range Combined(b) {
		assert.NotEqual(t, "arXiv", x.Source)
	}
}

func TestRunSourceSelection(t *testing.T) {
	a := &stubAdapter{key: "arxiv", name: "arXiv"}
	r := &stubAdapter{key: "reddit", name: "Reddit"}
	h := &stubAdapter{key: "hn", name: "Hacker News"}
	cfg := &config.Config{Sources: map[string]config.Source{"hn": {Enabled: enabled(false)}}}

	b := Run(context.Background(), source.NewRegistry(a, r, h), cfg, Options{Sources: []string{"hn", "reddit"}})
	assert.Equal(t, []string{"Reddit"}, b.Names)
	assert.Zero(t, a.calls.Load())
	assert.Zero(t, h.calls.Load())
}

func TestRunPassesSourceConfig(t *testing.T) {
	a := &stubAdapter{key: "arxiv", name: "arXiv"}
	cfg := &config.Config{Sources: map[string]config.Source{"arxiv": {Categories: []string{"cs.CL"}}}}
	Run(context.Background(), source.NewRegistry(a), cfg, Options{})
	assert.Equal(t, []string{"cs.CL"}, a.lastSrc.Categories)
}

func TestRunKeepsEmptyBuckets(t *testing.T) {
	a := &stubAdapter{key: "arxiv", name: "arXiv"}
	r := &stubAdapter{key: "reddit", name: "Reddit", items: []item.Item{it("Reddit", "x", day(2))}}

	b := Run(context.Background(), source.NewRegistry(a, r), &config.Config{}, Options{})
	assert.Equal(t, []string{"arXiv", "Reddit"}, b.Names)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 1, b.Total())
}

func TestRunRecoversFromPanickingAdapter(t *testing.T) {
	bad := &stubAdapter{key: "openreview", name: "OpenReview", panics: true}
	good := &stubAdapter{key: "acl", name: "ACL Anthology", items: []item.Item{it("ACL Anthology", "p", day(2))}}

	b := Run(context.Background(), source.NewRegistry(bad, good), &config.Config{}, Options{Logger: zaptest.NewLogger(t)})
	assert.Equal(t, []string{"OpenReview", "ACL Anthology"}, b.Names)
	assert.Empty(t, b.Get("OpenReview"))
	assert.Len(t, b.Get("ACL Anthology"), 1)
}

func TestRunParallelKeepsRegistryOrder(t *testing.T) {
	var adapters []source.Adapter
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("src%d", i)
		adapters = append(adapters, &stubAdapter{
			key:   name,
			name:  name,
			delay: time.Duration(5-i) * 10 * time.Millisecond,
			items: []item.Item{it(name, "b", day(1)), it(name, "a", day(1))},
		})
	}
	reg := source.NewRegistry(adapters...)

	seq := Run(context.Background(), reg, &config.Config{}, Options{})
	par := Run(context.Background(), reg, &config.Config{}, Options{Parallel: true})
	assert.Equal(t, []string{"src0", "src1", "src2", "src3", "src4"}, par.Names)
	assert.Equal(t, seq, par)
	assert.Equal(t, "b", par.Get("src3")[0].ID)
}

func TestSortNewestFirstIsStable(t *testing.T) {
	items := []item.Item{
		it("s", "u1", time.Time{}),
		it("s", "t1", day(2)),
		it("s", "u2", time.Time{}),
		it("s", "t2", day(2)),
		it("s", "new", day(9)),
	}
	SortNewestFirst(items)
	var ids []string
	for _, x := range items {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []string{"new", "t1", "t2", "u1", "u2"}, ids)
}

func TestBucketMapAddReplacesInPlace(t *testing.T) {
	var b BucketMap
	b.Add("a", []item.Item{it("a", "1", day(1))})
	b.Add("b", nil)
	b.Add("a", nil)
	assert.Equal(t, []string{"a", "b"}, b.Names)
	assert.Empty(t, b.Get("a"))

	var visited []string
	b.Each(func(name string, _ []item.Item) { visited = append(visited, name) })
	assert.Equal(t, []string{"a", "b"}, visited)
}
