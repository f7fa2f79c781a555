// Package aggregate runs the enabled adapters and assembles their output
// into per-source buckets.
package aggregate

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
	"github.com/Tomjg14/research-newsfeed/internal/source"
)

// BucketMap maps source display names to their items. Names keeps the
// registry order; each bucket is newest-first.
type BucketMap struct {
	Names []string
	Items map[string][]item.Item
}

func NewBucketMap() BucketMap {
	return BucketMap{Items: map[string][]item.Item{}}
}

// Add appends a bucket, replacing an existing one of the same name in place.
func (b *BucketMap) Add(name string, items []item.Item) {
	if b.Items == nil {
		b.Items = map[string][]item.Item{}
	}
	if _, ok := b.Items[name]; !ok {
		b.Names = append(b.Names, name)
	}
	b.Items[name] = items
}

func (b BucketMap) Get(name string) []item.Item {
	return b.Items[name]
}

// Len is the number of buckets, empty ones included.
func (b BucketMap) Len() int {
	return len(b.Names)
}

// Total is the number of items across all buckets.
func (b BucketMap) Total() int {
	n := 0
	for _, name := range b.Names {
		n += len(b.Items[name])
	}
	return n
}

// Each visits buckets in order.
func (b BucketMap) Each(fn func(name string, items []item.Item)) {
	for _, name := range b.Names {
		fn(name, b.Items[name])
	}
}

// Options configure one aggregation run.
type Options struct {
	Filters filter.Filters
	// Sources restricts the run to these config keys. Nil means every source
	// not disabled in the config; disabled sources are never run.
	Sources  []string
	Parallel bool
	Logger   *zap.Logger
}

// Run invokes every selected adapter and returns one bucket per adapter, in
// registry order. Adapter failures (including panics) leave an empty bucket.
func Run(ctx context.Context, reg *source.Registry, cfg *config.Config, opts Options) BucketMap {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var selected []source.Adapter
	for _, a := range reg.Adapters() {
		if !cfg.Source(a.Key()).IsEnabled() {
			continue
		}
		if opts.Sources != nil && !slices.Contains(opts.Sources, a.Key()) {
			continue
		}
		selected = append(selected, a)
	}

	results := make([][]item.Item, len(selected))
	run := func(i int) {
		a := selected[i]
		start := time.Now()
		results[i] = Bucket(safeFetch(ctx, a, cfg.Source(a.Key()), opts.Filters, log))
		log.Info("source fetched",
			zap.String("source", a.Key()),
			zap.Int("count", len(results[i])),
			zap.Duration("took", time.Since(start)))
	}

	if opts.Parallel {
		var g errgroup.Group
		for i := range selected {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range selected {
			run(i)
		}
	}

	out := NewBucketMap()
	for i, a := range selected {
		out.Add(a.Name(), results[i])
	}
	return out
}

func safeFetch(ctx context.Context, a source.Adapter, src config.Source, f filter.Filters, log *zap.Logger) (items []item.Item) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("adapter panicked",
				zap.String("source", a.Key()),
				zap.Error(fmt.Errorf("%v", r)))
			items = nil
		}
	}()
	return a.Fetch(ctx, src, f)
}

// Bucket dedupes items by Key, keeping the first seen, and sorts them
// newest-first. The sort is stable and undated items go last.
func Bucket(items []item.Item) []item.Item {
	out := Dedupe(items, func(it item.Item) string { return it.Key() })
	SortNewestFirst(out)
	return out
}

// Dedupe drops items whose key was already seen, preserving order. Items
// with an empty key are always kept.
func Dedupe(items []item.Item, key func(item.Item) string) []item.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}

// SortNewestFirst orders items by Published, descending, in place.
func SortNewestFirst(items []item.Item) {
	slices.SortStableFunc(items, func(a, b item.Item) int {
		switch {
		case a.Dated() && !b.Dated():
			return -1
		case !a.Dated() && b.Dated():
			return 1
		}
		return b.Published.Compare(a.Published)
	})
}
