package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

const (
	arxivPageSize   = 100
	arxivDefaultMax = 100
)

var (
	arxivDefaultCategories = []string{"cs.AI", "cs.LG", "cs.CL", "cs.CR"}
	arxivVersion           = regexp.MustCompile(`v\d+$`)
)

// Arxiv queries the arXiv export API one category at a time.
type Arxiv struct {
	BaseURL string
	deps    Deps
}

func NewArxiv(d Deps) *Arxiv {
	return &Arxiv{BaseURL: "http://export.arxiv.org/api/query", deps: d.withDefaults()}
}

func (a *Arxiv) Key() string  { return "arxiv" }
func (a *Arxiv) Name() string { return "arXiv" }

func (a *Arxiv) queryURL(category string, start, n int) string {
	q := url.Values{}
	q.Set("search_query", "cat:"+category)
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")
	q.Set("start", fmt.Sprint(start))
	q.Set("max_results", fmt.Sprint(n))
	return a.BaseURL + "?" + q.Encode()
}

func (a *Arxiv) Fetch(ctx context.Context, src config.Source, f filter.Filters) []item.Item {
	log := a.deps.Logger.With(zap.String("source", a.Key()))
	categories := src.Categories
	if categories == nil {
		categories = arxivDefaultCategories
	}
	maxn := src.MaxResultsPerCategory
	if maxn <= 0 {
		maxn = arxivDefaultMax
	}

	f = src.Filters(f)
	kw := src.Keywords(f)
	pg := newPager(a.deps)
	seen := dedupe{}
	var out []item.Item

	for _, cat := range categories {
		entries := a.retrieve(ctx, pg, cat, maxn, log)
		for _, e := range entries {
			it, ok := normalizeArxiv(e, cat)
			if !ok {
				log.Debug("skipping malformed entry", zap.String("target", cat))
				continue
			}
			if !f.Recent(it.Published) {
				continue
			}
			if !seen.first(it.ID) {
				continue
			}
			priority := f.IsPriorityAuthor(it.AuthorNames())
			if !kw.Admit(filter.Haystack(it.Title, it.Summary), priority) {
				continue
			}
			out = append(out, it)
		}
	}
	return out
}

// retrieve pages through one category until maxn entries, a short page or
// the page cap. A failing page ends the category but keeps earlier pages.
func (a *Arxiv) retrieve(ctx context.Context, pg *pager, cat string, maxn int, log *zap.Logger) []*gofeed.Item {
	var entries []*gofeed.Item
	for page := 0; page < pg.maxPages && len(entries) < maxn; page++ {
		if err := pg.wait(ctx); err != nil {
			return entries
		}
		n := min(arxivPageSize, maxn-len(entries))
		body, err := a.deps.Getter.Get(ctx, a.queryURL(cat, len(entries), n))
		if err != nil {
			log.Warn("category failed", zap.String("target", cat), zap.Error(err))
			return entries
		}
		feed, err := parseFeed(body)
		if err != nil {
			log.Warn("category failed", zap.String("target", cat), zap.Error(err))
			return entries
		}
		entries = append(entries, feed.Items...)
		if len(feed.Items) < n {
			break
		}
	}
	return entries
}

func normalizeArxiv(e *gofeed.Item, category string) (item.Item, bool) {
	if e == nil {
		return item.Item{}, false
	}
	raw := e.GUID
	if raw == "" {
		raw = e.Link
	}
	id := NormalizeArxivID(raw)
	if id == "" {
		return item.Item{}, false
	}

	pdf := ""
	for _, l := range e.Links {
		if strings.Contains(l, "pdf") {
			pdf = l
			break
		}
	}
	if pdf == "" && strings.Contains(e.Link, "/abs/") {
		pdf = strings.Replace(e.Link, "/abs/", "/pdf/", 1)
	}
	if pdf == "" {
		pdf = e.Link
	}

	var tags []string
	for _, c := range e.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	return item.Item{
		ID:        id,
		Title:     item.Flatten(e.Title),
		Summary:   item.Flatten(e.Description),
		Authors:   feedAuthors(e),
		Published: entryTime(e),
		Source:    "arXiv",
		Category:  category,
		Tags:      tags,
		Link:      e.Link,
		PDF:       pdf,
	}, true
}

// NormalizeArxivID reduces an arXiv id or abstract URL to its bare id
// without the version suffix, so "http://arxiv.org/abs/2401.01234v2" and
// "2401.01234v1" both become "2401.01234". Old-style ids keep their
// archive prefix ("hep-th/9901001").
func NormalizeArxivID(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, "/abs/"); i >= 0 {
		raw = raw[i+len("/abs/"):]
	} else if i := strings.Index(raw, "/pdf/"); i >= 0 {
		raw = strings.TrimSuffix(raw[i+len("/pdf/"):], ".pdf")
	} else if i := strings.LastIndex(raw, "/"); i >= 0 && strings.Contains(raw, "://") {
		raw = raw[i+1:]
	}
	return arxivVersion.ReplaceAllString(raw, "")
}
