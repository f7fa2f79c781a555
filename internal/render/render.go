// Package render turns a bucket map into digest documents.
package render

import (
	"time"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

const (
	DefaultTitle = "Research Newsfeed"
	timeLayout   = "2006-01-02 15:04"
	dateLayout   = "2006-01-02"
	noLink       = "#"
)

// Options control every output format.
type Options struct {
	Title string
	// MaxPerSource caps items per bucket; zero or less means unlimited.
	MaxPerSource int
	// Now stamps the document; zero means time.Now.
	Now time.Time
}

func (o Options) title() string {
	if o.Title == "" {
		return DefaultTitle
	}
	return o.Title
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// generated formats the stamp in Amsterdam time, or UTC when the zone
// database is unavailable.
func (o Options) generated() string {
	now := o.now()
	if loc, err := time.LoadLocation("Europe/Amsterdam"); err == nil {
		return now.In(loc).Format(timeLayout)
	}
	return now.UTC().Format(timeLayout) + " UTC"
}

type entry struct {
	Title   string
	Link    string
	Summary string
	Authors string
	Date    string
	Ago     string
}

type section struct {
	Name  string
	Shown int
	Items []entry
}

// sections applies the cap and drops empty buckets.
func sections(b aggregate.BucketMap, o Options) []section {
	var out []section
	b.Each(func(name string, items []item.Item) {
		if len(items) == 0 {
			return
		}
		if o.MaxPerSource > 0 && len(items) > o.MaxPerSource {
			items = items[:o.MaxPerSource]
		}
		s := section{Name: name, Shown: len(items)}
		for _, it := range items {
			s.Items = append(s.Items, toEntry(it, o.now()))
		}
		out = append(out, s)
	})
	return out
}

func toEntry(it item.Item, now time.Time) entry {
	e := entry{
		Title:   it.Title,
		Link:    it.DocumentLink(),
		Summary: item.Truncate(item.Flatten(it.Summary), item.RenderBudget),
		Authors: item.FormatAuthors(it.Authors),
	}
	if it.Dated() {
		e.Date = it.Published.UTC().Format(dateLayout)
		e.Ago = relative(it.Published, now)
	}
	return e
}
