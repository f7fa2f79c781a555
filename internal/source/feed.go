package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
	"go.uber.org/zap"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

// feedProfile describes one RSS/Atom backed provider.
type feedProfile struct {
	key          string
	name         string
	defaultFeeds []string
	titlePrefix  string
	tags         []string
	// cleanHTML strips markup from summaries; budget truncates them when > 0.
	cleanHTML bool
	budget    int
	// preferComments links to the discussion page rather than the article.
	preferComments bool
}

var (
	aclProfile = feedProfile{
		key:  "acl",
		name: "ACL Anthology",
		tags: []string{"acl"},
	}
	hnProfile = feedProfile{
		key:            "hn",
		name:           "Hacker News",
		defaultFeeds:   []string{"https://hnrss.org/frontpage"},
		titlePrefix:    "[HN] ",
		tags:           []string{"hn"},
		cleanHTML:      true,
		budget:         item.FeedBudget,
		preferComments: true,
	}
	hackernoonProfile = feedProfile{
		key:          "hackernoon",
		name:         "Hackernoon",
		defaultFeeds: []string{"https://hackernoon.com/feed"},
		titlePrefix:  "[Hackernoon] ",
		tags:         []string{"hackernoon"},
		cleanHTML:    true,
	}
)

// FeedAdapter serves any provider that publishes plain RSS or Atom feeds.
type FeedAdapter struct {
	profile feedProfile
	deps    Deps
}

func NewACL(d Deps) *FeedAdapter {
	return &FeedAdapter{profile: aclProfile, deps: d.withDefaults()}
}

func NewHackerNews(d Deps) *FeedAdapter {
	return &FeedAdapter{profile: hnProfile, deps: d.withDefaults()}
}

func NewHackernoon(d Deps) *FeedAdapter {
	return &FeedAdapter{profile: hackernoonProfile, deps: d.withDefaults()}
}

func (a *FeedAdapter) Key() string  { return a.profile.key }
func (a *FeedAdapter) Name() string { return a.profile.name }

func (a *FeedAdapter) feeds(src config.Source) []string {
	if src.Feeds != nil {
		return src.Feeds
	}
	return a.profile.defaultFeeds
}

func (a *FeedAdapter) Fetch(ctx context.Context, src config.Source, f filter.Filters) []item.Item {
	log := a.deps.Logger.With(zap.String("source", a.profile.key))
	feeds := a.feeds(src)
	if len(feeds) == 0 {
		log.Debug("no feeds configured")
		return nil
	}

	f = src.Filters(f)
	kw := src.Keywords(f)
	seen := dedupe{}
	var out []item.Item

	for _, url := range feeds {
		if ctx.Err() != nil {
			break
		}
		entries, err := a.retrieve(ctx, url)
		if err != nil {
			log.Warn("feed failed", zap.String("target", url), zap.Error(err))
			continue
		}
		kept := 0
		for _, e := range entries {
			if src.MaxResultsPerFeed > 0 && kept >= src.MaxResultsPerFeed {
				break
			}
			it, ok := a.normalize(e, url)
			if !ok {
				log.Debug("skipping malformed entry", zap.String("target", url))
				continue
			}
			if !f.Recent(it.Published) {
				continue
			}
			if !kw.Admit(filter.Haystack(it.Title, it.Summary), false) {
				continue
			}
			if !seen.first(it.Key()) {
				continue
			}
			it.Title = a.profile.titlePrefix + it.Title
			out = append(out, it)
			kept++
		}
	}
	return out
}

func (a *FeedAdapter) retrieve(ctx context.Context, url string) ([]*gofeed.Item, error) {
	body, err := a.deps.Getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	feed, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	return feed.Items, nil
}

// normalize maps one parsed entry to an item. The title prefix is applied
// after filtering so keywords never match against it.
func (a *FeedAdapter) normalize(e *gofeed.Item, feedURL string) (item.Item, bool) {
	if e == nil {
		return item.Item{}, false
	}
	title := item.Flatten(e.Title)
	link := strings.TrimSpace(e.Link)
	if title == "" && link == "" {
		return item.Item{}, false
	}

	raw := e.Description
	if raw == "" {
		raw = e.Content
	}
	summary := strings.TrimSpace(raw)
	if a.profile.cleanHTML {
		summary = item.CleanHTML(raw)
	}
	if a.profile.budget > 0 {
		summary = item.Truncate(summary, a.profile.budget)
	}

	comments := ""
	if e.Custom != nil {
		comments = strings.TrimSpace(e.Custom["comments"])
	}

	id := strings.TrimSpace(e.GUID)
	if id == "" {
		id = comments
	}
	if id == "" {
		id = link
	}
	if a.profile.preferComments && comments != "" {
		link = comments
	}

	return item.Item{
		ID:        id,
		Title:     title,
		Summary:   summary,
		Authors:   feedAuthors(e),
		Published: entryTime(e),
		Source:    a.profile.name,
		Category:  feedURL,
		Tags:      append([]string(nil), a.profile.tags...),
		Link:      link,
	}, true
}

func feedAuthors(e *gofeed.Item) []item.Author {
	var out []item.Author
	for _, p := range e.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			out = append(out, item.Author{Name: strings.TrimSpace(p.Name)})
		}
	}
	if len(out) == 0 && e.Author != nil && strings.TrimSpace(e.Author.Name) != "" {
		out = append(out, item.Author{Name: strings.TrimSpace(e.Author.Name)})
	}
	return out
}

// entryTime prefers the published stamp, then updated. Unparsable stamps
// leave the item undated.
func entryTime(e *gofeed.Item) time.Time {
	if e.PublishedParsed != nil {
		return e.PublishedParsed.UTC()
	}
	if e.UpdatedParsed != nil {
		return e.UpdatedParsed.UTC()
	}
	for _, raw := range []string{e.Published, e.Updated} {
		if t, err := item.ParseTime(raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseFeed(body []byte) (*gofeed.Feed, error) {
	p := gofeed.NewParser()
	p.RSSTranslator = &commentsTranslator{}
	feed, err := p.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return feed, nil
}

// commentsTranslator keeps the RSS <comments> element, which the default
// translator drops, in Item.Custom["comments"].
type commentsTranslator struct {
	gofeed.DefaultRSSTranslator
}

func (t *commentsTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	out, err := t.DefaultRSSTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	rf, ok := feed.(*rss.Feed)
	if !ok {
		return out, nil
	}
	for i, ri := range rf.Items {
		if i >= len(out.Items) || ri == nil || ri.Comments == "" {
			continue
		}
		if out.Items[i].Custom == nil {
			out.Items[i].Custom = map[string]string{}
		}
		out.Items[i].Custom["comments"] = ri.Comments
	}
	return out, nil
}
