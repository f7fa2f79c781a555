package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

const (
	redditMaxLimit       = 100
	redditDefaultPreview = 300
)

// listing keeps each child raw so one malformed post is skipped alone.
type listing struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Post is the subset of a Reddit link listing entry the adapter reads.
type Post struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

// Reddit reads the newest posts of each configured subreddit. With client
// credentials configured it goes through the OAuth API instead of the
// public JSON endpoints.
type Reddit struct {
	BaseURL      string
	OAuthBaseURL string
	TokenURL     string
	deps         Deps
}

func NewReddit(d Deps) *Reddit {
	return &Reddit{
		BaseURL:      "https://www.reddit.com",
		OAuthBaseURL: "https://oauth.reddit.com",
		TokenURL:     "https://www.reddit.com/api/v1/access_token",
		deps:         d.withDefaults(),
	}
}

func (r *Reddit) Key() string  { return "reddit" }
func (r *Reddit) Name() string { return "Reddit" }

// getter returns the transport and API base for this run.
func (r *Reddit) getter(ctx context.Context, src config.Source) (Getter, string) {
	if src.ClientID == "" || src.ClientSecret == "" {
		return r.deps.Getter, r.BaseURL
	}
	cc := clientcredentials.Config{
		ClientID:     src.ClientID,
		ClientSecret: src.ClientSecret,
		TokenURL:     r.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.deps.HTTPClient)
	client := cc.Client(ctx)
	client.Timeout = r.deps.HTTPClient.Timeout
	return &HTTPGetter{Client: client, UserAgent: r.deps.UserAgent}, r.OAuthBaseURL
}

func (r *Reddit) Fetch(ctx context.Context, src config.Source, f filter.Filters) []item.Item {
	log := r.deps.Logger.With(zap.String("source", r.Key()))
	if len(src.Subreddits) == 0 {
		log.Debug("no subreddits configured")
		return nil
	}
	limit := src.MaxResultsPerSubreddit
	if limit <= 0 || limit > redditMaxLimit {
		limit = redditMaxLimit
	}
	preview := src.PreviewChars
	if preview <= 0 {
		preview = redditDefaultPreview
	}

	f = src.Filters(f)
	kw := src.Keywords(f)
	getter, base := r.getter(ctx, src)
	pg := newPager(r.deps)
	seen := dedupe{}
	var out []item.Item

	for _, sub := range src.Subreddits {
		if err := pg.wait(ctx); err != nil {
			break
		}
		u := fmt.Sprintf("%s/r/%s/new.json?limit=%d&raw_json=1", strings.TrimRight(base, "/"), url.PathEscape(sub), limit)
		body, err := getter.Get(ctx, u)
		if err != nil {
			log.Warn("subreddit failed", zap.String("target", sub), zap.Error(err))
			continue
		}
		var l listing
		if err := json.Unmarshal(body, &l); err != nil {
			log.Warn("subreddit failed", zap.String("target", sub), zap.Error(err))
			continue
		}
		for _, c := range l.Data.Children {
			var p Post
			if err := json.Unmarshal(c.Data, &p); err != nil {
				log.Debug("skipping malformed post", zap.String("target", sub), zap.Error(err))
				continue
			}
			it, ok := normalizePost(p, sub, preview)
			if !ok {
				log.Debug("skipping malformed post", zap.String("target", sub))
				continue
			}
			if !f.Recent(it.Published) {
				continue
			}
			if !kw.Admit(filter.Haystack(p.Title, it.FullText), false) {
				continue
			}
			if !seen.first(it.ID) {
				continue
			}
			out = append(out, it)
		}
	}
	return out
}

func normalizePost(p Post, sub string, preview int) (item.Item, bool) {
	title := strings.TrimSpace(p.Title)
	if title == "" && p.Permalink == "" {
		return item.Item{}, false
	}
	link := ""
	if p.Permalink != "" {
		link = "https://www.reddit.com" + p.Permalink
	}
	id := p.ID
	if id == "" {
		id = link
	}

	full := strings.TrimSpace(p.Selftext)
	text := strings.NewReplacer("\r", " ", "\n", " ").Replace(full)

	var authors []item.Author
	if p.Author != "" {
		authors = []item.Author{{Name: p.Author}}
	}

	return item.Item{
		ID:        id,
		Title:     fmt.Sprintf("[r/%s] %s", sub, title),
		Summary:   item.Truncate(text, preview),
		FullText:  full,
		Authors:   authors,
		Published: item.FromUnix(p.CreatedUTC),
		Source:    "Reddit",
		Category:  sub,
		Tags:      []string{"reddit"},
		Link:      link,
	}, true
}
