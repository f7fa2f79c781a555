package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

const (
	openReviewDefaultLimit = 75
	openReviewMaxPage      = 1000
	openReviewSite         = "https://openreview.net"
)

var openReviewAbstractKeys = []string{"abstract", "Abstract", "tl;dr", "TL;DR", "summary", "Summary"}

// Note is one OpenReview API v2 note. Content values arrive as
// {"value": x} wrappers, lists or bare strings depending on the venue.
type Note struct {
	ID      string         `json:"id"`
	Forum   string         `json:"forum"`
	TMDate  int64          `json:"tmdate"`
	MDate   int64          `json:"mdate"`
	CDate   int64          `json:"cdate"`
	Content map[string]any `json:"content"`
}

// notesPage keeps notes raw so one malformed note is skipped alone.
type notesPage struct {
	Notes []json.RawMessage `json:"notes"`
	Count int               `json:"count"`
}

// OpenReview lists venue submissions through the API v2 notes endpoint.
type OpenReview struct {
	BaseURL string
	deps    Deps
}

func NewOpenReview(d Deps) *OpenReview {
	return &OpenReview{BaseURL: "https://api2.openreview.net", deps: d.withDefaults()}
}

func (o *OpenReview) Key() string  { return "openreview" }
func (o *OpenReview) Name() string { return "OpenReview" }

func (o *OpenReview) notesURL(venue string, limit, offset int) string {
	q := url.Values{}
	q.Set("content.venue", venue)
	q.Set("sort", "tmdate:desc")
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))
	return strings.TrimRight(o.BaseURL, "/") + "/notes?" + q.Encode()
}

func (o *OpenReview) Fetch(ctx context.Context, src config.Source, f filter.Filters) []item.Item {
	log := o.deps.Logger.With(zap.String("source", o.Key()))
	if len(src.Venues) == 0 {
		log.Debug("no venues configured")
		return nil
	}
	limit := src.LimitPerVenue
	if limit <= 0 {
		limit = openReviewDefaultLimit
	}

	f = src.Filters(f)
	kw := src.Keywords(f)
	pg := newPager(o.deps)
	seen := dedupe{}
	var out []item.Item

	for _, venue := range src.Venues {
		notes, err := o.retrieve(ctx, pg, venue, limit, f, log)
		if err != nil {
			log.Warn("venue failed", zap.String("target", venue), zap.Error(err))
		}
		for _, n := range notes {
			it, ok := normalizeNote(n, venue)
			if !ok {
				log.Debug("skipping malformed note", zap.String("target", venue))
				continue
			}
			if !f.Recent(it.Published) {
				continue
			}
			if !kw.Admit(filter.Haystack(it.Title, it.Summary), false) {
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

// retrieve pages through a venue newest-first. Paging stops at limit notes,
// a short page, the page cap, or once a page ends outside the lookback
// window. Notes fetched before an error are still returned.
func (o *OpenReview) retrieve(ctx context.Context, pg *pager, venue string, limit int, f filter.Filters, log *zap.Logger) ([]Note, error) {
	var notes []Note
	offset := 0
	for page := 0; page < pg.maxPages && offset < limit; page++ {
		if err := pg.wait(ctx); err != nil {
			return notes, err
		}
		n := min(openReviewMaxPage, limit-offset)
		body, err := o.deps.Getter.Get(ctx, o.notesURL(venue, n, offset))
		if err != nil {
			return notes, err
		}
		var resp notesPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return notes, fmt.Errorf("decoding notes: %w", err)
		}
		offset += len(resp.Notes)

		var last *Note
		for _, raw := range resp.Notes {
			var note Note
			if err := json.Unmarshal(raw, &note); err != nil {
				log.Debug("skipping malformed note", zap.String("target", venue), zap.Error(err))
				continue
			}
			notes = append(notes, note)
			last = &notes[len(notes)-1]
		}
		if len(resp.Notes) < n {
			break
		}
		if last != nil {
			if ts := item.FromUnixMilli(last.modified()); !ts.IsZero() && !f.Recent(ts) {
				break
			}
		}
	}
	return notes, nil
}

func (n Note) modified() int64 {
	for _, ts := range []int64{n.TMDate, n.MDate, n.CDate} {
		if ts > 0 {
			return ts
		}
	}
	return 0
}

func normalizeNote(n Note, venue string) (item.Item, bool) {
	if n.ID == "" {
		return item.Item{}, false
	}
	forum := n.Forum
	if forum == "" {
		forum = n.ID
	}

	var authors []item.Author
	for _, name := range asList(n.Content["authors"]) {
		authors = append(authors, item.Author{Name: name})
	}

	return item.Item{
		ID:        n.ID,
		Title:     item.Flatten(asText(n.Content["title"])),
		Summary:   firstContentText(n.Content, openReviewAbstractKeys...),
		Authors:   authors,
		Published: item.FromUnixMilli(n.modified()),
		Source:    "OpenReview",
		Category:  venue,
		Tags:      []string{"openreview"},
		Link:      openReviewSite + "/forum?id=" + url.QueryEscape(forum),
		PDF:       absoluteOpenReview(asText(n.Content["pdf"])),
	}, true
}

func absoluteOpenReview(path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return openReviewSite + path
	default:
		return openReviewSite + "/" + path
	}
}

// firstContentText returns the first present key as text.
func firstContentText(content map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := content[k]; ok {
			return asText(v)
		}
	}
	return ""
}

// asText flattens an OpenReview content value to a string.
func asText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, k := range []string{"value", "text", "content"} {
			if s := asText(t[k]); s != "" {
				return s
			}
		}
		return ""
	case []any:
		var parts []string
		for _, x := range t {
			if s := asText(x); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		return fmt.Sprint(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func asList(v any) []string {
	switch t := v.(type) {
	case map[string]any:
		return asList(t["value"])
	case []any:
		var out []string
		for _, x := range t {
			if s := asText(x); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}
