// Package item defines the uniform unit that flows through the fetch,
// filter, aggregate and render pipeline.
package item

import (
	"strings"
	"time"
)

type Author struct {
	Name string `json:"name"`
}

// Item is a single entry from any source. Items are treated as values: the
// pipeline filters, sorts and slices them but never edits fields in place.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	FullText  string    `json:"fulltext,omitempty"`
	Authors   []Author  `json:"authors"`
	Published time.Time `json:"published,omitzero"`
	Source    string    `json:"source"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Link      string    `json:"link"`
	PDF       string    `json:"pdf"`
}

// Dated reports whether the item carries a publication timestamp.
func (it Item) Dated() bool {
	return !it.Published.IsZero()
}

// Key is the identity used for dedupe inside a bucket: the id, or the link
// when the provider gave no id.
func (it Item) Key() string {
	if it.ID != "" {
		return it.ID
	}
	return it.Link
}

// DocumentLink prefers the PDF, then the canonical link.
func (it Item) DocumentLink() string {
	if it.PDF != "" {
		return it.PDF
	}
	return it.Link
}

func (it Item) AuthorNames() []string {
	names := make([]string, 0, len(it.Authors))
	for _, a := range it.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

// FormatAuthors joins up to three author names and appends "et al." when
// there are more.
func FormatAuthors(authors []Author) string {
	var names []string
	for _, a := range authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	if len(names) > 3 {
		return strings.Join(names[:3], ", ") + " et al."
	}
	return strings.Join(names, ", ")
}

// Authors builds an author list from plain names, skipping blanks.
func Authors(names ...string) []Author {
	out := make([]Author, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, Author{Name: n})
		}
	}
	return out
}
