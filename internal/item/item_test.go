package item

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"the quick brown fox", 12, "the quick…"},
		{"the quick brown", 9, "the quick…"},
		{"abcdefghij", 5, "abcde…"},
		{"", 5, ""},
		{"no budget at all", 0, "no budget at all"},
		{"trailing   spaces here", 12, "trailing…"},
	}
	for _, tt := range tests {
		got := Truncate(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateUTF8(t *testing.T) {
	got := Truncate("こんにちは 世界です", 7)
	want := "こんにちは…"
	if got != want {
		t.Errorf("Truncate(Japanese, 7) = %q, want %q", got, want)
	}
}

func TestTruncateNeverSplitsWords(t *testing.T) {
	words := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 20)
	for _, budget := range []int{FeedBudget, RenderBudget, 17, 50} {
		got := Truncate(words, budget)
		if !strings.HasSuffix(got, Ellipsis) {
			t.Fatalf("budget %d: missing ellipsis in %q", budget, got)
		}
		body := strings.TrimSuffix(got, Ellipsis)
		if n := utf8.RuneCountInString(body); n > budget {
			t.Errorf("budget %d: body has %d runes", budget, n)
		}
		if !strings.HasPrefix(words, body) {
			t.Fatalf("budget %d: %q is not a prefix", budget, body)
		}
		if next := words[len(body)]; next != ' ' {
			t.Errorf("budget %d: cut inside a word (next byte %q)", budget, next)
		}
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello <b>world</b></p><script>alert(1)</script>", "Hello world"},
		{"<div>a</div><div>b</div>", "a b"},
		{"<style>p{}</style><p>  Multiple \n  spaces </p>", "Multiple spaces"},
		{"  plain text  ", "plain text"},
		{"", ""},
		{`<a href="https://x.test">Link</a> text`, "Link text"},
	}
	for _, tt := range tests {
		got := CleanHTML(tt.input)
		if got != tt.want {
			t.Errorf("CleanHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-03T10:00:00Z", time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)},
		{"Wed, 03 Jan 2024 10:00:00 +0100", time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)},
		{"2024-01-03", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.input)
		if err != nil {
			t.Errorf("ParseTime(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	for _, bad := range []string{"", "   ", "not a date"} {
		if _, err := ParseTime(bad); !errors.Is(err, ErrUnparsableTime) {
			t.Errorf("ParseTime(%q): expected ErrUnparsableTime, got %v", bad, err)
		}
	}
}

func TestEpochHelpers(t *testing.T) {
	if got := FromUnix(1704276000); !got.Equal(time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("FromUnix = %v", got)
	}
	if !FromUnix(0).IsZero() {
		t.Error("FromUnix(0) should be zero")
	}
	if got := FromUnixMilli(1704276000000); !got.Equal(time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("FromUnixMilli = %v", got)
	}
	if !FromUnixMilli(-5).IsZero() {
		t.Error("FromUnixMilli(-5) should be zero")
	}
}

func TestItemLinksAndKey(t *testing.T) {
	it := Item{Link: "https://example.com/a"}
	if it.Key() != "https://example.com/a" {
		t.Errorf("Key without id = %q", it.Key())
	}
	if it.DocumentLink() != "https://example.com/a" {
		t.Errorf("DocumentLink without pdf = %q", it.DocumentLink())
	}
	it.ID = "abc"
	it.PDF = "https://example.com/a.pdf"
	if it.Key() != "abc" {
		t.Errorf("Key = %q", it.Key())
	}
	if it.DocumentLink() != "https://example.com/a.pdf" {
		t.Errorf("DocumentLink = %q", it.DocumentLink())
	}
	if it.Dated() {
		t.Error("zero Published should be undated")
	}
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{nil, ""},
		{[]string{"Ada"}, "Ada"},
		{[]string{"Ada", " ", "Grace"}, "Ada, Grace"},
		{[]string{"A", "B", "C", "D"}, "A, B, C et al."},
	}
	for _, tt := range tests {
		got := FormatAuthors(Authors(tt.names...))
		if got != tt.want {
			t.Errorf("FormatAuthors(%v) = %q, want %q", tt.names, got, tt.want)
		}
	}
}
