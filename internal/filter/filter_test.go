package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnyMatch(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{name: "empty keywords", text: "anything", keywords: nil, want: true},
		{name: "empty keywords empty text", text: "", keywords: []string{}, want: true},
		{name: "case insensitive", text: "A Security Audit of X", keywords: []string{"security"}, want: true},
		{name: "substring", text: "LLMs everywhere", keywords: []string{"llm"}, want: true},
		{name: "no hit", text: "Cooking Tips", keywords: []string{"security"}, want: false},
		{name: "empty text", text: "", keywords: []string{"security"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnyMatch(tt.text, tt.keywords))
		})
	}
}

func TestNoneMatch(t *testing.T) {
	assert.True(t, NoneMatch("Hiring now", nil))
	assert.True(t, NoneMatch("", []string{}))
	assert.False(t, NoneMatch("We are HIRING", []string{"hiring"}))
	assert.True(t, NoneMatch("Paper release", []string{"hiring", "weekly"}))
}

func TestIsRecent(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	for _, window := range []time.Duration{0, -time.Hour} {
		assert.True(t, IsRecent(time.Time{}, window, now))
		assert.True(t, IsRecent(now.AddDate(-5, 0, 0), window, now))
	}

	assert.True(t, IsRecent(time.Time{}, Days(1), now), "undated items are always recent")
	assert.True(t, IsRecent(now.Add(-23*time.Hour), Days(1), now))
	assert.True(t, IsRecent(now.Add(-24*time.Hour), Days(1), now), "boundary is inclusive")
	assert.False(t, IsRecent(now.Add(-25*time.Hour), Days(1), now))
	assert.True(t, IsRecent(now.Add(time.Hour), Days(1), now), "future timestamps are recent")
}

func TestFiltersWindow(t *testing.T) {
	f := Filters{LookbackDays: 7}
	assert.Equal(t, 7*24*time.Hour, f.Window())

	f.LookbackHours = 6
	assert.Equal(t, 6*time.Hour, f.Window())

	g := f.WithLookbackDays(1)
	assert.Equal(t, 24*time.Hour, g.Window())
	assert.Equal(t, 6*time.Hour, f.Window(), "original is untouched")
}

func TestFiltersRecentUsesPinnedClock(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	f := Filters{LookbackDays: 1, Now: now}
	assert.True(t, f.Recent(now.Add(-12*time.Hour)))
	assert.False(t, f.Recent(now.Add(-48*time.Hour)))
}

func TestEffective(t *testing.T) {
	global := []string{"security"}
	empty := []string{}
	local := []string{"llm"}

	assert.Equal(t, global, Effective(nil, global), "absent override inherits")
	assert.Empty(t, Effective(&empty, global), "empty override disables global list")
	assert.Equal(t, local, Effective(&local, global))
}

func TestEmptyOverrideBypassesGlobalInclude(t *testing.T) {
	empty := []string{}
	kw := Keywords{Include: Effective(&empty, []string{"security"})}
	assert.True(t, kw.Admit("Cooking Tips", false))
}

func TestUnion(t *testing.T) {
	got := Union([]string{"AI", "llm"}, []string{"ai", "security", " "})
	assert.Equal(t, []string{"AI", "llm", "security"}, got)
}

func TestKeywordsAdmit(t *testing.T) {
	kw := Keywords{Include: []string{"security"}, Exclude: []string{"hiring"}}

	assert.True(t, kw.Admit("A Security Audit of X", false))
	assert.False(t, kw.Admit("Cooking Tips", false))
	assert.True(t, kw.Admit("Cooking Tips", true), "priority bypasses include")
	assert.False(t, kw.Admit("Security team hiring", true), "exclude always applies")
}

func TestIsPriorityAuthor(t *testing.T) {
	f := Filters{PriorityAuthors: []string{"yoshua bengio"}}
	assert.True(t, f.IsPriorityAuthor([]string{"Ada", "Yoshua Bengio "}))
	assert.False(t, f.IsPriorityAuthor([]string{"Ada"}))
	assert.False(t, Filters{}.IsPriorityAuthor([]string{"Ada"}))
}

func TestNormalizeAuthors(t *testing.T) {
	assert.Equal(t, []string{"ada lovelace"}, NormalizeAuthors([]string{" Ada Lovelace ", ""}))
}
