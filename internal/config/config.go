package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/Tomjg14/research-newsfeed/internal/filter"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// SourceKeys lists the configurable source blocks in registry order.
var SourceKeys = []string{"arxiv", "openreview", "acl", "reddit", "hn", "hackernoon"}

// Source is one sources.<key> block. Only the keys relevant to a given
// adapter are read by it.
type Source struct {
	Enabled *bool `yaml:"enabled,omitempty"`

	Categories []string `yaml:"categories,omitempty"`
	Venues     []string `yaml:"venues,omitempty"`
	Feeds      []string `yaml:"feeds,omitempty"`
	Subreddits []string `yaml:"subreddits,omitempty"`

	MaxResultsPerCategory  int `yaml:"max_results_per_category,omitempty"`
	LimitPerVenue          int `yaml:"limit_per_venue,omitempty"`
	MaxResultsPerSubreddit int `yaml:"max_results_per_subreddit,omitempty"`
	MaxResultsPerFeed      int `yaml:"max_results_per_feed,omitempty"`
	PreviewChars           int `yaml:"preview_chars,omitempty"`

	LookbackDays *int `yaml:"lookback_days,omitempty"`

	// A present list (including an empty one) replaces the global list.
	IncludeKeywords *[]string `yaml:"include_keywords,omitempty"`
	ExcludeKeywords *[]string `yaml:"exclude_keywords,omitempty"`
	// MergeKeywords unions the local lists with the global ones instead.
	MergeKeywords bool `yaml:"merge_keywords,omitempty"`

	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
}

// IsEnabled defaults to true when the key is absent.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Keywords resolves the include/exclude lists for this source.
func (s Source) Keywords(f filter.Filters) filter.Keywords {
	if s.MergeKeywords {
		return filter.Keywords{
			Include: filter.Union(f.IncludeKeywords, deref(s.IncludeKeywords)),
			Exclude: filter.Union(f.ExcludeKeywords, deref(s.ExcludeKeywords)),
		}
	}
	return filter.Keywords{
		Include: filter.Effective(s.IncludeKeywords, f.IncludeKeywords),
		Exclude: filter.Effective(s.ExcludeKeywords, f.ExcludeKeywords),
	}
}

// Filters applies the source's lookback override, if any.
func (s Source) Filters(f filter.Filters) filter.Filters {
	if s.LookbackDays != nil {
		return f.WithLookbackDays(*s.LookbackDays)
	}
	return f
}

func deref(p *[]string) []string {
	if p == nil {
		return nil
	}
	return *p
}

// Limit is a per-source item cap. Zero means unlimited; YAML null, "",
// "none", "null" and negative numbers all decode to zero.
type Limit int

func (l *Limit) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*l = 0
		return nil
	}
	raw := strings.ToLower(strings.TrimSpace(node.Value))
	switch raw {
	case "", "none", "null", "0":
		*l = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid limit %q: %w", node.Value, err)
	}
	*l = Limit(max(0, n))
	return nil
}

type Email struct {
	MaxPerSource Limit `yaml:"max_per_source"`
}

type UI struct {
	DefaultSource       string `yaml:"default_source"`
	ShowAbstractDefault *bool  `yaml:"show_abstract_default,omitempty"`
}

// ShowAbstract defaults to true.
func (u UI) ShowAbstract() bool {
	return u.ShowAbstractDefault == nil || *u.ShowAbstractDefault
}

type HTTP struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
	PageDelay string `yaml:"page_delay"`
	MaxPages  int    `yaml:"max_pages"`
}

const defaultUserAgent = "AI-Research-Feed/1.0 (+https://github.com/Tomjg14/research-newsfeed)"

func (h HTTP) TimeoutDuration() time.Duration {
	return parseDuration(h.Timeout, 20*time.Second)
}

func (h HTTP) PageDelayDuration() time.Duration {
	return parseDuration(h.PageDelay, 3*time.Second)
}

func (h HTTP) Agent() string {
	if h.UserAgent == "" {
		return defaultUserAgent
	}
	return h.UserAgent
}

// PageCap bounds paginated requests per target.
func (h HTTP) PageCap() int {
	if h.MaxPages <= 0 {
		return 10
	}
	return h.MaxPages
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

type Config struct {
	LookbackDays    int      `yaml:"lookback_days"`
	LookbackHours   int      `yaml:"lookback_hours,omitempty"`
	IncludeKeywords []string `yaml:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	PriorityAuthors []string `yaml:"priority_authors"`

	Sources map[string]Source `yaml:"sources"`

	Email              Email `yaml:"email"`
	SendLimitPerSource int   `yaml:"send_limit_per_source,omitempty"`
	UI                 UI    `yaml:"ui"`
	HTTP               HTTP  `yaml:"http"`
	Parallel           bool  `yaml:"parallel,omitempty"`
}

// Source returns the block for key, or an empty (enabled) block.
func (c *Config) Source(key string) Source {
	if c.Sources == nil {
		return Source{}
	}
	return c.Sources[key]
}

// EnabledKeys returns the source keys not explicitly disabled, in registry
// order.
func (c *Config) EnabledKeys() []string {
	var out []string
	for _, k := range SourceKeys {
		if c.Source(k).IsEnabled() {
			out = append(out, k)
		}
	}
	return out
}

// Filters builds the global filter set for one run.
func (c *Config) Filters() filter.Filters {
	return filter.Filters{
		LookbackDays:    c.LookbackDays,
		LookbackHours:   c.LookbackHours,
		IncludeKeywords: c.IncludeKeywords,
		ExcludeKeywords: c.ExcludeKeywords,
		PriorityAuthors: filter.NormalizeAuthors(c.PriorityAuthors),
		Now:             time.Now().UTC(),
	}
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsfeed", "config.yaml")
}

// DBPath honours NEWSFEED_DB before the XDG data dir.
func DBPath() string {
	if p := os.Getenv("NEWSFEED_DB"); p != "" {
		return p
	}
	return filepath.Join(xdg.DataHome, "newsfeed", "newsfeed.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path (the XDG default when empty). A missing
// file yields the embedded defaults, which are also written to path so the
// user has something to edit.
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// best effort; the embedded defaults still apply
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// An omitted lookback_days keeps the default; an explicit 0 disables
	// the recency filter.
	cfg := Config{LookbackDays: defaults.LookbackDays}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Sources == nil {
		cfg.Sources = map[string]Source{}
	}
	expandSecrets(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

// expandSecrets resolves ${VAR} references in credential fields.
func expandSecrets(cfg *Config) {
	for k, s := range cfg.Sources {
		s.ClientID = os.ExpandEnv(s.ClientID)
		s.ClientSecret = os.ExpandEnv(s.ClientSecret)
		cfg.Sources[k] = s
	}
}

func validate(cfg *Config) error {
	if cfg.LookbackHours < 0 {
		return fmt.Errorf("lookback_hours cannot be negative")
	}
	if cfg.SendLimitPerSource < 0 {
		return fmt.Errorf("send_limit_per_source cannot be negative")
	}
	if cfg.HTTP.MaxPages < 0 {
		return fmt.Errorf("http.max_pages cannot be negative")
	}
	known := make(map[string]bool, len(SourceKeys))
	for _, k := range SourceKeys {
		known[k] = true
	}
	for key, s := range cfg.Sources {
		if !known[key] {
			return fmt.Errorf("unknown source %q (valid: %s)", key, strings.Join(SourceKeys, ", "))
		}
		if s.MaxResultsPerCategory < 0 || s.LimitPerVenue < 0 || s.MaxResultsPerSubreddit < 0 || s.MaxResultsPerFeed < 0 || s.PreviewChars < 0 {
			return fmt.Errorf("source %q: limits cannot be negative", key)
		}
		for _, raw := range s.Feeds {
			u, err := url.Parse(raw)
			if err != nil {
				return fmt.Errorf("source %q: invalid feed url: %w", key, err)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("source %q: feed url scheme must be http or https, got %q", key, u.Scheme)
			}
		}
	}
	return nil
}
