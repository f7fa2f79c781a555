// Package source turns provider payloads into uniform items. Each adapter
// owns one provider; the registry fixes their order for the aggregator.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/item"
)

// ErrProviderUnavailable wraps transport failures and non-2xx responses.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Adapter fetches, normalizes and filters one provider's items. Fetch never
// fails: provider and parse errors degrade to fewer (or zero) items.
type Adapter interface {
	Key() string
	Name() string
	Fetch(ctx context.Context, src config.Source, f filter.Filters) []item.Item
}

// Getter retrieves a raw provider payload.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// GetterFunc adapts a function to Getter.
type GetterFunc func(ctx context.Context, url string) ([]byte, error)

func (g GetterFunc) Get(ctx context.Context, url string) ([]byte, error) {
	return g(ctx, url)
}

const maxBody = 16 << 20

// HTTPGetter is the production Getter: every request carries the configured
// User-Agent and is bounded by the client timeout.
type HTTPGetter struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPGetter(cfg config.HTTP) *HTTPGetter {
	return &HTTPGetter{
		Client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		UserAgent: cfg.Agent(),
	}
}

func (g *HTTPGetter) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrProviderUnavailable, url, resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrProviderUnavailable, err)
	}
	return body, nil
}

// Deps are the collaborators every adapter shares.
type Deps struct {
	Getter Getter
	Logger *zap.Logger
	// PageDelay is the pause between successive page requests to one
	// provider; MaxPages bounds pagination per target.
	PageDelay time.Duration
	MaxPages  int
	// HTTPClient and UserAgent back adapters that build their own
	// authenticated transport (Reddit OAuth).
	HTTPClient *http.Client
	UserAgent  string
}

// DepsFromConfig wires the production transport.
func DepsFromConfig(cfg *config.Config, logger *zap.Logger) Deps {
	g := NewHTTPGetter(cfg.HTTP)
	return Deps{
		Getter:     g,
		Logger:     logger,
		PageDelay:  cfg.HTTP.PageDelayDuration(),
		MaxPages:   cfg.HTTP.PageCap(),
		HTTPClient: g.Client,
		UserAgent:  g.UserAgent,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Getter == nil {
		d.Getter = &HTTPGetter{Client: &http.Client{Timeout: 20 * time.Second}}
	}
	if d.MaxPages <= 0 {
		d.MaxPages = 10
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	return d
}

// pager spaces out successive requests to one provider and bounds how many
// pages a single target may consume.
type pager struct {
	limiter  *rate.Limiter
	maxPages int
}

func newPager(d Deps) *pager {
	limit := rate.Inf
	if d.PageDelay > 0 {
		limit = rate.Every(d.PageDelay)
	}
	return &pager{limiter: rate.NewLimiter(limit, 1), maxPages: d.MaxPages}
}

func (p *pager) wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Registry is the ordered set of adapters, keyed by config key.
type Registry struct {
	adapters []Adapter
	byKey    map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byKey: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, dup := r.byKey[a.Key()]; dup {
			continue
		}
		r.adapters = append(r.adapters, a)
		r.byKey[a.Key()] = a
	}
	return r
}

// DefaultRegistry registers every provider in config.SourceKeys order.
func DefaultRegistry(d Deps) *Registry {
	d = d.withDefaults()
	return NewRegistry(
		NewArxiv(d),
		NewOpenReview(d),
		NewACL(d),
		NewReddit(d),
		NewHackerNews(d),
		NewHackernoon(d),
	)
}

func (r *Registry) Adapters() []Adapter {
	return r.adapters
}

func (r *Registry) Lookup(key string) (Adapter, bool) {
	a, ok := r.byKey[key]
	return a, ok
}

func (r *Registry) Keys() []string {
	keys := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		keys[i] = a.Key()
	}
	return keys
}

// Names returns display names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// dedupe tracks ids already emitted in one adapter pass.
type dedupe map[string]struct{}

// first reports whether key is new. Keyless items are never duplicates.
func (d dedupe) first(key string) bool {
	if key == "" {
		return true
	}
	if _, ok := d[key]; ok {
		return false
	}
	d[key] = struct{}{}
	return true
}
