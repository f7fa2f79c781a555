// Package server exposes the digest over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/item"
	"github.com/Tomjg14/research-newsfeed/internal/render"
)

// FetchFunc runs one aggregation. Every request fetches afresh.
type FetchFunc func(ctx context.Context) aggregate.BucketMap

type Server struct {
	log            *zap.Logger
	fetch          FetchFunc
	title          string
	maxPerSource   int
	requestTimeout time.Duration
	now            func() time.Time
}

type Options struct {
	Title          string
	MaxPerSource   int
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func New(fetch FetchFunc, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Server{
		log:            log,
		fetch:          fetch,
		title:          opts.Title,
		maxPerSource:   opts.MaxPerSource,
		requestTimeout: timeout,
		now:            time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleHTML)
	r.Get("/digest.txt", s.handleText)
	r.Get("/digest.md", s.handleMarkdown)
	r.Get("/api/items", s.handleItems)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.requestTimeout + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) renderOptions(r *http.Request) render.Options {
	return render.Options{
		Title:        s.title,
		MaxPerSource: clampInt(r.URL.Query().Get("max"), s.maxPerSource, 1000),
		Now:          s.now(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	buckets := s.fetch(r.Context())
	page, err := render.HTML(buckets, s.renderOptions(r))
	if err != nil {
		s.log.Error("rendering html", zap.Error(err))
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	buckets := s.fetch(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(render.Plaintext(buckets, s.renderOptions(r))))
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	items := s.selectItems(r)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="research_feed.md"`)
	w.Write([]byte(render.Markdown(items, s.renderOptions(r))))
}

type itemsResponse struct {
	Count int         `json:"count"`
	Items []item.Item `json:"items"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items := s.selectItems(r)
	if limit := clampInt(r.URL.Query().Get("limit"), 0, 10_000); limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []item.Item{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{Count: len(items), Items: items})
}

// selectItems returns one bucket when ?source names it, else the combined
// view, narrowed by ?category.
func (s *Server) selectItems(r *http.Request) []item.Item {
	buckets := s.fetch(r.Context())
	src := strings.TrimSpace(r.URL.Query().Get("source"))

	var items []item.Item
	if src == "" || strings.EqualFold(src, "all") {
		items = aggregate.Combined(buckets)
	} else {
		items = buckets.Get(src)
	}
	return aggregate.FilterCategory(items, strings.TrimSpace(r.URL.Query().Get("category")))
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
