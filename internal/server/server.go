// Package server exposes the processed documents over HTTP: rendered pages,
// section listings, health, and metrics.
package server

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/document"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/store"
)

// Options configures the HTTP server.
type Options struct {
	Port      int
	SiteTitle string
	Metrics   *metrics.PrometheusRecorder

	// MetricsPort moves /metrics to a dedicated listener when it differs
	// from Port. Zero or equal to Port shares the main listener.
	MetricsPort int
}

// Server serves documents from a DocumentStore. In development mode, pages
// are refreshed from disk when their source file changed since load.
type Server struct {
	store       *store.DocumentStore
	opts        Options
	http        *http.Server
	metricsHTTP *http.Server
}

// New wires the server routes. With a dedicated metrics port configured,
// /metrics moves to its own listener and stays off the site port.
func New(s *store.DocumentStore, opts Options) *Server {
	srv := &Server{store: s, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /", srv.handlePage)

	if opts.Metrics != nil {
		if opts.MetricsPort != 0 && opts.MetricsPort != opts.Port {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("GET /metrics", opts.Metrics.Handler())
			srv.metricsHTTP = &http.Server{
				Addr:              fmt.Sprintf(":%d", opts.MetricsPort),
				Handler:           metricsMux,
				ReadHeaderTimeout: 10 * time.Second,
			}
		} else {
			mux.Handle("GET /metrics", opts.Metrics.Handler())
		}
	}

	srv.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           withRequestLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Start binds the listeners and serves until Stop is called. Binding happens
// up front so port conflicts fail fast.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("bind port %d: %w", s.opts.Port, err)
	}

	var metricsLn net.Listener
	if s.metricsHTTP != nil {
		metricsLn, err = lc.Listen(ctx, "tcp", s.metricsHTTP.Addr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("bind metrics port %d: %w", s.opts.MetricsPort, err)
		}
	}

	slog.Info("server listening", "addr", fmt.Sprintf("http://localhost:%d", s.opts.Port))
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()

	if s.metricsHTTP != nil {
		slog.Info("metrics listening", "addr", fmt.Sprintf("http://localhost:%d", s.opts.MetricsPort))
		go func() {
			if err := s.metricsHTTP.Serve(metricsLn); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}
	return nil
}

// Stop shuts both servers down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.metricsHTTP != nil {
		if merr := s.metricsHTTP.Shutdown(ctx); err == nil {
			err = merr
		}
	}
	return err
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// MetricsHandler exposes the dedicated metrics handler, nil when metrics
// share the main listener.
func (s *Server) MetricsHandler() http.Handler {
	if s.metricsHTTP == nil {
		return nil
	}
	return s.metricsHTTP.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","documents":%d}`+"\n", len(s.store.Documents()))
}

// handlePage serves a rendered document or, for directory-style paths, a
// section index.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	p := strings.Trim(r.URL.Path, "/")
	if p == "" {
		s.renderIndex(w, "")
		return
	}

	section, slug := splitPagePath(p)
	doc := s.store.FindBySlugInSection(section, slug, false)
	if doc == nil {
		// Not a document; maybe the whole path names a section.
		if docs := s.store.BySection(p, true); len(docs) > 0 {
			s.renderIndex(w, p)
			return
		}
		http.NotFound(w, r)
		return
	}

	if s.store.CanRefresh() {
		if err := s.store.RefreshIfStale(r.Context(), doc.Path); err != nil {
			slog.Warn("stale refresh failed", "path", doc.Path, "error", err)
		}
		// Re-fetch: the lookup above returned a copy, so the refreshed
		// content is only visible through a fresh one.
		if doc = s.store.Get(doc.Path); doc == nil {
			http.NotFound(w, r)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(doc.PageHTML))
}

// splitPagePath separates "guides/deep/intro" into section "guides/deep"
// and slug "intro".
func splitPagePath(p string) (section, slug string) {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[:idx], p[idx+1:]
	}
	return "", p
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Site}}</title>
</head>
<body>
<main>
<h1>{{.Site}}</h1>
<ul>
{{range .Entries}}<li><a href="{{.Href}}">{{.Title}}</a></li>
{{end}}</ul>
</main>
</body>
</html>
`))

type indexEntry struct {
	Href  string
	Title string
}

func (s *Server) renderIndex(w http.ResponseWriter, section string) {
	docs := s.store.BySection(section, true)

	entries := make([]indexEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, indexEntry{Href: pageHref(d), Title: d.Title})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Site    string
		Entries []indexEntry
	}{Site: s.opts.SiteTitle, Entries: entries})
	if err != nil {
		slog.Error("index render failed", "error", err)
	}
}

func pageHref(d *document.Document) string {
	if sec := store.Section(d.Path); sec != "" {
		return "/" + sec + "/" + d.Slug
	}
	return "/" + d.Slug
}
