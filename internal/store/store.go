// Package store maintains the in-memory collection of processed documents:
// scanning a content directory, caching rendered output, resolving
// cross-document lookups, and refreshing single files on change.
package store

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdsite/internal/document"
	"git.home.luguber.info/inful/mdsite/internal/events"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/source"
)

// RuntimeMode captures the execution context that gates mutation paths.
// Background tasks (scheduled rescans, CI builds) must never trigger the
// per-request refresh path even in development.
type RuntimeMode struct {
	Development    bool
	BackgroundTask bool
}

// Options configures a DocumentStore.
type Options struct {
	ContentDir string
	SiteTitle  string
	Mode       RuntimeMode
	Recorder   metrics.Recorder
	Cache      *RenderCache
	Publisher  events.Publisher
}

// DocumentStore holds every processed document keyed by its path relative to
// the content directory. The canonical records keep their identity across
// rescans (refreshes overwrite them in place through ApplyFrom), while the
// accessor methods hand out copies taken under the store lock, so concurrent
// readers never observe a partially applied refresh.
type DocumentStore struct {
	contentDir string
	src        source.Store
	pipeline   *markdown.Pipeline
	page       *markdown.PageRenderer
	mode       RuntimeMode
	recorder   metrics.Recorder
	cache      *RenderCache
	publisher  events.Publisher

	mu     sync.RWMutex
	docs   map[string]*document.Document
	loaded map[string]time.Time
}

// New constructs a store over the given content directory.
func New(opts Options) (*DocumentStore, error) {
	if opts.ContentDir == "" {
		return nil, fmt.Errorf("store: content directory is required")
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}

	s := &DocumentStore{
		contentDir: opts.ContentDir,
		src:        &source.OSStore{Dir: opts.ContentDir},
		page:       &markdown.PageRenderer{SiteTitle: opts.SiteTitle},
		mode:       opts.Mode,
		recorder:   opts.Recorder,
		cache:      opts.Cache,
		publisher:  opts.Publisher,
		docs:       make(map[string]*document.Document),
		loaded:     make(map[string]time.Time),
	}

	pipeline, err := markdown.NewPipeline(s.src,
		markdown.WithRecorder(s.recorder),
		markdown.WithFinder(s),
	)
	if err != nil {
		return nil, err
	}
	s.pipeline = pipeline

	return s, nil
}

// Scan walks the content directory and (re)processes every markdown file in
// sorted path order. Documents containing includes are rendered a second
// time once the full set is loaded, so includes always splice against the
// complete store regardless of file ordering.
func (s *DocumentStore) Scan(ctx context.Context) error {
	start := time.Now()
	scanID := uuid.NewString()

	paths, err := s.listMarkdownFiles()
	if err != nil {
		return fmt.Errorf("scan %s: %w", s.contentDir, err)
	}

	slog.Info("scanning content", "scan_id", scanID, "files", len(paths))

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		seen[p] = true
		if err := s.loadOne(ctx, p); err != nil {
			slog.Error("document failed to load", "path", p, "error", err)
		}
	}

	s.dropMissing(ctx, seen)
	s.renderIncludes(paths)

	s.mu.RLock()
	count := len(s.docs)
	s.mu.RUnlock()

	s.recorder.ObserveScanDuration(time.Since(start))
	s.recorder.SetDocumentCount(count)

	if err := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeScanCompleted,
		ScanID:    scanID,
		Documents: count,
	}); err != nil {
		slog.Warn("scan event not published", "error", err)
	}

	slog.Info("scan complete", "scan_id", scanID, "documents", count, "elapsed", time.Since(start))
	return nil
}

// loadOne processes a single file, serving it from the render cache when the
// content fingerprint is unchanged. Existing documents are updated in place.
func (s *DocumentStore) loadOne(ctx context.Context, relPath string) error {
	content, err := s.src.ReadAllText(relPath)
	if err != nil {
		return err
	}
	modTime, err := s.src.LastModified(relPath)
	if err != nil {
		modTime = time.Time{}
	}

	var doc *document.Document
	fingerprint := Fingerprint(content)
	if s.cache != nil && !hasInclude(content) {
		if cached := s.cache.Get(ctx, relPath, fingerprint); cached != nil {
			s.recorder.IncCacheResult(true)
			if cached.PageHTML == "" {
				// Rows written before the page was cached alongside the
				// preview carry no page HTML.
				s.renderPage(cached)
			}
			doc = cached
		}
	}
	if doc == nil {
		s.recorder.IncCacheResult(false)
		doc, err = s.pipeline.Process(relPath, content, modTime)
		if err != nil {
			return err
		}
		s.renderPage(doc)
		if s.cache != nil && !hasInclude(content) {
			s.cache.Put(ctx, fingerprint, doc)
		}
	}

	s.store(relPath, doc, modTime)
	return nil
}

// store installs doc under relPath, preserving the identity of an already
// published document. It is the only path that mutates published records;
// doc must be fully rendered before it is handed over.
func (s *DocumentStore) store(relPath string, doc *document.Document, modTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.docs[relPath]; ok {
		existing.ApplyFrom(doc)
	} else {
		s.docs[relPath] = doc
	}
	s.loaded[relPath] = modTime
}

// renderIncludes re-renders every document whose source uses the include
// directive, now that all potential targets are loaded.
func (s *DocumentStore) renderIncludes(paths []string) {
	for _, p := range paths {
		s.mu.RLock()
		var content string
		if doc, ok := s.docs[p]; ok {
			content = doc.Content
		}
		s.mu.RUnlock()
		if !hasInclude(content) {
			continue
		}

		modTime := time.Time{}
		if t, err := s.src.LastModified(p); err == nil {
			modTime = t
		}
		fresh, err := s.pipeline.Process(p, content, modTime)
		if err != nil {
			slog.Error("include re-render failed", "path", p, "error", err)
			continue
		}
		s.renderPage(fresh)
		s.store(p, fresh, modTime)
	}
}

// renderPage fills in the full page HTML (and the summary fallback) on a
// document that is not yet visible to readers, so only complete records
// reach the published map.
func (s *DocumentStore) renderPage(doc *document.Document) {
	page, err := s.page.RenderPage(doc)
	if err != nil {
		slog.Error("page render failed", "path", doc.Path, "error", err)
		return
	}
	doc.PageHTML = page
}

// dropMissing removes documents whose source files disappeared since the
// previous scan.
func (s *DocumentStore) dropMissing(ctx context.Context, seen map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p := range s.docs {
		if !seen[p] {
			delete(s.docs, p)
			delete(s.loaded, p)
			if s.cache != nil {
				s.cache.Delete(ctx, p)
			}
			slog.Info("document removed", "path", p)
		}
	}
}

func (s *DocumentStore) listMarkdownFiles() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.contentDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != s.contentDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.contentDir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// hasInclude reports whether raw markdown uses the include directive.
func hasInclude(content string) bool {
	return strings.Contains(content, "::include")
}

// CanRefresh reports whether the per-request refresh path is enabled. It is
// restricted to interactive development use.
func (s *DocumentStore) CanRefresh() bool {
	return s.mode.Development && !s.mode.BackgroundTask
}

// Refresh reprocesses a single document from disk, updating the existing
// record in place. Outside development (or inside a background task) it is
// a no-op. A vanished file drops the document.
func (s *DocumentStore) Refresh(ctx context.Context, relPath string) error {
	if !s.CanRefresh() {
		slog.Debug("refresh skipped outside development", "path", relPath)
		return nil
	}

	content, err := s.src.ReadAllText(relPath)
	if err != nil {
		if source.IsNotFound(err) {
			s.remove(ctx, relPath)
			return nil
		}
		return err
	}
	modTime, err := s.src.LastModified(relPath)
	if err != nil {
		modTime = time.Time{}
	}

	fresh, err := s.pipeline.Process(relPath, content, modTime)
	if err != nil {
		return err
	}
	s.renderPage(fresh)

	if s.cache != nil && !hasInclude(content) {
		s.cache.Put(ctx, Fingerprint(content), fresh)
	}
	s.store(relPath, fresh, modTime)

	if err := s.publisher.Publish(ctx, events.Event{
		Type: events.TypeDocumentRefreshed,
		Path: relPath,
		Slug: fresh.Slug,
	}); err != nil {
		slog.Warn("refresh event not published", "error", err)
	}

	slog.Debug("document refreshed", "path", relPath, "slug", fresh.Slug)
	return nil
}

// RefreshIfStale refreshes relPath only when the file on disk is newer than
// the loaded copy.
func (s *DocumentStore) RefreshIfStale(ctx context.Context, relPath string) error {
	if !s.CanRefresh() {
		return nil
	}

	s.mu.RLock()
	loadedAt, known := s.loaded[relPath]
	s.mu.RUnlock()
	if !known {
		return s.Refresh(ctx, relPath)
	}

	modTime, err := s.src.LastModified(relPath)
	if err != nil {
		if source.IsNotFound(err) {
			s.remove(ctx, relPath)
			return nil
		}
		return err
	}
	if !modTime.After(loadedAt) {
		return nil
	}
	return s.Refresh(ctx, relPath)
}

func (s *DocumentStore) remove(ctx context.Context, relPath string) {
	s.mu.Lock()
	_, existed := s.docs[relPath]
	delete(s.docs, relPath)
	delete(s.loaded, relPath)
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Delete(ctx, relPath)
	}
	if existed {
		slog.Info("document removed", "path", relPath)
	}
}

// snapshot returns a copy of d that is safe to read without the store lock.
// The copy shares the Tags slice and Map tree with the canonical record;
// both are rebuilt wholesale on refresh, never mutated afterwards.
func snapshot(d *document.Document) *document.Document {
	c := *d
	return &c
}

// Get returns a copy of the document at relPath, or nil. The copy is taken
// under the store lock, so a held result never changes under the caller and
// never exposes a half-applied refresh.
func (s *DocumentStore) Get(relPath string) *document.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[relPath]
	if !ok {
		return nil
	}
	return snapshot(d)
}

// Documents returns copies of all documents in sorted path order, taken as
// one consistent view of the store.
func (s *DocumentStore) Documents() []*document.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.docs))
	for p := range s.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]*document.Document, 0, len(paths))
	for _, p := range paths {
		out = append(out, snapshot(s.docs[p]))
	}
	return out
}

// FindBySlugInSection returns the first visible document in the given
// section whose slug matches exactly. With recursive set, subsections of
// section are searched too. Returns nil when nothing matches.
func (s *DocumentStore) FindBySlugInSection(section, slug string, recursive bool) *document.Document {
	section = strings.Trim(section, "/")

	for _, doc := range s.Documents() {
		if doc.Slug != slug || !s.IsVisible(doc) {
			continue
		}
		ds := Section(doc.Path)
		if ds == section {
			return doc
		}
		if recursive && (section == "" || strings.HasPrefix(ds, section+"/")) {
			return doc
		}
	}
	return nil
}

// BySection lists the visible documents of a section ordered by group, then
// explicit order, then path.
func (s *DocumentStore) BySection(section string, recursive bool) []*document.Document {
	section = strings.Trim(section, "/")

	var out []*document.Document
	for _, doc := range s.Documents() {
		if !s.IsVisible(doc) {
			continue
		}
		ds := Section(doc.Path)
		if ds == section || (recursive && (section == "" || strings.HasPrefix(ds, section+"/"))) {
			out = append(out, doc)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// IsVisible applies the publication predicate: development shows everything,
// production hides drafts and future-dated documents.
func (s *DocumentStore) IsVisible(doc *document.Document) bool {
	return Visible(doc, s.mode.Development, time.Now())
}

// Visible reports whether doc should be served given the development flag
// and the current time.
func Visible(doc *document.Document, dev bool, now time.Time) bool {
	if dev {
		return true
	}
	if doc.Draft {
		return false
	}
	return doc.Date == nil || !doc.Date.After(now)
}

// Section derives the section of a document path: the directory portion,
// empty for top-level files.
func Section(relPath string) string {
	dir := path.Dir(strings.Trim(relPath, "/"))
	if dir == "." {
		return ""
	}
	return dir
}

// Close releases held resources.
func (s *DocumentStore) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

var _ markdown.DocumentFinder = (*DocumentStore)(nil)
