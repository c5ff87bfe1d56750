package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/store"
)

func newTestServer(t *testing.T, mode store.RuntimeMode, files map[string]string) (*Server, string) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	s, err := store.New(store.Options{ContentDir: dir, SiteTitle: "Test Site", Mode: mode})
	require.NoError(t, err)
	require.NoError(t, s.Scan(context.Background()))

	return New(s, Options{Port: 0, SiteTitle: "Test Site"}), dir
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_ServesRenderedPage(t *testing.T) {
	srv, _ := newTestServer(t, store.RuntimeMode{Development: true}, map[string]string{
		"guides/intro.md": "---\ntitle: Intro\n---\n## Hello\n\nBody.\n",
	})

	rec := get(t, srv, "/guides/intro")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<title>Intro — Test Site</title>")
	require.Contains(t, rec.Body.String(), "Body.")
}

func TestServer_UnknownPageIs404(t *testing.T) {
	srv, _ := newTestServer(t, store.RuntimeMode{Development: true}, map[string]string{
		"a.md": "hello\n",
	})

	rec := get(t, srv, "/guides/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DraftHiddenInProduction(t *testing.T) {
	files := map[string]string{
		"guides/secret.md": "---\ndraft: true\n---\nhidden\n",
	}

	prod, _ := newTestServer(t, store.RuntimeMode{}, files)
	require.Equal(t, http.StatusNotFound, get(t, prod, "/guides/secret").Code)

	dev, _ := newTestServer(t, store.RuntimeMode{Development: true}, files)
	require.Equal(t, http.StatusOK, get(t, dev, "/guides/secret").Code)
}

func TestServer_IndexListsVisibleDocuments(t *testing.T) {
	srv, _ := newTestServer(t, store.RuntimeMode{Development: true}, map[string]string{
		"guides/intro.md": "---\ntitle: Intro Guide\n---\nx\n",
		"notes.md":        "---\ntitle: Loose Note\n---\nx\n",
	})

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `<a href="/guides/intro">Intro Guide</a>`)
	require.Contains(t, rec.Body.String(), `<a href="/notes">Loose Note</a>`)
}

func TestServer_SectionPathRendersSectionIndex(t *testing.T) {
	srv, _ := newTestServer(t, store.RuntimeMode{Development: true}, map[string]string{
		"guides/intro.md": "---\ntitle: Intro Guide\n---\nx\n",
	})

	rec := get(t, srv, "/guides")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Intro Guide")
}

func TestServer_DevModePicksUpFileChanges(t *testing.T) {
	srv, dir := newTestServer(t, store.RuntimeMode{Development: true}, map[string]string{
		"a.md": "---\ntitle: Before\n---\nold body\n",
	})

	require.Contains(t, get(t, srv, "/a").Body.String(), "old body")

	full := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(full, []byte("---\ntitle: After\n---\nnew body\n"), 0o644))
	// Push mtime forward so the change is detected even on coarse clocks.
	st, err := os.Stat(full)
	require.NoError(t, err)
	future := st.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(full, future, future))

	rec := get(t, srv, "/a")
	require.Contains(t, rec.Body.String(), "new body")
}

func newMetricsTestServer(t *testing.T, metricsPort int) *Server {
	t.Helper()

	s, err := store.New(store.Options{ContentDir: t.TempDir(), SiteTitle: "Test Site"})
	require.NoError(t, err)
	require.NoError(t, s.Scan(context.Background()))

	return New(s, Options{
		Port:        8080,
		MetricsPort: metricsPort,
		SiteTitle:   "Test Site",
		Metrics:     metrics.NewPrometheusRecorder(nil),
	})
}

func TestServer_MetricsOnDedicatedPortLeaveMainMux(t *testing.T) {
	srv := newMetricsTestServer(t, 9090)

	require.Equal(t, http.StatusNotFound, get(t, srv, "/metrics").Code)

	mh := srv.MetricsHandler()
	require.NotNil(t, mh)

	rec := httptest.NewRecorder()
	mh.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "mdsite_")
}

func TestServer_MetricsShareMainPortByDefault(t *testing.T) {
	srv := newMetricsTestServer(t, 8080)

	require.Nil(t, srv.MetricsHandler())

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "mdsite_")
}

func TestServer_HealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, store.RuntimeMode{}, map[string]string{"a.md": "x\n"})

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}
