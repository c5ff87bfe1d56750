// Package builder writes the rendered site to disk as static files.
package builder

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/document"
	"git.home.luguber.info/inful/mdsite/internal/store"
)

// Options controls the static build.
type Options struct {
	OutputDir string
	SiteTitle string
	Clean     bool
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

// Build writes every visible document as OutputDir/<section>/<slug>/index.html
// plus a root index. Returns the number of pages written.
func Build(s *store.DocumentStore, opts Options) (int, error) {
	if opts.OutputDir == "" {
		return 0, fmt.Errorf("builder: output directory is required")
	}

	if opts.Clean {
		if err := os.RemoveAll(opts.OutputDir); err != nil {
			return 0, fmt.Errorf("clean output dir: %w", err)
		}
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	docs := s.BySection("", true)

	written := 0
	for _, d := range docs {
		dir := filepath.Join(opts.OutputDir, filepath.FromSlash(pagePath(d)))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, fmt.Errorf("create page dir: %w", err)
		}
		target := filepath.Join(dir, "index.html")
		if err := os.WriteFile(target, []byte(d.PageHTML), 0o644); err != nil {
			return written, fmt.Errorf("write page %s: %w", target, err)
		}
		written++
		slog.Debug("page written", "path", d.Path, "target", target)
	}

	if err := writeIndex(docs, opts); err != nil {
		return written, err
	}

	slog.Info("site built", "pages", written, "output", opts.OutputDir)
	return written, nil
}

func writeIndex(docs []*document.Document, opts Options) error {
	type entry struct {
		Href  string
		Title string
	}
	entries := make([]entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, entry{Href: "/" + pagePath(d) + "/", Title: d.Title})
	}

	var b strings.Builder
	err := indexTemplate.Execute(&b, struct {
		Site    string
		Entries []entry
	}{Site: opts.SiteTitle, Entries: entries})
	if err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	target := filepath.Join(opts.OutputDir, "index.html")
	if err := os.WriteFile(target, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// pagePath is the slash-separated output location of a document, without a
// leading slash.
func pagePath(d *document.Document) string {
	if sec := store.Section(d.Path); sec != "" {
		return sec + "/" + d.Slug
	}
	return d.Slug
}
