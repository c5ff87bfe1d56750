package markdown

import (
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdsite/internal/document"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
)

// DocumentFinder is the read-only lookup the include renderer needs from the
// document store. The collection behind it must be a consistent, finalized
// snapshot at lookup time.
type DocumentFinder interface {
	FindBySlugInSection(section, slug string, recursive bool) *document.Document
}

// IncludeTarget is the parsed form of an include path argument.
type IncludeTarget struct {
	Section string
	Slug    string
}

// ParseIncludePath resolves an include argument such as "/guides/intro" or
// "guides/intro.md" into a section prefix and a slug.
func ParseIncludePath(p string) IncludeTarget {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	dir, base := path.Split(p)
	return IncludeTarget{
		Section: strings.Trim(dir, "/"),
		Slug:    strings.TrimSuffix(base, path.Ext(base)),
	}
}

// IncludeRenderer splices another document's previously rendered preview HTML
// into the current render output. A target that cannot be resolved, or that
// has no preview yet, degrades to an inline placeholder naming the path.
type IncludeRenderer struct {
	Finder   DocumentFinder
	Recorder metrics.Recorder
}

func (r *IncludeRenderer) RenderDirective(w util.BufWriter, source []byte, d *Directive, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	target := ParseIncludePath(d.Argument)

	var doc *document.Document
	if r.Finder != nil && target.Slug != "" {
		doc = r.Finder.FindBySlugInSection(target.Section, target.Slug, true)
	}

	if doc == nil || doc.Preview == "" {
		if r.Recorder != nil {
			r.Recorder.IncIncludeMiss()
		}
		_, _ = fmt.Fprintf(w, "<p class=\"include-missing\">Missing include: %s</p>", html.EscapeString(d.Argument))
		return ast.WalkSkipChildren, nil
	}

	// Verbatim splice: the preview is trusted, already-rendered markup.
	_, _ = w.WriteString(doc.Preview)
	return ast.WalkSkipChildren, nil
}
