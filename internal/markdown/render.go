package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdsite/internal/document"
	"git.home.luguber.info/inful/mdsite/internal/slug"
)

// renderContext is the pass-scoped state threaded through one document
// render: the in-progress document map and the directive registry. Each
// render pass owns its own instance, so concurrent renders of different
// documents never share mutable state.
type renderContext struct {
	registry *Registry
	toc      *document.DocumentMap
}

// documentMap returns the pass's table of contents, creating it lazily on
// the first qualifying heading.
func (rc *renderContext) documentMap() *document.DocumentMap {
	if rc.toc == nil {
		rc.toc = &document.DocumentMap{}
	}
	return rc.toc
}

// directiveHTMLRenderer is the goldmark NodeRenderer for headings, metadata
// blocks, and both container directive families. It is constructed fresh per
// render pass around a renderContext.
type directiveHTMLRenderer struct {
	rc *renderContext
}

func newDirectiveHTMLRenderer(rc *renderContext) renderer.NodeRenderer {
	return &directiveHTMLRenderer{rc: rc}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *directiveHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(KindMetadataBlock, r.renderMetadataBlock)
	reg.Register(KindContainer, r.renderContainer)
	reg.Register(KindInlineContainer, r.renderInlineContainer)
}

// renderMetadataBlock emits nothing: front matter is inspected by the
// extractor, not rendered.
func (r *directiveHTMLRenderer) renderMetadataBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

// renderHeading writes the heading tag, appends a permalink anchor for
// levels 1-4 with a resolved id, and feeds level-2/3 headings into the
// document map. Levels 5-6 render plainly and never join the map.
func (r *directiveHTMLRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	id, hasID := headingID(n)

	if entering {
		if n.Level >= 5 || !hasID {
			_, _ = fmt.Fprintf(w, "<h%d>", n.Level)
			return ast.WalkContinue, nil
		}
		_, _ = fmt.Fprintf(w, "<h%d id=\"%s\">", n.Level, id)
		return ast.WalkContinue, nil
	}

	if n.Level <= 4 && hasID {
		_, _ = fmt.Fprintf(w, "<a class=\"heading-anchor\" href=\"#%s\" aria-hidden=\"true\">#</a>", id)
		r.collectHeading(n, source, id)
	}
	_, _ = fmt.Fprintf(w, "</h%d>\n", n.Level)
	return ast.WalkContinue, nil
}

// collectHeading appends a level-2 heading as a new top-level map entry and
// nests a level-3 heading under the most recent level-2 entry. A level-3
// heading arriving before any level-2 entry is dropped silently.
func (r *directiveHTMLRenderer) collectHeading(n *ast.Heading, source []byte, id string) {
	text := nodeText(n, source)
	if text == "" {
		return
	}
	switch n.Level {
	case 2:
		r.rc.documentMap().Add(text, "#"+id)
	case 3:
		if last := r.rc.documentMap().Last(); last != nil {
			last.AddItem(text, "#"+id)
		}
	}
}

func (r *directiveHTMLRenderer) renderContainer(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	c := node.(*Container)
	d := &Directive{Name: c.Name, Argument: c.Argument, Node: node}
	return r.rc.registry.Lookup(c.Name, false).RenderDirective(w, source, d, entering)
}

func (r *directiveHTMLRenderer) renderInlineContainer(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	c := node.(*InlineContainer)
	name, argument := c.Directive(source)
	d := &Directive{Name: name, Argument: argument, Node: node, Inline: true}
	return r.rc.registry.Lookup(name, true).RenderDirective(w, source, d, entering)
}

// headingID returns the heading's resolved anchor id, if any.
func headingID(n *ast.Heading) (string, bool) {
	v, ok := n.AttributeString("id")
	if !ok {
		return "", false
	}
	switch id := v.(type) {
	case []byte:
		return string(id), len(id) > 0
	case string:
		return id, id != ""
	default:
		return "", false
	}
}

// nodeText collects the literal text content of a node's subtree.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// slugIDs generates heading anchor ids with the site's slug rules so anchors
// and document slugs share one vocabulary. Duplicate headings get a numeric
// suffix.
type slugIDs struct {
	used map[string]bool
}

func newSlugIDs() parser.IDs {
	return &slugIDs{used: map[string]bool{}}
}

func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	v := slug.Make(string(value))
	if v == "" {
		v = "heading"
	}
	base := v
	for i := 1; s.used[v]; i++ {
		v = fmt.Sprintf("%s-%d", base, i)
	}
	s.used[v] = true
	return []byte(v)
}

func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = true
}
