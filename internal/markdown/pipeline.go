package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdsite/internal/document"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/slug"
	"git.home.luguber.info/inful/mdsite/internal/source"
)

// State tracks a document's progress through the pipeline.
type State int

const (
	StateUnparsed State = iota
	StateFrontMatterExtracted
	StateRendered
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUnparsed:
		return "unparsed"
	case StateFrontMatterExtracted:
		return "front-matter-extracted"
	case StateRendered:
		return "rendered"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// ErrNoSource signals that the pipeline was constructed without a source
// store. This is a wiring error, not a data error, and fails loudly.
var ErrNoSource = errors.New("markdown: pipeline requires a source store")

// wordBoundary is the character set used to split content into words.
const wordBoundary = " .?!()[]"

// Pipeline turns raw Markdown source into finalized Documents: front matter
// extraction, heading/document-map rendering, directive dispatch, and
// finalization of derived fields.
//
// A Pipeline is safe for concurrent use across documents; all per-render
// mutable state lives in a pass-scoped context.
type Pipeline struct {
	src      source.Store
	registry *Registry
	recorder metrics.Recorder
	finder   DocumentFinder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry replaces the default directive registry.
func WithRegistry(r *Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithFinder injects the document finder used by the include directive.
func WithFinder(f DocumentFinder) Option {
	return func(p *Pipeline) { p.finder = f }
}

// NewPipeline constructs a Pipeline over the given source store.
func NewPipeline(src source.Store, opts ...Option) (*Pipeline, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	p := &Pipeline{
		src:      src,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = NewRegistry()
		p.registry.Register("include", &IncludeRenderer{Finder: p.finder, Recorder: p.recorder})
	}
	return p, nil
}

// Load reads a document from the source store and processes it. A missing
// file is fatal for this document only and surfaces as source.NotFoundError.
func (p *Pipeline) Load(path string) (*document.Document, error) {
	content, err := p.src.ReadAllText(path)
	if err != nil {
		if source.IsNotFound(err) {
			p.recorder.IncDocumentProcessed(metrics.ResultNotFound)
		} else {
			p.recorder.IncDocumentProcessed(metrics.ResultError)
		}
		return nil, err
	}
	modTime, err := p.src.LastModified(path)
	if err != nil {
		modTime = time.Time{}
	}
	return p.Process(path, content, modTime)
}

// Process runs the full state machine over already-read content:
// Unparsed -> FrontMatterExtracted -> Rendered -> Finalized.
func (p *Pipeline) Process(path, content string, modTime time.Time) (*document.Document, error) {
	start := time.Now()

	doc := &document.Document{
		Path:    path,
		Content: content,
	}
	run := &run{path: path, state: StateUnparsed}
	src := []byte(content)

	rc := &renderContext{registry: p.registry}
	engine := p.newEngine(rc)

	pc := parser.NewContext(parser.WithIDs(newSlugIDs()))
	root := engine.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	// Front matter is inspected, never stripped: doc.Content keeps the
	// original source including the fence.
	applyFields(doc, ExtractFrontMatter(root, src))
	run.advance(StateFrontMatterExtracted)

	var buf bytes.Buffer
	if err := engine.Renderer().Render(&buf, src, root); err != nil {
		p.recorder.IncDocumentProcessed(metrics.ResultError)
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	doc.Preview = buf.String()
	if rc.toc != nil {
		doc.Map = rc.toc
	} else {
		doc.Map = &document.DocumentMap{}
	}
	run.advance(StateRendered)

	p.finalize(doc, modTime)
	run.advance(StateFinalized)

	p.recorder.ObserveRenderDuration(time.Since(start))
	p.recorder.IncDocumentProcessed(metrics.ResultSuccess)
	return doc, nil
}

// run is the per-document pass state; transitions are strictly forward and
// never retried.
type run struct {
	path  string
	state State
}

func (r *run) advance(to State) {
	slog.Debug("pipeline state transition",
		"path", r.path,
		"from", r.state.String(),
		"to", to.String())
	r.state = to
}

// finalize computes the derived fields: slug from the file name, word and
// line counts, and defaults for title and date when front matter left them
// unset.
func (p *Pipeline) finalize(doc *document.Document, modTime time.Time) {
	name := p.src.FileName(doc.Path)
	doc.Slug = slug.Make(name)

	if doc.Title == "" {
		doc.Title = name
	}
	if doc.Date == nil && !modTime.IsZero() {
		t := modTime
		doc.Date = &t
	}

	doc.WordCount = countWords(doc.Content)
	doc.LineCount = strings.Count(doc.Content, "\n")
}

// newEngine builds the goldmark instance for one render pass. The directive
// renderer is pass-scoped; block parsers are registered ahead of the
// built-in fence handling so container and metadata fences win.
func (p *Pipeline) newEngine(rc *renderContext) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithBlockParsers(
				util.Prioritized(newMetadataParser(), 0),
				util.Prioritized(newContainerParser(), 100),
			),
			parser.WithInlineParsers(
				util.Prioritized(newInlineContainerParser(), 500),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(newDirectiveHTMLRenderer(rc), 100),
			),
		),
	)
}

func countWords(content string) int {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return strings.ContainsRune(wordBoundary, r)
	})
	count := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			count++
		}
	}
	return count
}
