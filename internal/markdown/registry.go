package markdown

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"
)

// Directive describes one container occurrence handed to a renderer.
type Directive struct {
	// Name is the directive key; case-sensitive, may be empty.
	Name string

	// Argument is the text after the key on the opening line (block) or
	// after the first word of the span (inline).
	Argument string

	// Node is the underlying AST node.
	Node ast.Node

	// Inline reports whether this is an inline-level directive.
	Inline bool
}

// DirectiveRenderer renders one directive family member. Child content is
// rendered by the engine between the entering and leaving calls unless the
// renderer returns ast.WalkSkipChildren. Child markup is trusted and is
// never escaped.
type DirectiveRenderer interface {
	RenderDirective(w util.BufWriter, source []byte, d *Directive, entering bool) (ast.WalkStatus, error)
}

// Registry maps directive keys to renderers. Lookups that miss fall back to
// a neutral wrapper, so an unrecognized or key-less directive degrades
// instead of aborting the render.
type Registry struct {
	renderers      map[string]DirectiveRenderer
	blockFallback  DirectiveRenderer
	inlineFallback DirectiveRenderer
}

// NewRegistry returns a registry preloaded with the built-in renderers:
// "copy" (clipboard block) and the admonition keys tip/info/warning/danger.
func NewRegistry() *Registry {
	r := &Registry{
		renderers:      map[string]DirectiveRenderer{},
		blockFallback:  &DefaultBlockRenderer{},
		inlineFallback: &DefaultInlineRenderer{},
	}
	r.Register("copy", NewClipboardRenderer(ClipboardOptions{}))
	admonition := &AdmonitionRenderer{}
	for _, name := range []string{"tip", "info", "warning", "danger"} {
		r.Register(name, admonition)
	}
	return r
}

// Register installs a renderer for a directive key, replacing any previous
// registration.
func (r *Registry) Register(name string, dr DirectiveRenderer) {
	r.renderers[name] = dr
}

// Lookup resolves a directive key to its renderer, falling back to the
// family's default wrapper when the key is empty or unregistered.
func (r *Registry) Lookup(name string, inline bool) DirectiveRenderer {
	if name != "" {
		if dr, ok := r.renderers[name]; ok {
			return dr
		}
	}
	if inline {
		return r.inlineFallback
	}
	return r.blockFallback
}

// DefaultBlockRenderer wraps unrecognized block directives in a neutral
// container element.
type DefaultBlockRenderer struct{}

func (r *DefaultBlockRenderer) RenderDirective(w util.BufWriter, source []byte, d *Directive, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<div class=\"container-block\">\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

// DefaultInlineRenderer wraps unrecognized inline directives in a neutral
// span.
type DefaultInlineRenderer struct{}

func (r *DefaultInlineRenderer) RenderDirective(w util.BufWriter, source []byte, d *Directive, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<span class=\"container-inline\">")
	} else {
		_, _ = w.WriteString("</span>")
	}
	return ast.WalkContinue, nil
}

// ClipboardOptions parameterizes the CSS class names emitted by the
// clipboard renderer.
type ClipboardOptions struct {
	WrapperClass string
	ButtonClass  string
	IconClass    string
}

// ClipboardRenderer wraps its child content and emits a copy-to-clipboard
// button with a click handler.
type ClipboardRenderer struct {
	opts ClipboardOptions
}

// NewClipboardRenderer returns a clipboard renderer, filling in default
// class names for any option left empty.
func NewClipboardRenderer(opts ClipboardOptions) *ClipboardRenderer {
	if opts.WrapperClass == "" {
		opts.WrapperClass = "copy-block"
	}
	if opts.ButtonClass == "" {
		opts.ButtonClass = "copy-button"
	}
	if opts.IconClass == "" {
		opts.IconClass = "copy-icon"
	}
	return &ClipboardRenderer{opts: opts}
}

func (r *ClipboardRenderer) RenderDirective(w util.BufWriter, source []byte, d *Directive, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = fmt.Fprintf(w,
			"<div class=\"%s\"><button type=\"button\" class=\"%s\" onclick=\"navigator.clipboard.writeText(this.parentElement.innerText)\"><span class=\"%s\"></span></button>\n",
			r.opts.WrapperClass, r.opts.ButtonClass, r.opts.IconClass)
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}

// AdmonitionRenderer renders TIP/INFO/WARNING/DANGER boxes. The title line
// comes from the directive argument, then the directive key, then a fixed
// default label.
type AdmonitionRenderer struct{}

func (r *AdmonitionRenderer) RenderDirective(w util.BufWriter, source []byte, d *Directive, entering bool) (ast.WalkStatus, error) {
	if entering {
		title := d.Argument
		if title == "" {
			title = d.Name
		}
		if title == "" {
			title = "Note"
		}
		_, _ = fmt.Fprintf(w, "<div class=\"admonition admonition-%s\"><p class=\"admonition-title\">%s</p>\n", d.Name, title)
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkContinue, nil
}
