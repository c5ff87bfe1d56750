package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"
)

func TestProcess_BlockContainer_UnknownKey_FallsBackToDefaultWrapper(t *testing.T) {
	p := newTestPipeline(t)
	content := "::: unknown-key\nchild *content*\n:::\n"

	doc, err := p.Process("a.md", content, time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, `<div class="container-block">`)
	// Children render recursively through the normal pipeline.
	require.Contains(t, doc.Preview, "<em>content</em>")
	require.Contains(t, doc.Preview, "</div>")
}

func TestProcess_BlockContainer_NoKey_FallsBackToDefaultWrapper(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", ":::\nbare fence\n:::\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, `<div class="container-block">`)
	require.Contains(t, doc.Preview, "bare fence")
}

func TestProcess_BlockContainer_MissingClosingFence_StillRenders(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "::: tip\nnever closed\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, "never closed")
}

func TestProcess_Admonition_TitleFromArgument(t *testing.T) {
	p := newTestPipeline(t)
	content := "::: tip Remember this\nStay hydrated.\n:::\n"

	doc, err := p.Process("a.md", content, time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, `<div class="admonition admonition-tip">`)
	require.Contains(t, doc.Preview, `<p class="admonition-title">Remember this</p>`)
	require.Contains(t, doc.Preview, "<p>Stay hydrated.</p>")
}

func TestProcess_Admonition_TitleFallsBackToKey(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "::: warning\nCareful.\n:::\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, `<p class="admonition-title">warning</p>`)
}

func TestProcess_Clipboard_WrapsChildrenWithButton(t *testing.T) {
	p := newTestPipeline(t)
	content := "::: copy\n```\nnpm install\n```\n:::\n"

	doc, err := p.Process("a.md", content, time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, `<div class="copy-block">`)
	require.Contains(t, doc.Preview, `class="copy-button"`)
	require.Contains(t, doc.Preview, "npm install")
}

func TestProcess_InlineContainer_UnknownKey_FallsBackToSpan(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "before ::foo bar:: after\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, `<span class="container-inline">`)
	require.Contains(t, doc.Preview, "foo bar")
	require.Contains(t, doc.Preview, "</span>")
}

func TestProcess_InlineContainer_UnmatchedDelimiter_RendersLiterally(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "std::vector is a type\n", time.Time{})
	require.NoError(t, err)
	require.NotContains(t, doc.Preview, "container-inline")
	require.Contains(t, doc.Preview, "std::vector")
}

func TestProcess_RegisteredDirective_TakesPriorityOverFallback(t *testing.T) {
	reg := NewRegistry()
	reg.Register("shout", &shoutRenderer{})
	p := newTestPipeline(t, WithRegistry(reg))

	doc, err := p.Process("a.md", "::: shout\nhello\n:::\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, "<div class=\"shout\">")
	require.NotContains(t, doc.Preview, "container-block")
}

func TestRegistry_LookupIsCaseSensitive(t *testing.T) {
	reg := NewRegistry()
	reg.Register("Note", &shoutRenderer{})

	require.IsType(t, &shoutRenderer{}, reg.Lookup("Note", false))
	require.IsType(t, &DefaultBlockRenderer{}, reg.Lookup("note", false))
	require.IsType(t, &DefaultInlineRenderer{}, reg.Lookup("nope", true))
}

func TestSplitDirective_KeyAndArgument(t *testing.T) {
	name, arg := splitDirective("  tip  Remember this ")
	require.Equal(t, "tip", name)
	require.Equal(t, "Remember this", arg)

	name, arg = splitDirective("")
	require.Empty(t, name)
	require.Empty(t, arg)

	name, arg = splitDirective("solo")
	require.Equal(t, "solo", name)
	require.Empty(t, arg)
}

// shoutRenderer is a minimal custom directive renderer for dispatch tests.
type shoutRenderer struct{}

func (r *shoutRenderer) RenderDirective(w util.BufWriter, source []byte, d *Directive, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<div class=\"shout\">")
	} else {
		_, _ = w.WriteString("</div>")
	}
	return ast.WalkContinue, nil
}
