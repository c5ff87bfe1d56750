package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/document"
)

// fakeFinder resolves documents by "section/slug" keys.
type fakeFinder struct {
	docs map[string]*document.Document
}

func (f *fakeFinder) FindBySlugInSection(section, slug string, recursive bool) *document.Document {
	return f.docs[section+"/"+slug]
}

func TestProcess_Include_SplicesPreviewVerbatim(t *testing.T) {
	finder := &fakeFinder{docs: map[string]*document.Document{
		"guides/intro": {Slug: "intro", Preview: "<p>INCLUDED CONTENT</p>\n"},
	}}
	p := newTestPipeline(t, WithFinder(finder))

	doc, err := p.Process("a.md", "Start ::include /guides/intro:: end\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, "<p>INCLUDED CONTENT</p>")
	// The include's own literal text must not leak into the output.
	require.NotContains(t, doc.Preview, "include /guides/intro")
}

func TestProcess_Include_MissingTarget_EmitsPlaceholderWithPath(t *testing.T) {
	p := newTestPipeline(t, WithFinder(&fakeFinder{docs: map[string]*document.Document{}}))

	doc, err := p.Process("a.md", "::include /guides/gone::\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, "Missing include: /guides/gone")
}

func TestProcess_Include_EmptyPreview_TreatedAsMissing(t *testing.T) {
	finder := &fakeFinder{docs: map[string]*document.Document{
		"guides/pending": {Slug: "pending", Preview: ""},
	}}
	p := newTestPipeline(t, WithFinder(finder))

	doc, err := p.Process("a.md", "::include /guides/pending::\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, "Missing include: /guides/pending")
}

func TestProcess_Include_NoFinder_DegradesToPlaceholder(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "::include /guides/intro::\n", time.Time{})
	require.NoError(t, err)
	require.Contains(t, doc.Preview, "Missing include: /guides/intro")
}

func TestParseIncludePath_Variants(t *testing.T) {
	cases := []struct {
		in      string
		section string
		slug    string
	}{
		{"/guides/intro", "guides", "intro"},
		{"guides/intro.md", "guides", "intro"},
		{"/guides/deep/nested", "guides/deep", "nested"},
		{"intro", "", "intro"},
		{" /guides/intro ", "guides", "intro"},
	}

	for _, c := range cases {
		target := ParseIncludePath(c.in)
		require.Equal(t, c.section, target.Section, "input %q", c.in)
		require.Equal(t, c.slug, target.Slug, "input %q", c.in)
	}
}
