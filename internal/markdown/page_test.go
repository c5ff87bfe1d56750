package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/document"
)

func TestRenderPage_WrapsPreviewWithTitleAndNav(t *testing.T) {
	doc := &document.Document{
		Path:    "a.md",
		Title:   "Hello",
		Summary: "A greeting",
		Preview: "<p>Hi there</p>\n",
		Map: &document.DocumentMap{Headings: []*document.MarkdownMenu{
			{Text: "Intro", Link: "#intro", Items: []*document.MarkdownMenuItem{
				{Text: "Sub", Link: "#sub"},
			}},
		}},
	}

	r := &PageRenderer{SiteTitle: "My Site"}
	page, err := r.RenderPage(doc)
	require.NoError(t, err)

	require.Contains(t, page, "<title>Hello — My Site</title>")
	require.Contains(t, page, "<p>Hi there</p>")
	require.Contains(t, page, `<a href="#intro">Intro</a>`)
	require.Contains(t, page, `<a href="#sub">Sub</a>`)
	require.Contains(t, page, `content="A greeting"`)
}

func TestRenderPage_NoSummary_ExtractsFromPreview(t *testing.T) {
	doc := &document.Document{
		Path:    "a.md",
		Title:   "Hello",
		Preview: "<p>First sentence of the body text.</p>\n",
		Map:     &document.DocumentMap{},
	}

	r := &PageRenderer{SiteTitle: "My Site"}
	page, err := r.RenderPage(doc)
	require.NoError(t, err)
	require.Contains(t, page, "First sentence of the body text.")
	require.Equal(t, "First sentence of the body text.", doc.Summary)
}

func TestExtractSummary_StripsMarkup(t *testing.T) {
	out := ExtractSummary("<p>Hello <strong>bold</strong> world</p>", 200)
	require.Equal(t, "Hello bold world", out)
}

func TestExtractSummary_TruncatesAtWordBoundary(t *testing.T) {
	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	out := ExtractSummary(long, 50)
	require.LessOrEqual(t, len([]rune(out)), 51)
	require.True(t, strings.HasSuffix(out, "…"))
	require.NotContains(t, out, "  ")
}

func TestExtractSummary_EmptyInput_ReturnsEmpty(t *testing.T) {
	require.Equal(t, "", ExtractSummary("", 100))
}
