package markdown

import (
	"fmt"
	"html/template"
	"strings"

	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/mdsite/internal/document"
)

// defaultSummaryLength bounds the plain-text summary extracted from a
// preview when front matter supplies none.
const defaultSummaryLength = 200

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} — {{.Site}}</title>
{{if .Summary}}<meta name="description" content="{{.Summary}}">{{end}}
</head>
<body>
<main class="document">
{{if .Nav}}<nav class="document-map">
<ul>
{{range .Nav}}<li><a href="{{.Link}}">{{.Text}}</a>{{if .Items}}
<ul>
{{range .Items}}<li><a href="{{.Link}}">{{.Text}}</a></li>
{{end}}</ul>
{{end}}</li>
{{end}}</ul>
</nav>
{{end}}<article>
{{.Content}}
</article>
</main>
</body>
</html>
`))

// PageRenderer wraps a document's preview HTML in a full page: title, meta
// description, and a navigation block built from the document map.
type PageRenderer struct {
	SiteTitle string
}

type pageData struct {
	Title   string
	Site    string
	Summary string
	Nav     []*document.MarkdownMenu
	Content template.HTML
}

// RenderPage produces the full page HTML for doc. When the document has no
// front-matter summary, one is extracted from the preview text as a
// side effect so the meta description is never empty for non-trivial pages.
func (r *PageRenderer) RenderPage(doc *document.Document) (string, error) {
	if doc.Summary == "" {
		doc.Summary = ExtractSummary(doc.Preview, defaultSummaryLength)
	}

	data := pageData{
		Title:   doc.Title,
		Site:    r.SiteTitle,
		Summary: doc.Summary,
		Content: template.HTML(doc.Preview), // #nosec G203 -- preview is our own rendered output.
	}
	if doc.Map != nil {
		data.Nav = doc.Map.Headings
	}

	var b strings.Builder
	if err := pageTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render page %s: %w", doc.Path, err)
	}
	return b.String(), nil
}

// ExtractSummary returns the leading plain text of an HTML fragment,
// truncated to at most maxLen runes at a word boundary.
func ExtractSummary(fragment string, maxLen int) string {
	if fragment == "" {
		return ""
	}

	root, err := xhtml.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var visit func(*xhtml.Node)
	visit = func(n *xhtml.Node) {
		if b.Len() > maxLen*4 {
			return // enough text collected
		}
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)

	text := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	cut := string(runes[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
