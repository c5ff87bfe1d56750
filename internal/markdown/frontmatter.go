package markdown

import (
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/mdsite/internal/document"
)

// MetadataBlock is the leading front-matter block of a document, delimited by
// `---` lines. It carries the raw key/value lines; rendering emits nothing.
type MetadataBlock struct {
	ast.BaseBlock
}

// KindMetadataBlock is the node kind of MetadataBlock.
var KindMetadataBlock = ast.NewNodeKind("MetadataBlock")

// Kind implements ast.Node.
func (n *MetadataBlock) Kind() ast.NodeKind { return KindMetadataBlock }

// IsRaw reports that the block's lines are not parsed as inline markup.
func (n *MetadataBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MetadataBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// metadataParser recognizes a `---` fenced metadata block, but only at the
// very first line of the document. It must be registered ahead of the
// thematic-break parser so the opening fence is not consumed as a rule.
type metadataParser struct{}

func newMetadataParser() parser.BlockParser { return &metadataParser{} }

func (p *metadataParser) Trigger() []byte { return nil }

func (p *metadataParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	linenum, _ := reader.Position()
	if linenum != 0 {
		return nil, parser.NoChildren
	}
	line, _ := reader.PeekLine()
	if isFrontMatterFence(line) {
		return &MetadataBlock{}, parser.NoChildren
	}
	return nil, parser.NoChildren
}

func (p *metadataParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if isFrontMatterFence(line) {
		reader.Advance(segment.Len())
		return parser.Close
	}
	node.Lines().Append(segment)
	return parser.Continue | parser.NoChildren
}

func (p *metadataParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *metadataParser) CanInterruptParagraph() bool { return false }

func (p *metadataParser) CanAcceptIndentedLine() bool { return false }

func isFrontMatterFence(line []byte) bool {
	trimmed := util.TrimRightSpace(util.TrimLeftSpace(line))
	if len(trimmed) < 3 {
		return false
	}
	for _, c := range trimmed {
		if c != '-' {
			return false
		}
	}
	return true
}

// ExtractFrontMatter locates the leading metadata block in a parsed document
// tree and returns its key/value pairs. A document without a metadata block
// yields an empty map; malformed lines are skipped, never an error.
func ExtractFrontMatter(root ast.Node, source []byte) map[string]string {
	fields := map[string]string{}

	var meta *MetadataBlock
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		if m, ok := c.(*MetadataBlock); ok {
			meta = m
			break
		}
	}
	if meta == nil {
		return fields
	}

	lines := meta.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimSpace(string(seg.Value(source)))
		if line == "" || strings.Trim(line, "-") == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}

// StripFrontMatter returns the document body without its front-matter block.
// It locates the first and second occurrence of the `---` delimiter and
// returns the trimmed remainder. Input with fewer than two delimiters is
// returned unchanged, which makes the operation idempotent.
func StripFrontMatter(content string) string {
	const delim = "---"
	first := strings.Index(content, delim)
	if first < 0 {
		return content
	}
	rest := content[first+len(delim):]
	second := strings.Index(rest, delim)
	if second < 0 {
		return content
	}
	return strings.TrimSpace(rest[second+len(delim):])
}

// applyFields coerces extracted front-matter values onto the typed document
// record. Unrecognized keys are ignored; a value that fails coercion leaves
// the field at its zero value rather than failing the document.
func applyFields(doc *document.Document, fields map[string]string) {
	for key, value := range fields {
		switch key {
		case "title":
			doc.Title = value
		case "summary":
			doc.Summary = value
		case "hero":
			doc.Hero = value
		case "author":
			doc.Author = value
		case "layout":
			doc.Layout = value
		case "group":
			doc.Group = value
		case "draft":
			if b, err := strconv.ParseBool(value); err == nil {
				doc.Draft = b
			}
		case "order":
			if n, err := strconv.Atoi(value); err == nil {
				doc.Order = n
			}
		case "tags":
			doc.Tags = splitTags(value)
		case "date":
			if t, ok := parseDate(value); ok {
				doc.Date = &t
			}
		}
	}
}

func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
