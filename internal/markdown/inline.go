package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// InlineContainer is an inline custom directive: a `::`-delimited span whose
// leading literal text carries the directive key and argument.
type InlineContainer struct {
	ast.BaseInline
}

// KindInlineContainer is the node kind of InlineContainer.
var KindInlineContainer = ast.NewNodeKind("InlineContainer")

// Kind implements ast.Node.
func (n *InlineContainer) Kind() ast.NodeKind { return KindInlineContainer }

// Dump implements ast.Node.
func (n *InlineContainer) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Directive splits the span's leading literal text into the directive key
// (first word) and the argument (remainder). A span without text yields an
// empty key, which dispatches to the default renderer.
func (n *InlineContainer) Directive(source []byte) (name, argument string) {
	return splitDirective(nodeText(n, source))
}

// inlineContainerDelimiterProcessor pairs `::` delimiter runs, reusing the
// emphasis delimiter mechanism with a dedicated marker character.
type inlineContainerDelimiterProcessor struct{}

func (p *inlineContainerDelimiterProcessor) IsDelimiter(b byte) bool { return b == ':' }

func (p *inlineContainerDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *inlineContainerDelimiterProcessor) OnMatch(consumes int) ast.Node {
	return &InlineContainer{}
}

var defaultInlineContainerDelimiterProcessor = &inlineContainerDelimiterProcessor{}

// inlineContainerParser recognizes `::` delimiter runs of length two or more.
type inlineContainerParser struct{}

func newInlineContainerParser() parser.InlineParser { return &inlineContainerParser{} }

func (p *inlineContainerParser) Trigger() []byte { return []byte{':'} }

func (p *inlineContainerParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 2, defaultInlineContainerDelimiterProcessor)
	if node == nil {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}
