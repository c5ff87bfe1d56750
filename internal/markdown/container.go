package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Container is a block-level custom directive: a region fenced by `:::`
// lines whose opening line carries a directive key and an optional argument.
type Container struct {
	ast.BaseBlock

	// Name is the directive key, the first token after the fence. May be
	// empty for a bare fence; dispatch then falls back to the default
	// renderer.
	Name string

	// Argument is the remainder of the opening line after the key.
	Argument string
}

// KindContainer is the node kind of Container.
var KindContainer = ast.NewNodeKind("Container")

// Kind implements ast.Node.
func (n *Container) Kind() ast.NodeKind { return KindContainer }

// Dump implements ast.Node.
func (n *Container) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Name":     n.Name,
		"Argument": n.Argument,
	}, nil)
}

// containerParser parses `::: key argument` fenced regions. It is registered
// ahead of the built-in fenced-code parser so container fences are claimed
// before generic fence handling runs.
type containerParser struct{}

func newContainerParser() parser.BlockParser { return &containerParser{} }

func (p *containerParser) Trigger() []byte { return []byte{':'} }

func (p *containerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) || line[pos] != ':' {
		return nil, parser.NoChildren
	}

	i := pos
	for ; i < len(line) && line[i] == ':'; i++ {
	}
	if i-pos < 3 {
		return nil, parser.NoChildren
	}

	name, argument := splitDirective(string(line[i:]))
	node := &Container{Name: name, Argument: argument}
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (p *containerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if isContainerFence(line) {
		reader.Advance(segment.Len() - 1)
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (p *containerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *containerParser) CanInterruptParagraph() bool { return true }

func (p *containerParser) CanAcceptIndentedLine() bool { return false }

// isContainerFence reports whether line consists solely of three or more
// colons (the closing fence).
func isContainerFence(line []byte) bool {
	trimmed := util.TrimRightSpace(util.TrimLeftSpace(line))
	if len(trimmed) < 3 {
		return false
	}
	for _, c := range trimmed {
		if c != ':' {
			return false
		}
	}
	return true
}

// splitDirective splits an opening-line remainder into the directive key and
// argument text.
func splitDirective(rest string) (name, argument string) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", ""
	}
	name, argument, _ = strings.Cut(rest, " ")
	return name, strings.TrimSpace(argument)
}
