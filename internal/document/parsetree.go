package document

import (
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// ParseTree is a concrete parse tree over a fixed code string: blanks are
// kept, and every node resolves to line/column spans. It serves
// formatter-class tooling that needs the text verbatim.
type ParseTree struct {
	grammar syntax.Grammar
	buffer  *lexis.TokenBuffer
	tree    *syntax.Tree
}

// NewParseTree scans and parses the span of code.
func NewParseTree(grammar syntax.Grammar, code string, span lexis.Span) *ParseTree {
	buffer := lexis.ParseTokenBuffer(grammar, code)
	siteSpan, ok := span.ToSiteSpan(buffer)
	if !ok {
		panic("document: parse tree span is not valid for this code")
	}
	tree := syntax.NewTree(buffer.Id())
	syntax.Parse(grammar, tree, buffer.Cursor(siteSpan))
	return &ParseTree{grammar: grammar, buffer: buffer, tree: tree}
}

// Buffer returns the underlying token buffer.
func (t *ParseTree) Buffer() *lexis.TokenBuffer {
	return t.buffer
}

// Tree returns the node storage.
func (t *ParseTree) Tree() *syntax.Tree {
	return t.tree
}

// Root returns the root node reference.
func (t *ParseTree) Root() syntax.NodeRef {
	return t.tree.Root()
}

// NodeSpan returns the character span a node covers, widened over the
// blank tokens immediately around it.
func (t *ParseTree) NodeSpan(ref syntax.NodeRef) (lexis.SiteSpan, bool) {
	span, ok := t.tree.SpanOf(ref, t.buffer)
	if !ok {
		return lexis.SiteSpan{}, false
	}
	blank, isBlank := t.grammar.(lexis.BlankLexis)
	if !isBlank {
		return span, true
	}
	chunks := t.buffer.Chunks()
	for i := len(chunks) - 1; i >= 0; i-- {
		if chunks[i].End() <= span.Start {
			if !blank.IsBlank(chunks[i].Rule) {
				break
			}
			span.Start = chunks[i].Site
		}
	}
	for _, chunk := range chunks {
		if chunk.Site >= span.End {
			if !blank.IsBlank(chunk.Rule) {
				break
			}
			span.End = chunk.End()
		}
	}
	return span, true
}

// NodePositionSpan returns the node span as line/column positions.
func (t *ParseTree) NodePositionSpan(ref syntax.NodeRef) (lexis.PositionSpan, bool) {
	span, ok := t.NodeSpan(ref)
	if !ok {
		return lexis.PositionSpan{}, false
	}
	lines := t.buffer.Lines()
	return lexis.PositionSpan{
		Start: lines.PositionOf(span.Start),
		End:   lines.PositionOf(span.End),
	}, true
}
