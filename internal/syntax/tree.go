package syntax

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// Tree is the node and error storage of one unit. Nodes reference each
// other through (Id, Entry) pairs only; the repo is the single owner.
type Tree struct {
	unit   arena.Id
	nodes  arena.Repo[Node]
	errors arena.Repo[*SyntaxError]
	root   NodeRef
}

// NewTree returns empty node storage for the unit.
func NewTree(unit arena.Id) *Tree {
	return &Tree{unit: unit, root: NilNodeRef()}
}

// Unit returns the owning unit id.
func (t *Tree) Unit() arena.Id {
	return t.unit
}

// Root returns the reference of the root node.
func (t *Tree) Root() NodeRef {
	return t.root
}

// SetRoot installs the root reference.
func (t *Tree) SetRoot(ref NodeRef) {
	t.root = ref
}

// NodeCount returns the number of live nodes.
func (t *Tree) NodeCount() int {
	return t.nodes.Len()
}

// ReserveNode pre-allocates a node slot so children parsed before their
// parent completes can hold its reference.
func (t *Tree) ReserveNode() NodeRef {
	return NodeRef{Unit: t.unit, Entry: t.nodes.Reserve()}
}

// OccupyNode fills a reserved slot, or replaces an occupied one in place
// keeping the reference valid.
func (t *Tree) OccupyNode(ref NodeRef, node Node) bool {
	if ref.Unit != t.unit {
		return false
	}
	node.SetRef(ref)
	return t.nodes.Occupy(ref.Entry, node)
}

// GetNode resolves a node entry.
func (t *Tree) GetNode(entry arena.Entry) (Node, bool) {
	return t.nodes.Get(entry)
}

// Node resolves a node reference.
func (t *Tree) Node(ref NodeRef) (Node, bool) {
	if ref.Unit != t.unit {
		return nil, false
	}
	return t.nodes.Get(ref.Entry)
}

// HasNode reports whether ref addresses a live (occupied) node.
func (t *Tree) HasNode(ref NodeRef) bool {
	return ref.Unit == t.unit && t.nodes.Contains(ref.Entry)
}

// RemoveNode frees the node slot.
func (t *Tree) RemoveNode(entry arena.Entry) (Node, bool) {
	return t.nodes.Remove(entry)
}

// NodeRefs lists every live node.
func (t *Tree) NodeRefs() []NodeRef {
	refs := make([]NodeRef, 0, t.nodes.Len())
	t.nodes.ForEach(func(entry arena.Entry, _ Node) bool {
		refs = append(refs, NodeRef{Unit: t.unit, Entry: entry})
		return true
	})
	return refs
}

// AddError stores a diagnostic and returns its reference.
func (t *Tree) AddError(err *SyntaxError) ErrorRef {
	return ErrorRef{Unit: t.unit, Entry: t.errors.Insert(err)}
}

// GetError resolves an error entry.
func (t *Tree) GetError(entry arena.Entry) (*SyntaxError, bool) {
	return t.errors.Get(entry)
}

// RemoveError frees the error slot.
func (t *Tree) RemoveError(entry arena.Entry) (*SyntaxError, bool) {
	return t.errors.Remove(entry)
}

// ErrorRefs lists every live diagnostic.
func (t *Tree) ErrorRefs() []ErrorRef {
	refs := make([]ErrorRef, 0, t.errors.Len())
	t.errors.ForEach(func(entry arena.Entry, _ *SyntaxError) bool {
		refs = append(refs, ErrorRef{Unit: t.unit, Entry: entry})
		return true
	})
	return refs
}

// ErrorCount returns the number of live diagnostics.
func (t *Tree) ErrorCount() int {
	return t.errors.Len()
}

// SpanOf computes the character span a node covers, from the sites of the
// tokens reachable through its children.
func (t *Tree) SpanOf(ref NodeRef, code lexis.SourceCode) (lexis.SiteSpan, bool) {
	start := lexis.Site(-1)
	end := lexis.Site(-1)
	t.visitTokens(ref, func(chunk lexis.Chunk) {
		if start < 0 || chunk.Site < start {
			start = chunk.Site
		}
		if chunk.End() > end {
			end = chunk.End()
		}
	}, code)
	if start < 0 {
		return lexis.SiteSpan{}, false
	}
	return lexis.SiteSpan{Start: start, End: end}, true
}

func (t *Tree) visitTokens(ref NodeRef, visit func(lexis.Chunk), code lexis.SourceCode) {
	node, ok := t.Node(ref)
	if !ok {
		return
	}
	for _, child := range node.Children() {
		if child.IsNode() {
			t.visitTokens(child.Node, visit, code)
			continue
		}
		if chunk, ok := child.Token.Chunk(code); ok {
			visit(chunk)
		}
	}
}

// Cover descends from the root to the deepest node whose span fully
// contains span.
func (t *Tree) Cover(span lexis.SiteSpan, code lexis.SourceCode) NodeRef {
	current := t.root
	for {
		node, ok := t.Node(current)
		if !ok {
			return current
		}
		descended := false
		for _, child := range node.Children() {
			if !child.IsNode() {
				continue
			}
			childSpan, ok := t.SpanOf(child.Node, code)
			if !ok {
				continue
			}
			if childSpan.Start <= span.Start && span.End <= childSpan.End {
				current = child.Node
				descended = true
				break
			}
		}
		if !descended {
			return current
		}
	}
}
