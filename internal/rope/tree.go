package rope

import (
	"strings"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// Tree is the chunk rope of one unit.
//
// The tree is owned by its document and is not synchronized; the document
// layer serializes writers.
type Tree struct {
	unit   arena.Id
	root   treeNode
	first  *page
	last   *page
	length lexis.Length
	count  int
	refs   arena.Repo[loc]
}

// New returns an empty rope for the unit.
func New(unit arena.Id) *Tree {
	p := &page{}
	return &Tree{unit: unit, root: p, first: p, last: p}
}

// Unit returns the owning unit id.
func (t *Tree) Unit() arena.Id {
	return t.unit
}

// Length returns the total character count.
func (t *Tree) Length() lexis.Length {
	return t.length
}

// Count returns the total chunk count.
func (t *Tree) Count() int {
	return t.count
}

// First returns a cursor at the first chunk, dangling when empty.
func (t *Tree) First() Cursor {
	if t.count == 0 {
		return Cursor{tree: t}
	}
	p := t.first
	for p != nil && p.occupied == 0 {
		p = p.next
	}
	if p == nil {
		return Cursor{tree: t}
	}
	return Cursor{tree: t, p: p, slot: 0}
}

// Last returns a cursor at the last chunk, dangling when empty.
func (t *Tree) Last() Cursor {
	if t.count == 0 {
		return Cursor{tree: t}
	}
	return Cursor{tree: t, p: t.last, slot: t.last.occupied - 1}
}

// Append places chunk at the end of the rope and returns its entry.
func (t *Tree) Append(chunk lexis.Chunk) arena.Entry {
	return t.insertAt(t.last, t.last.occupied, chunk, nil)
}

// CursorAt descends to the chunk containing site. Returns a dangling
// cursor for site >= Length (the end boundary has no chunk).
func (t *Tree) CursorAt(site lexis.Site) Cursor {
	if site < 0 || site >= t.length {
		return Cursor{tree: t}
	}
	node := t.root
	for {
		switch n := node.(type) {
		case *branch:
			for i := 0; i < n.occupied; i++ {
				if site < n.spans[i] {
					node = n.children[i]
					break
				}
				site -= n.spans[i]
			}
		case *page:
			for slot := 0; slot < n.occupied; slot++ {
				if site < n.spans[slot] {
					return Cursor{tree: t, p: n, slot: slot}
				}
				site -= n.spans[slot]
			}
			// Spans cover the subtree exactly; falling through means the
			// aggregates are corrupt.
			panic("rope: site aggregates out of sync")
		}
	}
}

// SiteOf returns the absolute site of the cursor's chunk.
func (t *Tree) SiteOf(c Cursor) lexis.Site {
	if c.IsDangling() {
		return t.length
	}
	site := lexis.Site(0)
	for i := 0; i < c.slot; i++ {
		site += c.p.spans[i]
	}
	var node treeNode = c.p
	parent, index := node.parentBranch()
	for parent != nil {
		for i := 0; i < index; i++ {
			site += parent.spans[i]
		}
		node = parent
		parent, index = node.parentBranch()
	}
	return site
}

// Lookup resolves a chunk entry to its cursor.
func (t *Tree) Lookup(entry arena.Entry) Cursor {
	l, ok := t.refs.Get(entry)
	if !ok {
		return Cursor{tree: t}
	}
	return Cursor{tree: t, p: l.p, slot: l.slot}
}

// Contains reports whether entry addresses a live chunk.
func (t *Tree) Contains(entry arena.Entry) bool {
	return t.refs.Contains(entry)
}

// ChunkAt resolves entry to a chunk with its absolute site.
func (t *Tree) ChunkAt(entry arena.Entry) (lexis.Chunk, bool) {
	c := t.Lookup(entry)
	if c.IsDangling() {
		return lexis.Chunk{}, false
	}
	return c.Chunk(), true
}

// Substring renders the character range from the covered chunks.
func (t *Tree) Substring(span lexis.SiteSpan) string {
	if span.Length() <= 0 {
		return ""
	}
	c := t.CursorAt(span.Start)
	if c.IsDangling() {
		return ""
	}
	var builder strings.Builder
	site := t.SiteOf(c)
	for !c.IsDangling() && site < span.End {
		text := c.String()
		length := c.Span()
		from := lexis.Site(0)
		if span.Start > site {
			from = span.Start - site
		}
		to := length
		if span.End < site+length {
			to = span.End - site
		}
		if from == 0 && to == length {
			builder.WriteString(text)
		} else {
			builder.WriteString(substringOf(text, from, to))
		}
		site += length
		c = c.Next()
	}
	return builder.String()
}

func substringOf(text string, from, to lexis.Site) string {
	var builder strings.Builder
	site := lexis.Site(0)
	for _, r := range text {
		if site >= to {
			break
		}
		if site >= from {
			builder.WriteRune(r)
		}
		site++
	}
	return builder.String()
}
