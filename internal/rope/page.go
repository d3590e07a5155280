package rope

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// PageCap is the chunk capacity of a leaf page and the branch factor of
// internal nodes.
const PageCap = 16

// pageHalf is the minimum fill of every non-root node.
const pageHalf = PageCap / 2

// loc addresses a chunk slot; the refs repo maps chunk entries to locs so
// that surviving chunks can be rebound on splices without a version bump.
type loc struct {
	p    *page
	slot int
}

type treeNode interface {
	// parentBranch returns the parent link of the node.
	parentBranch() (*branch, int)

	// attach rewires the parent link.
	attach(parent *branch, index int)

	// nodeSpan returns the total character span of the subtree.
	nodeSpan() lexis.Length
}

// page is a leaf holding up to PageCap chunks in slot order.
type page struct {
	parent   *branch
	parentIx int
	occupied int
	prev     *page
	next     *page

	rules   [PageCap]lexis.TokenRule
	spans   [PageCap]lexis.Length
	strings [PageCap]string
	entries [PageCap]arena.Entry
	caches  [PageCap]*Cache
}

func (p *page) parentBranch() (*branch, int) { return p.parent, p.parentIx }

func (p *page) attach(parent *branch, index int) {
	p.parent = parent
	p.parentIx = index
}

func (p *page) nodeSpan() lexis.Length {
	total := lexis.Length(0)
	for i := 0; i < p.occupied; i++ {
		total += p.spans[i]
	}
	return total
}

// branch is an internal node. Child spans are cached alongside the child
// links and kept equal to the sum of the subtree chunk lengths.
type branch struct {
	parent   *branch
	parentIx int
	occupied int

	children [PageCap]treeNode
	spans    [PageCap]lexis.Length
}

func (b *branch) parentBranch() (*branch, int) { return b.parent, b.parentIx }

func (b *branch) attach(parent *branch, index int) {
	b.parent = parent
	b.parentIx = index
}

func (b *branch) nodeSpan() lexis.Length {
	total := lexis.Length(0)
	for i := 0; i < b.occupied; i++ {
		total += b.spans[i]
	}
	return total
}

// addSpan adjusts the cached spans on the path from node to the root.
func addSpan(node treeNode, delta lexis.Length) {
	parent, index := node.parentBranch()
	for parent != nil {
		parent.spans[index] += delta
		parent, index = parent.parentBranch()
	}
}
