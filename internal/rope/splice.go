package rope

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// Removed is one chunk taken out by a splice, together with the parse
// cache that was hanging off it. The entry is already freed.
type Removed struct {
	Chunk lexis.Chunk
	Entry arena.Entry
	Cache *Cache
}

// Splice replaces removeCount chunks starting at the cursor with the new
// chunks and returns the removed run so the caller can diff it and dispose
// of the dead caches. A dangling cursor splices at the rope end.
//
// Surviving chunks keep their entries: slots shifted or moved between
// pages are rebound in the refs repo without a version bump.
func (t *Tree) Splice(at Cursor, removeCount int, insert []lexis.Chunk) (removed []Removed, firstInserted Cursor) {
	// Capture the victim entries and the insertion anchor up front; page
	// rebalancing relocates chunks, and the refs repo is the one stable
	// coordinate system.
	victims := make([]arena.Entry, 0, removeCount)
	c := at
	for i := 0; i < removeCount && !c.IsDangling(); i++ {
		victims = append(victims, c.ChunkEntry())
		c = c.Next()
	}
	anchor := arena.NilEntry()
	if !c.IsDangling() {
		anchor = c.ChunkEntry()
	}

	for _, entry := range victims {
		l, ok := t.refs.Get(entry)
		if !ok {
			continue
		}
		removed = append(removed, t.removeAt(l.p, l.slot, entry))
	}

	// Every insertion lands right before the anchor: the anchor shifts
	// with each placed chunk, so repeated insertion keeps source order.
	firstEntry := arena.NilEntry()
	for _, chunk := range insert {
		var p *page
		var slot int
		if l, ok := t.refs.Get(anchor); ok {
			p, slot = l.p, l.slot
		} else {
			p, slot = t.last, t.last.occupied
		}
		entry := t.insertAt(p, slot, chunk, nil)
		if firstEntry.IsNil() {
			firstEntry = entry
		}
	}

	firstInserted = t.Lookup(firstEntry)
	return removed, firstInserted
}

// insertAt places chunk before the slot of page p and returns its entry.
func (t *Tree) insertAt(p *page, slot int, chunk lexis.Chunk, cache *Cache) arena.Entry {
	if p.occupied == PageCap {
		p, slot = t.splitLeaf(p, slot)
	}

	for i := p.occupied; i > slot; i-- {
		p.rules[i] = p.rules[i-1]
		p.spans[i] = p.spans[i-1]
		p.strings[i] = p.strings[i-1]
		p.entries[i] = p.entries[i-1]
		p.caches[i] = p.caches[i-1]
		t.refs.Update(p.entries[i], loc{p: p, slot: i})
	}

	entry := t.refs.Insert(loc{p: p, slot: slot})
	p.rules[slot] = chunk.Rule
	p.spans[slot] = chunk.Length
	p.strings[slot] = chunk.Text
	p.entries[slot] = entry
	p.caches[slot] = cache
	p.occupied++

	addSpan(p, chunk.Length)
	t.length += chunk.Length
	t.count++
	return entry
}

// removeAt takes the chunk out of the slot and rebalances.
func (t *Tree) removeAt(p *page, slot int, entry arena.Entry) Removed {
	removed := Removed{
		Chunk: lexis.Chunk{
			Rule:   p.rules[slot],
			Length: p.spans[slot],
			Text:   p.strings[slot],
		},
		Entry: entry,
		Cache: p.caches[slot],
	}
	t.refs.Remove(entry)

	length := p.spans[slot]
	for i := slot; i < p.occupied-1; i++ {
		p.rules[i] = p.rules[i+1]
		p.spans[i] = p.spans[i+1]
		p.strings[i] = p.strings[i+1]
		p.entries[i] = p.entries[i+1]
		p.caches[i] = p.caches[i+1]
		t.refs.Update(p.entries[i], loc{p: p, slot: i})
	}
	last := p.occupied - 1
	p.strings[last] = ""
	p.entries[last] = arena.NilEntry()
	p.caches[last] = nil
	p.spans[last] = 0
	p.occupied--

	addSpan(p, -length)
	t.length -= length
	t.count--

	if p.parent != nil && p.occupied < pageHalf {
		t.rebalanceLeaf(p)
	}
	return removed
}

// splitLeaf splits a full page and returns the page and slot where the
// pending insertion goes.
func (t *Tree) splitLeaf(p *page, slot int) (*page, int) {
	q := &page{}
	keep := pageHalf
	moved := lexis.Length(0)
	for i := keep; i < PageCap; i++ {
		j := i - keep
		q.rules[j] = p.rules[i]
		q.spans[j] = p.spans[i]
		q.strings[j] = p.strings[i]
		q.entries[j] = p.entries[i]
		q.caches[j] = p.caches[i]
		moved += p.spans[i]
		t.refs.Update(q.entries[j], loc{p: q, slot: j})
		p.strings[i] = ""
		p.entries[i] = arena.NilEntry()
		p.caches[i] = nil
		p.spans[i] = 0
	}
	q.occupied = PageCap - keep
	p.occupied = keep

	q.next = p.next
	q.prev = p
	if p.next != nil {
		p.next.prev = q
	}
	p.next = q
	if t.last == p {
		t.last = q
	}

	addSpan(p, -moved)
	t.insertNodeAfter(p, q, moved)

	if slot > keep {
		return q, slot - keep
	}
	if slot == keep {
		// Boundary insertions go to the start of the new page.
		return q, 0
	}
	return p, slot
}

// insertNodeAfter links sibling into the tree right after node, carrying
// span characters.
func (t *Tree) insertNodeAfter(node treeNode, sibling treeNode, span lexis.Length) {
	parent, index := node.parentBranch()
	if parent == nil {
		root := &branch{occupied: 2}
		root.children[0] = node
		root.spans[0] = node.nodeSpan()
		root.children[1] = sibling
		root.spans[1] = span
		node.attach(root, 0)
		sibling.attach(root, 1)
		t.root = root
		return
	}
	t.insertChildAt(parent, index+1, sibling, span)
}

// insertChildAt places child at index of branch b, splitting b as needed.
func (t *Tree) insertChildAt(b *branch, index int, child treeNode, span lexis.Length) {
	if b.occupied == PageCap {
		b, index = t.splitBranch(b, index)
	}
	for i := b.occupied; i > index; i-- {
		b.children[i] = b.children[i-1]
		b.spans[i] = b.spans[i-1]
		b.children[i].attach(b, i)
	}
	b.children[index] = child
	b.spans[index] = span
	child.attach(b, index)
	b.occupied++
	addSpan(b, span)
}

// splitBranch splits a full branch and returns the branch and index where
// the pending child insertion goes.
func (t *Tree) splitBranch(b *branch, index int) (*branch, int) {
	nb := &branch{}
	keep := pageHalf
	moved := lexis.Length(0)
	for i := keep; i < PageCap; i++ {
		j := i - keep
		nb.children[j] = b.children[i]
		nb.spans[j] = b.spans[i]
		nb.children[j].attach(nb, j)
		moved += b.spans[i]
		b.children[i] = nil
		b.spans[i] = 0
	}
	nb.occupied = PageCap - keep
	b.occupied = keep

	addSpan(b, -moved)
	t.insertNodeAfter(b, nb, moved)

	if index > keep {
		return nb, index - keep
	}
	if index == keep {
		return nb, 0
	}
	return b, index
}

// rebalanceLeaf restores the minimum fill of a non-root page by borrowing
// from or merging with a same-parent neighbour.
func (t *Tree) rebalanceLeaf(p *page) {
	parent := p.parent
	index := p.parentIx

	var left, right *page
	if index > 0 {
		left, _ = parent.children[index-1].(*page)
	}
	if index+1 < parent.occupied {
		right, _ = parent.children[index+1].(*page)
	}

	switch {
	case right != nil && right.occupied > pageHalf:
		t.moveLeafChunk(right, 0, p, p.occupied)
	case left != nil && left.occupied > pageHalf:
		t.moveLeafChunk(left, left.occupied-1, p, 0)
	case right != nil:
		t.mergeLeaves(p, right)
	case left != nil:
		t.mergeLeaves(left, p)
	}
}

// moveLeafChunk relocates one chunk between sibling pages.
func (t *Tree) moveLeafChunk(from *page, fromSlot int, to *page, toSlot int) {
	length := from.spans[fromSlot]
	rule := from.rules[fromSlot]
	text := from.strings[fromSlot]
	entry := from.entries[fromSlot]
	cache := from.caches[fromSlot]

	for i := fromSlot; i < from.occupied-1; i++ {
		from.rules[i] = from.rules[i+1]
		from.spans[i] = from.spans[i+1]
		from.strings[i] = from.strings[i+1]
		from.entries[i] = from.entries[i+1]
		from.caches[i] = from.caches[i+1]
		t.refs.Update(from.entries[i], loc{p: from, slot: i})
	}
	last := from.occupied - 1
	from.strings[last] = ""
	from.entries[last] = arena.NilEntry()
	from.caches[last] = nil
	from.spans[last] = 0
	from.occupied--
	addSpan(from, -length)

	for i := to.occupied; i > toSlot; i-- {
		to.rules[i] = to.rules[i-1]
		to.spans[i] = to.spans[i-1]
		to.strings[i] = to.strings[i-1]
		to.entries[i] = to.entries[i-1]
		to.caches[i] = to.caches[i-1]
		t.refs.Update(to.entries[i], loc{p: to, slot: i})
	}
	to.rules[toSlot] = rule
	to.spans[toSlot] = length
	to.strings[toSlot] = text
	to.entries[toSlot] = entry
	to.caches[toSlot] = cache
	to.occupied++
	t.refs.Update(entry, loc{p: to, slot: toSlot})
	addSpan(to, length)
}

// mergeLeaves folds the right page into the left one and drops it.
func (t *Tree) mergeLeaves(left, right *page) {
	for right.occupied > 0 {
		t.moveLeafChunk(right, 0, left, left.occupied)
	}
	right.prev.next = right.next
	if right.next != nil {
		right.next.prev = right.prev
	}
	if t.last == right {
		t.last = right.prev
	}
	if t.first == right {
		t.first = right.next
	}
	t.removeChild(right.parent, right.parentIx)
}

// removeChild detaches the child at index and restores branch invariants
// up the tree.
func (t *Tree) removeChild(b *branch, index int) {
	for i := index; i < b.occupied-1; i++ {
		b.children[i] = b.children[i+1]
		b.spans[i] = b.spans[i+1]
		b.children[i].attach(b, i)
	}
	last := b.occupied - 1
	b.children[last] = nil
	b.spans[last] = 0
	b.occupied--

	if b.parent == nil {
		if b.occupied == 1 {
			child := b.children[0]
			child.attach(nil, 0)
			t.root = child
		}
		return
	}
	if b.occupied < pageHalf {
		t.rebalanceBranch(b)
	}
}

// rebalanceBranch restores the minimum fill of a non-root branch.
func (t *Tree) rebalanceBranch(b *branch) {
	parent := b.parent
	index := b.parentIx

	var left, right *branch
	if index > 0 {
		left, _ = parent.children[index-1].(*branch)
	}
	if index+1 < parent.occupied {
		right, _ = parent.children[index+1].(*branch)
	}

	switch {
	case right != nil && right.occupied > pageHalf:
		t.moveBranchChild(right, 0, b, b.occupied)
	case left != nil && left.occupied > pageHalf:
		t.moveBranchChild(left, left.occupied-1, b, 0)
	case right != nil:
		t.mergeBranches(b, right)
	case left != nil:
		t.mergeBranches(left, b)
	}
}

// moveBranchChild relocates one child link between sibling branches.
func (t *Tree) moveBranchChild(from *branch, fromIndex int, to *branch, toIndex int) {
	child := from.children[fromIndex]
	span := from.spans[fromIndex]

	for i := fromIndex; i < from.occupied-1; i++ {
		from.children[i] = from.children[i+1]
		from.spans[i] = from.spans[i+1]
		from.children[i].attach(from, i)
	}
	last := from.occupied - 1
	from.children[last] = nil
	from.spans[last] = 0
	from.occupied--
	addSpan(from, -span)

	for i := to.occupied; i > toIndex; i-- {
		to.children[i] = to.children[i-1]
		to.spans[i] = to.spans[i-1]
		to.children[i].attach(to, i)
	}
	to.children[toIndex] = child
	to.spans[toIndex] = span
	child.attach(to, toIndex)
	to.occupied++
	addSpan(to, span)
}

// mergeBranches folds the right branch into the left one and drops it.
func (t *Tree) mergeBranches(left, right *branch) {
	for right.occupied > 0 {
		t.moveBranchChild(right, 0, left, left.occupied)
	}
	t.removeChild(right.parent, right.parentIx)
}
