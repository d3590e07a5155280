package document

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/rope"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// watchEvents batches structural-change reports; they reach the watcher
// only once the reparse committed.
type watchEvents struct {
	nodesCreated   []syntax.NodeRef
	nodesReleased  []syntax.NodeRef
	errorsCreated  []syntax.ErrorRef
	errorsReleased []syntax.ErrorRef
}

func (e *watchEvents) flush(watcher syntax.Watcher) {
	for _, ref := range e.nodesReleased {
		watcher.NodeReleased(ref)
	}
	for _, ref := range e.errorsReleased {
		watcher.ErrorReleased(ref)
	}
	for _, ref := range e.nodesCreated {
		watcher.NodeCreated(ref)
	}
	for _, ref := range e.errorsCreated {
		watcher.ErrorCreated(ref)
	}
}

// disposeCache frees everything a dead cache owns. With keepPrimary the
// primary node entry survives so a reparse can occupy it in place.
func (d *Document) disposeCache(cache *rope.Cache, events *watchEvents, keepPrimary bool) {
	if cache == nil {
		return
	}
	if !keepPrimary {
		if _, ok := d.tree.RemoveNode(cache.PrimaryNode); ok {
			events.nodesReleased = append(events.nodesReleased, syntax.NodeRef{Unit: d.id, Entry: cache.PrimaryNode})
		}
	}
	for _, entry := range cache.SecondaryNodes {
		if _, ok := d.tree.RemoveNode(entry); ok {
			events.nodesReleased = append(events.nodesReleased, syntax.NodeRef{Unit: d.id, Entry: entry})
		}
	}
	for _, entry := range cache.Errors {
		if _, ok := d.tree.RemoveError(entry); ok {
			events.errorsReleased = append(events.errorsReleased, syntax.ErrorRef{Unit: d.id, Entry: entry})
		}
	}
}

// cacheReusable reports whether a cache can be replayed: its parse end
// still resolves and its validity window does not touch the edit.
func (d *Document) cacheReusable(cache *rope.Cache, at rope.Cursor, editSpan lexis.SiteSpan) bool {
	if !d.tree.HasNode(syntax.NodeRef{Unit: d.id, Entry: cache.PrimaryNode}) {
		return false
	}
	endSite, ok := cache.ParseEnd.Site(d)
	if !ok {
		return false
	}
	start := d.rope.SiteOf(at)
	if endSite < start {
		return false
	}
	window := lexis.SiteSpan{Start: start, End: endSite + cache.Lookahead}
	return !window.Intersects(editSpan)
}

// candidateCovers reports whether the cached rule's input window spans
// the whole edit, making it a reparse entry point.
func (d *Document) candidateCovers(cache *rope.Cache, at rope.Cursor, editSpan lexis.SiteSpan) bool {
	if syntax.NodeRule(cache.Rule) == syntax.RootRule {
		return false
	}
	if !d.tree.HasNode(syntax.NodeRef{Unit: d.id, Entry: cache.PrimaryNode}) {
		return false
	}
	endSite, ok := cache.ParseEnd.Site(d)
	if !ok {
		return false
	}
	start := d.rope.SiteOf(at)
	if editSpan.Length() == 0 {
		// A pure deletion happened between two surviving tokens; only a
		// rule strictly spanning that point can absorb it. A subtree
		// starting or ending exactly there would re-parse to itself and
		// leave the deletion to its parent.
		return start < editSpan.Start && editSpan.End < endSite
	}
	return start <= editSpan.Start && editSpan.End <= endSite
}

// collectCaches gathers the caches installed on chunks of the window
// [start, endAnchor). A nil endAnchor walks through the rope end.
func (d *Document) collectCaches(start rope.Cursor, endAnchor arena.Entry) map[arena.Entry]*rope.Cache {
	caches := make(map[arena.Entry]*rope.Cache)
	for c := start; !c.IsDangling(); c = c.Next() {
		if !endAnchor.IsNil() && c.ChunkEntry() == endAnchor {
			break
		}
		if cache := c.Cache(); cache != nil {
			caches[c.ChunkEntry()] = cache
		}
	}
	return caches
}

// sweep disposes the pre-reparse caches the session did not replay. A
// cache replaced by a fresh one during the reparse is left alone.
func (d *Document) sweep(old map[arena.Entry]*rope.Cache, sess *mutableSession, events *watchEvents) {
	for entry, cache := range old {
		if sess.reused[entry] {
			continue
		}
		cur := d.rope.Lookup(entry)
		if cur.IsDangling() || cur.Cache() != cache {
			continue
		}
		d.disposeCache(cur.ReleaseCache(), events, false)
	}
}

// commitCreated reports everything a successful attempt built.
func commitCreated(d *Document, sess *mutableSession, events *watchEvents) {
	for _, entry := range sess.created {
		events.nodesCreated = append(events.nodesCreated, syntax.NodeRef{Unit: d.id, Entry: entry})
	}
	for _, entry := range sess.createdErrs {
		events.errorsCreated = append(events.errorsCreated, syntax.ErrorRef{Unit: d.id, Entry: entry})
	}
}

// reparse restores tree coherence after a splice: it walks backward from
// the splice point looking for the innermost cached rule covering the
// edit, re-parses it in place, and falls back to a full root reparse when
// nothing covers.
func (d *Document) reparse(splice spliceResult, events *watchEvents) {
	start := splice.first
	if start.IsDangling() {
		start = d.rope.CursorAt(splice.editSpan.Start)
	}
	if start.IsDangling() {
		start = d.rope.Last()
	}

	for c := start; !c.IsDangling(); c = c.Back() {
		cache := c.Cache()
		if cache == nil {
			continue
		}
		if !d.candidateCovers(cache, c, splice.editSpan) {
			continue
		}
		if d.tryCandidate(c, splice.editSpan, events) {
			return
		}
	}
	d.reparseRoot(splice.editSpan, events)
}

// tryCandidate re-parses one cached rule in place. Success means the new
// parse stopped exactly where the old one did; otherwise every trace of
// the attempt is rolled back and the caller moves outward.
func (d *Document) tryCandidate(at rope.Cursor, editSpan lexis.SiteSpan, events *watchEvents) bool {
	cache := at.ReleaseCache()
	rule := syntax.NodeRule(cache.Rule)
	oldParseEnd := cache.ParseEnd
	target := syntax.NodeRef{Unit: d.id, Entry: cache.PrimaryNode}

	oldParent := syntax.NilNodeRef()
	if node, ok := d.tree.Node(target); ok {
		oldParent = node.ParentRef()
	}

	// The candidate's own structure is rebuilt; its primary entry is kept
	// so references from the untouched parent stay valid.
	d.disposeCache(cache, events, true)

	endAnchor := arena.NilEntry()
	if !oldParseEnd.IsCodeEnd() {
		endAnchor = oldParseEnd.TokenRef().Entry
	}
	windowCaches := d.collectCaches(at, endAnchor)

	cursor := rope.NewTokenCursor(d.rope, at, rope.Cursor{})
	sess := newMutableSession(d, cursor, editSpan, events)
	sess.stack = append(sess.stack, frame{
		ref:       target,
		rule:      rule,
		start:     at.ChunkEntry(),
		startSite: d.rope.SiteOf(at),
		primary:   true,
	})
	node := d.grammar.Parse(sess, rule)
	sess.leave(node)

	if siteRefEqual(sess.cursor.SiteRef(0), oldParseEnd) {
		node.SetParentRef(oldParent)
		// When the candidate could not re-cache (its start chunk was taken
		// by an inner cache), its structure is owned by the document.
		d.rootNodes = append(d.rootNodes, sess.residueNodes...)
		d.rootErrors = append(d.rootErrors, sess.residueErrors...)
		if c := at.Cache(); c == nil || c.PrimaryNode != target.Entry {
			d.rootNodes = append(d.rootNodes, target.Entry)
		}
		d.sweep(windowCaches, sess, events)
		commitCreated(d, sess, events)
		return true
	}

	// Rollback: drop the attempt's caches, nodes and errors. The target
	// entry goes too; an outer reparse rebuilds this region from scratch.
	for _, entry := range sess.installed {
		cur := d.rope.Lookup(entry)
		if !cur.IsDangling() {
			cur.ReleaseCache()
		}
	}
	for _, entry := range sess.created {
		d.tree.RemoveNode(entry)
	}
	for _, entry := range sess.createdErrs {
		d.tree.RemoveError(entry)
	}
	if _, ok := d.tree.RemoveNode(target.Entry); ok {
		events.nodesReleased = append(events.nodesReleased, target)
	}
	return false
}

// reparseRoot rebuilds the tree from the root rule, replaying whatever
// inner caches survived the edit.
func (d *Document) reparseRoot(editSpan lexis.SiteSpan, events *watchEvents) {
	for _, entry := range d.rootNodes {
		if _, ok := d.tree.RemoveNode(entry); ok {
			events.nodesReleased = append(events.nodesReleased, syntax.NodeRef{Unit: d.id, Entry: entry})
		}
	}
	for _, entry := range d.rootErrors {
		if _, ok := d.tree.RemoveError(entry); ok {
			events.errorsReleased = append(events.errorsReleased, syntax.ErrorRef{Unit: d.id, Entry: entry})
		}
	}
	d.rootNodes, d.rootErrors = nil, nil

	windowCaches := d.collectCaches(d.rope.First(), arena.NilEntry())

	target := d.tree.Root()
	if target.IsNil() || !d.tree.HasNode(target) {
		target = d.tree.ReserveNode()
	}

	first := d.rope.First()
	cursor := rope.NewTokenCursor(d.rope, first, rope.Cursor{})
	sess := newMutableSession(d, cursor, editSpan, events)
	sess.stack = append(sess.stack, frame{
		ref:     target,
		rule:    syntax.RootRule,
		start:   first.ChunkEntry(),
		primary: true,
	})
	node := d.grammar.Parse(sess, syntax.RootRule)
	sess.leave(node)
	node.SetParentRef(syntax.NilNodeRef())

	d.tree.SetRoot(target)
	d.rootNodes = sess.residueNodes
	d.rootErrors = sess.residueErrors

	d.sweep(windowCaches, sess, events)
	commitCreated(d, sess, events)
}

// parseFromScratch runs the initial incremental parse of a new mutable
// document.
func (d *Document) parseFromScratch() {
	events := &watchEvents{}
	d.reparseRoot(lexis.SiteSpan{Start: 0, End: d.Length()}, events)
	events.flush(d.watcher)
}

func siteRefEqual(a, b lexis.SiteRef) bool {
	if a.IsCodeEnd() || b.IsCodeEnd() {
		return a.IsCodeEnd() && b.IsCodeEnd()
	}
	return a.TokenRef() == b.TokenRef()
}
