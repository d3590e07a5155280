package rope

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// Cursor is a short-lived pointer to one chunk slot. Cursors never escape
// the document that owns the rope and are invalidated by any splice.
type Cursor struct {
	tree *Tree
	p    *page
	slot int
}

// IsDangling reports whether the cursor points at no chunk.
func (c Cursor) IsDangling() bool {
	return c.p == nil
}

// SameChunkAs reports whether both cursors address the same slot.
func (c Cursor) SameChunkAs(other Cursor) bool {
	return c.p == other.p && c.slot == other.slot
}

// Next returns the cursor of the following chunk.
func (c Cursor) Next() Cursor {
	if c.IsDangling() {
		return c
	}
	if c.slot+1 < c.p.occupied {
		return Cursor{tree: c.tree, p: c.p, slot: c.slot + 1}
	}
	p := c.p.next
	for p != nil && p.occupied == 0 {
		p = p.next
	}
	if p == nil {
		return Cursor{tree: c.tree}
	}
	return Cursor{tree: c.tree, p: p, slot: 0}
}

// NextPage returns the cursor of the first chunk of the following page.
func (c Cursor) NextPage() Cursor {
	if c.IsDangling() {
		return c
	}
	p := c.p.next
	for p != nil && p.occupied == 0 {
		p = p.next
	}
	if p == nil {
		return Cursor{tree: c.tree}
	}
	return Cursor{tree: c.tree, p: p, slot: 0}
}

// Back returns the cursor of the preceding chunk. Stepping back from a
// dangling cursor lands on the last chunk.
func (c Cursor) Back() Cursor {
	if c.IsDangling() {
		if c.tree == nil {
			return c
		}
		return c.tree.Last()
	}
	if c.slot > 0 {
		return Cursor{tree: c.tree, p: c.p, slot: c.slot - 1}
	}
	p := c.p.prev
	for p != nil && p.occupied == 0 {
		p = p.prev
	}
	if p == nil {
		return Cursor{tree: c.tree}
	}
	return Cursor{tree: c.tree, p: p, slot: p.occupied - 1}
}

// ContinuousTo returns the chunk distance from the cursor to tail when
// tail is reachable by walking forward, with ok=false otherwise.
func (c Cursor) ContinuousTo(tail Cursor) (int, bool) {
	if c.IsDangling() || tail.IsDangling() {
		return 0, false
	}
	distance := 0
	walk := c
	for !walk.IsDangling() {
		if walk.SameChunkAs(tail) {
			return distance, true
		}
		distance++
		walk = walk.Next()
	}
	return 0, false
}

// Span returns the character length of the chunk.
func (c Cursor) Span() lexis.Length {
	if c.IsDangling() {
		return 0
	}
	return c.p.spans[c.slot]
}

// String returns the chunk text.
func (c Cursor) String() string {
	if c.IsDangling() {
		return ""
	}
	return c.p.strings[c.slot]
}

// Token returns the chunk's token rule, EOI when dangling.
func (c Cursor) Token() lexis.TokenRule {
	if c.IsDangling() {
		return lexis.EOI
	}
	return c.p.rules[c.slot]
}

// Cache returns the parse cache installed on the chunk, if any.
func (c Cursor) Cache() *Cache {
	if c.IsDangling() {
		return nil
	}
	return c.p.caches[c.slot]
}

// ChunkEntry returns the chunk's arena entry.
func (c Cursor) ChunkEntry() arena.Entry {
	if c.IsDangling() {
		return arena.NilEntry()
	}
	return c.p.entries[c.slot]
}

// Chunk materializes the chunk with its absolute site.
func (c Cursor) Chunk() lexis.Chunk {
	if c.IsDangling() {
		return lexis.Chunk{}
	}
	return lexis.Chunk{
		Rule:   c.p.rules[c.slot],
		Site:   c.tree.SiteOf(c),
		Length: c.p.spans[c.slot],
		Text:   c.p.strings[c.slot],
	}
}

// InstallCache hangs cache off the chunk, replacing any previous one.
func (c Cursor) InstallCache(cache *Cache) {
	if c.IsDangling() {
		return
	}
	c.p.caches[c.slot] = cache
}

// ReleaseCache detaches and returns the chunk's cache.
func (c Cursor) ReleaseCache() *Cache {
	if c.IsDangling() {
		return nil
	}
	cache := c.p.caches[c.slot]
	c.p.caches[c.slot] = nil
	return cache
}

// TokenCursor adapts a chunk window of the rope to the lexis.TokenCursor
// surface used by parsers and API readers.
type TokenCursor struct {
	tree *Tree
	cur  Cursor
	end  arena.Entry // first chunk beyond the window; nil entry pins to rope end
}

// NewTokenCursor opens a token cursor from start (inclusive) to end
// (exclusive). A dangling end covers through the rope end.
func NewTokenCursor(tree *Tree, start, end Cursor) *TokenCursor {
	endEntry := arena.NilEntry()
	if !end.IsDangling() {
		endEntry = end.ChunkEntry()
	}
	return &TokenCursor{tree: tree, cur: start, end: endEntry}
}

func (c *TokenCursor) peek(distance int) (Cursor, bool) {
	walk := c.cur
	for distance > 0 && !walk.IsDangling() {
		walk = walk.Next()
		distance--
	}
	if walk.IsDangling() || c.atWindowEnd(walk) {
		return Cursor{tree: c.tree}, false
	}
	return walk, true
}

func (c *TokenCursor) atWindowEnd(at Cursor) bool {
	return !c.end.IsNil() && at.ChunkEntry() == c.end
}

// Advance implements lexis.TokenCursor.
func (c *TokenCursor) Advance() bool {
	if c.cur.IsDangling() || c.atWindowEnd(c.cur) {
		return false
	}
	c.cur = c.cur.Next()
	return true
}

// Skip implements lexis.TokenCursor.
func (c *TokenCursor) Skip(distance int) {
	for distance > 0 && c.Advance() {
		distance--
	}
}

// Token implements lexis.TokenCursor.
func (c *TokenCursor) Token(distance int) lexis.TokenRule {
	at, ok := c.peek(distance)
	if !ok {
		return lexis.EOI
	}
	return at.Token()
}

// Site implements lexis.TokenCursor.
func (c *TokenCursor) Site(distance int) lexis.Site {
	at, ok := c.peek(distance)
	if !ok {
		return c.endSite()
	}
	return c.tree.SiteOf(at)
}

// Length implements lexis.TokenCursor.
func (c *TokenCursor) Length(distance int) lexis.Length {
	at, ok := c.peek(distance)
	if !ok {
		return 0
	}
	return at.Span()
}

// String implements lexis.TokenCursor.
func (c *TokenCursor) String(distance int) string {
	at, ok := c.peek(distance)
	if !ok {
		return ""
	}
	return at.String()
}

// TokenRef implements lexis.TokenCursor.
func (c *TokenCursor) TokenRef(distance int) lexis.TokenRef {
	at, ok := c.peek(distance)
	if !ok {
		return lexis.NilTokenRef()
	}
	return lexis.TokenRef{Unit: c.tree.unit, Entry: at.ChunkEntry()}
}

// SiteRef implements lexis.TokenCursor.
func (c *TokenCursor) SiteRef(distance int) lexis.SiteRef {
	at, ok := c.peek(distance)
	if !ok {
		return c.EndSiteRef()
	}
	return lexis.StartOf(lexis.TokenRef{Unit: c.tree.unit, Entry: at.ChunkEntry()})
}

// EndSiteRef implements lexis.TokenCursor.
func (c *TokenCursor) EndSiteRef() lexis.SiteRef {
	if c.end.IsNil() {
		return lexis.CodeEnd(c.tree.unit)
	}
	return lexis.StartOf(lexis.TokenRef{Unit: c.tree.unit, Entry: c.end})
}

func (c *TokenCursor) endSite() lexis.Site {
	if c.end.IsNil() {
		return c.tree.Length()
	}
	end := c.tree.Lookup(c.end)
	if end.IsDangling() {
		return c.tree.Length()
	}
	return c.tree.SiteOf(end)
}

// Position returns the cursor's current chunk cursor.
func (c *TokenCursor) Position() Cursor {
	return c.cur
}

// MoveTo repositions the cursor, used when replaying a cached subtree
// jumps straight to its parse end.
func (c *TokenCursor) MoveTo(at Cursor) {
	c.cur = at
}
