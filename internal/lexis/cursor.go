package lexis

import "github.com/orizon-lang/lattice/internal/arena"

// TokenCursor walks the chunks of a unit. Distance arguments peek ahead of
// the cursor position without consuming; peeking past the covered window
// yields the EOI sentinel and end-pinned sites.
type TokenCursor interface {
	// Advance consumes one token. Returns false at the window end.
	Advance() bool

	// Skip consumes up to distance tokens.
	Skip(distance int)

	// Token peeks the rule distance tokens ahead, EOI past the end.
	Token(distance int) TokenRule

	// Site peeks the start site distance tokens ahead; past the end it
	// pins to the window end site.
	Site(distance int) Site

	// Length peeks the char length distance tokens ahead, 0 past the end.
	Length(distance int) Length

	// String peeks the text distance tokens ahead, "" past the end.
	String(distance int) string

	// TokenRef peeks the stable reference distance tokens ahead, the nil
	// sentinel past the end.
	TokenRef(distance int) TokenRef

	// SiteRef peeks the stable site reference distance tokens ahead; past
	// the end it returns EndSiteRef.
	SiteRef(distance int) SiteRef

	// EndSiteRef returns the stable reference to the window end.
	EndSiteRef() SiteRef
}

// bufferCursor walks a contiguous chunk slice of a TokenBuffer.
type bufferCursor struct {
	buffer *TokenBuffer
	pos    int // current chunk index
	end    int // one past the last covered chunk
}

func (c *bufferCursor) at(distance int) (int, bool) {
	index := c.pos + distance
	if index >= c.end || index >= len(c.buffer.chunks) {
		return 0, false
	}
	return index, true
}

func (c *bufferCursor) Advance() bool {
	if c.pos >= c.end {
		return false
	}
	c.pos++
	return true
}

func (c *bufferCursor) Skip(distance int) {
	for distance > 0 && c.Advance() {
		distance--
	}
}

func (c *bufferCursor) Token(distance int) TokenRule {
	index, ok := c.at(distance)
	if !ok {
		return EOI
	}
	return c.buffer.chunks[index].Rule
}

func (c *bufferCursor) Site(distance int) Site {
	index, ok := c.at(distance)
	if !ok {
		return c.endSite()
	}
	return c.buffer.chunks[index].Site
}

func (c *bufferCursor) Length(distance int) Length {
	index, ok := c.at(distance)
	if !ok {
		return 0
	}
	return c.buffer.chunks[index].Length
}

func (c *bufferCursor) String(distance int) string {
	index, ok := c.at(distance)
	if !ok {
		return ""
	}
	return c.buffer.chunks[index].Text
}

func (c *bufferCursor) TokenRef(distance int) TokenRef {
	index, ok := c.at(distance)
	if !ok {
		return NilTokenRef()
	}
	return TokenRef{
		Unit:  c.buffer.id,
		Entry: arena.Entry{Index: arena.EntryIndex(index), Version: 1},
	}
}

func (c *bufferCursor) SiteRef(distance int) SiteRef {
	_, ok := c.at(distance)
	if !ok {
		return c.EndSiteRef()
	}
	return StartOf(c.TokenRef(distance))
}

func (c *bufferCursor) EndSiteRef() SiteRef {
	if c.end >= len(c.buffer.chunks) {
		return CodeEnd(c.buffer.id)
	}
	return StartOf(TokenRef{
		Unit:  c.buffer.id,
		Entry: arena.Entry{Index: arena.EntryIndex(c.end), Version: 1},
	})
}

func (c *bufferCursor) endSite() Site {
	if c.end >= len(c.buffer.chunks) {
		return c.buffer.Length()
	}
	return c.buffer.chunks[c.end].Site
}
