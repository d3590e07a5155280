package lexis

import (
	"fmt"

	"github.com/orizon-lang/lattice/internal/arena"
)

// SourceCode is the read surface shared by token buffers and documents.
type SourceCode interface {
	// Id returns the unit identifier.
	Id() arena.Id

	// Lexis returns the token grammar of the unit.
	Lexis() Lexis

	// Length returns the character count of the unit text.
	Length() Length

	// TokenCount returns the number of chunks covering the text.
	TokenCount() int

	// Substring returns the text of the character range.
	Substring(span SiteSpan) string

	// Cursor returns a token cursor over the chunks touching span.
	Cursor(span SiteSpan) TokenCursor

	// Lines returns the unit's line index.
	Lines() *LineIndex

	// HasChunk reports whether entry addresses a live chunk of this unit.
	HasChunk(entry arena.Entry) bool

	// ChunkAt resolves entry to its chunk with the absolute site filled in.
	ChunkAt(entry arena.Entry) (Chunk, bool)
}

// TokenRef is a stable reference to one chunk of one unit. It survives
// edits that do not touch the referenced token.
type TokenRef struct {
	Unit  arena.Id
	Entry arena.Entry
}

// NilTokenRef returns the reference-to-nothing sentinel.
func NilTokenRef() TokenRef {
	return TokenRef{Unit: arena.Nil, Entry: arena.NilEntry()}
}

// IsNil reports whether the reference is the nil sentinel.
func (r TokenRef) IsNil() bool {
	return r.Unit.IsNil() && r.Entry.IsNil()
}

// IsValidRef reports whether the reference resolves inside code.
func (r TokenRef) IsValidRef(code SourceCode) bool {
	return r.Unit == code.Id() && code.HasChunk(r.Entry)
}

// Chunk resolves the reference to its chunk.
func (r TokenRef) Chunk(code SourceCode) (Chunk, bool) {
	if r.Unit != code.Id() {
		return Chunk{}, false
	}
	return code.ChunkAt(r.Entry)
}

// Site returns the chunk's current absolute site.
func (r TokenRef) Site(code SourceCode) (Site, bool) {
	chunk, ok := r.Chunk(code)
	if !ok {
		return 0, false
	}
	return chunk.Site, true
}

func (r TokenRef) String() string {
	if r.IsNil() {
		return "TokenRef(nil)"
	}
	return fmt.Sprintf("TokenRef(%s, %s)", r.Unit, r.Entry)
}

// SiteRef is a stable position reference: either the start of a token or
// the end of a unit's text. It resolves to an absolute site on demand.
type SiteRef struct {
	token   TokenRef
	codeEnd arena.Id
}

// NilSiteRef returns the reference-to-nothing sentinel.
func NilSiteRef() SiteRef {
	return SiteRef{token: NilTokenRef(), codeEnd: arena.Nil}
}

// StartOf returns a SiteRef anchored at the start of token.
func StartOf(token TokenRef) SiteRef {
	return SiteRef{token: token, codeEnd: arena.Nil}
}

// CodeEnd returns a SiteRef pinned to the end of the unit's text.
func CodeEnd(unit arena.Id) SiteRef {
	return SiteRef{token: NilTokenRef(), codeEnd: unit}
}

// IsNil reports whether the reference is the nil sentinel.
func (r SiteRef) IsNil() bool {
	return r.token.IsNil() && r.codeEnd.IsNil()
}

// IsCodeEnd reports whether the reference is pinned to the text end.
func (r SiteRef) IsCodeEnd() bool {
	return !r.codeEnd.IsNil()
}

// TokenRef returns the anchor token, or the nil sentinel for end pins.
func (r SiteRef) TokenRef() TokenRef {
	return r.token
}

// IsValidRef reports whether the reference resolves inside code.
func (r SiteRef) IsValidRef(code SourceCode) bool {
	if r.IsCodeEnd() {
		return r.codeEnd == code.Id()
	}
	return r.token.IsValidRef(code)
}

// Site resolves the reference to an absolute character site.
func (r SiteRef) Site(code SourceCode) (Site, bool) {
	if r.IsCodeEnd() {
		if r.codeEnd != code.Id() {
			return 0, false
		}
		return code.Length(), true
	}
	return r.token.Site(code)
}

func (r SiteRef) String() string {
	switch {
	case r.IsNil():
		return "SiteRef(nil)"
	case r.IsCodeEnd():
		return fmt.Sprintf("SiteRef(end of %s)", r.codeEnd)
	default:
		return fmt.Sprintf("SiteRef(start of %s)", r.token)
	}
}
