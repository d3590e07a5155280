package lexis

import (
	"sort"
	"strings"

	"github.com/orizon-lang/lattice/internal/arena"
)

// TokenBuffer is a scan-only unit: the full text tokenized once into a
// flat chunk slice. It backs immutable documents and serves as the
// reference tokenization in tests.
type TokenBuffer struct {
	id     arena.Id
	lexis  Lexis
	text   string
	chunks []Chunk
	lines  *LineIndex
}

// ParseTokenBuffer scans text with the grammar and returns the buffer.
func ParseTokenBuffer(lexis Lexis, text string) *TokenBuffer {
	buffer := &TokenBuffer{
		id:    arena.NewId(),
		lexis: lexis,
		text:  text,
		lines: NewLineIndex(text),
	}

	driver := NewDriver(lexis, NewStringFeed(text))
	site := Site(0)
	for {
		chunk, ok := driver.Next()
		if !ok {
			break
		}
		chunk.Site = site
		site += chunk.Length
		buffer.chunks = append(buffer.chunks, chunk)
	}
	return buffer
}

// Id implements SourceCode.
func (b *TokenBuffer) Id() arena.Id {
	return b.id
}

// Lexis implements SourceCode.
func (b *TokenBuffer) Lexis() Lexis {
	return b.lexis
}

// Length implements SourceCode.
func (b *TokenBuffer) Length() Length {
	return b.lines.Length()
}

// TokenCount implements SourceCode.
func (b *TokenBuffer) TokenCount() int {
	return len(b.chunks)
}

// Text returns the full buffer text.
func (b *TokenBuffer) Text() string {
	return b.text
}

// Substring implements SourceCode.
func (b *TokenBuffer) Substring(span SiteSpan) string {
	return substringOf(b.text, span)
}

// Cursor implements SourceCode. The cursor covers every chunk touching
// span.
func (b *TokenBuffer) Cursor(span SiteSpan) TokenCursor {
	first := sort.Search(len(b.chunks), func(i int) bool {
		return b.chunks[i].End() > span.Start
	})
	end := sort.Search(len(b.chunks), func(i int) bool {
		return b.chunks[i].Site >= span.End
	})
	if end < first {
		end = first
	}
	return &bufferCursor{buffer: b, pos: first, end: end}
}

// Chunks returns the underlying chunk slice. Callers must not mutate it.
func (b *TokenBuffer) Chunks() []Chunk {
	return b.chunks
}

// Lines implements SourceCode.
func (b *TokenBuffer) Lines() *LineIndex {
	return b.lines
}

// HasChunk implements SourceCode. Buffer chunks all carry version 1.
func (b *TokenBuffer) HasChunk(entry arena.Entry) bool {
	return entry.Version == 1 && int(entry.Index) < len(b.chunks)
}

// ChunkAt implements SourceCode.
func (b *TokenBuffer) ChunkAt(entry arena.Entry) (Chunk, bool) {
	if !b.HasChunk(entry) {
		return Chunk{}, false
	}
	return b.chunks[entry.Index], true
}

// substringOf slices a string by character sites.
func substringOf(text string, span SiteSpan) string {
	if span.Length() <= 0 {
		return ""
	}
	var builder strings.Builder
	site := 0
	for _, r := range text {
		if site >= span.End {
			break
		}
		if site >= span.Start {
			builder.WriteRune(r)
		}
		site++
	}
	return builder.String()
}
