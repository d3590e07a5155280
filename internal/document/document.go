// Package document manages editable compilation units: the rope-backed
// token storage, the incremental relexer and the incremental reparser
// that keep the syntax tree coherent after every write.
package document

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/rope"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// Document is one compilation unit. Mutable documents accept incremental
// writes; immutable documents are parsed once and reject writes.
//
// A document is owned by a single writer at a time; the task scheduler in
// the semantic layer serializes mutations per document.
type Document struct {
	id      arena.Id
	grammar syntax.Grammar
	mutable bool

	rope  *rope.Tree
	tree  *syntax.Tree
	lines *lexis.LineIndex

	// Root residue: nodes and errors created directly under the root
	// parse outside any cached descend. Disposed on full reparses.
	rootNodes  []arena.Entry
	rootErrors []arena.Entry

	watcher syntax.Watcher
}

// NewMutable scans and parses text into an editable document.
func NewMutable(grammar syntax.Grammar, text string) *Document {
	d := newDocument(grammar, text, true)
	d.parseFromScratch()
	return d
}

// NewImmutable scans and parses text into a frozen document. Writes
// panic; the parse installs no incremental caches.
func NewImmutable(grammar syntax.Grammar, text string) *Document {
	d := newDocument(grammar, text, false)
	syntax.Parse(grammar, d.tree, d.Cursor(lexis.SiteSpan{Start: 0, End: d.Length()}))
	return d
}

func newDocument(grammar syntax.Grammar, text string, mutable bool) *Document {
	id := arena.NewId()
	d := &Document{
		id:      id,
		grammar: grammar,
		mutable: mutable,
		rope:    rope.New(id),
		tree:    syntax.NewTree(id),
		lines:   lexis.NewLineIndex(text),
		watcher: syntax.VoidWatcher{},
	}

	driver := lexis.NewDriver(grammar, lexis.NewStringFeed(text))
	for {
		chunk, ok := driver.Next()
		if !ok {
			break
		}
		d.rope.Append(chunk)
	}
	return d
}

// SetWatcher installs the structural-change callback surface. A nil
// watcher resets to the void one.
func (d *Document) SetWatcher(watcher syntax.Watcher) {
	if watcher == nil {
		watcher = syntax.VoidWatcher{}
	}
	d.watcher = watcher
}

// IsMutable reports whether the document accepts writes.
func (d *Document) IsMutable() bool {
	return d.mutable
}

// Write replaces span with text and brings the token stream and syntax
// tree back into coherence. Invalid spans and writes to immutable
// documents are API-contract violations and panic.
func (d *Document) Write(span lexis.Span, text string) {
	if !d.mutable {
		panic("document: write into an immutable document")
	}
	siteSpan, ok := span.ToSiteSpan(d)
	if !ok {
		panic("document: write span is not valid for this document")
	}

	events := &watchEvents{}
	splice, changed := d.relex(siteSpan, text, events)
	d.lines.Edit(siteSpan, text)
	if !changed {
		return
	}
	d.reparse(splice, events)
	events.flush(d.watcher)
}

// Id implements lexis.SourceCode.
func (d *Document) Id() arena.Id {
	return d.id
}

// Lexis implements lexis.SourceCode.
func (d *Document) Lexis() lexis.Lexis {
	return d.grammar
}

// Grammar returns the node grammar of the document.
func (d *Document) Grammar() syntax.Grammar {
	return d.grammar
}

// Length implements lexis.SourceCode.
func (d *Document) Length() lexis.Length {
	return d.rope.Length()
}

// TokenCount implements lexis.SourceCode.
func (d *Document) TokenCount() int {
	return d.rope.Count()
}

// Substring implements lexis.SourceCode.
func (d *Document) Substring(span lexis.SiteSpan) string {
	return d.rope.Substring(span)
}

// Text returns the whole document text.
func (d *Document) Text() string {
	return d.rope.Substring(lexis.SiteSpan{Start: 0, End: d.rope.Length()})
}

// Chars returns the characters of span.
func (d *Document) Chars(span lexis.SiteSpan) []rune {
	return []rune(d.Substring(span))
}

// Cursor implements lexis.SourceCode. The window covers every chunk
// touching span.
func (d *Document) Cursor(span lexis.SiteSpan) lexis.TokenCursor {
	start := d.rope.CursorAt(span.Start)
	var end rope.Cursor
	if span.End < d.rope.Length() {
		end = d.rope.CursorAt(span.End)
		if !end.IsDangling() && d.rope.SiteOf(end) < span.End {
			// A chunk straddling the end boundary belongs to the window.
			end = end.Next()
		}
	}
	return rope.NewTokenCursor(d.rope, start, end)
}

// Tokens lists the document's chunks in source order.
func (d *Document) Tokens() []lexis.Chunk {
	chunks := make([]lexis.Chunk, 0, d.rope.Count())
	site := lexis.Site(0)
	for c := d.rope.First(); !c.IsDangling(); c = c.Next() {
		chunk := lexis.Chunk{Rule: c.Token(), Site: site, Length: c.Span(), Text: c.String()}
		site += chunk.Length
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Lines implements lexis.SourceCode.
func (d *Document) Lines() *lexis.LineIndex {
	return d.lines
}

// HasChunk implements lexis.SourceCode.
func (d *Document) HasChunk(entry arena.Entry) bool {
	return d.rope.Contains(entry)
}

// ChunkAt implements lexis.SourceCode.
func (d *Document) ChunkAt(entry arena.Entry) (lexis.Chunk, bool) {
	return d.rope.ChunkAt(entry)
}

// Tree exposes the node storage.
func (d *Document) Tree() *syntax.Tree {
	return d.tree
}

// RootNodeRef returns the reference of the tree root.
func (d *Document) RootNodeRef() syntax.NodeRef {
	return d.tree.Root()
}

// NodeRefs lists every live node.
func (d *Document) NodeRefs() []syntax.NodeRef {
	return d.tree.NodeRefs()
}

// ErrorRefs lists every live diagnostic.
func (d *Document) ErrorRefs() []syntax.ErrorRef {
	return d.tree.ErrorRefs()
}

// GetNode resolves a node entry.
func (d *Document) GetNode(entry arena.Entry) (syntax.Node, bool) {
	return d.tree.GetNode(entry)
}

// GetError resolves an error entry.
func (d *Document) GetError(entry arena.Entry) (*syntax.SyntaxError, bool) {
	return d.tree.GetError(entry)
}

// Cover returns the deepest node whose span fully contains span.
func (d *Document) Cover(span lexis.SiteSpan) syntax.NodeRef {
	return d.tree.Cover(span, d)
}

// ErrorMessages renders every diagnostic against the current text.
func (d *Document) ErrorMessages() []string {
	refs := d.tree.ErrorRefs()
	messages := make([]string, 0, len(refs))
	for _, ref := range refs {
		if err, ok := d.tree.GetError(ref.Entry); ok {
			messages = append(messages, err.Display(d, d.grammar))
		}
	}
	return messages
}
