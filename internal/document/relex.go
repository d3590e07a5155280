package document

import (
	"math"
	"unicode/utf8"

	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/rope"
)

// spliceResult describes the chunk-level effect of one write: the
// new-coordinate span of the replaced middle run and a cursor at its
// first chunk.
type spliceResult struct {
	editSpan lexis.SiteSpan
	first    rope.Cursor
}

// ropeFeed feeds the rescan: the fixed fragments around the edit first,
// then chunk strings streamed from the rope on demand.
type ropeFeed struct {
	initial []string
	index   int
	stream  rope.Cursor
}

// NextFragment implements lexis.Feed.
func (f *ropeFeed) NextFragment() (string, bool) {
	for f.index < len(f.initial) {
		fragment := f.initial[f.index]
		f.index++
		if fragment != "" {
			return fragment, true
		}
	}
	if f.stream.IsDangling() {
		return "", false
	}
	fragment := f.stream.String()
	f.stream = f.stream.Next()
	return fragment, true
}

// relex rescans the minimal text window around the replacement of span by
// text and splices the changed chunk run into the rope. Dead caches of
// removed chunks are disposed into events.
func (d *Document) relex(span lexis.SiteSpan, text string, events *watchEvents) (spliceResult, bool) {
	lookback := d.grammar.Lookback()
	if lookback < 1 {
		lookback = 1
	}

	// Rescan head: walk whole chunks backward from the edit start until
	// the lookback window is covered.
	head := d.rope.CursorAt(span.Start)
	if head.IsDangling() {
		head = d.rope.Last()
	}
	headSite := lexis.Site(0)
	if !head.IsDangling() {
		headSite = d.rope.SiteOf(head)
		for span.Start-headSite < lookback {
			prev := head.Back()
			if prev.IsDangling() {
				break
			}
			head = prev
			headSite -= head.Span()
		}
	}

	// Tail: the first chunk at or after the edit end. A chunk straddling
	// the end contributes its suffix to the rescan input.
	tail := d.rope.CursorAt(span.End)
	streamStart := tail
	tailSuffix := ""
	oldStreamStart := span.End
	if !tail.IsDangling() {
		tailSite := d.rope.SiteOf(tail)
		if tailSite < span.End {
			tailSuffix = charSlice(tail.String(), span.End-tailSite, tail.Span())
			streamStart = tail.Next()
			oldStreamStart = tailSite + tail.Span()
		}
	}

	feed := &ropeFeed{
		initial: []string{d.rope.Substring(lexis.SiteSpan{Start: headSite, End: span.Start}), text, tailSuffix},
		stream:  streamStart,
	}

	insertedLen := utf8.RuneCountInString(text)
	delta := insertedLen - span.Length()
	newEditEnd := span.Start + insertedLen

	// Chunk boundaries of the untouched tail, mapped into post-edit
	// coordinates. Scanning stops as soon as an emitted token boundary
	// lands on one of them past the edit; everything beyond is identical.
	boundary := lexis.Site(math.MaxInt)
	sync := streamStart
	if !streamStart.IsDangling() {
		boundary = oldStreamStart + delta
	}

	driver := lexis.NewDriver(d.grammar, feed)
	var scanned []lexis.Chunk
	emitted := headSite
	for {
		chunk, ok := driver.Next()
		if !ok {
			sync = rope.Cursor{}
			break
		}
		scanned = append(scanned, chunk)
		emitted += chunk.Length
		for boundary < emitted && !sync.IsDangling() {
			boundary += sync.Span()
			sync = sync.Next()
			if sync.IsDangling() {
				boundary = math.MaxInt
			}
		}
		// A boundary qualifies only when the lookback window of the token
		// following it lies entirely in the unchanged suffix.
		if emitted == boundary && emitted >= newEditEnd+lookback {
			break
		}
	}

	// The rescanned window of pre-edit chunks runs from the head to the
	// synchronization point.
	var oldWindow []rope.Cursor
	for c := head; !c.IsDangling() && !c.SameChunkAs(sync); c = c.Next() {
		oldWindow = append(oldWindow, c)
	}

	// Keep the longest structurally identical prefix and suffix; only the
	// middle is spliced.
	prefix := 0
	for prefix < len(oldWindow) && prefix < len(scanned) && chunksIdentical(oldWindow[prefix], scanned[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(oldWindow)-prefix && suffix < len(scanned)-prefix &&
		chunksIdentical(oldWindow[len(oldWindow)-1-suffix], scanned[len(scanned)-1-suffix]) {
		suffix++
	}

	removeCount := len(oldWindow) - prefix - suffix
	middle := scanned[prefix : len(scanned)-suffix]
	if removeCount == 0 && len(middle) == 0 {
		return spliceResult{}, false
	}

	editStart := headSite
	for _, chunk := range scanned[:prefix] {
		editStart += chunk.Length
	}
	editLen := lexis.Length(0)
	for _, chunk := range middle {
		editLen += chunk.Length
	}

	spliceAt := sync
	if prefix < len(oldWindow) {
		spliceAt = oldWindow[prefix]
	}
	removed, firstInserted := d.rope.Splice(spliceAt, removeCount, middle)
	for _, r := range removed {
		d.disposeCache(r.Cache, events, false)
	}

	return spliceResult{
		editSpan: lexis.SiteSpan{Start: editStart, End: editStart + editLen},
		first:    firstInserted,
	}, true
}

func chunksIdentical(c rope.Cursor, chunk lexis.Chunk) bool {
	return c.Token() == chunk.Rule && c.Span() == chunk.Length && c.String() == chunk.Text
}

// charSlice slices a string by character offsets.
func charSlice(text string, from, to lexis.Site) string {
	start := len(text)
	end := len(text)
	site := 0
	for i := range text {
		if site == from && start == len(text) {
			start = i
		}
		if site == to {
			end = i
			break
		}
		site++
	}
	if from == 0 {
		start = 0
	}
	return text[start:end]
}
