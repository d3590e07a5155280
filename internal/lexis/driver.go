package lexis

import "strings"

// Driver runs a Lexis scanner over a session, emitting one chunk per call.
// Input the scanner cannot match is folded into Mismatch chunks one
// character at a time, so the driver always makes progress and always
// terminates.
type Driver struct {
	lexis   Lexis
	session *Session
	queued  Chunk
	hasNext bool
}

// NewDriver builds a driver scanning the given feed.
func NewDriver(lexis Lexis, feed Feed) *Driver {
	return &Driver{lexis: lexis, session: NewSession(feed)}
}

// Next emits the next chunk. Chunk sites are left zero; the caller places
// chunks into its own coordinate space.
func (d *Driver) Next() (Chunk, bool) {
	if d.hasNext {
		d.hasNext = false
		return d.queued, true
	}

	var mismatch strings.Builder
	mismatchLen := 0

	for !d.session.atEnd() {
		d.session.beginToken()
		rule := d.lexis.Scan(d.session)

		if d.session.submittedSomething() {
			text, length := d.session.submittedText()
			chunk := Chunk{Rule: rule, Length: length, Text: text}
			if mismatchLen == 0 {
				return chunk, true
			}
			d.queued = chunk
			d.hasNext = true
			return Chunk{Rule: Mismatch, Length: mismatchLen, Text: mismatch.String()}, true
		}

		// The scanner accepted nothing; fall back to consuming a single
		// character into the current mismatch run.
		d.session.rewind()
		r, ok := d.session.Read()
		if !ok {
			break
		}
		d.session.Submit()
		mismatch.WriteRune(r)
		mismatchLen++
	}

	if mismatchLen > 0 {
		return Chunk{Rule: Mismatch, Length: mismatchLen, Text: mismatch.String()}, true
	}
	return Chunk{}, false
}
