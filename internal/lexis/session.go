package lexis

import "unicode/utf8"

// EOB is the sentinel byte returned by Session.Advance at the end of input.
// 0xFF never occurs in well-formed UTF-8.
const EOB byte = 0xFF

// Feed supplies the scan input as a sequence of string fragments: a whole
// buffer on the initial scan, or chunk strings interleaved with the edited
// text on an incremental rescan.
type Feed interface {
	// NextFragment returns the next non-empty input fragment, or ok=false
	// when the input is exhausted.
	NextFragment() (fragment string, ok bool)
}

// StringFeed feeds a fixed list of fragments.
type StringFeed struct {
	fragments []string
	index     int
}

// NewStringFeed builds a feed over the given fragments.
func NewStringFeed(fragments ...string) *StringFeed {
	return &StringFeed{fragments: fragments}
}

// NextFragment implements Feed.
func (f *StringFeed) NextFragment() (string, bool) {
	for f.index < len(f.fragments) {
		fragment := f.fragments[f.index]
		f.index++
		if fragment != "" {
			return fragment, true
		}
	}
	return "", false
}

type scanPos struct {
	frag int
	off  ByteIndex
}

// Session is the byte stream a Lexis scanner reads. The scanner inspects
// bytes or characters with Advance, Consume and Read, and marks the end of
// each accepted token with Submit. Fragments are pulled from the feed on
// demand, so a rescan only touches the text it actually needs.
//
// UTF-8 characters never straddle fragment boundaries: fragments are either
// whole chunk strings (chunks are character-aligned) or the edited text.
type Session struct {
	feed      Feed
	fragments []string
	drained   bool

	begin   scanPos
	end     scanPos
	current scanPos
}

// NewSession opens a scan session over feed.
func NewSession(feed Feed) *Session {
	return &Session{feed: feed}
}

// ensure makes the current position addressable, pulling fragments as
// needed. Returns false at the end of input.
func (s *Session) ensure(p *scanPos) bool {
	for {
		if p.frag < len(s.fragments) {
			if p.off < len(s.fragments[p.frag]) {
				return true
			}
			p.frag++
			p.off = 0
			continue
		}
		if s.drained {
			return false
		}
		fragment, ok := s.feed.NextFragment()
		if !ok {
			s.drained = true
			return false
		}
		s.fragments = append(s.fragments, fragment)
	}
}

// Advance returns the byte at the stream position and moves one byte
// forward. Returns EOB at the end of input.
func (s *Session) Advance() byte {
	if !s.ensure(&s.current) {
		return EOB
	}
	b := s.fragments[s.current.frag][s.current.off]
	s.current.off++
	return b
}

// Consume skips the continuation bytes of the character whose first byte
// was just taken with Advance.
func (s *Session) Consume() {
	for s.ensure(&s.current) {
		b := s.fragments[s.current.frag][s.current.off]
		if b&0xC0 != 0x80 {
			return
		}
		s.current.off++
	}
}

// Read decodes the character at the stream position and moves past it.
// Returns ok=false at the end of input.
func (s *Session) Read() (rune, bool) {
	if !s.ensure(&s.current) {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(s.fragments[s.current.frag][s.current.off:])
	s.current.off += size
	return r, true
}

// Submit marks the current position as the end of the token being scanned.
func (s *Session) Submit() {
	s.end = s.current
}

// beginToken rewinds to the last submitted position and opens a new token.
func (s *Session) beginToken() {
	s.begin = s.end
	s.current = s.end
}

// rewind restores the stream position to the token start.
func (s *Session) rewind() {
	s.current = s.begin
	s.end = s.begin
}

// submittedText returns the text between the token start and the submitted
// end, along with its character length.
func (s *Session) submittedText() (string, Length) {
	return s.textBetween(s.begin, s.end)
}

func (s *Session) textBetween(from, to scanPos) (string, Length) {
	if from == to {
		return "", 0
	}
	if from.frag == to.frag {
		text := s.fragments[from.frag][from.off:to.off]
		return text, utf8.RuneCountInString(text)
	}
	var b []byte
	b = append(b, s.fragments[from.frag][from.off:]...)
	for frag := from.frag + 1; frag < to.frag; frag++ {
		b = append(b, s.fragments[frag]...)
	}
	b = append(b, s.fragments[to.frag][:to.off]...)
	text := string(b)
	return text, utf8.RuneCountInString(text)
}

// atEnd reports whether the submitted position exhausted the input.
func (s *Session) atEnd() bool {
	p := s.end
	return !s.ensure(&p)
}

// submittedSomething reports whether the last scan accepted any input.
func (s *Session) submittedSomething() bool {
	return s.end != s.begin
}
