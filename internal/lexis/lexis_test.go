package lexis

import "testing"

// wordLexis is a minimal grammar for the lexical layer tests: words,
// numbers and whitespace runs.
type wordLexis struct{}

const (
	testWord   TokenRule = 2
	testNumber TokenRule = 3
	testSpace  TokenRule = 4
)

func (wordLexis) Lookback() Length { return 1 }

func (wordLexis) Name(rule TokenRule) string {
	switch rule {
	case testWord:
		return "Word"
	case testNumber:
		return "Number"
	case testSpace:
		return "Space"
	default:
		return ""
	}
}

func (l wordLexis) Describe(rule TokenRule, verbose bool) string {
	return l.Name(rule)
}

func (wordLexis) Scan(s *Session) TokenRule {
	b := s.Advance()
	switch {
	case b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z':
		s.Submit()
		for {
			b = s.Advance()
			if b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' {
				s.Submit()
				continue
			}
			return testWord
		}
	case b >= '0' && b <= '9':
		s.Submit()
		for {
			b = s.Advance()
			if b >= '0' && b <= '9' {
				s.Submit()
				continue
			}
			return testNumber
		}
	case b == ' ' || b == '\t' || b == '\n':
		s.Submit()
		for {
			b = s.Advance()
			if b == ' ' || b == '\t' || b == '\n' {
				s.Submit()
				continue
			}
			return testSpace
		}
	default:
		return Mismatch
	}
}

func TestDriverTokenization(t *testing.T) {
	tests := []struct {
		input  string
		rules  []TokenRule
		texts  []string
		counts []Length
	}{
		{
			input: "hello world",
			rules: []TokenRule{testWord, testSpace, testWord},
			texts: []string{"hello", " ", "world"},
		},
		{
			input: "abc123",
			rules: []TokenRule{testWord, testNumber},
			texts: []string{"abc", "123"},
		},
		{
			// Unscannable runs fold into single mismatch chunks.
			input: "a?!b",
			rules: []TokenRule{testWord, Mismatch, testWord},
			texts: []string{"a", "?!", "b"},
		},
		{
			input: "##",
			rules: []TokenRule{Mismatch},
			texts: []string{"##"},
		},
		{
			input: "",
			rules: nil,
			texts: nil,
		},
	}

	for _, tt := range tests {
		driver := NewDriver(wordLexis{}, NewStringFeed(tt.input))
		var rules []TokenRule
		var texts []string
		for {
			chunk, ok := driver.Next()
			if !ok {
				break
			}
			rules = append(rules, chunk.Rule)
			texts = append(texts, chunk.Text)
			if chunk.Length <= 0 {
				t.Errorf("%q: chunk %q has non-positive length", tt.input, chunk.Text)
			}
		}
		if len(rules) != len(tt.rules) {
			t.Fatalf("%q: got %d chunks, want %d", tt.input, len(rules), len(tt.rules))
		}
		for i := range rules {
			if rules[i] != tt.rules[i] || texts[i] != tt.texts[i] {
				t.Errorf("%q: chunk %d = (%d, %q), want (%d, %q)",
					tt.input, i, rules[i], texts[i], tt.rules[i], tt.texts[i])
			}
		}
	}
}

func TestDriverSpansFragments(t *testing.T) {
	// A token split across feed fragments must come out whole.
	driver := NewDriver(wordLexis{}, NewStringFeed("hel", "lo ", "42"))
	chunk, ok := driver.Next()
	if !ok || chunk.Text != "hello" || chunk.Rule != testWord {
		t.Fatalf("first chunk = %+v, %v", chunk, ok)
	}
	chunk, _ = driver.Next()
	if chunk.Rule != testSpace {
		t.Fatalf("second chunk = %+v", chunk)
	}
	chunk, _ = driver.Next()
	if chunk.Text != "42" || chunk.Rule != testNumber {
		t.Fatalf("third chunk = %+v", chunk)
	}
}

func TestBufferCoverage(t *testing.T) {
	input := "one 22 three"
	buffer := ParseTokenBuffer(wordLexis{}, input)

	if buffer.Length() != len(input) {
		t.Fatalf("Length = %d, want %d", buffer.Length(), len(input))
	}

	// Chunks cover the text contiguously without overlap.
	site := Site(0)
	for _, chunk := range buffer.Chunks() {
		if chunk.Site != site {
			t.Fatalf("chunk %q at site %d, want %d", chunk.Text, chunk.Site, site)
		}
		site += chunk.Length
	}
	if site != buffer.Length() {
		t.Fatalf("chunks cover %d chars, text has %d", site, buffer.Length())
	}

	if got := buffer.Substring(SiteSpan{Start: 4, End: 6}); got != "22" {
		t.Fatalf("Substring = %q", got)
	}
}

func TestBufferCursor(t *testing.T) {
	buffer := ParseTokenBuffer(wordLexis{}, "aa bb cc")
	cursor := buffer.Cursor(SiteSpan{Start: 0, End: buffer.Length()})

	if cursor.Token(0) != testWord || cursor.String(0) != "aa" {
		t.Fatalf("peek 0 = %d %q", cursor.Token(0), cursor.String(0))
	}
	if cursor.Token(2) != testWord || cursor.String(2) != "bb" {
		t.Fatalf("peek 2 = %d %q", cursor.Token(2), cursor.String(2))
	}
	// Peeking past the end pins to EOI and the end site.
	if cursor.Token(99) != EOI {
		t.Fatal("expected EOI past the end")
	}
	if cursor.Site(99) != buffer.Length() {
		t.Fatalf("end-pinned site = %d", cursor.Site(99))
	}

	steps := 0
	for cursor.Advance() {
		steps++
	}
	if steps != 5 {
		t.Fatalf("advanced %d times, want 5", steps)
	}

	ref := buffer.Cursor(SiteSpan{Start: 3, End: 5}).TokenRef(0)
	if !ref.IsValidRef(buffer) {
		t.Fatal("token ref not valid")
	}
	if site, _ := ref.Site(buffer); site != 3 {
		t.Fatalf("ref site = %d, want 3", site)
	}
}

func TestSiteRefs(t *testing.T) {
	buffer := ParseTokenBuffer(wordLexis{}, "aa bb")
	cursor := buffer.Cursor(SiteSpan{Start: 0, End: buffer.Length()})

	start := cursor.SiteRef(2)
	if site, ok := start.Site(buffer); !ok || site != 3 {
		t.Fatalf("site ref = %d, %v", site, ok)
	}

	end := CodeEnd(buffer.Id())
	if site, ok := end.Site(buffer); !ok || site != 5 {
		t.Fatalf("code end = %d, %v", site, ok)
	}
	if !end.IsCodeEnd() {
		t.Fatal("expected code end ref")
	}
}

func TestLineIndex(t *testing.T) {
	index := NewLineIndex("ab\ncd\nef")

	if index.LineCount() != 3 {
		t.Fatalf("LineCount = %d", index.LineCount())
	}
	if pos := index.PositionOf(4); pos != (Position{Line: 2, Column: 2}) {
		t.Fatalf("PositionOf(4) = %v", pos)
	}
	if site := index.SiteOf(Position{Line: 3, Column: 1}); site != 6 {
		t.Fatalf("SiteOf(3:1) = %d", site)
	}

	// Replace "cd" with a two-line chunk.
	index.Edit(SiteSpan{Start: 3, End: 5}, "x\ny")
	if index.Length() != 9 {
		t.Fatalf("Length after edit = %d", index.Length())
	}
	if index.LineCount() != 4 {
		t.Fatalf("LineCount after edit = %d", index.LineCount())
	}
	// New text is "ab\nx\ny\nef"; site 8 is the final 'f'.
	if pos := index.PositionOf(8); pos != (Position{Line: 4, Column: 2}) {
		t.Fatalf("PositionOf(8) after edit = %v", pos)
	}
}

func TestSpanResolution(t *testing.T) {
	buffer := ParseTokenBuffer(wordLexis{}, "ab\ncd")

	span, ok := PositionSpan{
		Start: Position{Line: 1, Column: 1},
		End:   Position{Line: 2, Column: 3},
	}.ToSiteSpan(buffer)
	if !ok || span != (SiteSpan{Start: 0, End: 5}) {
		t.Fatalf("position span = %v, %v", span, ok)
	}

	span, ok = All{}.ToSiteSpan(buffer)
	if !ok || span != (SiteSpan{Start: 0, End: 5}) {
		t.Fatalf("all span = %v, %v", span, ok)
	}

	if _, ok := (SiteSpan{Start: 3, End: 99}).ToSiteSpan(buffer); ok {
		t.Fatal("out-of-bounds span resolved")
	}
	if _, ok := (SiteSpan{Start: 4, End: 2}).ToSiteSpan(buffer); ok {
		t.Fatal("inverted span resolved")
	}
}

func TestTokenSet(t *testing.T) {
	set := NewTokenSet(testWord, testSpace)
	if !set.Has(testWord) || !set.Has(testSpace) || set.Has(testNumber) {
		t.Fatalf("membership wrong: %v", set)
	}
	set = set.With(testNumber).Without(testWord)
	if set.Has(testWord) || !set.Has(testNumber) {
		t.Fatalf("with/without wrong: %v", set)
	}
	if got := NewTokenSet().IsEmpty(); !got {
		t.Fatal("empty set not empty")
	}
}

func TestSpanIntersects(t *testing.T) {
	tests := []struct {
		a, b SiteSpan
		want bool
	}{
		{SiteSpan{0, 5}, SiteSpan{5, 9}, false},
		{SiteSpan{0, 5}, SiteSpan{4, 9}, true},
		{SiteSpan{3, 3}, SiteSpan{0, 5}, true},  // insertion point inside
		{SiteSpan{5, 5}, SiteSpan{0, 5}, true},  // insertion point at edge
		{SiteSpan{6, 6}, SiteSpan{0, 5}, false}, // insertion point beyond
	}
	for _, tt := range tests {
		if got := tt.a.Intersects(tt.b); got != tt.want {
			t.Errorf("%v.Intersects(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := tt.b.Intersects(tt.a); got != tt.want {
			t.Errorf("%v.Intersects(%v) = %v, want %v", tt.b, tt.a, got, tt.want)
		}
	}
}
