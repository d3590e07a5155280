// Package json is the reference JSON grammar: a hand-written scanner and
// recursive descent parser over the Lattice session interfaces. It backs
// the engine's integration tests and the CLI examples.
package json

import "github.com/orizon-lang/lattice/internal/lexis"

// Token rules. EOI and Mismatch are the reserved sentinels.
const (
	BraceOpen    lexis.TokenRule = 2
	BraceClose   lexis.TokenRule = 3
	BracketOpen  lexis.TokenRule = 4
	BracketClose lexis.TokenRule = 5
	Comma        lexis.TokenRule = 6
	Colon        lexis.TokenRule = 7
	String       lexis.TokenRule = 8
	Number       lexis.TokenRule = 9
	True         lexis.TokenRule = 10
	False        lexis.TokenRule = 11
	Null         lexis.TokenRule = 12
	Whitespace   lexis.TokenRule = 13
)

var tokenNames = map[lexis.TokenRule]string{
	lexis.EOI:      "EOI",
	lexis.Mismatch: "Mismatch",
	BraceOpen:      "BraceOpen",
	BraceClose:     "BraceClose",
	BracketOpen:    "BracketOpen",
	BracketClose:   "BracketClose",
	Comma:          "Comma",
	Colon:          "Colon",
	String:         "String",
	Number:         "Number",
	True:           "True",
	False:          "False",
	Null:           "Null",
	Whitespace:     "Whitespace",
}

var tokenDescriptions = map[lexis.TokenRule]string{
	BraceOpen:    "'{'",
	BraceClose:   "'}'",
	BracketOpen:  "'['",
	BracketClose: "']'",
	Comma:        "','",
	Colon:        "':'",
	String:       "string",
	Number:       "number",
	True:         "'true'",
	False:        "'false'",
	Null:         "'null'",
	Whitespace:   "whitespace",
}

// Lookback implements lexis.Lexis. No JSON token's identity depends on
// preceding text beyond its own start.
func (Grammar) Lookback() lexis.Length {
	return 1
}

// Name implements lexis.Lexis.
func (Grammar) Name(rule lexis.TokenRule) string {
	return tokenNames[rule]
}

// Describe implements lexis.Lexis.
func (Grammar) Describe(rule lexis.TokenRule, verbose bool) string {
	if description, ok := tokenDescriptions[rule]; ok {
		return description
	}
	return tokenNames[rule]
}

// IsBlank implements lexis.BlankLexis.
func (Grammar) IsBlank(rule lexis.TokenRule) bool {
	return rule == Whitespace
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// Scan implements lexis.Lexis.
func (Grammar) Scan(s *lexis.Session) lexis.TokenRule {
	b := s.Advance()
	switch {
	case b == '{':
		s.Submit()
		return BraceOpen
	case b == '}':
		s.Submit()
		return BraceClose
	case b == '[':
		s.Submit()
		return BracketOpen
	case b == ']':
		s.Submit()
		return BracketClose
	case b == ',':
		s.Submit()
		return Comma
	case b == ':':
		s.Submit()
		return Colon
	case isSpace(b):
		s.Submit()
		for {
			b = s.Advance()
			if !isSpace(b) {
				return Whitespace
			}
			s.Submit()
		}
	case b == '"':
		return scanString(s)
	case b == '-' || isDigit(b):
		return scanNumber(s, b)
	case b == 't':
		return scanWord(s, "rue", True)
	case b == 'f':
		return scanWord(s, "alse", False)
	case b == 'n':
		return scanWord(s, "ull", Null)
	default:
		return lexis.Mismatch
	}
}

// scanString recognizes a quoted string with backslash escapes. An
// unterminated string submits nothing and falls back to mismatch.
func scanString(s *lexis.Session) lexis.TokenRule {
	for {
		b := s.Advance()
		switch {
		case b == '"':
			s.Submit()
			return String
		case b == '\\':
			escaped := s.Advance()
			if escaped == lexis.EOB {
				return lexis.Mismatch
			}
			if escaped >= 0x80 {
				s.Consume()
			}
		case b == lexis.EOB:
			return lexis.Mismatch
		case b >= 0x80:
			s.Consume()
		}
	}
}

// scanNumber recognizes -?digits(.digits)?([eE][+-]?digits)?.
func scanNumber(s *lexis.Session, first byte) lexis.TokenRule {
	b := first
	if b == '-' {
		b = s.Advance()
		if !isDigit(b) {
			return lexis.Mismatch
		}
	}
	s.Submit()
	for {
		b = s.Advance()
		if isDigit(b) {
			s.Submit()
			continue
		}
		break
	}
	if b == '.' {
		b = s.Advance()
		if !isDigit(b) {
			return Number
		}
		s.Submit()
		for {
			b = s.Advance()
			if !isDigit(b) {
				break
			}
			s.Submit()
		}
	}
	if b == 'e' || b == 'E' {
		b = s.Advance()
		if b == '+' || b == '-' {
			b = s.Advance()
		}
		if !isDigit(b) {
			return Number
		}
		s.Submit()
		for {
			b = s.Advance()
			if !isDigit(b) {
				return Number
			}
			s.Submit()
		}
	}
	return Number
}

// scanWord matches the rest of a fixed keyword.
func scanWord(s *lexis.Session, rest string, rule lexis.TokenRule) lexis.TokenRule {
	for i := 0; i < len(rest); i++ {
		if s.Advance() != rest[i] {
			return lexis.Mismatch
		}
	}
	s.Submit()
	return rule
}
