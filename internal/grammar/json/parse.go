package json

import (
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// Grammar is the JSON grammar: lexis.Lexis and syntax.Grammar in one
// stateless value.
type Grammar struct{}

// New returns the grammar.
func New() Grammar {
	return Grammar{}
}

// RuleName implements syntax.Grammar.
func (Grammar) RuleName(rule syntax.NodeRule) string {
	return ruleNames[rule]
}

// RuleDescription implements syntax.Grammar.
func (Grammar) RuleDescription(rule syntax.NodeRule, verbose bool) string {
	return ruleNames[rule]
}

// Parse implements syntax.Grammar.
func (g Grammar) Parse(s syntax.Session, rule syntax.NodeRule) syntax.Node {
	switch rule {
	case RuleRoot:
		return parseRoot(s)
	case RuleObject:
		return parseObject(s)
	case RuleEntry:
		return parseEntry(s)
	case RuleArray:
		return parseArray(s)
	default:
		return parseLeaf(s, rule)
	}
}

// valueRule maps a value's first token to its node rule.
func valueRule(token lexis.TokenRule) (syntax.NodeRule, bool) {
	switch token {
	case BraceOpen:
		return RuleObject, true
	case BracketOpen:
		return RuleArray, true
	case String:
		return RuleString, true
	case Number:
		return RuleNumber, true
	case True:
		return RuleTrue, true
	case False:
		return RuleFalse, true
	case Null:
		return RuleNull, true
	default:
		return syntax.NonRule, false
	}
}

var leafTokens = map[syntax.NodeRule]lexis.TokenRule{
	RuleString: String,
	RuleNumber: Number,
	RuleTrue:   True,
	RuleFalse:  False,
	RuleNull:   Null,
}

// rootRecovery skips top-level garbage up to the next value start,
// stepping over balanced brackets as units.
var rootRecovery = syntax.NewRecovery(
	lexis.NewTokenSet(BraceOpen, BracketOpen, String, Number, True, False, Null),
).WithGroup(BraceOpen, BraceClose).WithGroup(BracketOpen, BracketClose)

func skipBlanks(s syntax.Session) {
	for s.Token(0) == Whitespace {
		s.Advance()
	}
}

func parseRoot(s syntax.Session) syntax.Node {
	node := &RootNode{Stamp: newStamp()}
	for {
		skipBlanks(s)
		token := s.Token(0)
		if token == lexis.EOI {
			return node
		}
		if rule, ok := valueRule(token); ok {
			node.Values = append(node.Values, s.Descend(rule))
			continue
		}
		start := s.Site(0)
		rootRecovery.Recover(s)
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: start, End: s.Site(0)},
			ContextRule: RuleRoot,
			ExpectedNodes: []syntax.NodeRule{
				RuleObject, RuleArray, RuleString, RuleNumber, RuleTrue, RuleFalse, RuleNull,
			},
		})
	}
}

func parseObject(s syntax.Session) syntax.Node {
	node := &ObjectNode{Stamp: newStamp()}
	if s.Token(0) != BraceOpen {
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
			ContextRule: RuleObject,
			Expected:    lexis.NewTokenSet(BraceOpen),
		})
		return node
	}
	node.Start = s.TokenRef(0)
	s.Advance()

	for {
		skipBlanks(s)
		switch token := s.Token(0); {
		case token == BraceClose:
			node.End = s.TokenRef(0)
			s.Advance()
			return node
		case token == lexis.EOI:
			s.Failure(syntax.SyntaxError{
				Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
				ContextRule: RuleObject,
				Expected:    lexis.NewTokenSet(BraceClose, String),
			})
			return node
		case token == String:
			node.Entries = append(node.Entries, s.Descend(RuleEntry))
			skipBlanks(s)
			if s.Token(0) == Comma {
				s.Advance()
			}
		default:
			// Unexpected input: skip the garbage run and report it as one
			// diagnostic.
			start := s.Site(0)
			end := start
			for {
				token := s.Token(0)
				if token == lexis.EOI || token == BraceClose || token == String ||
					token == Comma || token == Whitespace {
					break
				}
				end = s.Site(0) + s.Length(0)
				s.Advance()
			}
			s.Failure(syntax.SyntaxError{
				Span:        lexis.SiteSpan{Start: start, End: end},
				ContextRule: RuleObject,
				Expected:    lexis.NewTokenSet(BraceClose, String),
			})
			if s.Token(0) == Comma {
				s.Advance()
			}
		}
	}
}

func parseEntry(s syntax.Session) syntax.Node {
	node := &EntryNode{Stamp: newStamp()}
	if s.Token(0) == String {
		node.Key = s.TokenRef(0)
		s.Advance()
	} else {
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
			ContextRule: RuleEntry,
			Expected:    lexis.NewTokenSet(String),
		})
	}

	skipBlanks(s)
	if s.Token(0) == Colon {
		s.Advance()
	} else {
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
			ContextRule: RuleEntry,
			Expected:    lexis.NewTokenSet(Colon),
		})
	}

	skipBlanks(s)
	if rule, ok := valueRule(s.Token(0)); ok {
		node.Value = s.Descend(rule)
	} else {
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
			ContextRule: RuleEntry,
			ExpectedNodes: []syntax.NodeRule{
				RuleObject, RuleArray, RuleString, RuleNumber, RuleTrue, RuleFalse, RuleNull,
			},
		})
	}
	return node
}

func parseArray(s syntax.Session) syntax.Node {
	node := &ArrayNode{Stamp: newStamp()}
	if s.Token(0) != BracketOpen {
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
			ContextRule: RuleArray,
			Expected:    lexis.NewTokenSet(BracketOpen),
		})
		return node
	}
	node.Start = s.TokenRef(0)
	s.Advance()

	for {
		skipBlanks(s)
		switch token := s.Token(0); {
		case token == BracketClose:
			node.End = s.TokenRef(0)
			s.Advance()
			return node
		case token == lexis.EOI:
			s.Failure(syntax.SyntaxError{
				Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
				ContextRule: RuleArray,
				Expected:    lexis.NewTokenSet(BracketClose),
			})
			return node
		default:
			if rule, ok := valueRule(token); ok {
				node.Items = append(node.Items, s.Descend(rule))
				skipBlanks(s)
				if s.Token(0) == Comma {
					s.Advance()
				}
				continue
			}
			start := s.Site(0)
			end := start
			for {
				token := s.Token(0)
				if token == lexis.EOI || token == BracketClose || token == Comma ||
					token == Whitespace {
					break
				}
				if _, ok := valueRule(token); ok {
					break
				}
				end = s.Site(0) + s.Length(0)
				s.Advance()
			}
			s.Failure(syntax.SyntaxError{
				Span:        lexis.SiteSpan{Start: start, End: end},
				ContextRule: RuleArray,
				Expected:    lexis.NewTokenSet(BracketClose, Comma),
			})
			if s.Token(0) == Comma {
				s.Advance()
			}
		}
	}
}

func parseLeaf(s syntax.Session, rule syntax.NodeRule) syntax.Node {
	node := &LeafNode{LeafRule: rule, Stamp: newStamp()}
	expected, ok := leafTokens[rule]
	if !ok {
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
			ContextRule: rule,
		})
		return node
	}
	if s.Token(0) == expected {
		node.Token = s.TokenRef(0)
		s.Advance()
	} else {
		s.Failure(syntax.SyntaxError{
			Span:        lexis.SiteSpan{Start: s.Site(0), End: s.Site(0)},
			ContextRule: rule,
			Expected:    lexis.NewTokenSet(expected),
		})
	}
	return node
}
