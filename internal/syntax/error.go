package syntax

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/lattice/internal/lexis"
)

// SyntaxError is a first-class diagnostic attached to the tree. Parsing
// never aborts on errors; it records them and recovers.
type SyntaxError struct {
	// Span is the unexpected input range. An empty span marks a missing
	// construct at a single position.
	Span lexis.SiteSpan

	// ContextRule is the rule that was being parsed when the error was
	// detected.
	ContextRule NodeRule

	// Expected is the set of token rules that would have been accepted.
	Expected lexis.TokenSet

	// ExpectedNodes lists the node rules that would have been accepted.
	ExpectedNodes []NodeRule
}

// Display renders the diagnostic message against the current text, in the
// form "line:col (n chars): <problem> in <context>.".
func (e *SyntaxError) Display(code lexis.SourceCode, grammar Grammar) string {
	var b strings.Builder

	pos := code.Lines().PositionOf(e.Span.Start)
	b.WriteString(pos.String())
	if n := e.Span.Length(); n > 0 {
		if n == 1 {
			b.WriteString(" (1 char)")
		} else {
			fmt.Fprintf(&b, " (%d chars)", n)
		}
	}
	b.WriteString(": ")

	switch {
	case e.Span.Length() > 0:
		b.WriteString("Unexpected input")
	case e.Span.Start >= code.Length():
		b.WriteString("Unexpected end of input")
	case !e.Expected.IsEmpty() || len(e.ExpectedNodes) > 0:
		b.WriteString("Missing ")
		b.WriteString(e.expectedList(grammar))
	default:
		b.WriteString("Unexpected input")
	}

	fmt.Fprintf(&b, " in %s.", grammar.RuleDescription(e.ContextRule, false))
	return b.String()
}

func (e *SyntaxError) expectedList(grammar Grammar) string {
	var parts []string
	for _, rule := range e.Expected.Rules() {
		parts = append(parts, grammar.Describe(rule, false))
	}
	for _, rule := range e.ExpectedNodes {
		parts = append(parts, grammar.RuleDescription(rule, false))
	}
	return strings.Join(parts, " or ")
}

// RecoveryOutcome describes where panic-mode recovery stopped.
type RecoveryOutcome int

const (
	// RecoveredToHalt means a halt token was reached (and not consumed).
	RecoveredToHalt RecoveryOutcome = iota

	// RecoveredToEnd means the input ran out first.
	RecoveredToEnd
)

// Recovery is a rule-local panic-mode recovery strategy: skip tokens up to
// a halt set boundary, treating declared bracket pairs as opaque groups.
type Recovery struct {
	halt   lexis.TokenSet
	groups [][2]lexis.TokenRule
}

// NewRecovery builds a strategy halting at the given token set.
func NewRecovery(halt lexis.TokenSet) Recovery {
	return Recovery{halt: halt}
}

// WithGroup declares a bracket pair skipped as a balanced unit.
func (r Recovery) WithGroup(open, close lexis.TokenRule) Recovery {
	r.groups = append(r.groups, [2]lexis.TokenRule{open, close})
	return r
}

// Recover skips tokens until a halt token, balancing declared groups, and
// returns how many tokens it consumed.
func (r Recovery) Recover(session Session) (int, RecoveryOutcome) {
	skipped := 0
	for {
		token := session.Token(0)
		if token == lexis.EOI {
			return skipped, RecoveredToEnd
		}
		if r.halt.Has(token) {
			return skipped, RecoveredToHalt
		}
		if open := r.groupOf(token); open >= 0 {
			skipped += r.skipGroup(session, r.groups[open])
			continue
		}
		session.Advance()
		skipped++
	}
}

func (r Recovery) groupOf(token lexis.TokenRule) int {
	for i, group := range r.groups {
		if group[0] == token {
			return i
		}
	}
	return -1
}

// skipGroup consumes a balanced bracket group, giving up at input end.
func (r Recovery) skipGroup(session Session, group [2]lexis.TokenRule) int {
	depth := 0
	skipped := 0
	for {
		token := session.Token(0)
		if token == lexis.EOI {
			return skipped
		}
		switch token {
		case group[0]:
			depth++
		case group[1]:
			depth--
		}
		session.Advance()
		skipped++
		if depth == 0 {
			return skipped
		}
	}
}
