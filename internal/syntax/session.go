package syntax

import "github.com/orizon-lang/lattice/internal/lexis"

// Session is the parser-facing surface: a token cursor fused with the
// tree-construction API. Grammar Parse implementations receive it and
// never see the storage behind it.
//
// All peeking operations record the lookahead distance that contributed to
// the current rule, which bounds the validity window of the rule's parse
// cache in incremental sessions.
type Session interface {
	// Advance consumes one token. Returns false at the input end.
	Advance() bool

	// Skip consumes up to distance tokens.
	Skip(distance int)

	// Token peeks the rule distance tokens ahead, EOI past the end.
	Token(distance int) lexis.TokenRule

	// Site peeks the start site distance tokens ahead, pinned to the text
	// end past the input.
	Site(distance int) lexis.Site

	// Length peeks the char length distance tokens ahead, 0 past the end.
	Length(distance int) lexis.Length

	// String peeks the text distance tokens ahead, "" past the end.
	String(distance int) string

	// TokenRef peeks the stable token reference distance tokens ahead.
	TokenRef(distance int) lexis.TokenRef

	// SiteRef peeks the stable site reference distance tokens ahead.
	SiteRef(distance int) lexis.SiteRef

	// EndSiteRef returns the stable reference to the text end.
	EndSiteRef() lexis.SiteRef

	// Descend parses rule as a new primary node and returns its
	// reference. Incremental sessions may replay a cached subtree here
	// instead of invoking the grammar.
	Descend(rule NodeRule) NodeRef

	// Enter begins an in-place secondary node. Must be balanced by Leave.
	Enter(rule NodeRule) NodeRef

	// Leave finishes the innermost entered node, storing its value.
	Leave(node Node) NodeRef

	// Lift reparents a previously parsed sibling under the node being
	// built, supporting left-recursive shapes.
	Lift(node NodeRef)

	// NodeRef returns the reference of the node being built.
	NodeRef() NodeRef

	// ParentRef returns the reference of its parent.
	ParentRef() NodeRef

	// Failure records a syntax error. Consecutive failures without token
	// progress coalesce into the first one.
	Failure(err SyntaxError)
}
