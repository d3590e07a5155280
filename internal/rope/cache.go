// Package rope stores a unit's chunk sequence in a B+tree of pages with
// O(log n) point edits, site lookups and stable chunk references. Each
// chunk slot optionally carries the parser's cache for the subtree whose
// leftmost token it is.
package rope

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// Cache is the memoized result of parsing one syntax rule over a token run
// starting at the chunk the cache hangs off. It stays valid while no token
// inside [chunk site, parse end + lookahead) is touched.
type Cache struct {
	// Rule is the NodeRule that produced the cached subtree.
	Rule uint16

	// PrimaryNode is the node the cache is indexed on.
	PrimaryNode arena.Entry

	// SecondaryNodes are the in-place nodes created inside the rule.
	SecondaryNodes []arena.Entry

	// Errors are the diagnostics emitted inside the rule.
	Errors []arena.Entry

	// ParseEnd is where scanning stopped.
	ParseEnd lexis.SiteRef

	// Lookahead is how many characters past ParseEnd the parser peeked.
	Lookahead lexis.Length
}
