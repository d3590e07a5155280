// Package syntax implements the syntactic layer of the Lattice engine:
// node grammars, parse sessions, syntax trees, errors and recovery.
package syntax

import "math"

// NodeRule identifies a syntax rule of a grammar.
type NodeRule uint16

const (
	// RootRule is the rule of the tree root, used exactly once per tree.
	// It is the only rule allowed to match empty input.
	RootRule NodeRule = 0

	// NonRule is the invalid rule sentinel.
	NonRule NodeRule = math.MaxUint16
)

// IsValid reports whether the rule is usable in a grammar.
func (r NodeRule) IsValid() bool {
	return r != NonRule
}
