// Package semantic implements the demand-driven semantic layer of the
// Lattice engine: memoized attributes over syntax trees, a versioned
// dependency graph with three-color validation, and the task scheduler
// arbitrating analysis and mutation access.
package semantic

import "errors"

// Boundary errors of the semantic layer. Semantic reads return exactly
// one of these or a user computation error; they never panic on stale
// references.
var (
	// ErrInterrupted reports a cooperative cancellation. The caller may
	// retry the read on the same task or abandon it.
	ErrInterrupted = errors.New("semantic: interrupted")

	// ErrTimeout reports a computation that exceeded the analyzer's
	// budget, usually a dependency cycle. The attribute stays unverified.
	ErrTimeout = errors.New("semantic: timeout")

	// ErrMissingDocument reports an unknown document id.
	ErrMissingDocument = errors.New("semantic: missing document")

	// ErrMissingAttribute reports a released or unknown attribute.
	ErrMissingAttribute = errors.New("semantic: missing attribute")

	// ErrUninitAttribute reports an attribute without a computation.
	ErrUninitAttribute = errors.New("semantic: uninitialized attribute")

	// ErrTypeMismatch reports a typed read against a memo of a different
	// type.
	ErrTypeMismatch = errors.New("semantic: attribute type mismatch")

	// ErrImmutableDocument reports a mutation of an immutable document.
	ErrImmutableDocument = errors.New("semantic: immutable document")

	// ErrInvalidSpan reports a span that does not resolve in the target
	// document.
	ErrInvalidSpan = errors.New("semantic: invalid span")
)
