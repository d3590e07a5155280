package semantic

import (
	"github.com/orizon-lang/lattice/internal/syntax"
)

// Attr is the typed handle of one attribute record.
type Attr[T any] struct {
	analyzer *Analyzer
	ref      AttrRef
}

// NewAttr registers a computation anchored on node and returns its typed
// handle. The computation must be pure in the sense of the validator: it
// may read other attributes through the context and the syntax tree, and
// nothing else.
func NewAttr[T any](a *Analyzer, node syntax.NodeRef, compute func(ctx *AttrContext) (T, error)) Attr[T] {
	function := func(ctx *AttrContext) (any, error) {
		return compute(ctx)
	}
	return Attr[T]{analyzer: a, ref: a.registerAttr(node, function)}
}

// Ref returns the attribute's stable reference.
func (at Attr[T]) Ref() AttrRef {
	return at.ref
}

// Read returns the attribute value at the context revision, validating
// or recomputing as needed. Reads performed inside another attribute's
// computation are recorded in that attribute's dep set.
func (at Attr[T]) Read(ctx *AttrContext) (T, error) {
	var zero T
	memo, err := at.analyzer.readAttr(at.ref, ctx)
	if err != nil {
		return zero, err
	}
	value, ok := memo.(T)
	if !ok {
		return zero, ErrTypeMismatch
	}
	return value, nil
}

// Snapshot reads the attribute at the task's current revision.
func (at Attr[T]) Snapshot(task *AnalysisTask) (Revision, T, error) {
	ctx := task.Context()
	value, err := at.Read(ctx)
	return ctx.Revision(), value, err
}

// Invalidate marks the attribute dirty and bumps the revision.
func (at Attr[T]) Invalidate() {
	at.analyzer.Invalidate(at.ref)
}

// ReadAttrRef reads an untyped attribute by reference, for consumers that
// hold only the reference.
func ReadAttrRef(ctx *AttrContext, ref AttrRef) (any, error) {
	return ctx.analyzer.readAttr(ref, ctx)
}

// AttrsOf lists the attribute records anchored on a node.
func (a *Analyzer) AttrsOf(node syntax.NodeRef) []AttrRef {
	a.recordsMu.RLock()
	defer a.recordsMu.RUnlock()
	refs := make([]AttrRef, len(a.byNode[node]))
	copy(refs, a.byNode[node])
	return refs
}
