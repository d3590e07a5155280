package semantic

import (
	"time"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/document"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// AttrContext is the environment of one attribute read or computation.
// Contexts created for a computation collect every attribute read into
// the dep set; top-level contexts do not.
type AttrContext struct {
	analyzer *Analyzer
	handle   *TaskHandle
	revision Revision
	deadline time.Time

	// self and deps are set only inside a computation.
	self syntax.NodeRef
	ref  AttrRef
	deps map[AttrRef]struct{}

	// volatile is set when the computation read a document directly; such
	// attributes are re-checked after every write.
	volatile bool
}

// sansDeps clones the context without dep recording, for internal
// revalidation reads.
func (c *AttrContext) sansDeps() *AttrContext {
	clone := *c
	clone.deps = nil
	return &clone
}

func newContext(a *Analyzer, handle *TaskHandle, revision Revision) *AttrContext {
	return &AttrContext{
		analyzer: a,
		handle:   handle,
		revision: revision,
		deadline: time.Now().Add(a.timeout),
	}
}

// fork opens the nested context a computation runs in.
func (c *AttrContext) fork(ref AttrRef, node syntax.NodeRef) *AttrContext {
	return &AttrContext{
		analyzer: c.analyzer,
		handle:   c.handle,
		revision: c.revision,
		deadline: c.deadline,
		self:     node,
		ref:      ref,
		deps:     make(map[AttrRef]struct{}),
	}
}

// Proceed is the cooperative checkpoint: it returns ErrInterrupted when
// the task handle was triggered and ErrTimeout past the computation
// budget. Every long computation calls it periodically.
func (c *AttrContext) Proceed() error {
	if c.handle != nil && c.handle.IsTriggered() {
		return ErrInterrupted
	}
	if time.Now().After(c.deadline) {
		return ErrTimeout
	}
	return nil
}

// Revision returns the snapshot revision of the context.
func (c *AttrContext) Revision() Revision {
	return c.revision
}

// Node returns the node the computed attribute belongs to.
func (c *AttrContext) Node() syntax.NodeRef {
	return c.self
}

// Document resolves a registered document for reading. A computation
// that reads a document becomes volatile: it is marked dirty by every
// subsequent write, since its inputs live outside the dep graph.
func (c *AttrContext) Document(id arena.Id) (*document.Document, error) {
	doc, ok := c.analyzer.Document(id)
	if !ok {
		return nil, ErrMissingDocument
	}
	if c.deps != nil {
		c.volatile = true
	}
	return doc, nil
}

// Subscribe registers the computed attribute for the named event; a later
// TriggerEvent marks it dirty.
func (c *AttrContext) Subscribe(id arena.Id, event Event) {
	if c.deps == nil {
		return
	}
	c.analyzer.subscribe(c.ref, id, event)
}

// ClassMembers lists the nodes of a class maintained by the classifier.
func (c *AttrContext) ClassMembers(class string) []syntax.NodeRef {
	return c.analyzer.ClassMembers(class)
}
