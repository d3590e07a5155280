package syntax

import (
	"fmt"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// NodeRef is a stable reference to one syntax node of one unit.
type NodeRef struct {
	Unit  arena.Id
	Entry arena.Entry
}

// NilNodeRef returns the reference-to-nothing sentinel.
func NilNodeRef() NodeRef {
	return NodeRef{Unit: arena.Nil, Entry: arena.NilEntry()}
}

// IsNil reports whether the reference is the nil sentinel.
func (r NodeRef) IsNil() bool {
	return r.Unit.IsNil() && r.Entry.IsNil()
}

func (r NodeRef) String() string {
	if r.IsNil() {
		return "NodeRef(nil)"
	}
	return fmt.Sprintf("NodeRef(%s, %s)", r.Unit, r.Entry)
}

// ErrorRef is a stable reference to one syntax error of one unit.
type ErrorRef struct {
	Unit  arena.Id
	Entry arena.Entry
}

// NilErrorRef returns the reference-to-nothing sentinel.
func NilErrorRef() ErrorRef {
	return ErrorRef{Unit: arena.Nil, Entry: arena.NilEntry()}
}

// IsNil reports whether the reference is the nil sentinel.
func (r ErrorRef) IsNil() bool {
	return r.Unit.IsNil() && r.Entry.IsNil()
}

func (r ErrorRef) String() string {
	if r.IsNil() {
		return "ErrorRef(nil)"
	}
	return fmt.Sprintf("ErrorRef(%s, %s)", r.Unit, r.Entry)
}

// Child is one structural child of a node: either a node or a token
// reference, under an optional capture key.
type Child struct {
	Key   string
	Node  NodeRef
	Token lexis.TokenRef
}

// IsNode reports whether the child is a node reference.
func (c Child) IsNode() bool {
	return !c.Node.Unit.IsNil()
}

// Node is the contract grammar node types implement. Concrete nodes are
// plain structs embedding NodeBase; the session assigns their identity
// while the grammar fills their structure.
type Node interface {
	// Rule returns the syntax rule that produced the node.
	Rule() NodeRule

	// Ref returns the node's own reference.
	Ref() NodeRef

	// SetRef is called once by the session that creates the node.
	SetRef(ref NodeRef)

	// ParentRef returns the reference of the parent node.
	ParentRef() NodeRef

	// SetParentRef rewires the parent back edge.
	SetParentRef(ref NodeRef)

	// Children lists the node's structural children in source order.
	Children() []Child

	// Capture returns the children stored under key.
	Capture(key string) []Child

	// CaptureKeys lists the capture keys the node's rule defines.
	CaptureKeys() []string
}

// NodeBase carries the identity every node needs; grammar node structs
// embed it.
type NodeBase struct {
	ref    NodeRef
	parent NodeRef
}

// Ref implements part of Node.
func (b *NodeBase) Ref() NodeRef {
	return b.ref
}

// SetRef implements part of Node.
func (b *NodeBase) SetRef(ref NodeRef) {
	b.ref = ref
}

// ParentRef implements part of Node.
func (b *NodeBase) ParentRef() NodeRef {
	return b.parent
}

// SetParentRef implements part of Node.
func (b *NodeBase) SetParentRef(ref NodeRef) {
	b.parent = ref
}

// Grammar ties a token grammar and a node parser together.
type Grammar interface {
	lexis.Lexis

	// Parse recognizes rule at the session position and returns the
	// produced node. Parse must consume at least one token for every rule
	// except RootRule.
	Parse(session Session, rule NodeRule) Node

	// RuleName returns the canonical name of a rule, or "" if unknown.
	RuleName(rule NodeRule) string

	// RuleDescription returns the end-user description of a rule.
	RuleDescription(rule NodeRule, verbose bool) string
}
