package json

import (
	"sync/atomic"

	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// Node rules.
const (
	RuleRoot   = syntax.RootRule
	RuleObject syntax.NodeRule = 1
	RuleEntry  syntax.NodeRule = 2
	RuleArray  syntax.NodeRule = 3
	RuleString syntax.NodeRule = 4
	RuleNumber syntax.NodeRule = 5
	RuleTrue   syntax.NodeRule = 6
	RuleFalse  syntax.NodeRule = 7
	RuleNull   syntax.NodeRule = 8
)

var ruleNames = map[syntax.NodeRule]string{
	RuleRoot:   "Root",
	RuleObject: "Object",
	RuleEntry:  "Entry",
	RuleArray:  "Array",
	RuleString: "String",
	RuleNumber: "Number",
	RuleTrue:   "True",
	RuleFalse:  "False",
	RuleNull:   "Null",
}

// stampCounter stamps every freshly parsed node, so tooling can observe
// which parts of the tree a reparse actually rebuilt.
var stampCounter atomic.Int64

// CurrentStamp returns the latest issued parse stamp.
func CurrentStamp() int64 {
	return stampCounter.Load()
}

func newStamp() int64 {
	return stampCounter.Add(1)
}

// RootNode is the tree root: a sequence of top-level values.
type RootNode struct {
	syntax.NodeBase
	Values []syntax.NodeRef
	Stamp  int64
}

func (n *RootNode) Rule() syntax.NodeRule { return RuleRoot }

func (n *RootNode) Children() []syntax.Child {
	children := make([]syntax.Child, 0, len(n.Values))
	for _, value := range n.Values {
		children = append(children, syntax.Child{Key: "values", Node: value})
	}
	return children
}

func (n *RootNode) Capture(key string) []syntax.Child {
	return captureOf(n, key)
}

func (n *RootNode) CaptureKeys() []string { return []string{"values"} }

// ObjectNode is a braced entry list.
type ObjectNode struct {
	syntax.NodeBase
	Start   lexis.TokenRef
	Entries []syntax.NodeRef
	End     lexis.TokenRef
	Stamp   int64
}

func (n *ObjectNode) Rule() syntax.NodeRule { return RuleObject }

func (n *ObjectNode) Children() []syntax.Child {
	children := make([]syntax.Child, 0, len(n.Entries)+2)
	if !n.Start.IsNil() {
		children = append(children, syntax.Child{Key: "start", Token: n.Start})
	}
	for _, entry := range n.Entries {
		children = append(children, syntax.Child{Key: "entries", Node: entry})
	}
	if !n.End.IsNil() {
		children = append(children, syntax.Child{Key: "end", Token: n.End})
	}
	return children
}

func (n *ObjectNode) Capture(key string) []syntax.Child {
	return captureOf(n, key)
}

func (n *ObjectNode) CaptureKeys() []string { return []string{"start", "entries", "end"} }

// EntryNode is one "key: value" pair.
type EntryNode struct {
	syntax.NodeBase
	Key   lexis.TokenRef
	Value syntax.NodeRef
	Stamp int64
}

func (n *EntryNode) Rule() syntax.NodeRule { return RuleEntry }

func (n *EntryNode) Children() []syntax.Child {
	children := make([]syntax.Child, 0, 2)
	if !n.Key.IsNil() {
		children = append(children, syntax.Child{Key: "key", Token: n.Key})
	}
	if !n.Value.IsNil() {
		children = append(children, syntax.Child{Key: "value", Node: n.Value})
	}
	return children
}

func (n *EntryNode) Capture(key string) []syntax.Child {
	return captureOf(n, key)
}

func (n *EntryNode) CaptureKeys() []string { return []string{"key", "value"} }

// ArrayNode is a bracketed value list.
type ArrayNode struct {
	syntax.NodeBase
	Start lexis.TokenRef
	Items []syntax.NodeRef
	End   lexis.TokenRef
	Stamp int64
}

func (n *ArrayNode) Rule() syntax.NodeRule { return RuleArray }

func (n *ArrayNode) Children() []syntax.Child {
	children := make([]syntax.Child, 0, len(n.Items)+2)
	if !n.Start.IsNil() {
		children = append(children, syntax.Child{Key: "start", Token: n.Start})
	}
	for _, item := range n.Items {
		children = append(children, syntax.Child{Key: "items", Node: item})
	}
	if !n.End.IsNil() {
		children = append(children, syntax.Child{Key: "end", Token: n.End})
	}
	return children
}

func (n *ArrayNode) Capture(key string) []syntax.Child {
	return captureOf(n, key)
}

func (n *ArrayNode) CaptureKeys() []string { return []string{"start", "items", "end"} }

// LeafNode is a single-token value: string, number, true, false or null.
type LeafNode struct {
	syntax.NodeBase
	LeafRule syntax.NodeRule
	Token    lexis.TokenRef
	Stamp    int64
}

func (n *LeafNode) Rule() syntax.NodeRule { return n.LeafRule }

func (n *LeafNode) Children() []syntax.Child {
	if n.Token.IsNil() {
		return nil
	}
	return []syntax.Child{{Key: "token", Token: n.Token}}
}

func (n *LeafNode) Capture(key string) []syntax.Child {
	return captureOf(n, key)
}

func (n *LeafNode) CaptureKeys() []string { return []string{"token"} }

func captureOf(node syntax.Node, key string) []syntax.Child {
	var matched []syntax.Child
	for _, child := range node.Children() {
		if child.Key == key {
			matched = append(matched, child)
		}
	}
	return matched
}
