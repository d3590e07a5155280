package json

import (
	"strings"

	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// Print renders the subtree at ref back into canonical JSON text: one
// space after colons and commas, no other blanks. On well-formed input
// the root print reproduces the source.
func Print(code lexis.SourceCode, tree *syntax.Tree, ref syntax.NodeRef) string {
	node, ok := tree.Node(ref)
	if !ok {
		return ""
	}
	switch n := node.(type) {
	case *RootNode:
		parts := make([]string, 0, len(n.Values))
		for _, value := range n.Values {
			parts = append(parts, Print(code, tree, value))
		}
		return strings.Join(parts, "\n")
	case *ObjectNode:
		parts := make([]string, 0, len(n.Entries))
		for _, entry := range n.Entries {
			parts = append(parts, Print(code, tree, entry))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *EntryNode:
		key := tokenText(code, n.Key)
		if n.Value.IsNil() {
			return key + ": "
		}
		return key + ": " + Print(code, tree, n.Value)
	case *ArrayNode:
		parts := make([]string, 0, len(n.Items))
		for _, item := range n.Items {
			parts = append(parts, Print(code, tree, item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *LeafNode:
		return tokenText(code, n.Token)
	default:
		return ""
	}
}

func tokenText(code lexis.SourceCode, ref lexis.TokenRef) string {
	chunk, ok := ref.Chunk(code)
	if !ok {
		return ""
	}
	return chunk.Text
}
