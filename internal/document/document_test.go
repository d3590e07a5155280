package document

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/lattice/internal/grammar/json"
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/syntax"
)

func printed(doc *Document) string {
	return json.Print(doc, doc.Tree(), doc.RootNodeRef())
}

func TestScanAndReparse(t *testing.T) {
	input := `{"foo": [1, 3, true, false, null, {"a": "xyz", "b": null}], "baz": {}}`

	doc := NewMutable(json.New(), input)

	require.Empty(t, doc.ErrorMessages())
	require.Equal(t, input, doc.Text())
	require.Equal(t, input, printed(doc))
}

func TestPanicRecovery(t *testing.T) {
	doc := NewMutable(json.New(), `{FOO "foo": [1, 3, true, false, null, {"a": "xyz", "b": null}], "baz": {}}`)

	messages := doc.ErrorMessages()
	require.Len(t, messages, 1)
	require.Equal(t, "1:2 (3 chars): Unexpected input in Object.", messages[0])

	// The remainder parses cleanly.
	require.Equal(t,
		`{"foo": [1, 3, true, false, null, {"a": "xyz", "b": null}], "baz": {}}`,
		printed(doc))
}

func TestEditPropagation(t *testing.T) {
	doc := NewMutable(json.New(), "")
	require.Empty(t, doc.ErrorMessages())

	doc.Write(lexis.SiteSpan{Start: 0, End: 0}, "{")
	messages := doc.ErrorMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "1:2: Unexpected end of input in Object.", messages[0])
	assert.Equal(t, "{}", printed(doc))

	doc.Write(lexis.SiteSpan{Start: 1, End: 1}, "}")
	require.Empty(t, doc.ErrorMessages())
	assert.Equal(t, "{}", printed(doc))

	doc.Write(lexis.SiteSpan{Start: 1, End: 1}, `"foo"`)
	messages = doc.ErrorMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "1:7: Missing ':' in Entry.", messages[0])
}

// treeStamps walks the tree collecting each node's parse stamp keyed by
// its reference.
func treeStamps(doc *Document) map[syntax.NodeRef]int64 {
	stamps := make(map[syntax.NodeRef]int64)
	for _, ref := range doc.NodeRefs() {
		node, ok := doc.GetNode(ref.Entry)
		if !ok {
			continue
		}
		switch n := node.(type) {
		case *json.RootNode:
			stamps[ref] = n.Stamp
		case *json.ObjectNode:
			stamps[ref] = n.Stamp
		case *json.EntryNode:
			stamps[ref] = n.Stamp
		case *json.ArrayNode:
			stamps[ref] = n.Stamp
		case *json.LeafNode:
			stamps[ref] = n.Stamp
		}
	}
	return stamps
}

func TestCacheReuseAcrossEdits(t *testing.T) {
	doc := NewMutable(json.New(), `{"foo": {"a": "xyz", "b": null}}`)
	require.Empty(t, doc.ErrorMessages())

	before := treeStamps(doc)
	root := doc.RootNodeRef()

	// Replace the 'x' inside "xyz" (site 15).
	require.Equal(t, `"xyz"`, doc.Substring(lexis.SiteSpan{Start: 14, End: 19}))
	doc.Write(lexis.SiteSpan{Start: 15, End: 16}, "q")

	require.Equal(t, `{"foo": {"a": "qyz", "b": null}}`, doc.Text())
	require.Empty(t, doc.ErrorMessages())
	require.Equal(t, doc.Text(), printed(doc))

	after := treeStamps(doc)

	// The root survives the edit under the same reference.
	require.Equal(t, root, doc.RootNodeRef())
	assert.Equal(t, before[root], after[root], "root rebuilt by a deep edit")

	// Nodes whose span does not overlap the edit keep their stamps; the
	// deep entry was rebuilt.
	editSpan := lexis.SiteSpan{Start: 15, End: 16}
	changed := 0
	for ref, stamp := range before {
		afterStamp, alive := after[ref]
		span, ok := doc.Tree().SpanOf(ref, doc)
		if !alive {
			changed++
			continue
		}
		if !ok {
			continue
		}
		if !span.Intersects(editSpan) && afterStamp != stamp {
			t.Errorf("node %v outside the edit was rebuilt", ref)
		}
		if afterStamp != stamp {
			changed++
		}
	}
	assert.NotZero(t, changed, "no node was rebuilt at all")
}

func TestRefStability(t *testing.T) {
	doc := NewMutable(json.New(), `{"aa": 1, "bb": 2}`)

	// Grab a ref to the "bb" token before editing far away from it.
	cursor := doc.Cursor(lexis.SiteSpan{Start: 10, End: 14})
	ref := cursor.TokenRef(0)
	require.True(t, ref.IsValidRef(doc))
	site, _ := ref.Site(doc)
	require.Equal(t, 10, site)

	// Edit before it: replace 1 with 1000.
	doc.Write(lexis.SiteSpan{Start: 7, End: 8}, "1000")

	require.True(t, ref.IsValidRef(doc), "untouched token ref invalidated")
	site, ok := ref.Site(doc)
	require.True(t, ok)
	assert.Equal(t, 13, site, "ref site must reflect the post-edit position")

	chunk, _ := ref.Chunk(doc)
	assert.Equal(t, `"bb"`, chunk.Text)
}

func TestWriteContractViolations(t *testing.T) {
	immutable := NewImmutable(json.New(), "{}")
	assert.Panics(t, func() {
		immutable.Write(lexis.SiteSpan{Start: 0, End: 0}, "x")
	})

	mutable := NewMutable(json.New(), "{}")
	assert.Panics(t, func() {
		mutable.Write(lexis.SiteSpan{Start: 0, End: 99}, "x")
	})
}

func TestEditEquivalence(t *testing.T) {
	// I3/I4: every write keeps text, tree shape and diagnostics equal to
	// a from-scratch document over the final text.
	doc := NewMutable(json.New(), `{"a": [1, 2, 3], "b": {"c": null}}`)
	text := doc.Text()

	edits := []struct {
		span lexis.SiteSpan
		text string
	}{
		{lexis.SiteSpan{Start: 7, End: 8}, "42"},      // 1 -> 42
		{lexis.SiteSpan{Start: 1, End: 4}, `"aa"`},    // rename key
		{lexis.SiteSpan{Start: 0, End: 0}, " "},       // leading blank
		{lexis.SiteSpan{Start: 10, End: 11}, ""},      // delete a char
		{lexis.SiteSpan{Start: 5, End: 5}, `"x": 9,`}, // inject an entry
	}

	for i, edit := range edits {
		doc.Write(edit.span, edit.text)
		text = text[:charIndex(text, edit.span.Start)] + edit.text + text[charIndex(text, edit.span.End):]

		require.Equal(t, text, doc.Text(), "edit %d: text diverged", i)

		fresh := NewImmutable(json.New(), text)
		require.Equal(t,
			json.Print(fresh, fresh.Tree(), fresh.RootNodeRef()),
			printed(doc),
			"edit %d: tree diverged", i)
		require.ElementsMatch(t, fresh.ErrorMessages(), doc.ErrorMessages(),
			"edit %d: diagnostics diverged", i)
	}
}

func charIndex(text string, site lexis.Site) int {
	count := 0
	for i := range text {
		if count == site {
			return i
		}
		count++
	}
	return len(text)
}

// TestRandomEditsAgainstReference drives many random edits over a larger
// document, verifying the coverage, text and tree invariants against a
// freshly parsed reference every few steps.
func TestRandomEditsAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var entries []string
	for i := 0; i < 200; i++ {
		entries = append(entries, fmt.Sprintf(`"k%d": [%d, true, {"n": %d}]`, i, i, i*i))
	}
	text := "{" + strings.Join(entries, ", ") + "}"

	doc := NewMutable(json.New(), text)
	require.Empty(t, doc.ErrorMessages())

	snippets := []string{"1", "true", `"s"`, "null", ", ", "{", "}", `"q": 5`, " "}

	for step := 0; step < 100; step++ {
		length := doc.Length()
		start := rng.Intn(length + 1)
		end := start
		if rng.Intn(2) == 0 && start < length {
			end = start + rng.Intn(min(8, length-start))
		}
		insert := ""
		if rng.Intn(4) != 0 {
			insert = snippets[rng.Intn(len(snippets))]
		}

		doc.Write(lexis.SiteSpan{Start: start, End: end}, insert)
		text = text[:charIndex(text, start)] + insert + text[charIndex(text, end):]

		require.Equal(t, text, doc.Text(), "step %d: text diverged", step)

		if step%10 == 9 {
			// Token coverage: contiguous chunks identical to a fresh scan.
			fresh := lexis.ParseTokenBuffer(json.New(), text)
			got := doc.Tokens()
			want := fresh.Chunks()
			require.Equal(t, len(want), len(got), "step %d: token count diverged", step)
			for i := range got {
				require.Equal(t, want[i], got[i], "step %d: token %d diverged", step, i)
			}

			freshDoc := NewImmutable(json.New(), text)
			require.Equal(t,
				json.Print(freshDoc, freshDoc.Tree(), freshDoc.RootNodeRef()),
				printed(doc),
				"step %d: tree diverged", step)
			require.ElementsMatch(t, freshDoc.ErrorMessages(), doc.ErrorMessages(),
				"step %d: diagnostics diverged", step)
		}
	}
}

func TestCover(t *testing.T) {
	doc := NewMutable(json.New(), `{"foo": [1, 2], "bar": null}`)

	// Site of "1" is 9; the deepest covering node is the number leaf.
	ref := doc.Cover(lexis.SiteSpan{Start: 9, End: 10})
	node, ok := doc.Tree().Node(ref)
	require.True(t, ok)
	leaf, ok := node.(*json.LeafNode)
	require.True(t, ok, "expected a leaf, got %T", node)
	assert.Equal(t, json.RuleNumber, leaf.Rule())

	// A span stretching over both array items is covered by the array.
	ref = doc.Cover(lexis.SiteSpan{Start: 9, End: 13})
	node, ok = doc.Tree().Node(ref)
	require.True(t, ok)
	_, isArray := node.(*json.ArrayNode)
	assert.True(t, isArray, "expected the array, got %T", node)
}

func TestReadingAPI(t *testing.T) {
	text := `{"a": 1}`
	doc := NewMutable(json.New(), text)

	assert.Equal(t, len(text), doc.Length())
	assert.Equal(t, []rune(`"a"`), doc.Chars(lexis.SiteSpan{Start: 1, End: 4}))
	assert.Equal(t, 6, doc.TokenCount())
	assert.Equal(t, 1, doc.Lines().LineCount())

	cursor := doc.Cursor(lexis.SiteSpan{Start: 0, End: doc.Length()})
	assert.Equal(t, json.BraceOpen, cursor.Token(0))

	// Position-addressed writes resolve through the line index.
	doc.Write(lexis.PositionSpan{
		Start: lexis.Position{Line: 1, Column: 7},
		End:   lexis.Position{Line: 1, Column: 8},
	}, "2")
	assert.Equal(t, `{"a": 2}`, doc.Text())
}

func TestParseTree(t *testing.T) {
	code := `{ "a": 1 }`
	tree := NewParseTree(json.New(), code, lexis.All{})

	span, ok := tree.NodeSpan(tree.Root())
	require.True(t, ok)
	assert.Equal(t, lexis.SiteSpan{Start: 0, End: len(code)}, span)

	positions, ok := tree.NodePositionSpan(tree.Root())
	require.True(t, ok)
	assert.Equal(t, lexis.Position{Line: 1, Column: 1}, positions.Start)
}
