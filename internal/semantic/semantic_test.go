package semantic

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/grammar/json"
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// chain builds the A -> B -> C attribute chain of the short-circuit
// scenario: C reads the document text length under the "value" entry, B
// forwards C, A forwards B. Each closure counts its invocations.
func chain(t *testing.T, a *Analyzer, id arena.Id) (attrA, attrB, attrC Attr[int], calls *[3]atomic.Int64) {
	t.Helper()
	doc, ok := a.Document(id)
	require.True(t, ok)
	root := doc.RootNodeRef()

	calls = &[3]atomic.Int64{}

	attrC = NewAttr(a, root, func(ctx *AttrContext) (int, error) {
		calls[2].Add(1)
		doc, err := ctx.Document(id)
		if err != nil {
			return 0, err
		}
		// Length of the first string token's text.
		for _, chunk := range doc.Tokens() {
			if chunk.Rule == json.String {
				return chunk.Length, nil
			}
		}
		return 0, nil
	})

	attrB = NewAttr(a, root, func(ctx *AttrContext) (int, error) {
		calls[1].Add(1)
		return attrC.Read(ctx)
	})

	attrA = NewAttr(a, root, func(ctx *AttrContext) (int, error) {
		calls[0].Add(1)
		value, err := attrB.Read(ctx)
		return value + 1, err
	})
	return attrA, attrB, attrC, calls
}

func TestSemanticShortCircuit(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddMutable(`{"key": 1}`)

	attrA, _, _, calls := chain(t, analyzer, id)

	task := analyzer.Analyze(nil)
	defer task.Release()

	_, value, err := attrA.Snapshot(task)
	require.NoError(t, err)
	assert.Equal(t, 6, value) // len(`"key"`) + 1
	assert.Equal(t, int64(1), calls[0].Load())
	assert.Equal(t, int64(1), calls[1].Load())
	assert.Equal(t, int64(1), calls[2].Load())

	// Edit a blank outside the string token: append whitespace before
	// the closing brace.
	mutation := analyzer.Mutate(nil)
	require.NoError(t, mutation.Write(id, lexis.SiteSpan{Start: 9, End: 9}, " "))
	mutation.Release()

	_, value, err = attrA.Snapshot(task)
	require.NoError(t, err)
	assert.Equal(t, 6, value)

	// B and C recomputed (their memos compare equal); A's function was
	// never invoked again.
	assert.Equal(t, int64(1), calls[0].Load(), "A recomputed despite unchanged dep")
	assert.Equal(t, int64(2), calls[1].Load(), "B not revalidated")
	assert.Equal(t, int64(2), calls[2].Load(), "C not revalidated")
}

func TestSemanticMonotonicity(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddMutable(`{"key": 1}`)
	attrA, _, _, _ := chain(t, analyzer, id)

	task := analyzer.Analyze(nil)
	defer task.Release()

	rev1, value1, err := attrA.Snapshot(task)
	require.NoError(t, err)
	rev2, value2, err := attrA.Snapshot(task)
	require.NoError(t, err)

	assert.Equal(t, rev1, rev2)
	assert.Equal(t, value1, value2)
}

func TestChangePropagates(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddMutable(`{"key": 1}`)
	attrA, _, _, calls := chain(t, analyzer, id)

	task := analyzer.Analyze(nil)
	defer task.Release()

	_, value, err := attrA.Snapshot(task)
	require.NoError(t, err)
	require.Equal(t, 6, value)

	// Rename the key: the string token grows, C's memo changes, and the
	// change propagates up to A.
	mutation := analyzer.Mutate(nil)
	require.NoError(t, mutation.Write(id, lexis.SiteSpan{Start: 1, End: 6}, `"longer"`))
	mutation.Release()

	_, value, err = attrA.Snapshot(task)
	require.NoError(t, err)
	assert.Equal(t, 9, value) // len(`"longer"`) + 1
	assert.Equal(t, int64(2), calls[0].Load(), "A must recompute on a changed dep")
}

func TestInvalidate(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddMutable(`{"key": 1}`)

	doc, _ := analyzer.Document(id)
	count := 0
	attr := NewAttr(analyzer, doc.RootNodeRef(), func(ctx *AttrContext) (int, error) {
		count++
		return count, nil
	})

	task := analyzer.Analyze(nil)
	defer task.Release()

	_, first, err := attr.Snapshot(task)
	require.NoError(t, err)
	_, second, err := attr.Snapshot(task)
	require.NoError(t, err)
	assert.Equal(t, first, second, "unchanged attribute recomputed")

	attr.Invalidate()

	_, third, err := attr.Snapshot(task)
	require.NoError(t, err)
	assert.Equal(t, first+1, third, "invalidation did not force recompute")
}

func TestInterruption(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddMutable(`{"key": 1}`)
	doc, _ := analyzer.Document(id)

	handle := NewTaskHandle()
	attr := NewAttr(analyzer, doc.RootNodeRef(), func(ctx *AttrContext) (int, error) {
		if err := ctx.Proceed(); err != nil {
			return 0, err
		}
		return 1, nil
	})

	task := analyzer.Analyze(handle)
	defer task.Release()

	handle.Trigger()
	_, _, err := attr.Snapshot(task)
	assert.ErrorIs(t, err, ErrInterrupted)

	// Cancellation purity: no partial memo was stored; a fresh task
	// succeeds from a clean slate.
	fresh := analyzer.Analyze(nil)
	defer fresh.Release()
	_, value, err := attr.Snapshot(fresh)
	require.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestTimeout(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	analyzer.SetTimeout(10 * time.Millisecond)
	id := analyzer.AddMutable(`{"key": 1}`)
	doc, _ := analyzer.Document(id)

	attr := NewAttr(analyzer, doc.RootNodeRef(), func(ctx *AttrContext) (int, error) {
		for {
			time.Sleep(time.Millisecond)
			if err := ctx.Proceed(); err != nil {
				return 0, err
			}
		}
	})

	task := analyzer.Analyze(nil)
	defer task.Release()

	_, _, err := attr.Snapshot(task)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestEvents(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddMutable(`{"key": 1}`)
	doc, _ := analyzer.Document(id)

	const configChanged Event = 7

	count := 0
	attr := NewAttr(analyzer, doc.RootNodeRef(), func(ctx *AttrContext) (int, error) {
		count++
		ctx.Subscribe(id, configChanged)
		return count, nil
	})

	task := analyzer.Analyze(nil)
	defer task.Release()

	_, _, err := attr.Snapshot(task)
	require.NoError(t, err)
	_, value, _ := attr.Snapshot(task)
	assert.Equal(t, 1, value)

	analyzer.TriggerEvent(id, configChanged)

	_, value, err = attr.Snapshot(task)
	require.NoError(t, err)
	assert.Equal(t, 2, value, "event trigger did not dirty the subscriber")
}

func TestClassifier(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	analyzer.SetClassifier(RuleClassifier{})
	id := analyzer.AddMutable(`{"a": 1, "b": 2}`)

	entries := analyzer.ClassMembers("Entry")
	assert.Len(t, entries, 2)

	// Adding an entry updates the reverse index with the reparse.
	mutation := analyzer.Mutate(nil)
	require.NoError(t, mutation.Write(id, lexis.SiteSpan{Start: 15, End: 15}, `, "c": 3`))
	mutation.Release()

	entries = analyzer.ClassMembers("Entry")
	assert.Len(t, entries, 3)
}

func TestExclusiveTaskGate(t *testing.T) {
	analyzer := NewAnalyzer(json.New())

	task := analyzer.Analyze(nil)

	admitted := make(chan struct{})
	go func() {
		exclusive := analyzer.Exclusive(nil)
		close(admitted)
		exclusive.Release()
	}()

	select {
	case <-admitted:
		t.Fatal("exclusive task admitted while an analysis task is live")
	case <-time.After(20 * time.Millisecond):
	}

	task.Release()

	select {
	case <-admitted:
	case <-time.After(time.Second):
		t.Fatal("exclusive task never admitted")
	}
}

func TestMissingDocument(t *testing.T) {
	analyzer := NewAnalyzer(json.New())

	mutation := analyzer.Mutate(nil)
	defer mutation.Release()

	err := mutation.Write(arena.NewId(), lexis.All{}, "x")
	assert.ErrorIs(t, err, ErrMissingDocument)
}

func TestImmutableDocumentWrite(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddImmutable("{}")

	mutation := analyzer.Mutate(nil)
	defer mutation.Release()

	err := mutation.Write(id, lexis.All{}, "x")
	assert.ErrorIs(t, err, ErrImmutableDocument)
}

func TestAttrsReleasedWithNodes(t *testing.T) {
	analyzer := NewAnalyzer(json.New())
	id := analyzer.AddMutable(`{"a": [1]}`)
	doc, _ := analyzer.Document(id)

	// Anchor an attribute on the array node, then edit it away.
	var arrayRef syntax.NodeRef
	for _, ref := range doc.NodeRefs() {
		if node, ok := doc.GetNode(ref.Entry); ok {
			if _, isArray := node.(*json.ArrayNode); isArray {
				arrayRef = ref
			}
		}
	}
	require.False(t, arrayRef.IsNil())

	attr := NewAttr(analyzer, arrayRef, func(ctx *AttrContext) (int, error) {
		return 1, nil
	})

	mutation := analyzer.Mutate(nil)
	require.NoError(t, mutation.Write(id, lexis.SiteSpan{Start: 6, End: 9}, "null"))
	mutation.Release()

	task := analyzer.Analyze(nil)
	defer task.Release()
	_, _, err := attr.Snapshot(task)
	assert.ErrorIs(t, err, ErrMissingAttribute, "attribute survived its node")
}
