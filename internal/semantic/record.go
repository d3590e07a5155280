package semantic

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// Revision identifies a semantic snapshot. It is bumped on every write
// commit, explicit invalidation and event trigger, and never decreases.
type Revision uint64

// AttrRef is a stable reference to one attribute record.
type AttrRef struct {
	Id    arena.Id
	Entry arena.Entry
}

// NilAttrRef returns the reference-to-nothing sentinel.
func NilAttrRef() AttrRef {
	return AttrRef{Id: arena.Nil, Entry: arena.NilEntry()}
}

// IsNil reports whether the reference is the nil sentinel.
func (r AttrRef) IsNil() bool {
	return r.Id.IsNil() && r.Entry.IsNil()
}

func (r AttrRef) String() string {
	if r.IsNil() {
		return "AttrRef(nil)"
	}
	return fmt.Sprintf("AttrRef(%s, %s)", r.Id, r.Entry)
}

// Computable is the stored computation of an attribute. It must be pure:
// same tree and same dependency values produce an equal memo.
type Computable func(ctx *AttrContext) (any, error)

// Memo is optionally implemented by attribute values to customize the
// change check that drives the validator's short-circuit. Values that do
// not implement it are compared with reflect.DeepEqual.
type Memo interface {
	MemoEq(other any) bool
}

func memoEq(a, b any) bool {
	if m, ok := a.(Memo); ok {
		return m.MemoEq(b)
	}
	return reflect.DeepEqual(a, b)
}

// attrCache is the memoized state of one attribute.
type attrCache struct {
	memo      any
	deps      map[AttrRef]struct{}
	dirty     bool
	updatedAt Revision
}

// record is one attribute: the node it belongs to, its computation, and
// the memoized cache with validation stamps. The lock is taken for
// reading during validation and for writing for the duration of a single
// recomputation.
type record struct {
	mu         sync.RWMutex
	node       syntax.NodeRef
	function   Computable
	cache      *attrCache
	verifiedAt Revision
}
