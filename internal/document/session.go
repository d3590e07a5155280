package document

import (
	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/rope"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// frame is one open rule of the mutable session. Secondary node and error
// entries accumulate here until the rule closes and either moves them into
// its parse cache or merges them into the parent frame.
type frame struct {
	ref       syntax.NodeRef
	rule      syntax.NodeRule
	start     arena.Entry // chunk entry at the rule start
	startSite lexis.Site
	primary   bool
	maxPeek   lexis.Site

	secondaries []arena.Entry
	errors      []arena.Entry
}

// mutableSession is the incremental Session: Descend replays valid cached
// subtrees and installs a fresh cache for every rule it parses anew.
//
// The session journals everything it creates so a failed reparse attempt
// can be rolled back without leaking entries.
type mutableSession struct {
	doc      *Document
	cursor   *rope.TokenCursor
	editSpan lexis.SiteSpan
	events   *watchEvents

	stack   []frame
	failing bool

	created     []arena.Entry // node entries reserved this attempt
	createdErrs []arena.Entry // error entries recorded this attempt
	installed   []arena.Entry // chunk entries that received a new cache
	reused      map[arena.Entry]bool

	// Residue of the outermost frame when it cannot be cached (the root
	// rule): nodes and errors the document must own directly.
	residueNodes  []arena.Entry
	residueErrors []arena.Entry
}

func newMutableSession(d *Document, cursor *rope.TokenCursor, editSpan lexis.SiteSpan, events *watchEvents) *mutableSession {
	return &mutableSession{
		doc:      d,
		cursor:   cursor,
		editSpan: editSpan,
		events:   events,
		reused:   make(map[arena.Entry]bool),
	}
}

func (s *mutableSession) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1]
}

// notePeek records the char window a peek reached, which becomes the
// lookahead of the rule's cache.
func (s *mutableSession) notePeek(distance int) {
	f := s.top()
	if f == nil {
		return
	}
	end := s.cursor.Site(distance) + s.cursor.Length(distance)
	if end > f.maxPeek {
		f.maxPeek = end
	}
}

func (s *mutableSession) Advance() bool {
	if !s.cursor.Advance() {
		return false
	}
	s.failing = false
	return true
}

func (s *mutableSession) Skip(distance int) {
	for distance > 0 && s.Advance() {
		distance--
	}
}

func (s *mutableSession) Token(distance int) lexis.TokenRule {
	s.notePeek(distance)
	return s.cursor.Token(distance)
}

func (s *mutableSession) Site(distance int) lexis.Site {
	s.notePeek(distance)
	return s.cursor.Site(distance)
}

func (s *mutableSession) Length(distance int) lexis.Length {
	s.notePeek(distance)
	return s.cursor.Length(distance)
}

func (s *mutableSession) String(distance int) string {
	s.notePeek(distance)
	return s.cursor.String(distance)
}

func (s *mutableSession) TokenRef(distance int) lexis.TokenRef {
	s.notePeek(distance)
	return s.cursor.TokenRef(distance)
}

func (s *mutableSession) SiteRef(distance int) lexis.SiteRef {
	s.notePeek(distance)
	return s.cursor.SiteRef(distance)
}

func (s *mutableSession) EndSiteRef() lexis.SiteRef {
	return lexis.CodeEnd(s.doc.id)
}

func (s *mutableSession) Descend(rule syntax.NodeRule) syntax.NodeRef {
	cur := s.cursor.Position()
	if !cur.IsDangling() {
		if cache := cur.Cache(); cache != nil {
			if syntax.NodeRule(cache.Rule) == rule && s.doc.cacheReusable(cache, cur, s.editSpan) {
				return s.replay(cur, cache)
			}
			// The chunk opens a different subtree now; whatever was
			// memoized here is dead.
			s.doc.disposeCache(cur.ReleaseCache(), s.events, false)
		}
	}
	s.enter(rule, true)
	node := s.doc.grammar.Parse(s, rule)
	return s.leave(node)
}

// replay reuses a cached subtree wholesale: rebinds its primary node
// under the current rule and advances the cursor to the cached parse end.
func (s *mutableSession) replay(cur rope.Cursor, cache *rope.Cache) syntax.NodeRef {
	// Caches nested inside the replayed subtree stay valid with it, so the
	// whole replayed chunk range counts as reused for the sweep.
	stop := arena.NilEntry()
	if !cache.ParseEnd.IsCodeEnd() {
		stop = cache.ParseEnd.TokenRef().Entry
	}
	for c := cur; !c.IsDangling() && c.ChunkEntry() != stop; c = c.Next() {
		s.reused[c.ChunkEntry()] = true
	}

	ref := syntax.NodeRef{Unit: s.doc.id, Entry: cache.PrimaryNode}
	if node, ok := s.doc.tree.Node(ref); ok {
		node.SetParentRef(s.NodeRef())
	}

	endSite, _ := cache.ParseEnd.Site(s.doc)
	if cache.ParseEnd.IsCodeEnd() {
		s.cursor.MoveTo(rope.Cursor{})
	} else {
		s.cursor.MoveTo(s.doc.rope.Lookup(cache.ParseEnd.TokenRef().Entry))
	}

	if f := s.top(); f != nil {
		if peek := endSite + cache.Lookahead; peek > f.maxPeek {
			f.maxPeek = peek
		}
	}
	return ref
}

func (s *mutableSession) Enter(rule syntax.NodeRule) syntax.NodeRef {
	return s.enter(rule, false)
}

func (s *mutableSession) enter(rule syntax.NodeRule, primary bool) syntax.NodeRef {
	ref := s.doc.tree.ReserveNode()
	s.created = append(s.created, ref.Entry)
	s.stack = append(s.stack, frame{
		ref:       ref,
		rule:      rule,
		start:     s.cursor.Position().ChunkEntry(),
		startSite: s.cursor.Site(0),
		primary:   primary,
	})
	return ref
}

func (s *mutableSession) Leave(node syntax.Node) syntax.NodeRef {
	return s.leave(node)
}

func (s *mutableSession) leave(node syntax.Node) syntax.NodeRef {
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	s.doc.tree.OccupyNode(f.ref, node)
	node.SetParentRef(s.NodeRef())

	parent := s.top()
	cached := false
	if f.primary && f.rule != syntax.RootRule && !f.start.IsNil() {
		startCur := s.doc.rope.Lookup(f.start)
		consumed := s.cursor.Position().IsDangling() || s.cursor.Site(0) > f.startSite
		if !startCur.IsDangling() && startCur.Cache() == nil && consumed {
			lookahead := f.maxPeek - s.cursor.Site(0)
			if lookahead < 0 {
				lookahead = 0
			}
			startCur.InstallCache(&rope.Cache{
				Rule:           uint16(f.rule),
				PrimaryNode:    f.ref.Entry,
				SecondaryNodes: f.secondaries,
				Errors:         f.errors,
				ParseEnd:       s.cursor.SiteRef(0),
				Lookahead:      lookahead,
			})
			s.installed = append(s.installed, f.start)
			cached = true
		}
	}

	if !cached {
		if parent != nil {
			parent.secondaries = append(parent.secondaries, f.ref.Entry)
			parent.secondaries = append(parent.secondaries, f.secondaries...)
			parent.errors = append(parent.errors, f.errors...)
		} else {
			// The outermost frame's own entry belongs to the reparse
			// driver; only the inner structure becomes document residue.
			s.residueNodes = append(s.residueNodes, f.secondaries...)
			s.residueErrors = append(s.residueErrors, f.errors...)
		}
	}
	if parent != nil && f.maxPeek > parent.maxPeek {
		parent.maxPeek = f.maxPeek
	}
	return f.ref
}

func (s *mutableSession) Lift(ref syntax.NodeRef) {
	node, ok := s.doc.tree.Node(ref)
	if !ok {
		return
	}
	node.SetParentRef(s.NodeRef())
}

func (s *mutableSession) NodeRef() syntax.NodeRef {
	f := s.top()
	if f == nil {
		return syntax.NilNodeRef()
	}
	return f.ref
}

func (s *mutableSession) ParentRef() syntax.NodeRef {
	if len(s.stack) < 2 {
		return syntax.NilNodeRef()
	}
	return s.stack[len(s.stack)-2].ref
}

func (s *mutableSession) Failure(err syntax.SyntaxError) {
	if s.failing {
		return
	}
	s.failing = true
	ref := s.doc.tree.AddError(&err)
	s.createdErrs = append(s.createdErrs, ref.Entry)
	if f := s.top(); f != nil {
		f.errors = append(f.errors, ref.Entry)
	}
}
