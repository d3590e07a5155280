package semantic

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/document"
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// DefaultTimeout bounds one attribute computation. A computation that
// exceeds it (usually a dependency cycle) returns ErrTimeout and leaves
// the attribute unverified.
const DefaultTimeout = 5 * time.Second

// Event is a named signal attributes can subscribe to during their
// computation.
type Event uint16

type eventKey struct {
	id    arena.Id
	event Event
}

// Analyzer is the shared semantic database: documents, attribute records,
// the global revision counter and the task gate.
type Analyzer struct {
	grammar    syntax.Grammar
	timeout    time.Duration
	classifier Classifier

	revision atomic.Uint64

	gate taskGate

	docsMu sync.RWMutex
	docs   map[arena.Id]*docEntry

	recordsMu sync.RWMutex
	records   arena.Repo[*record]
	byNode    map[syntax.NodeRef][]AttrRef

	classesMu sync.RWMutex
	classes   map[string]map[syntax.NodeRef]struct{}

	eventsMu sync.Mutex
	events   map[eventKey]map[AttrRef]struct{}

	volatileMu sync.Mutex
	volatile   map[AttrRef]struct{}

	initializer Initializer
}

// Initializer is the optional pass that creates attribute records when
// nodes enter the graph.
type Initializer interface {
	InitNode(a *Analyzer, doc *document.Document, node syntax.NodeRef)
}

// docEntry pairs a document with its single-writer lock.
type docEntry struct {
	mu  sync.Mutex
	doc *document.Document
}

// NewAnalyzer builds an analyzer over the grammar with the default
// classifier and timeout.
func NewAnalyzer(grammar syntax.Grammar) *Analyzer {
	a := &Analyzer{
		grammar:    grammar,
		timeout:    DefaultTimeout,
		classifier: VoidClassifier{},
		docs:       make(map[arena.Id]*docEntry),
		byNode:     make(map[syntax.NodeRef][]AttrRef),
		classes:    make(map[string]map[syntax.NodeRef]struct{}),
		events:     make(map[eventKey]map[AttrRef]struct{}),
		volatile:   make(map[AttrRef]struct{}),
	}
	a.gate.cond = sync.NewCond(&a.gate.mu)
	return a
}

// SetTimeout overrides the computation budget.
func (a *Analyzer) SetTimeout(timeout time.Duration) {
	a.timeout = timeout
}

// SetClassifier installs the user classifier. Must be called before
// documents are added.
func (a *Analyzer) SetClassifier(classifier Classifier) {
	if classifier == nil {
		classifier = VoidClassifier{}
	}
	a.classifier = classifier
}

// Revision returns the current revision.
func (a *Analyzer) Revision() Revision {
	return Revision(a.revision.Load())
}

func (a *Analyzer) bump() Revision {
	return Revision(a.revision.Add(1))
}

// AddMutable parses text into a new editable document and registers it.
func (a *Analyzer) AddMutable(text string) arena.Id {
	return a.register(document.NewMutable(a.grammar, text))
}

// AddImmutable parses text into a new frozen document and registers it.
func (a *Analyzer) AddImmutable(text string) arena.Id {
	return a.register(document.NewImmutable(a.grammar, text))
}

func (a *Analyzer) register(doc *document.Document) arena.Id {
	entry := &docEntry{doc: doc}
	a.docsMu.Lock()
	a.docs[doc.Id()] = entry
	a.docsMu.Unlock()

	refs := doc.NodeRefs()
	a.classifyCreated(doc, refs)
	if init := a.initializer; init != nil {
		for _, ref := range refs {
			init.InitNode(a, doc, ref)
		}
	}
	a.bump()
	return doc.Id()
}

// RemoveDocument drops a document and every attribute anchored in it.
func (a *Analyzer) RemoveDocument(id arena.Id) bool {
	a.docsMu.Lock()
	entry, ok := a.docs[id]
	if ok {
		delete(a.docs, id)
	}
	a.docsMu.Unlock()
	if !ok {
		return false
	}

	for _, ref := range entry.doc.NodeRefs() {
		a.releaseNode(ref)
	}
	a.bump()
	return true
}

// Document resolves a registered document.
func (a *Analyzer) Document(id arena.Id) (*document.Document, bool) {
	entry, ok := a.docEntry(id)
	if !ok {
		return nil, false
	}
	return entry.doc, true
}

func (a *Analyzer) docEntry(id arena.Id) (*docEntry, bool) {
	a.docsMu.RLock()
	entry, ok := a.docs[id]
	a.docsMu.RUnlock()
	return entry, ok
}

func (a *Analyzer) getRecord(ref AttrRef) (*record, bool) {
	a.recordsMu.RLock()
	rec, ok := a.records.Get(ref.Entry)
	a.recordsMu.RUnlock()
	return rec, ok
}

// registerAttr stores a new attribute record for the node.
func (a *Analyzer) registerAttr(node syntax.NodeRef, function Computable) AttrRef {
	rec := &record{node: node, function: function}
	a.recordsMu.Lock()
	ref := AttrRef{Id: node.Unit, Entry: a.records.Insert(rec)}
	a.byNode[node] = append(a.byNode[node], ref)
	a.recordsMu.Unlock()
	return ref
}

// releaseNode deregisters the attribute records anchored on a destroyed
// node and drops the node from the class index.
func (a *Analyzer) releaseNode(node syntax.NodeRef) {
	a.recordsMu.Lock()
	refs := a.byNode[node]
	delete(a.byNode, node)
	for _, ref := range refs {
		a.records.Remove(ref.Entry)
	}
	a.recordsMu.Unlock()

	a.classesMu.Lock()
	for _, members := range a.classes {
		delete(members, node)
	}
	a.classesMu.Unlock()

	a.eventsMu.Lock()
	for _, subscribers := range a.events {
		for _, ref := range refs {
			delete(subscribers, ref)
		}
	}
	a.eventsMu.Unlock()

	a.volatileMu.Lock()
	for _, ref := range refs {
		delete(a.volatile, ref)
	}
	a.volatileMu.Unlock()
}

func (a *Analyzer) classifyCreated(doc *document.Document, refs []syntax.NodeRef) {
	a.classesMu.Lock()
	for _, ref := range refs {
		for _, class := range a.classifier.ClassesOf(doc, ref) {
			members, ok := a.classes[class]
			if !ok {
				members = make(map[syntax.NodeRef]struct{})
				a.classes[class] = members
			}
			members[ref] = struct{}{}
		}
	}
	a.classesMu.Unlock()
}

// ClassMembers lists the nodes currently carrying a class.
func (a *Analyzer) ClassMembers(class string) []syntax.NodeRef {
	a.classesMu.RLock()
	defer a.classesMu.RUnlock()
	members := make([]syntax.NodeRef, 0, len(a.classes[class]))
	for ref := range a.classes[class] {
		members = append(members, ref)
	}
	return members
}

// subscribe records an attribute's interest in an event.
func (a *Analyzer) subscribe(ref AttrRef, id arena.Id, event Event) {
	key := eventKey{id: id, event: event}
	a.eventsMu.Lock()
	subscribers, ok := a.events[key]
	if !ok {
		subscribers = make(map[AttrRef]struct{})
		a.events[key] = subscribers
	}
	subscribers[ref] = struct{}{}
	a.eventsMu.Unlock()
}

// TriggerEvent marks every subscribed attribute dirty and bumps the
// revision once.
func (a *Analyzer) TriggerEvent(id arena.Id, event Event) {
	a.eventsMu.Lock()
	subscribers := a.events[eventKey{id: id, event: event}]
	refs := make([]AttrRef, 0, len(subscribers))
	for ref := range subscribers {
		refs = append(refs, ref)
	}
	a.eventsMu.Unlock()

	for _, ref := range refs {
		a.markDirty(ref)
	}
	a.bump()
}

// Invalidate marks one attribute dirty and bumps the revision.
func (a *Analyzer) Invalidate(ref AttrRef) {
	a.markDirty(ref)
	a.bump()
}

// SetInitializer installs the node initializer pass.
func (a *Analyzer) SetInitializer(initializer Initializer) {
	a.initializer = initializer
}

func (a *Analyzer) markVolatile(ref AttrRef) {
	a.volatileMu.Lock()
	a.volatile[ref] = struct{}{}
	a.volatileMu.Unlock()
}

// dirtyVolatile marks every document-reading attribute dirty; called once
// per write commit.
func (a *Analyzer) dirtyVolatile() {
	a.volatileMu.Lock()
	refs := make([]AttrRef, 0, len(a.volatile))
	for ref := range a.volatile {
		refs = append(refs, ref)
	}
	a.volatileMu.Unlock()

	for _, ref := range refs {
		a.markDirty(ref)
	}
}

func (a *Analyzer) markDirty(ref AttrRef) {
	rec, ok := a.getRecord(ref)
	if !ok {
		return
	}
	rec.mu.Lock()
	if rec.cache != nil {
		rec.cache.dirty = true
	}
	rec.mu.Unlock()
}

// analyzerWatcher funnels one document's structural changes back into
// the analyzer: obsolete records are deregistered and the class index is
// updated transactionally with the reparse.
type analyzerWatcher struct {
	analyzer *Analyzer
	doc      *document.Document
	created  []syntax.NodeRef
}

func (w *analyzerWatcher) NodeCreated(ref syntax.NodeRef) {
	w.created = append(w.created, ref)
}

func (w *analyzerWatcher) NodeReleased(ref syntax.NodeRef) {
	w.analyzer.releaseNode(ref)
}

func (w *analyzerWatcher) ErrorCreated(syntax.ErrorRef)  {}
func (w *analyzerWatcher) ErrorReleased(syntax.ErrorRef) {}

// commit applies the class index delta, runs the initializer over new
// nodes, invalidates document readers and bumps the revision once per
// write.
func (w *analyzerWatcher) commit() {
	w.analyzer.classifyCreated(w.doc, w.created)
	if init := w.analyzer.initializer; init != nil {
		for _, ref := range w.created {
			init.InitNode(w.analyzer, w.doc, ref)
		}
	}
	w.analyzer.dirtyVolatile()
	w.analyzer.bump()
}

// writeDocument performs one serialized write against a registered
// document.
func (a *Analyzer) writeDocument(id arena.Id, span lexis.Span, text string) error {
	entry, ok := a.docEntry(id)
	if !ok {
		return ErrMissingDocument
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.doc.IsMutable() {
		return ErrImmutableDocument
	}
	if _, ok := span.ToSiteSpan(entry.doc); !ok {
		return ErrInvalidSpan
	}

	watcher := &analyzerWatcher{analyzer: a, doc: entry.doc}
	entry.doc.SetWatcher(watcher)
	entry.doc.Write(span, text)
	entry.doc.SetWatcher(nil)
	watcher.commit()
	return nil
}
