package semantic

import (
	"sync"
	"sync/atomic"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/document"
	"github.com/orizon-lang/lattice/internal/lexis"
)

// TaskHandle is the cooperative-cancellation handle of one task. Long
// operations observe it through AttrContext.Proceed.
type TaskHandle struct {
	triggered atomic.Bool
}

// NewTaskHandle returns an untriggered handle.
func NewTaskHandle() *TaskHandle {
	return &TaskHandle{}
}

// Trigger signals the interrupt. Idempotent.
func (h *TaskHandle) Trigger() {
	h.triggered.Store(true)
}

// IsTriggered reports whether the interrupt was signaled.
func (h *TaskHandle) IsTriggered() bool {
	return h.triggered.Load()
}

type taskKind int

const (
	analysisTask taskKind = iota
	mutationTask
	exclusiveTask
)

// taskGate arbitrates task admission: any number of concurrent analysis
// and mutation tasks, but an exclusive task runs alone.
type taskGate struct {
	mu        sync.Mutex
	cond      *sync.Cond
	live      int
	exclusive bool
}

func (g *taskGate) acquire(kind taskKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch kind {
	case exclusiveTask:
		for g.exclusive || g.live > 0 {
			g.cond.Wait()
		}
		g.exclusive = true
	default:
		for g.exclusive {
			g.cond.Wait()
		}
		g.live++
	}
}

func (g *taskGate) release(kind taskKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if kind == exclusiveTask {
		g.exclusive = false
	} else {
		g.live--
	}
	g.cond.Broadcast()
}

// AnalysisTask grants read access to the semantic graph.
type AnalysisTask struct {
	analyzer *Analyzer
	handle   *TaskHandle
	kind     taskKind
	released bool
}

// Analyze admits a new analysis task, blocking while an exclusive task is
// live.
func (a *Analyzer) Analyze(handle *TaskHandle) *AnalysisTask {
	if handle == nil {
		handle = NewTaskHandle()
	}
	a.gate.acquire(analysisTask)
	return &AnalysisTask{analyzer: a, handle: handle, kind: analysisTask}
}

// Handle returns the task's cancellation handle.
func (t *AnalysisTask) Handle() *TaskHandle {
	return t.handle
}

// Analyzer returns the owning analyzer.
func (t *AnalysisTask) Analyzer() *Analyzer {
	return t.analyzer
}

// Context opens a fresh top-level attribute context at the current
// revision.
func (t *AnalysisTask) Context() *AttrContext {
	return newContext(t.analyzer, t.handle, t.analyzer.Revision())
}

// Document resolves a registered document for reading.
func (t *AnalysisTask) Document(id arena.Id) (*document.Document, error) {
	doc, ok := t.analyzer.Document(id)
	if !ok {
		return nil, ErrMissingDocument
	}
	return doc, nil
}

// Release returns the access grant. Idempotent.
func (t *AnalysisTask) Release() {
	if t.released {
		return
	}
	t.released = true
	t.analyzer.gate.release(t.kind)
}

// MutationTask grants write access to documents.
type MutationTask struct {
	analyzer *Analyzer
	handle   *TaskHandle
	kind     taskKind
	released bool
}

// Mutate admits a new mutation task, blocking while an exclusive task is
// live.
func (a *Analyzer) Mutate(handle *TaskHandle) *MutationTask {
	if handle == nil {
		handle = NewTaskHandle()
	}
	a.gate.acquire(mutationTask)
	return &MutationTask{analyzer: a, handle: handle, kind: mutationTask}
}

// Handle returns the task's cancellation handle.
func (t *MutationTask) Handle() *TaskHandle {
	return t.handle
}

// Write performs one serialized edit; writes on the same document from
// concurrent mutation tasks are totally ordered by the revision bump.
func (t *MutationTask) Write(id arena.Id, span lexis.Span, text string) error {
	return t.analyzer.writeDocument(id, span, text)
}

// AddMutable registers a new editable document.
func (t *MutationTask) AddMutable(text string) arena.Id {
	return t.analyzer.AddMutable(text)
}

// AddImmutable registers a new frozen document.
func (t *MutationTask) AddImmutable(text string) arena.Id {
	return t.analyzer.AddImmutable(text)
}

// RemoveDocument drops a registered document.
func (t *MutationTask) RemoveDocument(id arena.Id) bool {
	return t.analyzer.RemoveDocument(id)
}

// Release returns the access grant. Idempotent.
func (t *MutationTask) Release() {
	if t.released {
		return
	}
	t.released = true
	t.analyzer.gate.release(t.kind)
}

// ExclusiveTask grants combined read and write access; it is admitted
// only when no other task is live.
type ExclusiveTask struct {
	AnalysisTask
}

// Exclusive admits a new exclusive task.
func (a *Analyzer) Exclusive(handle *TaskHandle) *ExclusiveTask {
	if handle == nil {
		handle = NewTaskHandle()
	}
	a.gate.acquire(exclusiveTask)
	return &ExclusiveTask{
		AnalysisTask: AnalysisTask{analyzer: a, handle: handle, kind: exclusiveTask},
	}
}

// Write performs one edit under the exclusive grant.
func (t *ExclusiveTask) Write(id arena.Id, span lexis.Span, text string) error {
	return t.analyzer.writeDocument(id, span, text)
}

// AddMutable registers a new editable document.
func (t *ExclusiveTask) AddMutable(text string) arena.Id {
	return t.analyzer.AddMutable(text)
}

// AddImmutable registers a new frozen document.
func (t *ExclusiveTask) AddImmutable(text string) arena.Id {
	return t.analyzer.AddImmutable(text)
}

// RemoveDocument drops a registered document.
func (t *ExclusiveTask) RemoveDocument(id arena.Id) bool {
	return t.analyzer.RemoveDocument(id)
}
