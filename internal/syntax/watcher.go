package syntax

// Watcher is the callback surface through which document mutations report
// structural changes to the semantic layer.
type Watcher interface {
	// NodeCreated reports a node entering the tree.
	NodeCreated(ref NodeRef)

	// NodeReleased reports a node leaving the tree.
	NodeReleased(ref NodeRef)

	// ErrorCreated reports a new diagnostic.
	ErrorCreated(ref ErrorRef)

	// ErrorReleased reports a removed diagnostic.
	ErrorReleased(ref ErrorRef)
}

// VoidWatcher ignores every report.
type VoidWatcher struct{}

func (VoidWatcher) NodeCreated(NodeRef)    {}
func (VoidWatcher) NodeReleased(NodeRef)   {}
func (VoidWatcher) ErrorCreated(ErrorRef)  {}
func (VoidWatcher) ErrorReleased(ErrorRef) {}
