package semantic

import (
	"github.com/orizon-lang/lattice/internal/document"
	"github.com/orizon-lang/lattice/internal/syntax"
)

// Classifier maps nodes to named classes. The analyzer maintains the
// reverse index class -> nodes, updated transactionally with each
// reparse, so attributes can enumerate "all nodes of this class".
type Classifier interface {
	ClassesOf(doc *document.Document, node syntax.NodeRef) []string
}

// VoidClassifier assigns no classes; it is the default.
type VoidClassifier struct{}

// ClassesOf implements Classifier.
func (VoidClassifier) ClassesOf(*document.Document, syntax.NodeRef) []string {
	return nil
}

// RuleClassifier classes every node by its rule name.
type RuleClassifier struct{}

// ClassesOf implements Classifier.
func (RuleClassifier) ClassesOf(doc *document.Document, ref syntax.NodeRef) []string {
	node, ok := doc.Tree().Node(ref)
	if !ok {
		return nil
	}
	name := doc.Grammar().RuleName(node.Rule())
	if name == "" {
		return nil
	}
	return []string{name}
}
