package syntax

import "github.com/orizon-lang/lattice/internal/lexis"

// Parse runs the grammar over the cursor's tokens and builds the unit's
// tree from scratch. It is the non-incremental session behind immutable
// documents and full reparses.
func Parse(grammar Grammar, tree *Tree, cursor lexis.TokenCursor) NodeRef {
	session := &parseSession{grammar: grammar, tree: tree, cursor: cursor}
	root := session.Descend(RootRule)
	tree.SetRoot(root)
	return root
}

// parseSession is the plain Session implementation: no caching, no reuse,
// every Descend invokes the grammar.
type parseSession struct {
	grammar Grammar
	tree    *Tree
	cursor  lexis.TokenCursor
	stack   []NodeRef
	failing bool
}

func (s *parseSession) Advance() bool {
	if !s.cursor.Advance() {
		return false
	}
	s.failing = false
	return true
}

func (s *parseSession) Skip(distance int) {
	for distance > 0 && s.Advance() {
		distance--
	}
}

func (s *parseSession) Token(distance int) lexis.TokenRule {
	return s.cursor.Token(distance)
}

func (s *parseSession) Site(distance int) lexis.Site {
	return s.cursor.Site(distance)
}

func (s *parseSession) Length(distance int) lexis.Length {
	return s.cursor.Length(distance)
}

func (s *parseSession) String(distance int) string {
	return s.cursor.String(distance)
}

func (s *parseSession) TokenRef(distance int) lexis.TokenRef {
	return s.cursor.TokenRef(distance)
}

func (s *parseSession) SiteRef(distance int) lexis.SiteRef {
	return s.cursor.SiteRef(distance)
}

func (s *parseSession) EndSiteRef() lexis.SiteRef {
	return s.cursor.EndSiteRef()
}

func (s *parseSession) Descend(rule NodeRule) NodeRef {
	s.Enter(rule)
	node := s.grammar.Parse(s, rule)
	return s.Leave(node)
}

func (s *parseSession) Enter(rule NodeRule) NodeRef {
	ref := s.tree.ReserveNode()
	s.stack = append(s.stack, ref)
	return ref
}

func (s *parseSession) Leave(node Node) NodeRef {
	ref := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	node.SetParentRef(s.NodeRef())
	s.tree.OccupyNode(ref, node)
	return ref
}

func (s *parseSession) Lift(ref NodeRef) {
	node, ok := s.tree.Node(ref)
	if !ok {
		return
	}
	node.SetParentRef(s.NodeRef())
}

func (s *parseSession) NodeRef() NodeRef {
	if len(s.stack) == 0 {
		return NilNodeRef()
	}
	return s.stack[len(s.stack)-1]
}

func (s *parseSession) ParentRef() NodeRef {
	if len(s.stack) < 2 {
		return NilNodeRef()
	}
	return s.stack[len(s.stack)-2]
}

func (s *parseSession) Failure(err SyntaxError) {
	if s.failing {
		return
	}
	s.failing = true
	s.tree.AddError(&err)
}
