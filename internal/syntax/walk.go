package syntax

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Walk visits n and its descendants in document order (pre-order,
// depth-first). When visit returns false the children of that node are
// skipped.
func Walk(n *tree_sitter.Node, visit func(*tree_sitter.Node) bool) {
	if n == nil {
		return
	}
	cursor := n.Walk()
	defer cursor.Close()
	walk(cursor, visit)
}

func walk(cursor *tree_sitter.TreeCursor, visit func(*tree_sitter.Node) bool) {
	if !visit(cursor.Node()) {
		return
	}
	if cursor.GotoFirstChild() {
		walk(cursor, visit)
		for cursor.GotoNextSibling() {
			walk(cursor, visit)
		}
		cursor.GotoParent()
	}
}
