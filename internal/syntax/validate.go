package syntax

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// compoundKinds are the statements and clauses whose ":" must be followed by
// an indented or same-line body.
var compoundKinds = map[string]bool{
	"for_statement":       true,
	"while_statement":     true,
	"if_statement":        true,
	"elif_clause":         true,
	"else_clause":         true,
	"function_definition": true,
	"class_definition":    true,
	"with_statement":      true,
	"try_statement":       true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
	"match_statement":     true,
	"case_clause":         true,
}

// python2Kinds parse in tree-sitter but not in Python 3.
var python2Kinds = map[string]string{
	"print_statement": "missing parentheses in call to 'print'",
	"exec_statement":  "missing parentheses in call to 'exec'",
}

// structuralError finds what tree-sitter recovers from silently but Python
// rejects: misplaced indentation, bodiless blocks and Python 2 statements.
// It returns an empty string for a well-formed module.
func structuralError(root *tree_sitter.Node) string {
	var msg string
	Walk(root, func(n *tree_sitter.Node) bool {
		if msg != "" {
			return false
		}
		kind := n.Kind()
		if text, ok := python2Kinds[kind]; ok {
			msg = at(n, text)
			return false
		}
		switch {
		case kind == "module":
			msg = checkIndentation(n, 0, true)
		case kind == "block":
			if len(statements(n)) == 0 {
				msg = at(blockOwner(n), "expected an indented block")
				return false
			}
			msg = checkIndentation(n, 0, false)
		case compoundKinds[kind]:
			msg = checkBodies(n)
		}
		return msg == ""
	})
	return msg
}

// checkIndentation requires every statement that starts a line to start at
// the column of the first one, or at column want when fixed is set.
func checkIndentation(n *tree_sitter.Node, want uint, fixed bool) string {
	stmts := statements(n)
	if len(stmts) == 0 {
		return ""
	}
	if !fixed {
		want = stmts[0].StartPosition().Column
	}
	for i, s := range stmts {
		pos := s.StartPosition()
		// Statements after ";" share a line with the previous one.
		if i > 0 && stmts[i-1].EndPosition().Row == pos.Row {
			continue
		}
		switch {
		case pos.Column > want:
			return at(s, "unexpected indent")
		case pos.Column < want:
			return at(s, "unindent does not match any outer indentation level")
		}
	}
	return ""
}

// checkBodies requires a block after every ":" that ends a compound header.
func checkBodies(n *tree_sitter.Node) string {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || child.IsNamed() || child.Kind() != ":" {
			continue
		}
		next := child.NextSibling()
		for next != nil && isExtra(next) {
			next = next.NextSibling()
		}
		if next == nil || next.Kind() != "block" {
			return at(n, "expected an indented block")
		}
	}
	return ""
}

// statements returns the named children of n that are not comments or
// line continuations.
func statements(n *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || isExtra(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

func isExtra(n *tree_sitter.Node) bool {
	switch n.Kind() {
	case "comment", "line_continuation":
		return true
	}
	return false
}

// blockOwner returns the statement a block belongs to, for error positions.
func blockOwner(block *tree_sitter.Node) *tree_sitter.Node {
	if p := block.Parent(); p != nil {
		return p
	}
	return block
}

func at(n *tree_sitter.Node, text string) string {
	pos := n.StartPosition()
	return fmt.Sprintf("line %d, column %d: %s", pos.Row+1, pos.Column+1, text)
}
