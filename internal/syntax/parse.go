// Package syntax wraps the tree-sitter Python grammar for the rest of the
// module. It owns parsing, parse-error detection and the handful of
// structural lookups (function definitions, parameter lists, callee names)
// that the change detector, the analyzer and the graph builder share.
package syntax

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/dusk-indust/learnwatch/internal/result"
)

var pythonLanguage = tree_sitter.NewLanguage(tree_sitter_python.Language())

// Tree is a parsed Python module. Callers must Close it.
type Tree struct {
	tree   *tree_sitter.Tree
	source []byte
}

// Parse parses source as Python. Tree-sitter always produces a tree, so a
// tree containing ERROR or MISSING nodes is reported as a ParseError and
// released before returning. So is a tree the grammar recovered from but
// Python would reject: bad indentation, a header with no body, or a
// Python 2 print or exec statement. A new tree-sitter parser is created per call,
// which keeps Parse safe for concurrent use.
func Parse(source []byte) result.Result[*Tree] {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(pythonLanguage); err != nil {
		return result.Err[*Tree](result.ParseError, fmt.Sprintf("set language: %v", err))
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return result.Err[*Tree](result.ParseError, "tree-sitter returned nil tree")
	}

	root := tree.RootNode()
	if root.HasError() {
		msg := describeError(root)
		tree.Close()
		return result.Err[*Tree](result.ParseError, msg)
	}
	if msg := structuralError(root); msg != "" {
		tree.Close()
		return result.Err[*Tree](result.ParseError, msg)
	}

	return result.Ok(&Tree{tree: tree, source: source})
}

// ParseString is Parse for string input.
func ParseString(source string) result.Result[*Tree] {
	return Parse([]byte(source))
}

// Valid reports whether source parses without errors.
func Valid(source string) bool {
	r := ParseString(source)
	if t, ok := r.Value(); ok {
		t.Close()
		return true
	}
	return false
}

// Root returns the module node.
func (t *Tree) Root() *tree_sitter.Node {
	return t.tree.RootNode()
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.source
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(t.source)
}

// Close releases the tree-sitter C memory.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Line returns the 1-based start line of n.
func Line(n *tree_sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// describeError locates the first ERROR or MISSING node in document order
// and renders a short message for it.
func describeError(root *tree_sitter.Node) string {
	var found *tree_sitter.Node
	Walk(root, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return "invalid syntax"
	}
	pos := found.StartPosition()
	if found.IsMissing() {
		return fmt.Sprintf("line %d, column %d: missing %s", pos.Row+1, pos.Column+1, found.Kind())
	}
	return fmt.Sprintf("line %d, column %d: invalid syntax", pos.Row+1, pos.Column+1)
}
