package syntax

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// FunctionDef is a named function definition found in a module.
type FunctionDef struct {
	Name   string   `json:"name"`
	Line   int      `json:"line"`
	Params []string `json:"params"`
	Async  bool     `json:"async,omitempty"`
}

// FunctionDefs returns every function definition at any nesting depth, in
// document order. Methods and nested functions are included.
func (t *Tree) FunctionDefs() []FunctionDef {
	var defs []FunctionDef
	Walk(t.Root(), func(n *tree_sitter.Node) bool {
		if n.Kind() != "function_definition" {
			return true
		}
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return true
		}
		defs = append(defs, FunctionDef{
			Name:   t.Text(nameNode),
			Line:   Line(n),
			Params: t.Params(n),
			Async:  isAsync(n),
		})
		return true
	})
	return defs
}

func isAsync(fn *tree_sitter.Node) bool {
	first := fn.Child(0)
	return first != nil && first.Kind() == "async"
}

// FindFunction returns the first function definition named name, searching
// depth-first in pre-order.
func (t *Tree) FindFunction(name string) (FunctionDef, bool) {
	for _, def := range t.FunctionDefs() {
		if def.Name == name {
			return def, true
		}
	}
	return FunctionDef{}, false
}

// Params returns the positional-or-keyword parameter names of a
// function_definition node. Positional-only parameters (before "/") and
// everything from the first "*" onwards are excluded.
func (t *Tree) Params(fn *tree_sitter.Node) []string {
	names := []string{}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return names
	}

	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			names = append(names, t.Text(child))
		case "typed_parameter":
			first := child.NamedChild(0)
			if first == nil || first.Kind() != "identifier" {
				return names
			}
			names = append(names, t.Text(first))
		case "default_parameter", "typed_default_parameter":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				names = append(names, t.Text(nameNode))
			}
		case "positional_separator":
			names = names[:0]
		case "list_splat_pattern", "dictionary_splat_pattern", "keyword_separator":
			return names
		}
	}
	return names
}

// ResolveName extracts a best-effort name from an expression node: an
// identifier resolves to itself, an attribute access to its trailing
// attribute, anything else to "unknown".
func (t *Tree) ResolveName(n *tree_sitter.Node) string {
	if n == nil {
		return "unknown"
	}
	switch n.Kind() {
	case "identifier":
		return t.Text(n)
	case "attribute":
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			return t.Text(attr)
		}
	}
	return "unknown"
}
