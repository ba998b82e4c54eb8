package graph

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/learnwatch/internal/result"
	"github.com/dusk-indust/learnwatch/internal/syntax"
)

// Builder turns source text into a structural graph.
// Implementations: TreeSitterBuilder (production), fakes in tests.
type Builder interface {
	// BuildFromCode parses code and returns its graph, or a ParseError.
	BuildFromCode(code string) result.Result[CodeGraph]
}

var _ Builder = (*TreeSitterBuilder)(nil)

// TreeSitterBuilder builds graphs from Python source using tree-sitter.
// It holds no state between builds, so one value may serve concurrent
// callers.
type TreeSitterBuilder struct{}

// NewTreeSitterBuilder returns a ready builder.
func NewTreeSitterBuilder() *TreeSitterBuilder {
	return &TreeSitterBuilder{}
}

// BuildFromCode walks every syntax node in document order and records
// functions, classes, loops, conditionals and imports as nodes with ids
// node_1, node_2, ... in visitation order. Calls made inside a function
// body become CALLS edges when a node with the callee's name already
// exists; unresolved calls are dropped.
func (b *TreeSitterBuilder) BuildFromCode(code string) result.Result[CodeGraph] {
	parsed := syntax.ParseString(code)
	tree, ok := parsed.Value()
	if !ok {
		return result.Fail[CodeGraph](parsed.Error())
	}
	defer tree.Close()

	bs := &buildState{tree: tree, seen: make(map[Edge]bool)}
	syntax.Walk(tree.Root(), bs.visit)
	return result.Ok(bs.graph)
}

// buildState carries the per-build id counter so concurrent builds never
// share numbering.
type buildState struct {
	tree    *syntax.Tree
	counter int
	graph   CodeGraph
	seen    map[Edge]bool
}

func (bs *buildState) nextID() string {
	bs.counter++
	return fmt.Sprintf("node_%d", bs.counter)
}

func (bs *buildState) add(kind NodeKind, name string, n *tree_sitter.Node, meta map[string]any) Node {
	node := Node{
		ID:       bs.nextID(),
		Kind:     kind,
		Name:     name,
		Line:     syntax.Line(n),
		Metadata: meta,
	}
	bs.graph = bs.graph.AddNode(node)
	return node
}

func (bs *buildState) visit(n *tree_sitter.Node) bool {
	switch n.Kind() {
	case "function_definition":
		bs.function(n)
	case "class_definition":
		bs.class(n)
	case "for_statement":
		bs.add(NodeKindLoop, "for", n, map[string]any{"type": "for"})
	case "while_statement":
		bs.add(NodeKindLoop, "while", n, map[string]any{"type": "while"})
	case "if_statement", "elif_clause":
		bs.add(NodeKindConditional, "if", n, map[string]any{})
	case "import_statement", "import_from_statement":
		bs.add(NodeKindImport, bs.importName(n), n, map[string]any{})
	}
	return true
}

func (bs *buildState) function(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	fn := bs.add(NodeKindFunction, bs.tree.Text(nameNode), n, map[string]any{
		"params": bs.tree.Params(n),
	})

	syntax.Walk(n, func(child *tree_sitter.Node) bool {
		if child.Kind() != "call" {
			return true
		}
		callee := bs.tree.ResolveName(child.ChildByFieldName("function"))
		target, ok := bs.graph.findByName(callee)
		if !ok {
			return true
		}
		edge := NewEdge(fn.ID, target.ID, EdgeKindCalls)
		if !bs.seen[edge] {
			bs.seen[edge] = true
			bs.graph = bs.graph.AddEdge(edge)
		}
		return true
	})
}

func (bs *buildState) class(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	bases := []string{}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			arg := supers.NamedChild(i)
			if arg == nil {
				continue
			}
			switch arg.Kind() {
			case "keyword_argument", "comment":
				continue
			}
			bases = append(bases, bs.tree.ResolveName(arg))
		}
	}
	bs.add(NodeKindClass, bs.tree.Text(nameNode), n, map[string]any{"bases": bases})
}

// importName is the first imported module for "import a, b" and the source
// module for "from x import y". Relative imports without a module name
// resolve to "unknown".
func (bs *buildState) importName(n *tree_sitter.Node) string {
	if n.Kind() == "import_from_statement" {
		mod := n.ChildByFieldName("module_name")
		if mod == nil {
			return "unknown"
		}
		if mod.Kind() == "relative_import" {
			for i := uint(0); i < mod.NamedChildCount(); i++ {
				if c := mod.NamedChild(i); c != nil && c.Kind() == "dotted_name" {
					return bs.tree.Text(c)
				}
			}
			return "unknown"
		}
		return bs.tree.Text(mod)
	}

	first := n.ChildByFieldName("name")
	if first == nil {
		return "unknown"
	}
	if first.Kind() == "aliased_import" {
		if inner := first.ChildByFieldName("name"); inner != nil {
			return bs.tree.Text(inner)
		}
	}
	return bs.tree.Text(first)
}
