package graph

// --- Enums ---

// NodeKind classifies nodes in the structural graph.
type NodeKind string

const (
	NodeKindFunction    NodeKind = "function"
	NodeKindClass       NodeKind = "class"
	NodeKindLoop        NodeKind = "loop"
	NodeKindConditional NodeKind = "conditional"
	NodeKindImport      NodeKind = "import"
	NodeKindVariable    NodeKind = "variable"
	NodeKindModule      NodeKind = "module"
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindCalls       EdgeKind = "CALLS"
	EdgeKindUses        EdgeKind = "USES"
	EdgeKindDefines     EdgeKind = "DEFINES"
	EdgeKindImportsFrom EdgeKind = "IMPORTS_FROM"
	EdgeKindContains    EdgeKind = "CONTAINS"
	EdgeKindDependsOn   EdgeKind = "DEPENDS_ON"
)

// DefaultWeight is the weight given to edges created by the builder.
const DefaultWeight = 1.0

// --- Models ---

// Node is one construct extracted from source: a function, class, loop,
// conditional or import. Metadata holds kind-specific extras such as
// "params" for functions, "bases" for classes and "type" for loops.
type Node struct {
	ID       string         `json:"id"`
	Kind     NodeKind       `json:"kind"`
	Name     string         `json:"name"`
	Line     int            `json:"line"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Edge is a directed relationship between two node ids. Two edges are the
// same edge when every field is equal.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
	Weight   float64  `json:"weight"`
}

// NewEdge returns an edge with the default weight.
func NewEdge(source, target string, kind EdgeKind) Edge {
	return Edge{SourceID: source, TargetID: target, Kind: kind, Weight: DefaultWeight}
}

// Stats summarizes a CodeGraph or a store of them.
type Stats struct {
	NodeCount int `json:"nodeCount"`
	EdgeCount int `json:"edgeCount"`
}

// --- CodeGraph ---

// CodeGraph is an immutable set of nodes keyed by id plus a deduplicated set
// of edges. AddNode and AddEdge return new graphs and leave the receiver
// untouched. The zero value is an empty graph.
//
// Edges whose endpoints were never added are kept; queries simply cannot
// resolve them.
type CodeGraph struct {
	order []string
	nodes map[string]Node
	edges []Edge
}

// Empty returns a graph with no nodes and no edges.
func Empty() CodeGraph {
	return CodeGraph{}
}

// AddNode returns a new graph containing n. A node with the same id replaces
// the previous one but keeps its insertion position.
func (g CodeGraph) AddNode(n Node) CodeGraph {
	nodes := make(map[string]Node, len(g.nodes)+1)
	for id, existing := range g.nodes {
		nodes[id] = existing
	}
	order := g.order
	if _, ok := g.nodes[n.ID]; !ok {
		order = append(g.order[:len(g.order):len(g.order)], n.ID)
	}
	nodes[n.ID] = n
	return CodeGraph{order: order, nodes: nodes, edges: g.edges}
}

// AddEdge returns a new graph containing e. Adding an edge already present
// returns an equal graph.
func (g CodeGraph) AddEdge(e Edge) CodeGraph {
	if g.HasEdge(e) {
		return g
	}
	edges := append(g.edges[:len(g.edges):len(g.edges)], e)
	return CodeGraph{order: g.order, nodes: g.nodes, edges: edges}
}

// HasEdge reports whether an identical edge is present.
func (g CodeGraph) HasEdge(e Edge) bool {
	for _, existing := range g.edges {
		if existing == e {
			return true
		}
	}
	return false
}

// Node returns the node with the given id.
func (g CodeGraph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g CodeGraph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g CodeGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of nodes.
func (g CodeGraph) Len() int { return len(g.order) }

// IsEmpty reports whether the graph has neither nodes nor edges.
func (g CodeGraph) IsEmpty() bool { return len(g.order) == 0 && len(g.edges) == 0 }

// Stats returns node and edge counts.
func (g CodeGraph) Stats() Stats {
	return Stats{NodeCount: len(g.order), EdgeCount: len(g.edges)}
}

// findByName returns the first-inserted node with the given name.
func (g CodeGraph) findByName(name string) (Node, bool) {
	for _, id := range g.order {
		if n := g.nodes[id]; n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}
