package graph

// Read-only lookups over a CodeGraph. Unknown ids and empty graphs yield
// empty results, never errors.

// patternNodeKinds maps pattern-type names to the node kind that represents
// them in a graph.
var patternNodeKinds = map[string]NodeKind{
	"loops":        NodeKindLoop,
	"functions":    NodeKindFunction,
	"conditionals": NodeKindConditional,
	"classes":      NodeKindClass,
}

// GetNode returns the node with the given id.
func GetNode(g CodeGraph, id string) (Node, bool) {
	return g.Node(id)
}

// GetNeighbors returns the nodes targeted by any edge leaving id.
func GetNeighbors(g CodeGraph, id string) []Node {
	return targets(g, id, "")
}

// GetDependencies returns the nodes reached from id over DEPENDS_ON edges.
func GetDependencies(g CodeGraph, id string) []Node {
	return targets(g, id, EdgeKindDependsOn)
}

// GetFunctionCalls returns the nodes called by id.
func GetFunctionCalls(g CodeGraph, id string) []Node {
	return targets(g, id, EdgeKindCalls)
}

// GetCallers returns the nodes with a CALLS edge into id.
func GetCallers(g CodeGraph, id string) []Node {
	out := []Node{}
	for _, e := range g.edges {
		if e.TargetID != id || e.Kind != EdgeKindCalls {
			continue
		}
		if n, ok := g.nodes[e.SourceID]; ok {
			out = append(out, n)
		}
	}
	return out
}

// GetRelatedPatterns returns every node of the kind associated with a
// pattern type such as "loops" or "functions". Pattern types without a
// graph representation yield no nodes.
func GetRelatedPatterns(g CodeGraph, patternType string) []Node {
	kind, ok := patternNodeKinds[patternType]
	if !ok {
		return []Node{}
	}
	return NodesOfKind(g, kind)
}

// NodesOfKind returns every node of the given kind in insertion order.
func NodesOfKind(g CodeGraph, kind NodeKind) []Node {
	out := []Node{}
	for _, n := range g.Nodes() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// targets follows edges leaving id, restricted to kind unless kind is empty.
// Edges to ids that were never added are skipped.
func targets(g CodeGraph, id string, kind EdgeKind) []Node {
	out := []Node{}
	for _, e := range g.edges {
		if e.SourceID != id {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		if n, ok := g.nodes[e.TargetID]; ok {
			out = append(out, n)
		}
	}
	return out
}
