package graph

import (
	"encoding/json"
	"maps"
)

// graphJSON is the wire form of a CodeGraph.
type graphJSON struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MarshalJSON encodes the graph as {"nodes": [...], "edges": [...]} with
// nodes and edges in insertion order.
func (g CodeGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Nodes: g.Nodes(), Edges: g.Edges()})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (g *CodeGraph) UnmarshalJSON(data []byte) error {
	var wire graphJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*g = FromParts(wire.Nodes, wire.Edges)
	return nil
}

// FromParts assembles a graph from nodes and edges, deduplicating edges.
// Decoded metadata lists come back as []string, the type the builder writes.
func FromParts(nodes []Node, edges []Edge) CodeGraph {
	g := CodeGraph{
		order: make([]string, 0, len(nodes)),
		nodes: make(map[string]Node, len(nodes)),
	}
	for _, n := range nodes {
		if _, ok := g.nodes[n.ID]; !ok {
			g.order = append(g.order, n.ID)
		}
		n.Metadata = normalizeMetadata(n.Metadata)
		g.nodes[n.ID] = n
	}
	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		g.edges = append(g.edges, e)
	}
	return g
}

// stringListKeys are the metadata entries the builder stores as []string.
var stringListKeys = []string{"params", "bases"}

func normalizeMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	var out map[string]any
	for _, key := range stringListKeys {
		list, ok := meta[key].([]any)
		if !ok {
			continue
		}
		strs := make([]string, 0, len(list))
		for _, v := range list {
			s, ok := v.(string)
			if !ok {
				strs = nil
				break
			}
			strs = append(strs, s)
		}
		if strs == nil {
			continue
		}
		if out == nil {
			out = maps.Clone(meta)
		}
		out[key] = strs
	}
	if out == nil {
		return meta
	}
	return out
}
