package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/learnwatch/internal/graph"
)

// GenerateMermaid produces a Mermaid "graph TD" diagram of g. Nodes are
// grouped into one subgraph per kind; edges keep their kind as a label.
// Edges to unknown nodes are left out.
func GenerateMermaid(g graph.CodeGraph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	byKind := make(map[graph.NodeKind][]graph.Node)
	var kinds []graph.NodeKind
	for _, n := range g.Nodes() {
		if _, seen := byKind[n.Kind]; !seen {
			kinds = append(kinds, n.Kind)
		}
		byKind[n.Kind] = append(byKind[n.Kind], n)
	}

	for _, k := range kinds {
		fmt.Fprintf(&sb, "  subgraph sg_%s[\"%s\"]\n", k, k)
		for _, n := range byKind[k] {
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", n.ID, label(n))
		}
		sb.WriteString("  end\n")
	}

	for _, e := range g.Edges() {
		_, srcOK := g.Node(e.SourceID)
		_, dstOK := g.Node(e.TargetID)
		if !srcOK || !dstOK {
			continue
		}
		fmt.Fprintf(&sb, "  %s -->|%s| %s\n", e.SourceID, e.Kind, e.TargetID)
	}
	return sb.String()
}

// GenerateMermaidForFile renders the snapshot stored for file.
func GenerateMermaidForFile(ctx context.Context, store graph.Store, file string) (string, error) {
	g, ok, err := store.LoadGraph(ctx, file)
	if err != nil {
		return "", fmt.Errorf("load graph: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("no graph stored for %s", file)
	}
	return GenerateMermaid(g), nil
}

func label(n graph.Node) string {
	name := n.Name
	if params, ok := n.Metadata["params"].([]string); ok {
		name += "(" + strings.Join(params, ", ") + ")"
	}
	name = strings.ReplaceAll(name, `"`, "'")
	return fmt.Sprintf("%s<br/>line %d", name, n.Line)
}
