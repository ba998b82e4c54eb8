package mcptools

import (
	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/change"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/status"
)

// --- MCP Tool Input Types ---
// The MCP Go SDK generates JSON schemas from these struct tags.

// AnalyzeChangeInput is the input for the analyze_change MCP tool.
type AnalyzeChangeInput struct {
	FilePath string `json:"filePath,omitempty" jsonschema:"path of the edited file, informational"`
	Before   string `json:"before" jsonschema:"file content before the edit"`
	After    string `json:"after" jsonschema:"file content after the edit"`
}

// AnalyzeChangeOutput is the result of the analyze_change MCP tool.
type AnalyzeChangeOutput struct {
	Context          analyzer.CodeContext     `json:"context"`
	DeletedLines     []string                 `json:"deletedLines"`
	DeletedFunctions []change.DeletedFunction `json:"deletedFunctions"`
	HasDeletion      bool                     `json:"hasDeletion"`
}

// BuildGraphInput is the input for the build_graph MCP tool.
type BuildGraphInput struct {
	FilePath string `json:"filePath,omitempty" jsonschema:"Python file to read; also the key the graph is stored under"`
	Code     string `json:"code,omitempty" jsonschema:"Python source to use instead of reading filePath"`
}

// BuildGraphOutput is the result of the build_graph MCP tool.
type BuildGraphOutput struct {
	Stats graph.Stats  `json:"stats"`
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// QueryGraphInput is the input for the query_graph MCP tool.
type QueryGraphInput struct {
	FilePath string `json:"filePath" jsonschema:"file whose stored graph is queried (run build_graph first)"`
	Query    string `json:"query" jsonschema:"one of: node, neighbors, dependencies, calls, callers, pattern, kind"`
	NodeID   string `json:"nodeId,omitempty" jsonschema:"node id for node, neighbors, dependencies, calls and callers"`
	Pattern  string `json:"pattern,omitempty" jsonschema:"for pattern: loops, functions, conditionals or classes; for kind: a node kind"`
}

// QueryGraphOutput is the result of the query_graph MCP tool.
type QueryGraphOutput struct {
	Nodes []graph.Node `json:"nodes"`
	Total int          `json:"total"`
}

// GenerateHintInput is the input for the generate_hint MCP tool.
type GenerateHintInput struct {
	Before       string  `json:"before" jsonschema:"file content before the deletion"`
	After        string  `json:"after" jsonschema:"file content after the deletion"`
	Level        int     `json:"level,omitempty" jsonschema:"hint level 1-4 (default 1); out of range values are clamped"`
	SecondsStuck float64 `json:"secondsStuck,omitempty" jsonschema:"seconds since the learner last edited"`
}

// GenerateHintOutput is the result of the generate_hint MCP tool.
type GenerateHintOutput struct {
	Context analyzer.CodeContext `json:"context"`
	Hint    hint.Hint            `json:"hint"`
	// Escalate reports whether the learner has been stuck long enough to
	// move to the next level.
	Escalate bool `json:"escalate"`
}

// GetStatusInput is the input for the get_status MCP tool.
type GetStatusInput struct {
	StudentID string `json:"studentId,omitempty" jsonschema:"learner id (default: the server's learner)"`
}

// GetStatusOutput is the result of the get_status MCP tool.
type GetStatusOutput struct {
	Report status.Report `json:"report"`
}
