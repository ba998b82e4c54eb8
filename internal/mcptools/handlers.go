package mcptools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/change"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/status"
	"github.com/dusk-indust/learnwatch/internal/storage"
)

// inlineKey is the graph store key for code passed without a file path.
const inlineKey = "<inline>"

// LearnService holds the collaborators used by the MCP tool handlers.
type LearnService struct {
	analyzer  *analyzer.Analyzer
	builder   graph.Builder
	graphs    graph.Store
	hints     *hint.Engine
	enricher  *hint.Enricher
	store     storage.Store
	studentID string
}

// NewLearnService creates a LearnService. store may be nil, in which case
// get_status reports an empty profile.
func NewLearnService(builder graph.Builder, graphs graph.Store, hints *hint.Engine, store storage.Store, studentID string) *LearnService {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return &LearnService{
		analyzer:  analyzer.New(),
		builder:   builder,
		graphs:    graphs,
		hints:     hints,
		store:     store,
		studentID: studentID,
	}
}

// SetEnricher enables LLM-written hint text for generate_hint.
func (s *LearnService) SetEnricher(e *hint.Enricher) {
	s.enricher = e
}

// AnalyzeChange diffs two versions of a file and classifies the deletion.
func (s *LearnService) AnalyzeChange(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeChangeInput,
) (*mcp.CallToolResult, AnalyzeChangeOutput, error) {
	ev := change.NewEvent(input.FilePath, input.Before, input.After)
	return nil, AnalyzeChangeOutput{
		Context:          s.analyzer.AnalyzeDeletion(input.Before, input.After),
		DeletedLines:     ev.DeletedLines,
		DeletedFunctions: ev.DeletedFunctions,
		HasDeletion:      ev.HasDeletion(),
	}, nil
}

// BuildGraph parses code (or the file at filePath) and stores its graph.
func (s *LearnService) BuildGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildGraphInput,
) (*mcp.CallToolResult, BuildGraphOutput, error) {
	code := input.Code
	key := input.FilePath
	if code == "" {
		if input.FilePath == "" {
			return nil, BuildGraphOutput{}, fmt.Errorf("filePath or code is required")
		}
		data, err := os.ReadFile(input.FilePath)
		if err != nil {
			return nil, BuildGraphOutput{}, fmt.Errorf("cannot read filePath: %w", err)
		}
		code = string(data)
	}
	if key == "" {
		key = inlineKey
	} else if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	g, err := s.builder.BuildFromCode(code).Get()
	if err != nil {
		return nil, BuildGraphOutput{}, err
	}

	if err := s.graphs.InitSchema(ctx); err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("init schema: %w", err)
	}
	if err := s.graphs.SaveGraph(ctx, key, g); err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("save graph: %w", err)
	}

	return nil, BuildGraphOutput{Stats: g.Stats(), Nodes: g.Nodes(), Edges: g.Edges()}, nil
}

// QueryGraph answers one query against a stored graph.
func (s *LearnService) QueryGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryGraphInput,
) (*mcp.CallToolResult, QueryGraphOutput, error) {
	key := input.FilePath
	if key == "" {
		key = inlineKey
	} else if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	g, ok, err := s.graphs.LoadGraph(ctx, key)
	if err != nil {
		return nil, QueryGraphOutput{}, fmt.Errorf("load graph: %w", err)
	}
	if !ok {
		return nil, QueryGraphOutput{}, fmt.Errorf("no graph for %s; call build_graph first", key)
	}

	var nodes []graph.Node
	switch input.Query {
	case "node":
		nodes = []graph.Node{}
		if n, found := graph.GetNode(g, input.NodeID); found {
			nodes = append(nodes, n)
		}
	case "neighbors":
		nodes = graph.GetNeighbors(g, input.NodeID)
	case "dependencies":
		nodes = graph.GetDependencies(g, input.NodeID)
	case "calls":
		nodes = graph.GetFunctionCalls(g, input.NodeID)
	case "callers":
		nodes = graph.GetCallers(g, input.NodeID)
	case "pattern":
		nodes = graph.GetRelatedPatterns(g, input.Pattern)
	case "kind":
		nodes = graph.NodesOfKind(g, graph.NodeKind(input.Pattern))
	default:
		return nil, QueryGraphOutput{}, fmt.Errorf("unknown query %q", input.Query)
	}

	return nil, QueryGraphOutput{Nodes: nodes, Total: len(nodes)}, nil
}

// GenerateHint classifies a deletion and produces a hint at the requested
// level.
func (s *LearnService) GenerateHint(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateHintInput,
) (*mcp.CallToolResult, GenerateHintOutput, error) {
	level := input.Level
	if level == 0 {
		level = proficiency.MinHintLevel
	}
	stuck := time.Duration(input.SecondsStuck * float64(time.Second))

	cc := s.analyzer.AnalyzeDeletion(input.Before, input.After)
	h := s.hints.Generate(cc, level, stuck)
	h = s.enricher.Enrich(ctx, cc, change.DeletedLines(input.Before, input.After), h)

	return nil, GenerateHintOutput{
		Context:  cc,
		Hint:     h,
		Escalate: hint.ShouldIncreaseLevel(stuck, h.Level),
	}, nil
}

// GetStatus reports a learner's progress.
func (s *LearnService) GetStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	id := input.StudentID
	if id == "" {
		id = s.studentID
	}
	if id == "" {
		return nil, GetStatusOutput{}, fmt.Errorf("studentId is required")
	}

	profile, err := proficiency.LoadOrNew(ctx, s.store, id, func() proficiency.StudentProfile {
		return proficiency.NewProfile(id, time.Now())
	}).Get()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	sessions, err := s.store.Sessions(ctx, id)
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{Report: status.Build(proficiency.SimpleCalculator{}, profile, sessions)}, nil
}
