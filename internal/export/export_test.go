package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/session"
	"github.com/dusk-indust/learnwatch/internal/storage"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestExportLearner(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	p := proficiency.Apply(proficiency.SimpleCalculator{}, proficiency.NewProfile("alice", now),
		proficiency.ProfileUpdate{PatternType: "loops", Success: true, TimeTaken: 20, HintLevel: 1}, now)
	require.True(t, store.Save(ctx, p).IsOk())
	require.NoError(t, store.SaveSession(ctx, "alice", session.LearningSession{ID: "s1", FilePath: "main.py", StartedAt: now, TaskCompleted: true}))

	exp, err := ExportLearner(ctx, store, "alice", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T09:00:00Z", exp.ExportedAt)
	assert.Len(t, exp.Sessions, 1)
	assert.Equal(t, 1, exp.Report.CompletedSessions)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, exp))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "alice", decoded["studentId"])
	profile := decoded["profile"].(map[string]any)
	assert.Contains(t, profile["patternStats"], "loops")
}

func TestExportLearner_Unknown(t *testing.T) {
	exp, err := ExportLearner(context.Background(), storage.NewMemoryStore(), "nobody", now)
	require.NoError(t, err)
	assert.Empty(t, exp.Profile.PatternStats)
	assert.Empty(t, exp.Sessions)
}

func TestGenerateMermaid(t *testing.T) {
	code := "import os\n\ndef helper(x):\n    return x\n\ndef main():\n    helper(1)\n"
	g, err := graph.NewTreeSitterBuilder().BuildFromCode(code).Get()
	require.NoError(t, err)

	out := GenerateMermaid(g)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "subgraph sg_import")
	assert.Contains(t, out, "subgraph sg_function")
	assert.Contains(t, out, `helper(x)<br/>line 3`)
	assert.Contains(t, out, "-->|CALLS|")
}

func TestGenerateMermaid_AfterJSONRoundTrip(t *testing.T) {
	g, err := graph.NewTreeSitterBuilder().BuildFromCode("def add(a, b):\n    return a + b\n").Get()
	require.NoError(t, err)

	data, err := json.Marshal(g)
	require.NoError(t, err)
	var back graph.CodeGraph
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Contains(t, GenerateMermaid(back), `add(a, b)<br/>line 1`)
	assert.Equal(t, GenerateMermaid(g), GenerateMermaid(back))
}

func TestGenerateMermaid_SkipsDanglingEdges(t *testing.T) {
	g := graph.Empty().
		AddNode(graph.Node{ID: "a", Kind: graph.NodeKindFunction, Name: "a", Line: 1}).
		AddEdge(graph.NewEdge("a", "ghost", graph.EdgeKindCalls))
	assert.NotContains(t, GenerateMermaid(g), "ghost")
}

func TestGenerateMermaidForFile(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()

	_, err := GenerateMermaidForFile(ctx, store, "main.py")
	assert.Error(t, err)

	g := graph.Empty().AddNode(graph.Node{ID: "n", Kind: graph.NodeKindClass, Name: `Say"Hi"`, Line: 2})
	require.NoError(t, store.SaveGraph(ctx, "main.py", g))
	out, err := GenerateMermaidForFile(ctx, store, "main.py")
	require.NoError(t, err)
	assert.Contains(t, out, "Say'Hi'")
}
