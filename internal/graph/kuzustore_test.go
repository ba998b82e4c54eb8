//go:build cgo

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a fresh in-memory KuzuStore with an initialized schema.
func newTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.InitSchema(context.Background()), "InitSchema should not fail")
	return s
}

func TestKuzuStore_InitSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InitSchema(context.Background()))
}

func TestKuzuStore_Contract(t *testing.T) {
	storeContract(t, newTestStore(t))
}

func TestKuzuStore_MetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := mustBuild(t, "class A(Base):\n    def run(self, n):\n        for i in n:\n            pass\n")
	require.NoError(t, s.SaveGraph(ctx, "a.py", g))

	got, ok, err := s.LoadGraph(ctx, "a.py")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, got.Len())

	class, _ := got.Node("node_1")
	assert.Equal(t, NodeKindClass, class.Kind)
	assert.Equal(t, []string{"Base"}, class.Metadata["bases"])

	fn, _ := got.Node("node_2")
	assert.Equal(t, []string{"self", "n"}, fn.Metadata["params"])
	assert.Equal(t, 2, fn.Line)
}

func TestKuzuStore_SkipsDanglingEdges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := Empty().
		AddNode(Node{ID: "node_1", Kind: NodeKindFunction, Name: "f", Line: 1}).
		AddEdge(NewEdge("node_1", "node_9", EdgeKindCalls))
	require.NoError(t, s.SaveGraph(ctx, "f.py", g))

	got, _, err := s.LoadGraph(ctx, "f.py")
	require.NoError(t, err)
	assert.Empty(t, got.Edges())
}

func TestKuzuStore_FilesAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveGraph(ctx, "a.py", sampleGraph()))
	require.NoError(t, s.SaveGraph(ctx, "b.py", sampleGraph()))

	a, _, err := s.LoadGraph(ctx, "a.py")
	require.NoError(t, err)
	assert.Equal(t, 4, a.Len())
	assert.Len(t, a.Edges(), 3)
}

func TestKuzuStore_FailedSaveKeepsPreviousSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, "main.py", sampleGraph()))

	unencodable := Empty().AddNode(Node{ID: "node_1", Metadata: map[string]any{"ch": make(chan int)}})
	require.Error(t, s.SaveGraph(ctx, "main.py", unencodable))

	got, ok, err := s.LoadGraph(ctx, "main.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, got.Len())
	assert.Len(t, got.Edges(), 3)
}

func TestKuzuStore_InsertFailureRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, "a", sampleGraph()))

	// "a#b" + "c" and "a" + "b#c" share the key "a#b#c", so the second insert
	// fails after the old snapshot of "a" has already been deleted.
	require.NoError(t, s.SaveGraph(ctx, "a#b", Empty().AddNode(Node{ID: "c", Kind: NodeKindFunction, Name: "c", Line: 1})))
	clash := Empty().
		AddNode(Node{ID: "fresh", Kind: NodeKindFunction, Name: "fresh", Line: 1}).
		AddNode(Node{ID: "b#c", Kind: NodeKindFunction, Name: "c", Line: 2})
	require.Error(t, s.SaveGraph(ctx, "a", clash))

	got, ok, err := s.LoadGraph(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ids(sampleGraph().Nodes()), ids(got.Nodes()))
	assert.Len(t, got.Edges(), 3)

	// The store stays usable after the rollback.
	require.NoError(t, s.SaveGraph(ctx, "a", Empty()))
	files, err := s.Files(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a#b"}, files)
}

func TestKuzuFileStore_Persists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graphs", "kuzu")
	ctx := context.Background()

	s, err := NewKuzuFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.SaveGraph(ctx, "main.py", sampleGraph()))
	require.NoError(t, s.Close())

	reopened, err := NewKuzuFileStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, reopened.InitSchema(ctx))

	got, ok, err := reopened.LoadGraph(ctx, "main.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, got.Len())
}
