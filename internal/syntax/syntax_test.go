package syntax

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/learnwatch/internal/result"
)

// readFixture reads a test fixture file relative to the project root.
// Tests run from internal/syntax/, so the relative path is ../../testdata/...
func readFixture(t *testing.T, relPath string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../" + relPath)
	require.NoError(t, err, "reading fixture %s", relPath)
	return data
}

func mustParse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := ParseString(src).Get()
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestParse_Valid(t *testing.T) {
	for _, src := range []string{
		"",
		"print('done')",
		"for i in range(10):\n    print(i)",
		"class A:\n    pass\n",
	} {
		assert.True(t, Valid(src), "expected %q to parse", src)
	}
}

func TestParse_Invalid(t *testing.T) {
	src := readFixture(t, "testdata/fixtures/python/broken.py")
	r := Parse(src)
	require.True(t, r.IsErr())
	assert.Equal(t, result.ParseError, r.Error().Kind)
	assert.Contains(t, r.Error().Context, "line")

	assert.False(t, Valid("def f(:\n"))
	assert.False(t, Valid("for in range(3):\n    pass"))
}

func TestParse_RejectsWhatPythonRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"indented second statement", "x = 1\n    y = 2"},
		{"indented first statement", "    print(i)"},
		{"header without body", "for i in range(10):\n"},
		{"body not indented", "for i in range(10):\nprint(i)"},
		{"body holds only a comment", "for x in y:\n    # c\n"},
		{"bodiless def", "def f():\n"},
		{"dedent to unknown level", "def f():\n    x = 1\n  y = 2"},
		{"over-indented body line", "def f():\n    x = 1\n        y = 2"},
		{"python 2 print", "print 'hi'"},
		{"python 2 exec", "exec 'code'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Valid(tt.src))

			r := ParseString(tt.src)
			require.True(t, r.IsErr())
			assert.Equal(t, result.ParseError, r.Error().Kind)
			assert.Contains(t, r.Error().Context, "line")
		})
	}
}

func TestStructuralError_Messages(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"print 'hi'\n", "line 1, column 1: missing parentheses in call to 'print'"},
		{"exec 'code'\n", "line 1, column 1: missing parentheses in call to 'exec'"},
	}
	for _, tt := range tests {
		r := ParseString(tt.src)
		require.True(t, r.IsErr(), tt.src)
		assert.Equal(t, tt.want, r.Error().Context)
	}
}

func TestParse_AcceptsLayoutPythonAccepts(t *testing.T) {
	for _, src := range []string{
		"if x: a = 1; b = 2\n",
		"print(x)\n",
		"def f(): return 1\n",
		"if a:\n    b = 1\nelif c:\n    d = 2\nelse:\n    e = 3\n",
		"total = (1 +\n    2)\n",
		"@wrap\ndef f():\n    pass\n",
	} {
		assert.True(t, Valid(src), "expected %q to parse", src)
	}
}

func TestTree_FunctionDefs(t *testing.T) {
	tree := mustParse(t, string(readFixture(t, "testdata/fixtures/python/inventory.py")))

	defs := tree.FunctionDefs()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"__init__", "total", "load_items", "parse_line", "summarize"}, names)

	init := defs[0]
	assert.Equal(t, 6, init.Line)
	assert.Equal(t, []string{"self", "name", "price"}, init.Params)

	load, ok := tree.FindFunction("load_items")
	require.True(t, ok)
	assert.Equal(t, 14, load.Line)
	assert.Equal(t, []string{"path"}, load.Params)

	_, ok = tree.FindFunction("missing")
	assert.False(t, ok)
}

func TestTree_FunctionDefsMarksCoroutines(t *testing.T) {
	tree := mustParse(t, "async def fetch(url):\n    pass\n\ndef parse(body):\n    pass\n")
	defs := tree.FunctionDefs()
	require.Len(t, defs, 2)
	assert.True(t, defs[0].Async)
	assert.Equal(t, "fetch", defs[0].Name)
	assert.False(t, defs[1].Async)
}

func TestTree_Params(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"none", "def f():\n    pass", []string{}},
		{"plain", "def f(a, b):\n    pass", []string{"a", "b"}},
		{"defaults and types", "def f(a: int, b=1, c: str = 'x'):\n    pass", []string{"a", "b", "c"}},
		{"varargs stop", "def f(a, *args, b, **kw):\n    pass", []string{"a"}},
		{"keyword only", "def f(a, *, b):\n    pass", []string{"a"}},
		{"positional only", "def f(a, /, b):\n    pass", []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, tt.src)
			defs := tree.FunctionDefs()
			require.Len(t, defs, 1)
			assert.Equal(t, tt.want, defs[0].Params)
		})
	}
}

func TestWalk_DocumentOrder(t *testing.T) {
	tree := mustParse(t, "if a:\n    pass\nwhile b:\n    pass\nfor c in d:\n    pass\n")
	var kinds []string
	Walk(tree.Root(), func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "if_statement", "while_statement", "for_statement":
			kinds = append(kinds, n.Kind())
		}
		return true
	})
	assert.Equal(t, []string{"if_statement", "while_statement", "for_statement"}, kinds)
}
