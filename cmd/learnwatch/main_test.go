package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/export"
)

// setupConfigDir writes a learnwatch.yml pointing at a fresh data directory
// and clears the environment overrides.
func setupConfigDir(t *testing.T, extra string) string {
	t.Helper()
	for _, k := range []string{
		config.EnvOpenAIKey, config.EnvProvider, config.EnvOllamaHost, config.EnvStudentID,
		config.EnvDataDir, config.EnvLogMode, config.EnvPytestBinary,
	} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	yml := "studentId: tester\n" +
		"dataDir: " + filepath.Join(dir, "data") + "\n" +
		"llm:\n  provider: none\n" + extra
	require.NoError(t, os.WriteFile(filepath.Join(dir, "learnwatch.yml"), []byte(yml), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	dir := setupConfigDir(t, "")

	out, err := execute(t, "--config-dir", dir, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestStatus_NewLearner(t *testing.T) {
	dir := setupConfigDir(t, "")

	out, err := execute(t, "--config-dir", dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Student tester")
	assert.Contains(t, out, "No attempts recorded yet.")
	assert.Contains(t, out, "Not practiced yet: loops")
}

func TestExport_WritesJSON(t *testing.T) {
	dir := setupConfigDir(t, "")

	out, err := execute(t, "--config-dir", dir, "export")
	require.NoError(t, err)

	var data export.LearnerExport
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "tester", data.StudentID)
	assert.Empty(t, data.Sessions)

	file := filepath.Join(t.TempDir(), "learner.json")
	_, err = execute(t, "--config-dir", dir, "export", "-o", file)
	require.NoError(t, err)
	_, err = os.Stat(file)
	assert.NoError(t, err)
}

func TestGraph_FromFile(t *testing.T) {
	dir := setupConfigDir(t, "")

	out, err := execute(t, "--config-dir", dir, "graph", "../../testdata/fixtures/python/inventory.py")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "subgraph sg_function")
	assert.Contains(t, out, "-->|CALLS|")
}

func TestGraph_Errors(t *testing.T) {
	dir := setupConfigDir(t, "")

	_, err := execute(t, "--config-dir", dir, "graph", "../../testdata/fixtures/python/broken.py")
	assert.Error(t, err, "syntax error")

	_, err = execute(t, "--config-dir", dir, "graph", "--stored", "../../testdata/fixtures/python/inventory.py")
	assert.ErrorContains(t, err, "no graph stored")

	_, err = execute(t, "--config-dir", dir, "graph")
	assert.Error(t, err, "missing argument")
}

func TestInvalidConfig(t *testing.T) {
	dir := setupConfigDir(t, "logMode: loud\n")

	_, err := execute(t, "--config-dir", dir, "status")
	assert.Error(t, err)
}

func TestWatch_MissingPath(t *testing.T) {
	dir := setupConfigDir(t, "")

	_, err := execute(t, "--config-dir", dir, "watch", filepath.Join(dir, "nope.py"))
	assert.ErrorContains(t, err, "cannot watch")
}
