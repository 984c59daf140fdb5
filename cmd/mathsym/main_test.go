package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathsym/mathsym/internal/history"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, envFile, outputFormat = "", "", "text"

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRenderCommand(t *testing.T) {
	out, err := execute(t, "render", `\alpha`, `\to`, `\infty`)
	require.NoError(t, err)
	assert.Equal(t, "α → ∞\n", out)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "confidence_threshold: 0.8")

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err)

	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)
	forceInit = false
}

func TestLabelsAudit(t *testing.T) {
	dir := t.TempDir()
	labelsPath := writeFile(t, dir, "labels.json",
		`{"31": {"latex": "\\alpha", "unicode": "α"}, "36": {"latex": "\\beta"}}`)
	mappingPath := writeFile(t, dir, "reverse_mapping.json", `{"0": 31, "1": 36}`)
	cfg := writeFile(t, dir, "config.yaml", fmt.Sprintf(
		"model:\n  labels_path: %s\n  mapping_path: %s\n", labelsPath, mappingPath))

	out, err := execute(t, "--config", cfg, "labels", "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "resolved:         2")

	broken := writeFile(t, dir, "broken_mapping.json", `{"0": 31, "1": 36, "2": 400}`)
	cfg = writeFile(t, dir, "broken.yaml", fmt.Sprintf(
		"model:\n  labels_path: %s\n  mapping_path: %s\n", labelsPath, broken))

	out, err = execute(t, "--config", cfg, "-o", "json", "labels", "audit")
	assert.Error(t, err)

	var report struct {
		Unresolved []int `json:"unresolved_indices"`
	}
	require.NoError(t, json.Unmarshal([]byte(out[:bytes.LastIndexByte([]byte(out), '}')+1]), &report))
	assert.Equal(t, []int{2}, report.Unresolved)
}

func TestHistoryList(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "history.db")

	store, err := history.Open(history.DriverSQLite, dsn, nil)
	require.NoError(t, err)
	_, err = store.Insert(context.Background(), history.Record{Text: "∂", LaTeX: `\partial`, Confidence: 0.91})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	cfg := writeFile(t, dir, "config.yaml", fmt.Sprintf("history:\n  dsn: %s\n", dsn))

	out, err := execute(t, "--config", cfg, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "∂")
	assert.Contains(t, out, `\partial`)
	assert.Contains(t, out, "0.91")
}
