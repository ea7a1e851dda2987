package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEnqueueFlags(t *testing.T) {
	opts, err := parseEnqueueFlags([]string{
		"-config", "cfg.json",
		"-auth", "StaticToken(tok)",
		"-file", "flights/a.json",
		"-file", "flights/b.json",
		"-debug",
	})
	require.NoError(t, err)
	require.Equal(t, "cfg.json", opts.ConfigPath)
	require.Equal(t, "StaticToken(tok)", opts.AuthSpec)
	require.Equal(t, []string{"flights/a.json", "flights/b.json"}, opts.InputFiles)
	require.True(t, opts.Debug)
}

func TestParseEnqueueFlagsRequiresConfig(t *testing.T) {
	_, err := parseEnqueueFlags([]string{"-debug"})
	require.Error(t, err)
}

func TestReadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"locale":"en"}`), 0o600))

	raw, err := readConfigJSON(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"locale":"en"}`, string(raw))

	_, err = readConfigJSON(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestRequireRunID(t *testing.T) {
	id, err := requireRunID("status", []string{"-id", "run-42"})
	require.NoError(t, err)
	require.Equal(t, "run-42", id)

	id, err = requireRunID("status", []string{"run-99"})
	require.NoError(t, err)
	require.Equal(t, "run-99", id)

	_, err = requireRunID("status", nil)
	require.Error(t, err)
}
