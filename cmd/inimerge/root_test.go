package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	rootCmd.SetErr(&bytes.Buffer{})
	return rootCmd.Execute()
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "target.ini", "a=1\n[s]\nb=2\n")
	source := writeTestFile(t, dir, "source.ini", "a=9\n[s]\nb=9\nc=9\n")
	out := filepath.Join(dir, "out.ini")

	err := runCommand(t, "merge", target, source, "--output", out)
	require.NoError(t, err)

	merged, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a=9\n[s]\nb=9\nc=9\n", string(merged))
}

func TestMergeCommand_WithRules(t *testing.T) {
	dir := t.TempDir()
	target := writeTestFile(t, dir, "target.ini", "[s]\nmine=local\nshared=old\n")
	source := writeTestFile(t, dir, "source.ini", "[s]\nmine=template\nshared=new\n")
	rules := writeTestFile(t, dir, "rules.toml", "[[ignore]]\nsection = \"s\"\nkey = \"mine\"\n")
	out := filepath.Join(dir, "out.ini")

	err := runCommand(t, "merge", target, source, "--rules", rules, "--output", out)
	require.NoError(t, err)

	merged, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[s]\nmine=local\nshared=new\n", string(merged))
}

func TestFilterCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeTestFile(t, dir, "input.ini", "[auth]\nuser=me\npassword=hunter2\n")
	rules := writeTestFile(t, dir, "rules.yaml", "replace:\n  - section: auth\n    key: password\n    value: REDACTED\n")
	out := filepath.Join(dir, "out.ini")

	err := runCommand(t, "filter", input, "--rules", rules, "--output", out)
	require.NoError(t, err)

	filtered, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[auth]\nuser=me\npassword=REDACTED\n", string(filtered))
}

func TestMergeCommand_MissingInput(t *testing.T) {
	dir := t.TempDir()
	source := writeTestFile(t, dir, "source.ini", "a=1\n")

	err := runCommand(t, "merge", filepath.Join(dir, "absent.ini"), source)
	require.Error(t, err)
}

func TestFilterCommand_RejectsMergeRules(t *testing.T) {
	dir := t.TempDir()
	input := writeTestFile(t, dir, "input.ini", "a=1\n")
	rules := writeTestFile(t, dir, "rules.toml", "[[ignore]]\nsection = \"s\"\n")

	err := runCommand(t, "filter", input, "--rules", rules)
	require.Error(t, err)
}
