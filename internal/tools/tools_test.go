package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestReadFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "hello\n"})

	out, err := (&ReadFile{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"path": filepath.Join(dir, "a.txt"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	_, err = (&ReadFile{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"path": filepath.Join(dir, "missing.txt"),
	}))
	assert.Error(t, err)
}

func TestReadFile_TruncatesLargeOutput(t *testing.T) {
	dir := writeTree(t, map[string]string{"big.txt": strings.Repeat("x", maxOutputBytes+100)})

	out, err := (&ReadFile{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"path": filepath.Join(dir, "big.txt"),
	}))
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("[output truncated, %d bytes total]", maxOutputBytes+100))
	assert.Less(t, len(out), maxOutputBytes+100)
}

func TestWriteFile_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "deep", "nested", "out.txt")

	out, err := (&WriteFile{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"path":    target,
		"content": "payload",
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 7 bytes")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestEditFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"f.go": "alpha beta alpha"})
	path := filepath.Join(dir, "f.go")
	edit := &EditFile{}

	// ambiguous match without replace_all
	_, err := edit.Execute(context.Background(), mustJSON(t, map[string]any{
		"path": path, "old_string": "alpha", "new_string": "gamma", "replace_all": false,
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "occurs 2 times")

	// unique match
	out, err := edit.Execute(context.Background(), mustJSON(t, map[string]any{
		"path": path, "old_string": "beta", "new_string": "delta", "replace_all": false,
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "replaced 1 occurrence")

	// replace_all
	_, err = edit.Execute(context.Background(), mustJSON(t, map[string]any{
		"path": path, "old_string": "alpha", "new_string": "gamma", "replace_all": true,
	}))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gamma delta gamma", string(data))

	// missing old_string
	_, err = edit.Execute(context.Background(), mustJSON(t, map[string]any{
		"path": path, "old_string": "zeta", "new_string": "eta", "replace_all": false,
	}))
	assert.Error(t, err)
}

func TestGlobToRegexp(t *testing.T) {
	cases := []struct {
		pattern, path string
		match         bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "sub/main.go", false},
		{"**/*.go", "sub/deep/main.go", true},
		{"**/*.go", "main.go", true},
		{"src/**/*.ts", "src/a/b/c.ts", true},
		{"src/**/*.ts", "lib/a.ts", false},
		{"a/**/b", "a/b", true},
		{"a/**/b", "a/x/y/b", true},
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", false},
		{"a.b", "aXb", false},
	}
	for _, c := range cases {
		re, err := globToRegexp(c.pattern)
		require.NoError(t, err, "pattern %s", c.pattern)
		assert.Equal(t, c.match, re.MatchString(c.path), "pattern %s against %s", c.pattern, c.path)
	}
}

func TestGlob(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.go":              "package main",
		"internal/a/a.go":      "package a",
		"internal/a/a_test.go": "package a",
		"README.md":            "# readme",
		".git/config":          "ignored",
	})

	out, err := (&Glob{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"pattern": "**/*.go", "root": dir,
	}))
	require.NoError(t, err)
	got := strings.Split(out, "\n")
	assert.Equal(t, []string{
		filepath.Join("internal", "a", "a.go"),
		filepath.Join("internal", "a", "a_test.go"),
		"main.go",
	}, got)

	out, err = (&Glob{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"pattern": "*.rs", "root": dir,
	}))
	require.NoError(t, err)
	assert.Equal(t, "No files matched.", out)
}

func TestGrep(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go":     "package a\n// TODO: fix this\n",
		"b/b.go":   "package b\nfunc TODOist() {}\n",
		"c.txt":    "nothing here\n",
		".git/cfg": "TODO in git dir is skipped\n",
	})

	out, err := (&Grep{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"pattern": "TODO", "path": dir,
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "a.go:2:")
	assert.Contains(t, out, "b.go:2:")
	assert.NotContains(t, out, ".git")

	out, err = (&Grep{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"pattern": "absent_symbol", "path": dir,
	}))
	require.NoError(t, err)
	assert.Equal(t, "No matches found.", out)

	_, err = (&Grep{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"pattern": "([unbalanced", "path": dir,
	}))
	assert.Error(t, err)
}

func TestShell(t *testing.T) {
	sh := &Shell{}

	out, err := sh.Execute(context.Background(), mustJSON(t, map[string]any{
		"command": "echo hello", "workdir": "",
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "[exit code: 0]")

	// non-zero exit is reported in-band, not as an error
	out, err = sh.Execute(context.Background(), mustJSON(t, map[string]any{
		"command": "echo oops >&2; exit 3", "workdir": "",
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "[stderr]\noops")
	assert.Contains(t, out, "[exit code: 3]")

	_, err = sh.Execute(context.Background(), mustJSON(t, map[string]any{
		"command": "   ", "workdir": "",
	}))
	assert.Error(t, err)
}

func TestShell_Timeout(t *testing.T) {
	_, err := (&Shell{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"command": "sleep 5", "workdir": "", "timeout_ms": 50,
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShell_Workdir(t *testing.T) {
	dir := writeTree(t, map[string]string{"marker.txt": "x"})
	out, err := (&Shell{}).Execute(context.Background(), mustJSON(t, map[string]any{
		"command": "ls", "workdir": dir,
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "marker.txt")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), expandHome("~/x"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate([]byte("short")))
	long := strings.Repeat("a", maxOutputBytes+1)
	got := truncate([]byte(long))
	assert.Equal(t, fmt.Sprintf("%s\n[output truncated, %d bytes total]", long[:maxOutputBytes], len(long)), got)
}
