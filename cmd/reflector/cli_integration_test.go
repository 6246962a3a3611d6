package main_test

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the reflector CLI into a temp directory.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "reflector"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "reflector")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot walks up from the test file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "go.mod not found")
		dir = parent
	}
}

// createFixture writes a small mixed-language project.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"app.js":     "function add(a, b) {\n  return a + b;\n}\nvar spare = 1;\nconsole.log(add(1, 2));\n",
		"broken.js":  "missing();\n",
		"lib/mod.py": "import os\n\ndef greet(name):\n    return name\n\ngreet('x')\n",
		"notes.txt":  "not code\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// run executes the CLI in dir and decodes the JSON envelope.
func run(t *testing.T, bin, dir string, args ...string) (map[string]any, int) {
	t.Helper()
	cmd := exec.Command(bin, append([]string{"--format", "json"}, args...)...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	stdout, err := cmd.Output()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else {
		require.NoError(t, err)
	}

	var result map[string]any
	require.NoError(t, json.Unmarshal(stdout, &result), "invalid JSON output: %s", string(stdout))
	return result, code
}

func TestCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	t.Run("lint", func(t *testing.T) {
		dir := createFixture(t)
		result, code := run(t, bin, dir, "lint")
		assert.Equal(t, 1, code)
		assert.Equal(t, "lint", result["command"])
		summary := result["results"].(map[string]any)
		assert.EqualValues(t, 3, summary["files"])
		counts := summary["counts"].(map[string]any)
		assert.EqualValues(t, 1, counts["error"])
		assert.EqualValues(t, 1, counts["hint"])
		assert.EqualValues(t, 1, counts["warning"])
		assert.FileExists(t, filepath.Join(dir, ".reflector", "cache.db"))

		result, _ = run(t, bin, dir, "lint")
		assert.EqualValues(t, 3, result["results"].(map[string]any)["cached"])
	})

	t.Run("lint clean file", func(t *testing.T) {
		dir := createFixture(t)
		result, code := run(t, bin, dir, "lint", "--no-cache", "lib/mod.py")
		assert.Equal(t, 0, code)
		findings := result["results"].(map[string]any)["findings"].([]any)
		require.Len(t, findings, 1)
		assert.Equal(t, "unused-definition", findings[0].(map[string]any)["code"])
		assert.NoDirExists(t, filepath.Join(dir, ".reflector"))
	})

	t.Run("fix", func(t *testing.T) {
		dir := createFixture(t)
		result, code := run(t, bin, dir, "fix", "--write", "app.js")
		require.Equal(t, 0, code)
		fix := result["results"].(map[string]any)
		assert.Equal(t, []any{"Delete unused variable"}, fix["applied"])
		assert.Equal(t, true, fix["written"])
		data, err := os.ReadFile(filepath.Join(dir, "app.js"))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "spare")
	})

	t.Run("definition", func(t *testing.T) {
		dir := createFixture(t)
		// "add" in the call on line 4, column 12 (0-based).
		result, code := run(t, bin, dir, "definition", "app.js", "4", "12")
		require.Equal(t, 0, code)
		locs := result["results"].([]any)
		require.Len(t, locs, 1)
		loc := locs[0].(map[string]any)
		assert.Equal(t, "add", loc["text"])
		assert.EqualValues(t, 0, loc["line"])
		assert.EqualValues(t, 9, loc["col"])
	})

	t.Run("no name at position", func(t *testing.T) {
		dir := createFixture(t)
		result, code := run(t, bin, dir, "uses", "app.js", "--offset", "0")
		assert.Equal(t, 1, code)
		assert.Contains(t, result["error"], "no definition or use")
	})

	t.Run("languages", func(t *testing.T) {
		result, code := run(t, bin, t.TempDir(), "languages")
		require.Equal(t, 0, code)
		assert.Len(t, result["results"], 3)
	})
}
