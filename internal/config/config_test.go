package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/resolve"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
[lint]
disable = ["duplicate-definition"]

[lint.severity]
unused-definition = "warning"

[resolve]
early_use = "fallthrough"

[scripts]
dir = "checks"

[scripts.tree]
javascript = ["no-console.risor"]

[engine]
parallel = false
workers = 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, []string{"duplicate-definition"}, cfg.Lint.Disable)
	assert.Equal(t, "warning", cfg.Lint.Severity["unused-definition"])
	assert.Equal(t, []string{"no-console.risor"}, cfg.Scripts.Tree["javascript"])
	assert.False(t, cfg.Engine.Parallel)
	assert.Equal(t, 3, cfg.Engine.Workers)

	// Unset keys keep their defaults.
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, Defaults().Store.Path, cfg.Store.Path)

	eu, err := cfg.EarlyUse()
	require.NoError(t, err)
	assert.Equal(t, resolve.EarlyUseFallthrough, eu)
	assert.Equal(t, filepath.Join(dir, "checks"), cfg.ResolvePath(cfg.Scripts.Dir))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[lint\n"},
		{"unknown key", "[lint]\ncolour = true\n"},
		{"bad early use", "[resolve]\nearly_use = \"sometimes\"\n"},
		{"bad severity", "[lint.severity]\nundefined-use = \"fatal\"\n"},
		{"empty store path", "[store]\npath = \"\"\n"},
		{"negative workers", "[engine]\nworkers = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, t.TempDir(), tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, t.TempDir(), "[lint]\ncolour = true\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "[store]\nenabled = false\n")
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.False(t, cfg.Store.Enabled)

	path, ok, err := Find(nested)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, FileName), path)
}

func TestDiscoverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Discover(dir)
	require.NoError(t, err)
	// A config file above the temp dir would change this, but the
	// defaults must at least validate and be rooted somewhere.
	assert.NotEmpty(t, cfg.Root)
	assert.NoError(t, Defaults().Validate())
}

func TestAdjust(t *testing.T) {
	t.Parallel()

	diags := []lint.Diagnostic{
		{Code: lint.CodeUnusedDefinition, Severity: lint.SeverityHint},
		{Code: lint.CodeDuplicateDefinition, Severity: lint.SeverityError},
		{Code: lint.CodeUndefinedUse, Severity: lint.SeverityError},
	}

	cfg := Defaults()
	assert.Equal(t, diags, cfg.Adjust(diags))

	cfg.Lint.Disable = []string{lint.CodeDuplicateDefinition}
	cfg.Lint.Severity = map[string]string{lint.CodeUnusedDefinition: "warning"}
	got := cfg.Adjust(diags)
	require.Len(t, got, 2)
	assert.Equal(t, lint.SeverityWarning, got[0].Severity)
	assert.Equal(t, lint.CodeUndefinedUse, got[1].Code)
	assert.Equal(t, lint.SeverityHint, diags[0].Severity, "input untouched")
}

func TestHash(t *testing.T) {
	t.Parallel()

	a := Defaults()
	b := Defaults()
	assert.Equal(t, a.Hash(), b.Hash())

	b.Engine.Workers = 8
	assert.Equal(t, a.Hash(), b.Hash(), "engine settings do not change output")

	b.Lint.Disable = []string{"x", "y"}
	c := Defaults()
	c.Lint.Disable = []string{"y", "x"}
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.Equal(t, b.Hash(), c.Hash(), "disable order is irrelevant")
	assert.Equal(t, []string{"y", "x"}, c.Lint.Disable)

	c.Resolve.EarlyUse = "fallthrough"
	assert.NotEqual(t, b.Hash(), c.Hash())
}
