package profile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/resolve"
	"github.com/jward/reflector/internal/syntax"
	"github.com/jward/reflector/profiles"
)

func compiled(t *testing.T, lang string) *Language {
	t.Helper()
	ps, err := Load(profiles.FS)
	require.NoError(t, err)
	p, ok := ps[lang]
	require.True(t, ok, lang)
	l, err := p.Compile(nil)
	require.NoError(t, err)
	return l
}

func lintSource(t *testing.T, l *Language, src string) ([]lint.Diagnostic, *resolve.Snapshot) {
	t.Helper()
	doc, err := syntax.Parse(context.Background(), l.Name, "test", []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	snap := resolve.New(doc, l.Registry)
	diags, err := lint.Run(context.Background(), snap, l.Spec)
	require.NoError(t, err)
	return diags, snap
}

func TestLoadEmbedded(t *testing.T) {
	t.Parallel()

	ps, err := Load(profiles.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "python", "typescript"}, Names(ps))

	for _, name := range Names(ps) {
		_, err := ps[name].Compile(nil)
		assert.NoError(t, err, name)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "language: javascript\nflavour: sour\n"},
		{"missing language", "roles: []\n"},
		{"unsupported language", "language: cobol\n"},
		{"two role kinds", "language: javascript\nroles:\n  - scope: program\n    use: identifier\n"},
		{"no role kind", "language: javascript\nroles:\n  - with: wholeScope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}

	_, err := Parse([]byte("language: cobol\n"))
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.ErrorIs(t, err, syntax.ErrUnsupportedLanguage)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"bad selector", "language: javascript\nroles:\n  - scope: \"a > \"\n"},
		{"bad role field", "language: javascript\nroles:\n  - definition: identifier\n    with: \"colour:red\"\n"},
		{"bad normalization", "language: javascript\nnormalize: nfd\n"},
		{"unknown check", "language: javascript\nrules:\n  identifier:\n    rules:\n      - checks:\n          - check: spelling\n"},
		{"bad severity", "language: javascript\nrules:\n  identifier:\n    rules:\n      - checks:\n          - check: unused\n            severity: loud\n"},
		{"bad mode", "language: javascript\nall_rules:\n  mode: some\n  rules: []\n"},
		{"script without runtime", "language: javascript\nrules:\n  identifier:\n    rules:\n      - checks:\n          - check: script\n            script: x.risor\n"},
		{"ambiguous action", "language: javascript\nrules:\n  identifier:\n    rules:\n      - checks:\n          - check: unused\n            actions:\n              - remove: a\n                insert_before: b\n                label: both\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = p.Compile(nil)
			assert.Error(t, err)
		})
	}
}

func TestScriptResolver(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte("language: javascript\nrules:\n  comment:\n    rules:\n      - code: no-comment\n        checks:\n          - check: script\n            script: comments.risor\n"))
	require.NoError(t, err)

	var asked []string
	l, err := p.Compile(func(name string) (lint.Check, error) {
		asked = append(asked, name)
		return lint.Info("found a comment"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"comments.risor"}, asked)

	diags, _ := lintSource(t, l, "// hello\nconsole.log(1);\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "no-comment", diags[0].Code)
	assert.Equal(t, "found a comment", diags[0].Message)
	assert.Equal(t, lint.SeverityInfo, diags[0].Severity)
}

func TestJavaScriptProfile(t *testing.T) {
	t.Parallel()

	l := compiled(t, "javascript")
	src := "function f(a){ var c; c = a; return c; } var c;"
	diags, snap := lintSource(t, l, src)

	require.Len(t, diags, 2)
	var got []string
	for _, d := range diags {
		got = append(got, string(snap.Doc.Source[d.From:d.To]))
		assert.Equal(t, lint.CodeUnusedDefinition, d.Code)
		assert.Equal(t, lint.SeverityHint, d.Severity)
		require.Len(t, d.Actions, 1)
	}
	assert.Equal(t, []string{"f", "c"}, got)
	assert.Equal(t, "Delete unused function", diags[0].Actions[0].Label)
	assert.Equal(t, "Delete unused variable", diags[1].Actions[0].Label)
	assert.Equal(t, uint32(strings.LastIndex(src, "c")), diags[1].From)
}

func TestJavaScriptUndefinedCall(t *testing.T) {
	t.Parallel()

	l := compiled(t, "javascript")
	diags, _ := lintSource(t, l, "helper();\n")
	require.Len(t, diags, 1)
	assert.Equal(t, lint.CodeUndefinedUse, diags[0].Code)
	assert.Equal(t, "'helper' has not been defined", diags[0].Message)
	require.Len(t, diags[0].Actions, 1)
	assert.Equal(t, "Create function", diags[0].Actions[0].Label)
}

func TestPythonProfile(t *testing.T) {
	t.Parallel()

	l := compiled(t, "python")
	diags, snap := lintSource(t, l, "import os\nx = 1\nprint(x)\nprint(y)\n")

	require.Len(t, diags, 2)
	assert.Equal(t, "os", string(snap.Doc.Source[diags[0].From:diags[0].To]))
	assert.Equal(t, lint.CodeUnusedDefinition, diags[0].Code)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
	assert.Equal(t, lint.CodeUndefinedUse, diags[1].Code)
	assert.Equal(t, "'y' has not been defined", diags[1].Message)
}

func TestTypeScriptNamespaces(t *testing.T) {
	t.Parallel()

	l := compiled(t, "typescript")
	diags, _ := lintSource(t, l, "type Id = number;\nconst Id: Id = 1;\nconsole.log(Id);\n")
	assert.Empty(t, diags)
}

func TestLoadDirOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js.yaml"), []byte("language: javascript\ndescription: custom\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	extra, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, extra, 1)

	base, err := Load(profiles.FS)
	require.NoError(t, err)
	merged := Merge(base, extra)
	assert.Equal(t, "custom", merged["javascript"].Description)
	assert.Contains(t, merged, "python")
}

func TestLoadReportsFile(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"broken.yaml": {Data: []byte("language: [\n")}}
	_, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}
