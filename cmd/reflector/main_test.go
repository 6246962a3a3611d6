package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/reflector"
	"github.com/jward/reflector/internal/lint"
)

func TestValidateFlags(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("yaml"))

	for _, c := range []string{"auto", "on", "off"} {
		assert.NoError(t, validateColor(c))
	}
	assert.Error(t, validateColor("always"))
}

func TestParseIntArg(t *testing.T) {
	t.Parallel()

	n, err := parseIntArg("12", "line")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseIntArg("-1", "line")
	assert.ErrorContains(t, err, "non-negative")
	_, err = parseIntArg("x", "col")
	assert.ErrorContains(t, err, `invalid col "x"`)
}

func TestWriteExcerpt(t *testing.T) {
	t.Parallel()

	src := []byte("let 名前 = x;\n\tfoo(bar);\n")
	tests := []struct {
		name string
		f    CLIFinding
		want string
	}{
		{
			name: "after wide characters",
			f:    CLIFinding{Line: 0, Col: 13, From: 13, To: 14},
			want: "   1 | let 名前 = x;\n     |            ^\n",
		},
		{
			name: "wide range",
			f:    CLIFinding{Line: 0, Col: 4, From: 4, To: 10},
			want: "   1 | let 名前 = x;\n     |     ^~~~\n",
		},
		{
			name: "tab indented",
			f:    CLIFinding{Line: 1, Col: 5, From: 20, To: 23},
			want: "   2 | \tfoo(bar);\n     | \t    ^~~\n",
		},
		{
			name: "empty range",
			f:    CLIFinding{Line: 1, Col: 1, From: 16, To: 16},
			want: "   2 | \tfoo(bar);\n     | \t^\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			writeExcerpt(&buf, newPalette(false), src, tt.f)
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	writeExcerpt(&buf, newPalette(false), src, CLIFinding{Line: 40})
	assert.Empty(t, buf.String())
}

func TestSummarizeAndFormat(t *testing.T) {
	t.Parallel()

	results := []reflector.FileResult{
		{
			Path:   "a.js",
			Source: []byte("x;\n"),
			Findings: []reflector.Finding{{
				Diagnostic: lint.Diagnostic{From: 0, To: 1, Severity: lint.SeverityError, Code: lint.CodeUndefinedUse, Message: "'x' has not been defined"},
			}},
		},
		{
			Path:   "b.js",
			Cached: true,
			Source: []byte("var y;\n"),
			Findings: []reflector.Finding{{
				Diagnostic: lint.Diagnostic{From: 4, To: 5, Severity: lint.SeverityHint, Code: lint.CodeUnusedDefinition, Message: "'y' is never used",
					Actions: []lint.Action{lint.Remove("variable_declaration", "Delete unused variable")}},
				Col: 4,
			}},
		},
		{Path: "c.js", Source: []byte("")},
	}

	summary, sources := summarize(results)
	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 1, summary.Cached)
	assert.Equal(t, map[string]int{"error": 1, "hint": 1}, summary.Counts)
	require.Len(t, summary.Findings, 2)
	assert.Equal(t, []string{"Delete unused variable"}, summary.Findings[1].Fixes)
	assert.Len(t, sources, 2)

	var buf bytes.Buffer
	require.NoError(t, outputResultText(&buf, CLIResult{Results: textLint{summary: summary, sources: sources}}, false))
	assert.Equal(t, "a.js:1:1: error undefined-use: 'x' has not been defined\n"+
		"   1 | x;\n"+
		"     | ^\n"+
		"b.js:1:5: hint unused-definition: 'y' is never used\n"+
		"   1 | var y;\n"+
		"     |     ^\n"+
		"    fix: Delete unused variable\n"+
		"\n2 problems (1 error, 1 hint) in 3 files\n", buf.String())

	buf.Reset()
	clean, _ := summarize(results[2:])
	require.NoError(t, outputResultText(&buf, CLIResult{Results: textLint{summary: clean}}, false))
	assert.Equal(t, "1 file checked, no problems\n", buf.String())
}

func TestOutputResultText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, outputResultText(&buf, CLIResult{Results: []CLILocation{
		{File: "a.js", Line: 0, Col: 9, Text: "add", Kind: "definition"},
	}}, false))
	assert.Equal(t, "a.js:1:10  add  definition\n", buf.String())

	buf.Reset()
	require.NoError(t, outputResultText(&buf, CLIResult{Results: textFix{source: []byte("fixed\n")}}, false))
	assert.Equal(t, "fixed\n", buf.String())

	buf.Reset()
	require.NoError(t, outputResultText(&buf, CLIResult{Results: textFix{
		fix:     CLIFix{File: "a.js", Applied: []string{"Delete unused variable"}, Written: true},
		summary: true,
	}}, false))
	assert.Equal(t, "a.js: Delete unused variable\n1 fix applied, 0 remaining\n", buf.String())

	assert.Error(t, outputResultText(&buf, CLIResult{Results: 42}, false))
}

func TestPlural(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", plural("error", 1))
	assert.Equal(t, "errors", plural("error", 2))
	assert.Equal(t, "fixes", plural("fix", 0))
}
