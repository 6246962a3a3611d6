package reflector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden test format.
type goldenFile struct {
	Diagnostics []goldenDiag `json:"diagnostics"`
	References  []goldenRef  `json:"references,omitempty"`
}

type goldenDiag struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Code string `json:"code"`
}

type goldenRef struct {
	From goldenLoc `json:"from"`
	To   goldenLoc `json:"to"`
}

type goldenLoc struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// TestGolden walks testdata/{language}/{level}/ and checks every file in
// src/ against golden.json: the exact set of diagnostics, and that each
// listed use resolves to the listed definition.
func TestGolden(t *testing.T) {
	langDirs, err := os.ReadDir("testdata")
	if err != nil {
		t.Skip("no testdata directory found")
	}
	e := newTestEngine(t)

	for _, langDir := range langDirs {
		if !langDir.IsDir() {
			continue
		}
		lang := langDir.Name()
		langRoot := filepath.Join("testdata", lang)
		levels, err := os.ReadDir(langRoot)
		if err != nil {
			continue
		}

		for _, level := range levels {
			if !level.IsDir() {
				continue
			}
			testDir := filepath.Join(langRoot, level.Name())
			goldenPath := filepath.Join(testDir, "golden.json")
			srcDir := filepath.Join(testDir, "src")
			if _, err := os.Stat(goldenPath); err != nil {
				continue
			}

			t.Run(lang+"/"+level.Name(), func(t *testing.T) {
				t.Parallel()
				runGoldenTest(t, e, lang, srcDir, goldenPath)
			})
		}
	}
}

func runGoldenTest(t *testing.T, e *Engine, lang, srcDir, goldenPath string) {
	t.Helper()

	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(goldenData, &golden))

	entries, err := os.ReadDir(srcDir)
	require.NoError(t, err)

	actual := []goldenDiag{}
	analyses := make(map[string]*Analysis)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		a, err := e.AnalyzeFile(context.Background(), filepath.Join(srcDir, entry.Name()))
		require.NoError(t, err)
		t.Cleanup(a.Close)
		require.Equal(t, lang, a.Language)
		analyses[entry.Name()] = a

		for _, f := range a.Findings() {
			actual = append(actual, goldenDiag{File: entry.Name(), Line: f.Line, Col: f.Col, Code: f.Code})
		}
	}

	t.Run("diagnostics", func(t *testing.T) {
		assert.ElementsMatch(t, golden.Diagnostics, actual)
	})

	if len(golden.References) > 0 {
		t.Run("references", func(t *testing.T) {
			for _, ref := range golden.References {
				a := analyses[ref.From.File]
				require.NotNil(t, a, "no source file %s", ref.From.File)

				defs, err := a.DefinitionsAt(a.Offset(ref.From.Line, ref.From.Col))
				if !assert.NoError(t, err, "use at %d:%d", ref.From.Line, ref.From.Col) {
					continue
				}
				var got []goldenLoc
				for _, l := range a.Locate(defs) {
					got = append(got, goldenLoc{Line: l.Line, Col: l.Col})
				}
				assert.Contains(t, got, goldenLoc{Line: ref.To.Line, Col: ref.To.Col},
					"use at %d:%d", ref.From.Line, ref.From.Col)
			}
		})
	}
}
