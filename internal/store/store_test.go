package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/reflector/internal/lint"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func testResult(path, hash string, diags ...Diagnostic) *Result {
	return &Result{
		File:        File{Path: path, Language: "javascript", Hash: hash, LastLinted: time.Now().Truncate(time.Second)},
		Diagnostics: diags,
	}
}

func diag(from, to uint32, code string) Diagnostic {
	return Diagnostic{StartByte: from, EndByte: to, Severity: "error", Code: code, Message: code + " here"}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())

	for _, table := range []string{"files", "diagnostics", "metadata"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	res := testResult("/a.js", "abc123")
	f := &res.File
	require.NoError(t, s.SaveResult(res))
	require.Positive(t, f.ID)

	got, err := s.FileByPath("/a.js")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "abc123", got.Hash)
	assert.True(t, f.LastLinted.Equal(got.LastLinted))

	missing, err := s.FileByPath("/nope.js")
	require.NoError(t, err)
	assert.Nil(t, missing)

	py := testResult("/b.py", "def456")
	py.File.Language = "python"
	require.NoError(t, s.SaveResult(py))

	js, err := s.FilesByLanguage("javascript")
	require.NoError(t, err)
	require.Len(t, js, 1)
	assert.Equal(t, "/a.js", js[0].Path)

	all, err := s.Files()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/a.js", all[0].Path)
}

func TestSaveResult_ReplacesDiagnostics(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	first := diag(0, 3, lint.CodeUnusedDefinition)
	first.Actions = []lint.Action{lint.Remove("variable_declaration", "Delete unused variable")}
	require.NoError(t, s.SaveResult(testResult("/a.js", "h1", first, diag(5, 6, lint.CodeUndefinedUse))))

	f, err := s.FileByPath("/a.js")
	require.NoError(t, err)
	diags, err := s.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, lint.CodeUnusedDefinition, diags[0].Code)
	assert.Equal(t, first.Actions, diags[0].Actions)
	assert.Nil(t, diags[1].Actions)

	require.NoError(t, s.SaveResult(testResult("/a.js", "h2", diag(1, 2, lint.CodeSyntaxError))))

	again, err := s.FileByPath("/a.js")
	require.NoError(t, err)
	assert.Equal(t, f.ID, again.ID)
	assert.Equal(t, "h2", again.Hash)

	diags, err = s.DiagnosticsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, lint.CodeSyntaxError, diags[0].Code)
}

func TestCachedResult(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.SaveResult(testResult("/a.js", "h1", diag(4, 5, lint.CodeUndefinedUse))))

	hit, err := s.CachedResult("/a.js", "h1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	require.Len(t, hit.Diagnostics, 1)
	assert.Equal(t, uint32(4), hit.Diagnostics[0].StartByte)

	stale, err := s.CachedResult("/a.js", "h2")
	require.NoError(t, err)
	assert.Nil(t, stale)

	unknown, err := s.CachedResult("/b.js", "h1")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestBatchedStore_CommitBatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore()

	var wg sync.WaitGroup
	for i, path := range []string{"/a.js", "/b.js", "/c.js"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, batch.SaveResult(testResult(path, "h", diag(uint32(i), uint32(i+1), lint.CodeUndefinedUse))))
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, batch.Len())

	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files, "nothing is written before commit")

	require.NoError(t, s.CommitBatch(batch))

	files, err = s.Files()
	require.NoError(t, err)
	require.Len(t, files, 3)

	counts, err := s.CountBySeverity()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"error": 3}, counts)

	byCode, err := s.DiagnosticsByCode(lint.CodeUndefinedUse)
	require.NoError(t, err)
	assert.Len(t, byCode, 3)
}

func TestPruneFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, p := range []string{"/src/a.js", "/src/b.js", "/src/c.js", "/other/d.js"} {
		require.NoError(t, s.SaveResult(testResult(p, "h", diag(0, 1, lint.CodeCustom))))
	}

	n, err := s.PruneFiles("/src/", []string{"/src/b.js"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/other/d.js", files[0].Path)
	assert.Equal(t, "/src/b.js", files[1].Path)

	counts, err := s.CountBySeverity()
	require.NoError(t, err)
	assert.Equal(t, 2, counts["error"])

	custom, err := s.DiagnosticsByCode(lint.CodeCustom)
	require.NoError(t, err)
	assert.Len(t, custom, 2, "pruned files take their diagnostics with them")

	n, err = s.PruneFiles("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("settings_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("settings_hash", "one"))
	require.NoError(t, s.SetMetadata("settings_hash", "two"))
	v, err = s.GetMetadata("settings_hash")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	require.NoError(t, s.SaveResult(testResult("/a.js", "h")))
	require.NoError(t, s.Reset())
	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
	v, err = s.GetMetadata("settings_hash")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	a := ContentHash([]byte("var a;"))
	assert.NotEmpty(t, a)
	assert.Equal(t, a, ContentHash([]byte("var a;")))
	assert.NotEqual(t, a, ContentHash([]byte("var b;")))
	assert.NotEqual(t, ContentHash([]byte("ab"), []byte("c")), ContentHash([]byte("a"), []byte("bc")))
}
