package syntax

import (
	"context"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsSource = `function f(a) {
  var c;
  c = a;
  return c;
}
var c;
`

func parseJS(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(context.Background(), "javascript", "test.js", []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"app.js", "javascript", true},
		{"APP.JSX", "javascript", true},
		{"lib.mjs", "javascript", true},
		{"app.ts", "typescript", true},
		{"script.py", "python", true},
		{"main.go", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnsupported(t *testing.T) {
	t.Parallel()

	_, err := Parse(context.Background(), "cobol", "x.cbl", []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = ParseFile(context.Background(), "x.cbl", []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"javascript", "python", "typescript"}, Languages())
	assert.Contains(t, Extensions("python"), ".py")
}

func TestResolve(t *testing.T) {
	t.Parallel()

	doc := parseJS(t, jsSource)
	ret := strings.Index(jsSource, "return c") + len("return ")

	t.Run("end of identifier", func(t *testing.T) {
		t.Parallel()
		n := Resolve(doc.Root(), uint32(ret+1), -1)
		require.NotNil(t, n)
		assert.Equal(t, "identifier", n.Type())
		assert.Equal(t, "c", doc.Text(n))
	})

	t.Run("start of identifier", func(t *testing.T) {
		t.Parallel()
		n := Resolve(doc.Root(), uint32(ret), 1)
		require.NotNil(t, n)
		assert.Equal(t, "identifier", n.Type())
	})

	t.Run("before identifier looking left", func(t *testing.T) {
		t.Parallel()
		n := Resolve(doc.Root(), uint32(ret), -1)
		require.NotNil(t, n)
		assert.NotEqual(t, "identifier", n.Type())
	})
}

func TestEnclosingNodeOfType(t *testing.T) {
	t.Parallel()

	doc := parseJS(t, jsSource)
	id := Resolve(doc.Root(), uint32(strings.Index(jsSource, "a;")), 1)
	require.Equal(t, "identifier", id.Type())

	stmt := EnclosingNodeOfType(id, "expression_statement")
	require.NotNil(t, stmt)
	assert.Equal(t, "c = a;", doc.Text(stmt))

	assert.True(t, Same(id, EnclosingNodeOfType(id, "identifier")))
	assert.Nil(t, EnclosingNodeOfType(id, "class_declaration"))
}

func TestMatchContext(t *testing.T) {
	t.Parallel()

	doc := parseJS(t, jsSource)
	id := Resolve(doc.Root(), uint32(strings.Index(jsSource, "a;")), 1)

	path := ContextPath(id)
	require.GreaterOrEqual(t, len(path), 2)
	assert.Equal(t, "assignment_expression", path[0])
	assert.Equal(t, "expression_statement", path[1])
	assert.Equal(t, "program", path[len(path)-1])

	assert.True(t, MatchContext(id, []string{"assignment_expression"}))
	assert.True(t, MatchContext(id, []string{"", "expression_statement"}))
	assert.False(t, MatchContext(id, []string{"return_statement"}))
	assert.True(t, MatchContext(id, nil))
	assert.False(t, MatchContext(doc.Root(), []string{""}))
}

func TestFieldIs(t *testing.T) {
	t.Parallel()

	doc := parseJS(t, jsSource)
	assign := Resolve(doc.Root(), uint32(strings.Index(jsSource, "c = a")), 1)
	require.Equal(t, "identifier", assign.Type())
	parent := assign.Parent()
	require.Equal(t, "assignment_expression", parent.Type())

	assert.True(t, FieldIs(parent, assign, "left"))
	assert.False(t, FieldIs(parent, assign, "right"))
	assert.False(t, FieldIs(nil, assign, "left"))
}

func TestWalkAndErrors(t *testing.T) {
	t.Parallel()

	doc := parseJS(t, "var x = ;\n")
	var errs int
	var visited int
	Walk(doc.Root(), func(n *sitter.Node) bool {
		visited++
		if IsError(n) {
			errs++
		}
		return true
	})
	assert.Greater(t, visited, 1)
	assert.Positive(t, errs)
	assert.True(t, doc.Root().HasError())

	clean := parseJS(t, jsSource)
	Walk(clean.Root(), func(n *sitter.Node) bool {
		assert.False(t, IsError(n), n.Type())
		return true
	})
}

func TestPointOffset(t *testing.T) {
	t.Parallel()

	doc := parseJS(t, jsSource)
	pos := uint32(strings.Index(jsSource, "return"))
	row, col := doc.Point(pos)
	assert.Equal(t, 3, row)
	assert.Equal(t, 2, col)
	assert.Equal(t, pos, doc.Offset(row, col))
	assert.Equal(t, uint32(strings.LastIndex(jsSource, "var c;\n")+len("var c;")), doc.Offset(5, 99))
}

func TestLineHelpers(t *testing.T) {
	t.Parallel()

	src := []byte("a\n    b = 1\nc")
	pos := uint32(strings.Index(string(src), "b"))
	assert.Equal(t, uint32(2), LineStart(src, pos))
	assert.Equal(t, uint32(12), LineEnd(src, pos))
	assert.Equal(t, "    ", Indentation(src, pos))
	assert.Equal(t, uint32(len(src)), LineEnd(src, uint32(len(src)-1)))
}
