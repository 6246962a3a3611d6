package resolve

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"

	"github.com/jward/reflector/internal/roles"
	"github.com/jward/reflector/internal/syntax"
)

type roleSpec struct {
	kind     roles.Kind
	selector string
	encoded  string
}

var jsRoles = []roleSpec{
	{roles.KindScope, "program", "namespaces:identifier label"},
	{roles.KindScope, "function_declaration", "namespaces:identifier label,definitions:formal_parameters statement_block,uses:formal_parameters statement_block"},
	{roles.KindScope, "arrow_function", "namespaces:identifier label"},
	{roles.KindUse, "identifier", ""},
	{roles.KindDefinition, "function_declaration.name > identifier", "wholeScope,kind:function"},
	{roles.KindDefinition, "formal_parameters > identifier", "wholeScope,kind:parameter"},
	{roles.KindDefinition, "arrow_function.parameter > identifier", "wholeScope,kind:parameter"},
	{roles.KindDefinition, "variable_declarator.name > identifier", "wholeScope,kind:variable"},
	{roles.KindDefinition, "lexical_declaration > variable_declarator.name > identifier", "kind:variable"},
	{roles.KindNone, "assignment_expression.left > identifier", ""},
	{roles.KindDefinition, "labeled_statement.label > statement_identifier", "namespace:label"},
	{roles.KindUse, "break_statement.label > statement_identifier", "namespace:label"},
}

var pyRoles = []roleSpec{
	{roles.KindScope, "module", ""},
	{roles.KindScope, "function_definition", "definitions:parameters block,uses:parameters block"},
	{roles.KindUse, "identifier", ""},
	{roles.KindDefinition, "function_definition.name > identifier", "wholeScope,kind:function"},
	{roles.KindDefinition, "parameters > identifier", "wholeScope,kind:parameter"},
	{roles.KindDefinition, "assignment.left > identifier", "overridePrevious,kind:variable"},
}

func buildRegistry(t *testing.T, specs []roleSpec) *roles.Registry {
	t.Helper()
	reg := roles.NewRegistry()
	for _, s := range specs {
		require.NoError(t, reg.AddEncoded(s.kind, s.selector, s.encoded), s.selector)
	}
	return reg
}

func snapshot(t *testing.T, lang, src string, specs []roleSpec, opts ...Option) *Snapshot {
	t.Helper()
	doc, err := syntax.Parse(context.Background(), lang, "test", []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return New(doc, buildRegistry(t, specs), opts...)
}

func jsSnapshot(t *testing.T, src string, opts ...Option) *Snapshot {
	t.Helper()
	return snapshot(t, "javascript", src, jsRoles, opts...)
}

func pySnapshot(t *testing.T, src string, opts ...Option) *Snapshot {
	t.Helper()
	s := snapshot(t, "python", src, pyRoles, opts...)
	s.Registry.AddBuiltins("print")
	return s
}

// nth returns the nth node (0-based, source order) of the given type whose
// text is text.
func nth(t *testing.T, s *Snapshot, typ, text string, n int) *sitter.Node {
	t.Helper()
	var found *sitter.Node
	seen := 0
	syntax.Walk(s.Doc.Root(), func(node *sitter.Node) bool {
		if found != nil {
			return false
		}
		if node.Type() == typ && s.Text(node) == text {
			if seen == n {
				found = node
			}
			seen++
		}
		return true
	})
	require.NotNil(t, found, "%s %q #%d", typ, text, n)
	return found
}

func firstOfType(t *testing.T, s *Snapshot, typ string) *sitter.Node {
	t.Helper()
	var found *sitter.Node
	syntax.Walk(s.Doc.Root(), func(node *sitter.Node) bool {
		if found == nil && node.Type() == typ {
			found = node
		}
		return found == nil
	})
	require.NotNil(t, found, typ)
	return found
}

func def(t *testing.T, s *Snapshot, typ, text string, n int) *DefinitionNode {
	t.Helper()
	d := s.Definition(nth(t, s, typ, text, n))
	require.NotNil(t, d, "%q #%d is not a definition", text, n)
	return d
}

func use(t *testing.T, s *Snapshot, typ, text string, n int) *UseNode {
	t.Helper()
	u := s.Use(nth(t, s, typ, text, n))
	require.NotNil(t, u, "%q #%d is not a use", text, n)
	return u
}

func names[T interface{ Name() string }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name())
	}
	return out
}

func containsDef(defs []*DefinitionNode, want *DefinitionNode) bool {
	for _, d := range defs {
		if d.Range() == want.Range() && d.Name() == want.Name() {
			return true
		}
	}
	return false
}

func containsUse(uses []*UseNode, want *UseNode) bool {
	for _, u := range uses {
		if u.Range() == want.Range() && u.Name() == want.Name() {
			return true
		}
	}
	return false
}
