package resolve

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/roles"
	"github.com/jward/reflector/internal/span"
	"github.com/jward/reflector/internal/syntax"
)

// UseNode is a node that refers to a name.
type UseNode struct {
	Node *sitter.Node
	Role *roles.Use
	snap *Snapshot
}

// Name is the identifier text, normalized for comparison.
func (u *UseNode) Name() string { return u.snap.name(u.Node) }

func (u *UseNode) Range() span.Range { return span.Of(u.Node) }

func (u *UseNode) Equal(other *UseNode) bool {
	return other != nil && syntax.Same(u.Node, other.Node)
}

// Scope returns the scope the use is resolved from.
func (u *UseNode) Scope() *ScopeNode { return u.snap.enclosing(u.Node, ownsUses) }

// IsBuiltin reports whether the name is predeclared by the language.
func (u *UseNode) IsBuiltin() bool { return u.snap.Registry.IsBuiltin(u.Name()) }

// MatchingDefinitions resolves the use. Scopes are searched innermost
// first and the first scope with a visible same-named definition wins.
// An empty result means the name is undefined.
func (u *UseNode) MatchingDefinitions() []*DefinitionNode {
	name, ns := u.Name(), u.Role.NS()
	at := u.Range()
	return searchParentScopes(u.Scope(), func(sc *ScopeNode) ([]*DefinitionNode, bool) {
		if !sc.Governs(ns) {
			return nil, false
		}
		peers := sc.DefinitionsNamed(name, ns)
		if len(peers) == 0 {
			return nil, false
		}
		var out []*DefinitionNode
		for _, d := range peers {
			if d.visibleAt(at, peers) {
				out = append(out, d)
			}
		}
		return out, u.snap.earlyUse == EarlyUseStop
	})
}
