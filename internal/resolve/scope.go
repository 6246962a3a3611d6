package resolve

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/roles"
	"github.com/jward/reflector/internal/span"
	"github.com/jward/reflector/internal/syntax"
)

// ScopeNode is a node whose type opens a scope.
type ScopeNode struct {
	Node *sitter.Node
	Role *roles.Scope
	snap *Snapshot
}

func (sc *ScopeNode) Range() span.Range { return span.Of(sc.Node) }

// Equal reports whether both wrappers denote the same node.
func (sc *ScopeNode) Equal(other *ScopeNode) bool {
	return other != nil && syntax.Same(sc.Node, other.Node)
}

// Parent computes the enclosing scope; nil at the root.
func (sc *ScopeNode) Parent() *ScopeNode { return sc.snap.enclosing(sc.Node, ownsAny) }

// Governs reports whether names of namespace ns are resolved here.
func (sc *ScopeNode) Governs(ns string) bool { return sc.Role.Governs(ns) }

func (sc *ScopeNode) matchDefinition(n *sitter.Node) (*DefinitionNode, bool) {
	d := sc.snap.Definition(n)
	return d, d != nil
}

func (sc *ScopeNode) matchUse(n *sitter.Node) (*UseNode, bool) {
	u := sc.snap.Use(n)
	return u, u != nil
}

// headerDefinitions returns the definitions a nested scope contributes to
// its parent.
func (sc *ScopeNode) headerDefinitions() []*DefinitionNode {
	return searchHeader(sc.snap, sc, sc.Role.DefinitionPaths, sc.matchDefinition, (*ScopeNode).headerDefinitions)
}

func (sc *ScopeNode) headerUses() []*UseNode {
	return searchHeader(sc.snap, sc, sc.Role.UsePaths, sc.matchUse, (*ScopeNode).headerUses)
}

// AllDefinitions returns the definitions owned by this scope, in source
// order. Definitions inside nested scopes are excluded, except for those
// in a nested scope's header.
func (sc *ScopeNode) AllDefinitions() []*DefinitionNode {
	return sc.snap.cachedDefinitions(sc, func() []*DefinitionNode {
		return searchTree(sc.snap, sc.Node, sc.Role.DefinitionPaths, sc.matchDefinition, (*ScopeNode).headerDefinitions)
	})
}

// DefinitionsNamed returns the same-named peers in this scope.
func (sc *ScopeNode) DefinitionsNamed(name, ns string) []*DefinitionNode {
	var out []*DefinitionNode
	for _, d := range sc.AllDefinitions() {
		if d.Name() == name && d.Role.NS() == ns {
			out = append(out, d)
		}
	}
	return out
}

// UsesDirectlyInThisScope returns the uses owned by this scope, excluding
// anything inside nested scopes except their headers.
func (sc *ScopeNode) UsesDirectlyInThisScope() []*UseNode {
	return searchTree(sc.snap, sc.Node, sc.Role.UsePaths, sc.matchUse, (*ScopeNode).headerUses)
}

// AllUses returns every use under the scope's use paths, including those
// inside nested scopes.
func (sc *ScopeNode) AllUses() []*UseNode {
	return searchTree(sc.snap, sc.Node, sc.Role.UsePaths, sc.matchUse, (*ScopeNode).everyUse)
}

func (sc *ScopeNode) everyUse() []*UseNode {
	var out []*UseNode
	syntax.Walk(sc.Node, func(n *sitter.Node) bool {
		if u := sc.snap.Use(n); u != nil {
			out = append(out, u)
		}
		return true
	})
	return out
}

// AvailableIdentifiers returns every name defined in this scope or any
// enclosing one, without regard to position.
func (sc *ScopeNode) AvailableIdentifiers() []string {
	set := make(map[string]struct{})
	for s := sc; s != nil; s = s.Parent() {
		for _, d := range s.AllDefinitions() {
			set[d.Name()] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NestedDefinitions returns the definitions of name that live in scopes
// strictly inside this one.
func (sc *ScopeNode) NestedDefinitions(name, ns string) []*DefinitionNode {
	var out []*DefinitionNode
	syntax.Walk(sc.Node, func(n *sitter.Node) bool {
		d := sc.snap.Definition(n)
		if d == nil || d.Name() != name || d.Role.NS() != ns {
			return true
		}
		if owner := d.Scope(); owner != nil && sc.strictlyEncloses(owner) {
			out = append(out, d)
		}
		return true
	})
	return out
}

// strictlyEncloses reports whether other is a descendant scope of sc.
func (sc *ScopeNode) strictlyEncloses(other *ScopeNode) bool {
	for p := other.Parent(); p != nil; p = p.Parent() {
		if p.Equal(sc) {
			return true
		}
	}
	return false
}
