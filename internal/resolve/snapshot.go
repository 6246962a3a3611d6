// Package resolve implements static name resolution over a parsed
// document. Scope, definition and use wrappers are derived views over
// tree-sitter nodes: nothing is stored on the tree and every relationship
// is recomputed by walking ancestors, so a Snapshot stays valid for as
// long as its document does and is discarded with it.
package resolve

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/roles"
	"github.com/jward/reflector/internal/span"
	"github.com/jward/reflector/internal/syntax"
)

// EarlyUse selects what happens when a scope has same-named definitions
// but none of them is visible at the use, e.g. a use before an
// overriding assignment.
type EarlyUse int

const (
	// EarlyUseStop ends the search: the use is undefined.
	EarlyUseStop EarlyUse = iota
	// EarlyUseFallthrough keeps searching the enclosing scopes.
	EarlyUseFallthrough
)

func (e EarlyUse) String() string {
	if e == EarlyUseFallthrough {
		return "fallthrough"
	}
	return "stop"
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithEarlyUse sets the early-use policy.
func WithEarlyUse(p EarlyUse) Option {
	return func(s *Snapshot) { s.earlyUse = p }
}

// Snapshot pairs one parsed document with the role registry of its
// language. All queries are read-only and safe for concurrent use: the
// document's node cache is filled at parse time and mu guards the
// per-scope definition cache.
type Snapshot struct {
	Doc      *syntax.Document
	Registry *roles.Registry

	earlyUse EarlyUse

	mu   sync.Mutex
	defs map[nodeKey][]*DefinitionNode
}

type nodeKey struct {
	from, to uint32
	typ      string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{from: n.StartByte(), to: n.EndByte(), typ: n.Type()}
}

// New builds a snapshot over doc.
func New(doc *syntax.Document, reg *roles.Registry, opts ...Option) *Snapshot {
	s := &Snapshot{
		Doc:      doc,
		Registry: reg,
		defs:     make(map[nodeKey][]*DefinitionNode),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Snapshot) EarlyUse() EarlyUse { return s.earlyUse }

// Text returns the source text of n.
func (s *Snapshot) Text(n *sitter.Node) string { return s.Doc.Text(n) }

func (s *Snapshot) name(n *sitter.Node) string { return s.Registry.Name(s.Doc.Text(n)) }

// Scope wraps n if its type opens a scope.
func (s *Snapshot) Scope(n *sitter.Node) *ScopeNode {
	if sc := s.Registry.ScopeOf(n); sc != nil {
		return &ScopeNode{Node: n, Role: sc, snap: s}
	}
	return nil
}

// Definition wraps n if it defines a name.
func (s *Snapshot) Definition(n *sitter.Node) *DefinitionNode {
	if d := s.Registry.DefinitionOf(n); d != nil {
		return &DefinitionNode{Node: n, Role: d, snap: s}
	}
	return nil
}

// Use wraps n if it refers to a name.
func (s *Snapshot) Use(n *sitter.Node) *UseNode {
	if u := s.Registry.UseOf(n); u != nil {
		return &UseNode{Node: n, Role: u, snap: s}
	}
	return nil
}

// Root returns the scope opened by the root node, if any.
func (s *Snapshot) Root() *ScopeNode { return s.Scope(s.Doc.Root()) }

type ownership int

const (
	ownsAny ownership = iota
	ownsDefinitions
	ownsUses
)

// enclosing walks strict ancestors of n and returns the first scope that
// owns the branch n sits in. A scope with path whitelists only owns the
// listed child types; its other children, such as a function's name,
// belong to the scope around it.
func (s *Snapshot) enclosing(n *sitter.Node, which ownership) *ScopeNode {
	child := n
	for p := n.Parent(); p != nil; child, p = p, p.Parent() {
		sc := s.Scope(p)
		if sc == nil {
			continue
		}
		var owned bool
		switch which {
		case ownsDefinitions:
			owned = sc.Role.OwnsDefinitions(child.Type())
		case ownsUses:
			owned = sc.Role.OwnsUses(child.Type())
		default:
			owned = sc.Role.Owns(child.Type())
		}
		if owned {
			return sc
		}
	}
	return nil
}

// ScopeOf returns the scope n belongs to.
func (s *Snapshot) ScopeOf(n *sitter.Node) *ScopeNode { return s.enclosing(n, ownsAny) }

// ScopeAt returns the innermost scope whose owned text contains pos.
func (s *Snapshot) ScopeAt(pos uint32) *ScopeNode {
	n := syntax.Resolve(s.Doc.Root(), pos, 0)
	if n == nil {
		return s.Root()
	}
	if sc := s.Scope(n); sc != nil {
		return sc
	}
	if sc := s.ScopeOf(n); sc != nil {
		return sc
	}
	return s.Root()
}

// AllDefinitions returns every definition in the document, in source
// order.
func (s *Snapshot) AllDefinitions() []*DefinitionNode {
	var out []*DefinitionNode
	syntax.Walk(s.Doc.Root(), func(n *sitter.Node) bool {
		if d := s.Definition(n); d != nil {
			out = append(out, d)
		}
		return true
	})
	return out
}

// AllUses returns every use in the document, in source order.
func (s *Snapshot) AllUses() []*UseNode {
	var out []*UseNode
	syntax.Walk(s.Doc.Root(), func(n *sitter.Node) bool {
		if u := s.Use(n); u != nil {
			out = append(out, u)
		}
		return true
	})
	return out
}

// DefinitionsByName groups every definition in the document by name.
func (s *Snapshot) DefinitionsByName() map[string][]*DefinitionNode {
	out := make(map[string][]*DefinitionNode)
	for _, d := range s.AllDefinitions() {
		out[d.Name()] = append(out[d.Name()], d)
	}
	return out
}

// VisibleDefinitions lists the definitions visible at pos, innermost scope
// first. A name shadowed by an inner scope is reported once, for the inner
// definition.
func (s *Snapshot) VisibleDefinitions(pos uint32) []*DefinitionNode {
	at := span.Range{From: pos, To: pos}
	seen := make(map[string]bool)
	var out []*DefinitionNode
	for sc := s.ScopeAt(pos); sc != nil; sc = sc.Parent() {
		byName := make(map[string][]*DefinitionNode)
		var order []string
		for _, d := range sc.AllDefinitions() {
			if _, ok := byName[d.Name()]; !ok {
				order = append(order, d.Name())
			}
			byName[d.Name()] = append(byName[d.Name()], d)
		}
		for _, name := range order {
			if seen[name] {
				continue
			}
			peers := byName[name]
			for _, d := range peers {
				if d.visibleAt(at, peers) {
					out = append(out, d)
					seen[name] = true
					break
				}
			}
		}
	}
	return out
}

func (s *Snapshot) cachedDefinitions(sc *ScopeNode, build func() []*DefinitionNode) []*DefinitionNode {
	k := keyOf(sc.Node)
	s.mu.Lock()
	defs, ok := s.defs[k]
	s.mu.Unlock()
	if ok {
		return defs
	}
	defs = build()
	s.mu.Lock()
	s.defs[k] = defs
	s.mu.Unlock()
	return defs
}
