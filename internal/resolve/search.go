package resolve

import (
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/syntax"
)

// searchTree collects match results under node. Only the whitelisted
// direct children are searched, or all of them when whitelist is nil.
// Descent stops at a nested scope; continuation is called on it instead
// and its results are collected in place. A node that matches is still
// descended into.
func searchTree[T any](
	s *Snapshot,
	node *sitter.Node,
	whitelist []string,
	match func(*sitter.Node) (T, bool),
	continuation func(*ScopeNode) []T,
) []T {
	return collect(s, selectChildren(node, whitelist, true), match, continuation)
}

// searchHeader searches the children of a scope that the scope does not
// own. Those belong to the enclosing scope.
func searchHeader[T any](
	s *Snapshot,
	sc *ScopeNode,
	whitelist []string,
	match func(*sitter.Node) (T, bool),
	continuation func(*ScopeNode) []T,
) []T {
	return collect(s, selectChildren(sc.Node, whitelist, false), match, continuation)
}

func collect[T any](
	s *Snapshot,
	nodes []*sitter.Node,
	match func(*sitter.Node) (T, bool),
	continuation func(*ScopeNode) []T,
) []T {
	var out []T
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if sc := s.Scope(n); sc != nil {
			if continuation != nil {
				out = append(out, continuation(sc)...)
			}
			return
		}
		if v, ok := match(n); ok {
			out = append(out, v)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c != nil {
				visit(c)
			}
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return out
}

// selectChildren returns the children of n whose type is (keep) or is not
// (!keep) in whitelist. A nil whitelist means every child is in it.
func selectChildren(n *sitter.Node, whitelist []string, keep bool) []*sitter.Node {
	all := syntax.Children(n)
	if whitelist == nil {
		if keep {
			return all
		}
		return nil
	}
	var out []*sitter.Node
	for _, c := range all {
		if slices.Contains(whitelist, c.Type()) == keep {
			out = append(out, c)
		}
	}
	return out
}

// searchParentScopes evaluates perScope from start outward and returns the
// first non-empty result. perScope may also end the search early with an
// empty result.
func searchParentScopes[T any](start *ScopeNode, perScope func(*ScopeNode) ([]T, bool)) []T {
	for sc := start; sc != nil; sc = sc.Parent() {
		res, stop := perScope(sc)
		if len(res) > 0 || stop {
			return res
		}
	}
	return nil
}
