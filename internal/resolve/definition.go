package resolve

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/roles"
	"github.com/jward/reflector/internal/span"
	"github.com/jward/reflector/internal/syntax"
)

// DefinitionNode is a node that introduces a name.
type DefinitionNode struct {
	Node *sitter.Node
	Role *roles.Definition
	snap *Snapshot
}

// Name is the identifier text, normalized for comparison.
func (d *DefinitionNode) Name() string { return d.snap.name(d.Node) }

func (d *DefinitionNode) Range() span.Range { return span.Of(d.Node) }

func (d *DefinitionNode) Equal(other *DefinitionNode) bool {
	return other != nil && syntax.Same(d.Node, other.Node)
}

// Scope returns the scope the definition belongs to.
func (d *DefinitionNode) Scope() *ScopeNode { return d.snap.enclosing(d.Node, ownsDefinitions) }

// Peers returns the same-named definitions of the owning scope, this one
// included.
func (d *DefinitionNode) Peers() []*DefinitionNode {
	sc := d.Scope()
	if sc == nil {
		return nil
	}
	return sc.DefinitionsNamed(d.Name(), d.Role.NS())
}

// WithinScope reports whether this definition is the active binding at
// node, given the same-named definitions of its scope in source order.
func (d *DefinitionNode) WithinScope(node *sitter.Node, peers []*DefinitionNode) bool {
	return d.visibleAt(span.Of(node), peers)
}

func (d *DefinitionNode) visibleAt(at span.Range, peers []*DefinitionNode) bool {
	self := d.Range()
	if !d.Role.OverridePrevious {
		return d.Role.WholeScope || !at.Before(self)
	}
	if at.Before(self) {
		return false
	}
	if next := d.nextPeer(peers); next != nil {
		return at.Before(next.Range())
	}
	return true
}

// nextPeer is the earliest peer positioned after d.
func (d *DefinitionNode) nextPeer(peers []*DefinitionNode) *DefinitionNode {
	self := d.Range()
	for _, p := range peers {
		if self.Before(p.Range()) {
			return p
		}
	}
	return nil
}

// Overrides reports whether d supersedes other: d may override previous
// definitions and other comes before it.
func (d *DefinitionNode) Overrides(other *DefinitionNode) bool {
	return d.Role.OverridePrevious &&
		d.Name() == other.Name() &&
		other.Range().Before(d.Range())
}

// MatchingUses returns the uses that resolve to this definition.
func (d *DefinitionNode) MatchingUses() []*UseNode {
	sc := d.Scope()
	if sc == nil {
		return nil
	}
	name, ns := d.Name(), d.Role.NS()
	var out []*UseNode
	for _, u := range sc.AllUses() {
		if u.Name() != name || u.Role.NS() != ns {
			continue
		}
		for _, m := range u.MatchingDefinitions() {
			if m.Equal(d) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// ConflictingDefinitions returns the other same-named definitions of the
// scope that are still in effect at d's own position. Only redefinition
// order is considered, not declaration position, so the relation is not
// symmetric: after Python `x = 1; def x(): ...` the assignment conflicts
// with the function but not the other way round.
func (d *DefinitionNode) ConflictingDefinitions() []*DefinitionNode {
	peers := d.Peers()
	at := d.Range()
	var out []*DefinitionNode
	for _, p := range peers {
		if !p.Equal(d) && p.activeAt(at, peers) {
			out = append(out, p)
		}
	}
	return out
}

// activeAt applies only the redefinition rule: a definition that does not
// override is active throughout its scope, an overriding one from its end
// up to the next same-named peer.
func (d *DefinitionNode) activeAt(at span.Range, peers []*DefinitionNode) bool {
	if !d.Role.OverridePrevious {
		return true
	}
	return d.visibleAt(at, peers)
}

// InScopeRanges returns the text where d is the active binding for its
// name, before accounting for shadowing by nested scopes.
func (d *DefinitionNode) InScopeRanges() []span.Range {
	sc := d.Scope()
	if sc == nil {
		return nil
	}
	whole := sc.Range()
	self := d.Range()
	if !d.Role.OverridePrevious {
		if d.Role.WholeScope {
			return []span.Range{whole}
		}
		return nonEmpty(span.Range{From: self.From, To: whole.To})
	}
	end := whole.To
	if next := d.nextPeer(d.Peers()); next != nil {
		end = next.Range().From
	}
	return nonEmpty(span.Range{From: self.To, To: end})
}

// InScopeRangesWithoutShadows removes from InScopeRanges the regions
// where a nested scope redefines the same name.
func (d *DefinitionNode) InScopeRangesWithoutShadows() []span.Range {
	ranges := d.InScopeRanges()
	sc := d.Scope()
	if sc == nil || len(ranges) == 0 {
		return ranges
	}
	var shadows []span.Range
	for _, nested := range sc.NestedDefinitions(d.Name(), d.Role.NS()) {
		shadows = append(shadows, nested.InScopeRanges()...)
	}
	if len(shadows) == 0 {
		return ranges
	}
	return span.SubtractFromAll(ranges, shadows)
}

func nonEmpty(r span.Range) []span.Range {
	if r.Empty() {
		return nil
	}
	return []span.Range{r}
}
