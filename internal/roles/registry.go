package roles

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/text/unicode/norm"

	"github.com/jward/reflector/internal/syntax"
)

// Selector addresses nodes by type and parent chain, written outer to
// inner: "formal_parameters > identifier". A ".field" suffix on a step
// requires the next step to hang off that field:
// "variable_declarator.name > identifier".
type Selector struct {
	raw   string
	steps []step
}

type step struct {
	typ   string
	field string
}

// ParseSelector parses the selector syntax described on Selector.
func ParseSelector(s string) (Selector, error) {
	parts := strings.Split(s, ">")
	sel := Selector{raw: strings.TrimSpace(s)}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		typ, field, _ := strings.Cut(p, ".")
		if typ == "" || strings.ContainsAny(typ, " \t") {
			return Selector{}, fmt.Errorf("roles: selector %q: %w", s, ErrBadSelector)
		}
		if field != "" && i == len(parts)-1 {
			return Selector{}, fmt.Errorf("roles: selector %q: field on last step: %w", s, ErrBadSelector)
		}
		sel.steps = append(sel.steps, step{typ: typ, field: field})
	}
	return sel, nil
}

func (s Selector) String() string { return s.raw }

// Target is the node type the selector finally matches.
func (s Selector) Target() string { return s.steps[len(s.steps)-1].typ }

// Specificity is the number of steps.
func (s Selector) Specificity() int { return len(s.steps) }

// Match reports whether n is addressed by the selector.
func (s Selector) Match(n *sitter.Node) bool {
	cur := n
	last := len(s.steps) - 1
	if cur == nil || cur.Type() != s.steps[last].typ {
		return false
	}
	for i := last - 1; i >= 0; i-- {
		p := cur.Parent()
		if p == nil || p.Type() != s.steps[i].typ {
			return false
		}
		if f := s.steps[i].field; f != "" && !syntax.FieldIs(p, cur, f) {
			return false
		}
		cur = p
	}
	return true
}

// Entry is one registered selector and the role it assigns.
type Entry struct {
	Selector Selector
	Role     Role
	order    int
}

// Normalization names how identifier text is folded before comparison.
type Normalization string

const (
	NormalizeNone Normalization = ""
	NormalizeNFC  Normalization = "nfc"
	NormalizeNFKC Normalization = "nfkc"
)

// Registry maps selectors to roles. Lookups pick the most specific
// matching selector; ties go to the earliest registration.
type Registry struct {
	byTarget  map[string][]Entry
	count     int
	builtins  map[string]struct{}
	normalize Normalization
}

func NewRegistry() *Registry {
	return &Registry{
		byTarget: make(map[string][]Entry),
		builtins: make(map[string]struct{}),
	}
}

// Add registers role for the selector. A nil role marks matching nodes
// as explicitly role-less, overriding less specific selectors.
func (r *Registry) Add(selector string, role Role) error {
	sel, err := ParseSelector(selector)
	if err != nil {
		return err
	}
	e := Entry{Selector: sel, Role: role, order: r.count}
	r.count++
	list := append(r.byTarget[sel.Target()], e)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Selector.Specificity() > list[j].Selector.Specificity()
	})
	r.byTarget[sel.Target()] = list
	return nil
}

// AddEncoded parses the flat role encoding and registers it.
func (r *Registry) AddEncoded(kind Kind, selector, encoded string) error {
	role, err := Parse(kind, encoded)
	if err != nil {
		return fmt.Errorf("roles: %s %q: %w", kind, selector, err)
	}
	return r.Add(selector, role)
}

// RoleOf returns the role of n, or nil. Missing nodes never carry a role.
func (r *Registry) RoleOf(n *sitter.Node) Role {
	if n == nil || n.IsMissing() {
		return nil
	}
	for _, e := range r.byTarget[n.Type()] {
		if e.Selector.Match(n) {
			return e.Role
		}
	}
	return nil
}

func (r *Registry) ScopeOf(n *sitter.Node) *Scope {
	s, _ := r.RoleOf(n).(*Scope)
	return s
}

func (r *Registry) DefinitionOf(n *sitter.Node) *Definition {
	d, _ := r.RoleOf(n).(*Definition)
	return d
}

func (r *Registry) UseOf(n *sitter.Node) *Use {
	u, _ := r.RoleOf(n).(*Use)
	return u
}

// Entries returns every registration in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, r.count)
	for _, list := range r.byTarget {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// AddBuiltins declares names that resolve everywhere without a
// definition in the tree.
func (r *Registry) AddBuiltins(names ...string) {
	for _, n := range names {
		r.builtins[r.Name(n)] = struct{}{}
	}
}

func (r *Registry) IsBuiltin(name string) bool {
	_, ok := r.builtins[r.Name(name)]
	return ok
}

// Builtins returns the declared builtin names, sorted.
func (r *Registry) Builtins() []string {
	out := make([]string, 0, len(r.builtins))
	for n := range r.builtins {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// SetNormalization selects how identifier text is folded.
func (r *Registry) SetNormalization(n Normalization) error {
	switch n {
	case NormalizeNone, NormalizeNFC, NormalizeNFKC:
		r.normalize = n
		return nil
	}
	return fmt.Errorf("roles: normalization %q: %w", n, ErrBadValue)
}

// Name folds identifier text into the form used for comparison.
func (r *Registry) Name(text string) string {
	switch r.normalize {
	case NormalizeNFC:
		return norm.NFC.String(text)
	case NormalizeNFKC:
		return norm.NFKC.String(text)
	}
	return text
}
