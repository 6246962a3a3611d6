// Package roles assigns semantic roles to syntax node types. A node is a
// Scope, a Definition, a Use, or nothing; the role is a pure function of
// the node's type and its ancestor chain, looked up in a Registry.
package roles

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultNamespace is the identifier class used when none is declared.
const DefaultNamespace = "identifier"

var (
	ErrUnknownKey  = errors.New("unknown role key")
	ErrBadSelector = errors.New("bad selector")
	ErrBadValue    = errors.New("bad role value")
)

// Kind discriminates the role variants.
type Kind uint8

const (
	KindNone Kind = iota
	KindScope
	KindDefinition
	KindUse
)

func (k Kind) String() string {
	switch k {
	case KindScope:
		return "scope"
	case KindDefinition:
		return "definition"
	case KindUse:
		return "use"
	default:
		return "none"
	}
}

// ParseKind maps "scope", "definition" and "use" to their Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "scope", "scopes":
		return KindScope, nil
	case "definition", "definitions":
		return KindDefinition, nil
	case "use", "uses":
		return KindUse, nil
	case "none", "ignore":
		return KindNone, nil
	}
	return KindNone, fmt.Errorf("roles: kind %q: %w", s, ErrBadValue)
}

// Role is one of *Scope, *Definition or *Use. A nil Role means the node
// plays no part in name resolution.
type Role interface {
	Kind() Kind
	String() string
}

// Scope marks a node type that opens a naming scope.
type Scope struct {
	// Namespaces lists the identifier classes this scope governs.
	Namespaces []string
	// DefinitionPaths restricts the child types searched for
	// definitions. Nil searches every child.
	DefinitionPaths []string
	// UsePaths restricts the child types searched for uses. Nil
	// searches every child.
	UsePaths []string
}

func (*Scope) Kind() Kind { return KindScope }

// Governs reports whether the scope holds names of namespace ns.
func (s *Scope) Governs(ns string) bool {
	if len(s.Namespaces) == 0 {
		return ns == DefaultNamespace
	}
	return slices.Contains(s.Namespaces, ns)
}

// Owns reports whether a direct child of the given type belongs to this
// scope rather than to the enclosing one.
func (s *Scope) Owns(childType string) bool {
	if s.DefinitionPaths == nil && s.UsePaths == nil {
		return true
	}
	return s.OwnsDefinitions(childType) || s.OwnsUses(childType)
}

// OwnsDefinitions reports whether definitions under a child of the given
// type are searched in this scope.
func (s *Scope) OwnsDefinitions(childType string) bool {
	return s.DefinitionPaths == nil || slices.Contains(s.DefinitionPaths, childType)
}

// OwnsUses reports whether uses under a child of the given type are
// searched in this scope.
func (s *Scope) OwnsUses(childType string) bool {
	return s.UsePaths == nil || slices.Contains(s.UsePaths, childType)
}

func (s *Scope) String() string {
	var parts []string
	if s.Namespaces != nil {
		parts = append(parts, "namespaces:"+strings.Join(s.Namespaces, " "))
	}
	if s.DefinitionPaths != nil {
		parts = append(parts, "definitions:"+strings.Join(s.DefinitionPaths, " "))
	}
	if s.UsePaths != nil {
		parts = append(parts, "uses:"+strings.Join(s.UsePaths, " "))
	}
	return strings.Join(parts, ",")
}

// Definition marks a node type whose text introduces a name.
type Definition struct {
	Namespace string
	// OverridePrevious lets a later same-named definition in the same
	// scope supersede this one from its position onward.
	OverridePrevious bool
	// WholeScope makes the definition visible across its entire scope,
	// including text before it.
	WholeScope bool
	// Category is a free-form label such as "function" or "variable",
	// reported with completions.
	Category string
}

func (*Definition) Kind() Kind { return KindDefinition }

func (d *Definition) NS() string { return nsOrDefault(d.Namespace) }

func (d *Definition) String() string {
	var parts []string
	if d.Namespace != "" {
		parts = append(parts, "namespace:"+d.Namespace)
	}
	if d.OverridePrevious {
		parts = append(parts, "overridePrevious:true")
	}
	if d.WholeScope {
		parts = append(parts, "wholeScope:true")
	}
	if d.Category != "" {
		parts = append(parts, "kind:"+d.Category)
	}
	return strings.Join(parts, ",")
}

// Use marks a node type whose text refers to a name.
type Use struct {
	Namespace string
}

func (*Use) Kind() Kind { return KindUse }

func (u *Use) NS() string { return nsOrDefault(u.Namespace) }

func (u *Use) String() string {
	if u.Namespace == "" {
		return ""
	}
	return "namespace:" + u.Namespace
}

func nsOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// Parse decodes the flat "key:v1 v2,key2:v1" encoding into a role of the
// given kind. A key with no colon is shorthand for "key:true".
func Parse(kind Kind, s string) (Role, error) {
	fields, err := splitFields(s)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindScope:
		sc := &Scope{}
		for _, f := range fields {
			switch f.key {
			case "namespaces", "namespace":
				sc.Namespaces = f.values
			case "definitions":
				sc.DefinitionPaths = f.values
			case "uses":
				sc.UsePaths = f.values
			default:
				return nil, fmt.Errorf("roles: scope key %q: %w", f.key, ErrUnknownKey)
			}
		}
		return sc, nil
	case KindDefinition:
		d := &Definition{}
		for _, f := range fields {
			switch f.key {
			case "namespace":
				d.Namespace = f.single()
			case "overridePrevious":
				if d.OverridePrevious, err = f.bool(); err != nil {
					return nil, err
				}
			case "wholeScope":
				if d.WholeScope, err = f.bool(); err != nil {
					return nil, err
				}
			case "kind":
				d.Category = f.single()
			default:
				return nil, fmt.Errorf("roles: definition key %q: %w", f.key, ErrUnknownKey)
			}
		}
		return d, nil
	case KindUse:
		u := &Use{}
		for _, f := range fields {
			switch f.key {
			case "namespace":
				u.Namespace = f.single()
			default:
				return nil, fmt.Errorf("roles: use key %q: %w", f.key, ErrUnknownKey)
			}
		}
		return u, nil
	case KindNone:
		if len(fields) > 0 {
			return nil, fmt.Errorf("roles: none takes no keys: %w", ErrUnknownKey)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("roles: kind %d: %w", kind, ErrBadValue)
}

type field struct {
	key    string
	values []string
	bare   bool
}

func (f field) single() string {
	if len(f.values) == 0 {
		return ""
	}
	return f.values[0]
}

func (f field) bool() (bool, error) {
	if f.bare {
		return true, nil
	}
	b, err := strconv.ParseBool(f.single())
	if err != nil {
		return false, fmt.Errorf("roles: %s=%q: %w", f.key, f.single(), ErrBadValue)
	}
	return b, nil
}

func splitFields(s string) ([]field, error) {
	var out []field
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, rest, hasColon := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("roles: %q: %w", part, ErrUnknownKey)
		}
		f := field{key: key, bare: !hasColon}
		if hasColon {
			f.values = strings.Fields(rest)
			if f.values == nil {
				f.values = []string{}
			}
		}
		out = append(out, f)
	}
	return out, nil
}
