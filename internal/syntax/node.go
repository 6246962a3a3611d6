package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Same reports whether a and b denote the same node. Nodes are compared by
// position and type so the check survives wrapper re-creation.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// IsError reports whether n is a syntax-error node: an ERROR node produced
// by error recovery, or a zero-width node the parser inserted.
func IsError(n *sitter.Node) bool {
	return n != nil && (n.Type() == "ERROR" || n.IsMissing())
}

// Children returns every direct child of n, named or not.
func Children(n *sitter.Node) []*sitter.Node {
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// EnclosingNodeOfType returns n or its nearest ancestor of the given type,
// or nil.
func EnclosingNodeOfType(n *sitter.Node, typeName string) *sitter.Node {
	for p := n; p != nil; p = p.Parent() {
		if p.Type() == typeName {
			return p
		}
	}
	return nil
}

// ContextPath returns the type names of n's strict ancestors, innermost
// first.
func ContextPath(n *sitter.Node) []string {
	var path []string
	for p := n.Parent(); p != nil; p = p.Parent() {
		path = append(path, p.Type())
	}
	return path
}

// MatchContext reports whether n's ancestors match path, innermost first.
// An empty element matches any type.
func MatchContext(n *sitter.Node, path []string) bool {
	p := n.Parent()
	for _, want := range path {
		if p == nil {
			return false
		}
		if want != "" && p.Type() != want {
			return false
		}
		p = p.Parent()
	}
	return true
}

// FieldIs reports whether child is attached to parent through field.
func FieldIs(parent, child *sitter.Node, field string) bool {
	if parent == nil {
		return false
	}
	return Same(parent.ChildByFieldName(field), child)
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}

// Resolve returns the innermost node at pos. A negative side prefers a
// node ending at pos, a positive side a node starting at pos, and zero
// accepts either.
func Resolve(root *sitter.Node, pos uint32, side int) *sitter.Node {
	if root == nil {
		return nil
	}
	cur := root
	for {
		var next *sitter.Node
		for i := 0; i < int(cur.ChildCount()); i++ {
			c := cur.Child(i)
			if c != nil && enters(c, pos, side) {
				next = c
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

func enters(n *sitter.Node, pos uint32, side int) bool {
	from, to := n.StartByte(), n.EndByte()
	switch {
	case side < 0:
		return from < pos && pos <= to
	case side > 0:
		return from <= pos && pos < to
	default:
		return from <= pos && pos <= to && from < to
	}
}

// LineStart returns the offset of the first byte of the line holding pos.
func LineStart(src []byte, pos uint32) uint32 {
	i := min(int(pos), len(src))
	for i > 0 && src[i-1] != '\n' {
		i--
	}
	return uint32(i)
}

// LineEnd returns the offset just past the newline ending the line that
// holds pos, or len(src) on the last line.
func LineEnd(src []byte, pos uint32) uint32 {
	i := min(int(pos), len(src))
	for i < len(src) && src[i] != '\n' {
		i++
	}
	if i < len(src) {
		i++
	}
	return uint32(i)
}

// Indentation returns the leading whitespace of the line holding pos.
func Indentation(src []byte, pos uint32) string {
	start := LineStart(src, pos)
	end := start
	for int(end) < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}
