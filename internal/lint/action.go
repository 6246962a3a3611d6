package lint

import (
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/span"
	"github.com/jward/reflector/internal/syntax"
)

// ActionKind discriminates quick-fix actions.
type ActionKind uint8

const (
	ActionRemove ActionKind = iota + 1
	ActionInsertBefore
)

func (k ActionKind) String() string {
	switch k {
	case ActionRemove:
		return "remove"
	case ActionInsertBefore:
		return "insert_before"
	}
	return "unknown"
}

// Action is a quick fix described as data. It names node types rather
// than nodes, so it can be resolved against whichever snapshot is current
// when it is applied.
type Action struct {
	Kind  ActionKind `json:"kind" msgpack:"k"`
	Label string     `json:"label" msgpack:"l"`
	// Locator is the node type to remove, or the anchor type to insert
	// before. Both are found by walking up from the diagnostic's node.
	// Alternatives are separated by "|": "return_statement|expression_statement".
	Locator string `json:"locator" msgpack:"t"`
	// Template is the inserted text; "$$" stands for the diagnostic
	// node's text.
	Template string `json:"template,omitempty" msgpack:"x,omitempty"`
}

// Remove deletes the nearest enclosing node of type locator.
func Remove(locator, label string) Action {
	return Action{Kind: ActionRemove, Label: label, Locator: locator}
}

// InsertBefore inserts template ahead of the nearest enclosing node of
// type anchor.
func InsertBefore(anchor, template, label string) Action {
	return Action{Kind: ActionInsertBefore, Label: label, Locator: anchor, Template: template}
}

// Edit replaces [From, To) with Text.
type Edit struct {
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
	Text string `json:"text"`
}

// EditSurface applies text replacements.
type EditSurface interface {
	Replace(from, to uint32, text string) error
}

// Resolve computes the edit for a against doc, for a diagnostic that
// covered [from, to). It reports false, and the action is a no-op, when
// the diagnostic's node or the located node no longer exists.
func (a Action) Resolve(doc *syntax.Document, from, to uint32) (Edit, bool) {
	node := nodeCovering(doc.Root(), span.Range{From: from, To: to})
	if node == nil {
		return Edit{}, false
	}
	target := enclosingAny(node, strings.Split(a.Locator, "|"))
	if target == nil {
		return Edit{}, false
	}
	switch a.Kind {
	case ActionRemove:
		return removal(doc.Source, target), true
	case ActionInsertBefore:
		text := strings.ReplaceAll(a.Template, "$$", doc.Text(node))
		return insertion(doc.Source, target, text), true
	}
	return Edit{}, false
}

// Apply resolves a against doc and hands the edit to surface. Actions
// that no longer resolve do nothing.
func (a Action) Apply(surface EditSurface, doc *syntax.Document, from, to uint32) (bool, error) {
	e, ok := a.Resolve(doc, from, to)
	if !ok {
		return false, nil
	}
	if err := surface.Replace(e.From, e.To, e.Text); err != nil {
		return false, fmt.Errorf("lint: apply %s: %w", a.Kind, err)
	}
	return true, nil
}

func enclosingAny(n *sitter.Node, types []string) *sitter.Node {
	for p := n; p != nil; p = p.Parent() {
		if slices.Contains(types, p.Type()) {
			return p
		}
	}
	return nil
}

// nodeCovering returns the innermost node spanning exactly r, or nil when
// the current tree has no such node.
func nodeCovering(root *sitter.Node, r span.Range) *sitter.Node {
	if root == nil || !span.Of(root).Covers(r) {
		return nil
	}
	for n := syntax.Resolve(root, r.From, 1); n != nil; n = n.Parent() {
		got := span.Of(n)
		if got == r {
			return n
		}
		if got.Covers(r) {
			return nil
		}
	}
	return nil
}

// removal deletes target, widening to whole lines when nothing else
// shares them.
func removal(src []byte, target *sitter.Node) Edit {
	from, to := target.StartByte(), target.EndByte()
	lineStart := syntax.LineStart(src, from)
	lineEnd := syntax.LineEnd(src, to)
	if blank(src[lineStart:from]) && blank(src[to:lineEnd]) {
		return Edit{From: lineStart, To: lineEnd}
	}
	return Edit{From: from, To: to}
}

// insertion places text before anchor. When the anchor starts its line,
// the text is inserted at the line start with every line indented like
// the anchor.
func insertion(src []byte, anchor *sitter.Node, text string) Edit {
	at := anchor.StartByte()
	lineStart := syntax.LineStart(src, at)
	if !blank(src[lineStart:at]) {
		return Edit{From: at, To: at, Text: text}
	}
	indent := syntax.Indentation(src, at)
	var b strings.Builder
	for line := range strings.SplitAfterSeq(text, "\n") {
		if strings.TrimSpace(line) != "" {
			b.WriteString(indent)
		}
		b.WriteString(line)
	}
	return Edit{From: lineStart, To: lineStart, Text: b.String()}
}

func blank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			return false
		}
	}
	return true
}

// Buffer is an in-memory EditSurface.
type Buffer struct {
	Source []byte
}

func (b *Buffer) Replace(from, to uint32, text string) error {
	if from > to || int(to) > len(b.Source) {
		return fmt.Errorf("lint: replace [%d,%d) outside %d bytes", from, to, len(b.Source))
	}
	out := make([]byte, 0, len(b.Source)-int(to-from)+len(text))
	out = append(out, b.Source[:from]...)
	out = append(out, text...)
	out = append(out, b.Source[to:]...)
	b.Source = out
	return nil
}
