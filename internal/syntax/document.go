// Package syntax wraps tree-sitter parsing and the node-level helpers the
// resolver and lint engine share: ancestor lookup, context paths, cursor
// resolution and pre-order traversal.
package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned when no grammar is registered for a
// language name.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Document is an immutable snapshot: one parse of one version of a file.
// Edits never mutate a Document; they produce a new one. A parsed
// Document is safe for concurrent reads.
type Document struct {
	Path     string
	Language string
	Source   []byte
	Tree     *sitter.Tree
}

// Parse parses src with the grammar registered for lang.
func Parse(ctx context.Context, lang, path string, src []byte) (*Document, error) {
	grammar, ok := GrammarFor(lang)
	if !ok {
		return nil, fmt.Errorf("syntax: %s: %w", lang, ErrUnsupportedLanguage)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: parse %s: %w", path, err)
	}
	warm(tree.RootNode())
	return &Document{Path: path, Language: lang, Source: src, Tree: tree}, nil
}

// warm reaches every node through each accessor the engine uses. The
// binding memoizes node wrappers in an unguarded map on first access;
// once every node is in it, lookups only read and the tree can be shared
// by concurrent readers.
func warm(n *sitter.Node) {
	n.Parent()
	n.PrevSibling()
	n.NextSibling()
	for i := 0; i < int(n.NamedChildCount()); i++ {
		n.NamedChild(i)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if f := n.FieldNameForChild(i); f != "" {
			n.ChildByFieldName(f)
		}
		if c := n.Child(i); c != nil {
			warm(c)
		}
	}
}

// ParseFile detects the language from the path extension and parses src.
func ParseFile(ctx context.Context, path string, src []byte) (*Document, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("syntax: %s: %w", path, ErrUnsupportedLanguage)
	}
	return Parse(ctx, lang, path, src)
}

// Root returns the root node of the tree.
func (d *Document) Root() *sitter.Node { return d.Tree.RootNode() }

// Text returns the source text covered by n.
func (d *Document) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(d.Source)
}

// Close releases the underlying tree.
func (d *Document) Close() {
	if d.Tree != nil {
		d.Tree.Close()
	}
}

// Point converts a byte offset to a 0-based (row, column) pair, counting
// columns in bytes the way tree-sitter does.
func (d *Document) Point(pos uint32) (row, col int) {
	if int(pos) > len(d.Source) {
		pos = uint32(len(d.Source))
	}
	for i := 0; i < int(pos); i++ {
		if d.Source[i] == '\n' {
			row++
			col = 0
			continue
		}
		col++
	}
	return row, col
}

// Offset converts a 0-based (row, column) pair back to a byte offset.
// Columns past the end of a line clamp to the line end.
func (d *Document) Offset(row, col int) uint32 {
	line := 0
	i := 0
	for i < len(d.Source) && line < row {
		if d.Source[i] == '\n' {
			line++
		}
		i++
	}
	for c := 0; c < col && i < len(d.Source) && d.Source[i] != '\n'; c++ {
		i++
	}
	return uint32(i)
}
