package reflector

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/text/cases"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/resolve"
	"github.com/jward/reflector/internal/roles"
	"github.com/jward/reflector/internal/span"
	"github.com/jward/reflector/internal/syntax"
)

var (
	// ErrNoNode means the position is not on a definition or a use.
	ErrNoNode = errors.New("no definition or use at position")
	// ErrNoAction means the diagnostic has no action at the given index.
	ErrNoAction = errors.New("no such action")
)

// Analysis is one resolved and linted version of a document. Queries
// take byte offsets and answer from this version only.
type Analysis struct {
	Path        string
	Language    string
	Snapshot    *resolve.Snapshot
	Diagnostics []lint.Diagnostic
}

// Close releases the syntax tree.
func (a *Analysis) Close() {
	a.Snapshot.Doc.Close()
}

// Source returns the analyzed text.
func (a *Analysis) Source() []byte { return a.Snapshot.Doc.Source }

// Findings pairs each diagnostic with its start line and column.
func (a *Analysis) Findings() []Finding {
	out := make([]Finding, 0, len(a.Diagnostics))
	for _, d := range a.Diagnostics {
		line, col := a.Snapshot.Doc.Point(d.From)
		out = append(out, Finding{Diagnostic: d, Line: line, Col: col})
	}
	return out
}

// HasErrors reports whether any diagnostic is error severity.
func (a *Analysis) HasErrors() bool {
	for _, d := range a.Diagnostics {
		if d.Severity == lint.SeverityError {
			return true
		}
	}
	return false
}

// target is the definition or use under a cursor.
type target struct {
	def *resolve.DefinitionNode
	use *resolve.UseNode
}

// at finds the named node at pos, preferring the node that ends at pos
// over the one that starts there.
func (a *Analysis) at(pos uint32) (target, error) {
	root := a.Snapshot.Doc.Root()
	for _, side := range []int{-1, 1} {
		n := syntax.Resolve(root, pos, side)
		if n == nil {
			continue
		}
		if d := a.Snapshot.Definition(n); d != nil {
			return target{def: d}, nil
		}
		if u := a.Snapshot.Use(n); u != nil {
			return target{use: u}, nil
		}
	}
	return target{}, fmt.Errorf("reflector: %s at %d: %w", a.Path, pos, ErrNoNode)
}

// definitions returns the definitions the target stands for: itself, or
// what a use resolves to.
func (t target) definitions() []*resolve.DefinitionNode {
	if t.def != nil {
		return []*resolve.DefinitionNode{t.def}
	}
	return t.use.MatchingDefinitions()
}

// DefinitionsAt is go-to-definition.
func (a *Analysis) DefinitionsAt(pos uint32) ([]span.Range, error) {
	t, err := a.at(pos)
	if err != nil {
		return nil, err
	}
	var out []span.Range
	for _, d := range t.definitions() {
		out = append(out, d.Range())
	}
	return out, nil
}

// UsesAt is find-uses. From a use it reports the uses of every
// definition the use resolves to.
func (a *Analysis) UsesAt(pos uint32) ([]span.Range, error) {
	t, err := a.at(pos)
	if err != nil {
		return nil, err
	}
	seen := make(map[span.Range]bool)
	var out []span.Range
	for _, d := range t.definitions() {
		for _, u := range d.MatchingUses() {
			if r := u.Range(); !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	sortRanges(out)
	return out, nil
}

// Highlight kinds.
const (
	HighlightDefinition          = "definition"
	HighlightUse                 = "use"
	HighlightUnmatchedDefinition = "unmatched-definition"
	HighlightUnmatchedUse        = "unmatched-use"
)

type Highlight struct {
	Range span.Range `json:"range"`
	Kind  string     `json:"kind"`
}

// Highlights marks the name under the cursor and its counterparts: a
// definition with its uses, or a use with its definitions.
func (a *Analysis) Highlights(pos uint32) ([]Highlight, error) {
	t, err := a.at(pos)
	if err != nil {
		return nil, err
	}
	var out []Highlight
	if t.def != nil {
		uses := t.def.MatchingUses()
		kind := HighlightDefinition
		if len(uses) == 0 {
			kind = HighlightUnmatchedDefinition
		}
		out = append(out, Highlight{Range: t.def.Range(), Kind: kind})
		for _, u := range uses {
			out = append(out, Highlight{Range: u.Range(), Kind: HighlightUse})
		}
	} else {
		defs := t.use.MatchingDefinitions()
		kind := HighlightUse
		if len(defs) == 0 && !t.use.IsBuiltin() {
			kind = HighlightUnmatchedUse
		}
		out = append(out, Highlight{Range: t.use.Range(), Kind: kind})
		for _, d := range defs {
			out = append(out, Highlight{Range: d.Range(), Kind: HighlightDefinition})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Range.From < out[j].Range.From })
	return out, nil
}

// SelectMatching returns every range a rename at pos must touch: the
// definitions and all of their uses. An unresolved use selects itself.
func (a *Analysis) SelectMatching(pos uint32) ([]span.Range, error) {
	t, err := a.at(pos)
	if err != nil {
		return nil, err
	}
	seen := make(map[span.Range]bool)
	var out []span.Range
	add := func(r span.Range) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	if t.use != nil {
		add(t.use.Range())
	}
	for _, d := range t.definitions() {
		add(d.Range())
		for _, u := range d.MatchingUses() {
			add(u.Range())
		}
	}
	sortRanges(out)
	return out, nil
}

// VisibleRanges is where the definition under the cursor is in effect,
// minus the regions where an inner definition shadows it. From a use it
// reports the first definition the use resolves to.
func (a *Analysis) VisibleRanges(pos uint32) ([]span.Range, error) {
	t, err := a.at(pos)
	if err != nil {
		return nil, err
	}
	defs := t.definitions()
	if len(defs) == 0 {
		return nil, nil
	}
	return defs[0].InScopeRangesWithoutShadows(), nil
}

// Completion is a candidate name at a cursor.
type Completion struct {
	Label string `json:"label"`
	// Kind is the definition category from the profile, or "builtin".
	Kind string `json:"kind,omitempty"`
}

// Completions lists the names visible at pos that start with the word
// before pos, innermost scope first. Prefix matching folds case.
func (a *Analysis) Completions(pos uint32) []Completion {
	src := a.Snapshot.Doc.Source
	pos = min(pos, uint32(len(src)))
	start := wordStart(src, pos)
	prefix := string(src[start:pos])
	folder := cases.Fold()
	fold := func(s string) string { return folder.String(s) }
	want := fold(a.Snapshot.Registry.Name(prefix))

	seen := make(map[string]bool)
	var out []Completion
	for _, d := range a.Snapshot.VisibleDefinitions(pos) {
		r := d.Range()
		if r.From == start && r.To == pos {
			// The word being typed is itself a definition.
			continue
		}
		name := d.Name()
		if seen[name] || !strings.HasPrefix(fold(name), want) {
			continue
		}
		seen[name] = true
		out = append(out, Completion{Label: a.Snapshot.Text(d.Node), Kind: d.Role.Category})
	}
	for _, b := range a.Snapshot.Registry.Builtins() {
		if seen[b] || !strings.HasPrefix(fold(b), want) {
			continue
		}
		seen[b] = true
		out = append(out, Completion{Label: b, Kind: "builtin"})
	}
	return out
}

// wordStart scans back from pos over identifier characters.
func wordStart(src []byte, pos uint32) uint32 {
	i := int(pos)
	for i > 0 {
		r, size := utf8.DecodeLastRune(src[:i])
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i -= size
	}
	return uint32(i)
}

// RoleInfo is a node that carries a role.
type RoleInfo struct {
	Range span.Range `json:"range"`
	Type  string     `json:"type"`
	Kind  string     `json:"kind"`
	Role  string     `json:"role"`
	Text  string     `json:"text,omitempty"`
}

// Roles lists every node with a role in source order. Scope nodes carry
// no text.
func (a *Analysis) Roles() []RoleInfo {
	var out []RoleInfo
	syntax.Walk(a.Snapshot.Doc.Root(), func(n *sitter.Node) bool {
		role := a.Snapshot.Registry.RoleOf(n)
		if role == nil {
			return true
		}
		info := RoleInfo{Range: span.Of(n), Type: n.Type(), Kind: role.Kind().String(), Role: role.String()}
		if role.Kind() != roles.KindScope {
			info.Text = a.Snapshot.Text(n)
		}
		out = append(out, info)
		return true
	})
	return out
}

// ApplyAction resolves the index'th action of d against this analysis
// and hands the edit to surface. It returns false, with no error, when
// the action no longer applies to the current tree.
func (a *Analysis) ApplyAction(surface lint.EditSurface, d lint.Diagnostic, index int) (bool, error) {
	if index < 0 || index >= len(d.Actions) {
		return false, fmt.Errorf("reflector: action %d of %d: %w", index, len(d.Actions), ErrNoAction)
	}
	ok, err := d.Actions[index].Apply(surface, a.Snapshot.Doc, d.From, d.To)
	if err != nil {
		return false, fmt.Errorf("reflector: apply %q: %w", d.Actions[index].Label, err)
	}
	return ok, nil
}

func sortRanges(rs []span.Range) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].From < rs[j].From })
}

// Location is a range with its 0-based start line and column.
type Location struct {
	Range span.Range `json:"range"`
	Line  int        `json:"line"`
	Col   int        `json:"col"`
	Text  string     `json:"text"`
}

// Locate attaches line, column and text to each range.
func (a *Analysis) Locate(rs []span.Range) []Location {
	out := make([]Location, 0, len(rs))
	src := a.Snapshot.Doc.Source
	for _, r := range rs {
		line, col := a.Snapshot.Doc.Point(r.From)
		to := min(int(r.To), len(src))
		from := min(int(r.From), to)
		out = append(out, Location{Range: r, Line: line, Col: col, Text: string(src[from:to])})
	}
	return out
}

// Offset converts a 0-based line and byte column to a byte offset.
func (a *Analysis) Offset(line, col int) uint32 {
	return a.Snapshot.Doc.Offset(line, col)
}
