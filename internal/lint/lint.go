// Package lint runs structural checks over a parsed document. Rules are
// keyed by node type, with separate rule sets for syntax-error nodes and
// for every node, plus whole-tree checks that run once per pass.
package lint

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/resolve"
	"github.com/jward/reflector/internal/syntax"
)

// Diagnostic codes produced by the built-in checks.
const (
	CodeUnusedDefinition    = "unused-definition"
	CodeUndefinedUse        = "undefined-use"
	CodeDuplicateDefinition = "duplicate-definition"
	CodeSyntaxError         = "syntax-error"
	CodeCustom              = "custom"
)

// DefaultSyntaxErrorMessage is reported for error nodes no rule claims.
const DefaultSyntaxErrorMessage = "Syntax error"

// Check inspects the node held by a Context and records diagnostics.
type Check func(*Context)

// TreeCheck runs once per pass over the whole snapshot.
type TreeCheck func(ctx context.Context, snap *resolve.Snapshot, report func(Diagnostic)) error

// Mode selects how a rule set combines its rules.
type Mode uint8

const (
	// ModeAll runs every rule.
	ModeAll Mode = iota
	// ModeFirst stops after the first rule that reported anything.
	ModeFirst
)

func (m Mode) String() string {
	if m == ModeFirst {
		return "first"
	}
	return "all"
}

// ParseMode accepts "all" and "first"; empty means all.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "all":
		return ModeAll, nil
	case "first":
		return ModeFirst, nil
	}
	return ModeAll, fmt.Errorf("lint: mode %q: unknown", s)
}

// Rule applies its checks in order when the node's ancestors match
// Context (innermost first, "" matches any type).
type Rule struct {
	Code    string
	Context []string
	Checks  []Check
}

// RuleSet is an ordered list of rules combined under Mode.
type RuleSet struct {
	Mode  Mode
	Rules []Rule
}

// Spec is the full rule registry for a language.
type Spec struct {
	NodeTypes map[string]*RuleSet
	// ErrorNodes replaces the type-specific rules on syntax-error nodes.
	ErrorNodes *RuleSet
	// AllNodes runs on every node in addition to the other rules.
	AllNodes *RuleSet
	Tree     []TreeCheck
	// SyntaxErrorMessage is reported on error nodes when no error rule
	// fires. Empty means DefaultSyntaxErrorMessage.
	SyntaxErrorMessage string
}

// All builds a rule set that runs every rule.
func All(rules ...Rule) *RuleSet { return &RuleSet{Mode: ModeAll, Rules: rules} }

// First builds a rule set that stops at the first rule that reports.
func First(rules ...Rule) *RuleSet { return &RuleSet{Mode: ModeFirst, Rules: rules} }

// When builds a rule that only applies under the given ancestor path.
func When(context []string, checks ...Check) Rule { return Rule{Context: context, Checks: checks} }

// Do builds an unconditional rule.
func Do(checks ...Check) Rule { return Rule{Checks: checks} }

// Run lints the snapshot in one pre-order pass and returns the
// diagnostics in source order. It fails only on cancellation or when a
// check calls Fail.
func Run(ctx context.Context, snap *resolve.Snapshot, spec *Spec) ([]Diagnostic, error) {
	var out []Diagnostic
	var runErr error

	syntax.Walk(snap.Doc.Root(), func(n *sitter.Node) bool {
		if runErr != nil {
			return false
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			return false
		}

		if syntax.IsError(n) {
			c := NewContext(ctx, snap, n)
			if spec.ErrorNodes != nil {
				spec.ErrorNodes.run(c)
			}
			if !c.HasDiagnostics() && c.Err() == nil {
				c.Emit(SeverityError, CodeSyntaxError, spec.syntaxErrorMessage())
			}
			out = append(out, c.Diagnostics()...)
			runErr = c.Err()
		} else if rs := spec.NodeTypes[n.Type()]; rs != nil {
			c := NewContext(ctx, snap, n)
			rs.run(c)
			out = append(out, c.Diagnostics()...)
			runErr = c.Err()
		}

		if spec.AllNodes != nil && runErr == nil {
			c := NewContext(ctx, snap, n)
			spec.AllNodes.run(c)
			out = append(out, c.Diagnostics()...)
			runErr = c.Err()
		}
		return runErr == nil
	})
	if runErr != nil {
		return nil, runErr
	}

	report := func(d Diagnostic) { out = append(out, d) }
	for _, tc := range spec.Tree {
		if err := tc(ctx, snap, report); err != nil {
			return nil, fmt.Errorf("lint: tree check: %w", err)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out, nil
}

func (s *Spec) syntaxErrorMessage() string {
	if s.SyntaxErrorMessage != "" {
		return s.SyntaxErrorMessage
	}
	return DefaultSyntaxErrorMessage
}

func (rs *RuleSet) run(c *Context) {
	for _, r := range rs.Rules {
		if len(r.Context) > 0 && !syntax.MatchContext(c.node, r.Context) {
			continue
		}
		before := len(c.diagnostics)
		c.code = r.Code
		if c.code == "" {
			c.code = CodeCustom
		}
		for _, check := range r.Checks {
			check(c)
			if c.err != nil {
				return
			}
		}
		if rs.Mode == ModeFirst && len(c.diagnostics) > before {
			return
		}
	}
}
