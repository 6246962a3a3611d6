package lint

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/resolve"
)

// Diagnostic is one finding over the byte range [From, To).
type Diagnostic struct {
	From     uint32   `json:"from"`
	To       uint32   `json:"to"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Actions  []Action `json:"actions,omitempty"`
}

// Context is what a check sees for one node: the node, its text, the
// role wrappers, and the diagnostic helpers.
type Context struct {
	ctx         context.Context
	snap        *resolve.Snapshot
	node        *sitter.Node
	code        string
	diagnostics []Diagnostic
	err         error
}

// NewContext builds a context for node. Run creates these; it is exported
// for callers driving checks directly.
func NewContext(ctx context.Context, snap *resolve.Snapshot, node *sitter.Node) *Context {
	return &Context{ctx: ctx, snap: snap, node: node, code: CodeCustom}
}

func (c *Context) Context() context.Context      { return c.ctx }
func (c *Context) Snapshot() *resolve.Snapshot   { return c.snap }
func (c *Context) Node() *sitter.Node            { return c.node }
func (c *Context) Text() string                  { return c.snap.Text(c.node) }
func (c *Context) ScopeNode() *resolve.ScopeNode { return c.snap.Scope(c.node) }

func (c *Context) DefinitionNode() *resolve.DefinitionNode { return c.snap.Definition(c.node) }

func (c *Context) UseNode() *resolve.UseNode { return c.snap.Use(c.node) }

// Emit records a diagnostic over the node with an explicit code.
func (c *Context) Emit(sev Severity, code, message string, actions ...Action) {
	c.diagnostics = append(c.diagnostics, Diagnostic{
		From:     c.node.StartByte(),
		To:       c.node.EndByte(),
		Severity: sev,
		Code:     code,
		Message:  message,
		Actions:  actions,
	})
}

// Diagnostic records a diagnostic under the running rule's code.
func (c *Context) Diagnostic(sev Severity, message string, actions ...Action) {
	c.Emit(sev, c.code, message, actions...)
}

func (c *Context) Hint(message string, actions ...Action) {
	c.Diagnostic(SeverityHint, message, actions...)
}

func (c *Context) Info(message string, actions ...Action) {
	c.Diagnostic(SeverityInfo, message, actions...)
}

func (c *Context) Warning(message string, actions ...Action) {
	c.Diagnostic(SeverityWarning, message, actions...)
}

func (c *Context) Error(message string, actions ...Action) {
	c.Diagnostic(SeverityError, message, actions...)
}

func (c *Context) Diagnostics() []Diagnostic { return c.diagnostics }

func (c *Context) HasDiagnostics() bool { return len(c.diagnostics) > 0 }

func (c *Context) ClearDiagnostics() { c.diagnostics = nil }

// Fail records an error from a check that could not run, such as a
// script failure. Only the first error is kept.
func (c *Context) Fail(err error) {
	if c.err == nil && err != nil {
		c.err = fmt.Errorf("lint: %s at %d: %w", c.node.Type(), c.node.StartByte(), err)
	}
}

func (c *Context) Err() error { return c.err }
