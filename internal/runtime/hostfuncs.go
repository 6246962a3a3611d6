package runtime

import (
	"context"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/resolve"
	"github.com/jward/reflector/internal/syntax"
)

// snapshotGlobals are the builtins every script sees for a document.
func snapshotGlobals(snap *resolve.Snapshot) map[string]any {
	return map[string]any{
		"language":       snap.Doc.Language,
		"node_text":      makeNodeTextFn(snap),
		"node_child":     makeNodeChildFn(),
		"query":          makeQueryFn(snap),
		"role_of":        makeRoleOfFn(snap),
		"definitions_of": makeDefinitionsOfFn(snap),
		"uses_of":        makeUsesOfFn(snap),
		"is_builtin":     makeIsBuiltinFn(snap),
	}
}

// nodeArg unwraps a proxied *sitter.Node argument.
func nodeArg(fn string, arg object.Object) (*sitter.Node, *object.Error) {
	proxy, ok := arg.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected proxy (Node), got %s", fn, arg.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok || node == nil {
		return nil, object.Errorf("%s: expected *sitter.Node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

func stringArg(fn, what string, arg object.Object) (string, *object.Error) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", object.Errorf("%s: %s must be a string, got %s", fn, what, arg.Type())
	}
	return s.Value(), nil
}

func proxyNode(fn string, n *sitter.Node) object.Object {
	if n == nil {
		return object.Nil
	}
	p, err := object.NewProxy(n)
	if err != nil {
		return object.Errorf("%s: proxy error: %v", fn, err)
	}
	return p
}

func nodeList(fn string, nodes []*sitter.Node) object.Object {
	items := make([]object.Object, 0, len(nodes))
	for _, n := range nodes {
		p := proxyNode(fn, n)
		if e, ok := p.(*object.Error); ok {
			return e
		}
		items = append(items, p)
	}
	return object.NewList(items)
}

// node_text(node) → string
//
// Risor's proxies cannot pass []byte to node.Content, so the host slices
// the source.
func makeNodeTextFn(snap *resolve.Snapshot) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(snap.Text(node))
	})
}

// node_child(node, fieldName) → Node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		field, errObj := stringArg("node_child", "field", args[1])
		if errObj != nil {
			return errObj
		}
		return proxyNode("node_child", node.ChildByFieldName(field))
	})
}

// query(pattern, node) → []map[string]Node
func makeQueryFn(snap *resolve.Snapshot) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}
		pattern, errObj := stringArg("query", "pattern", args[0])
		if errObj != nil {
			return errObj
		}
		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}
		lang, ok := syntax.GrammarFor(snap.Doc.Language)
		if !ok {
			return object.Errorf("query: no grammar for %q", snap.Doc.Language)
		}

		q, err := sitter.NewQuery([]byte(pattern), lang)
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}
		defer q.Close()

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		results := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, snap.Doc.Source)
			if len(match.Captures) == 0 {
				continue
			}
			captures := make(map[string]object.Object, len(match.Captures))
			for _, c := range match.Captures {
				name := q.CaptureNameForId(c.Index)
				p := proxyNode("query", c.Node)
				if e, ok := p.(*object.Error); ok {
					return e
				}
				captures[name] = p
			}
			results = append(results, object.NewMap(captures))
		}
		return object.NewList(results)
	})
}

// role_of(node) → "scope" | "definition" | "use" | "none"
func makeRoleOfFn(snap *resolve.Snapshot) *object.Builtin {
	return object.NewBuiltin("role_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("role_of", 1, len(args))
		}
		node, errObj := nodeArg("role_of", args[0])
		if errObj != nil {
			return errObj
		}
		role := snap.Registry.RoleOf(node)
		if role == nil {
			return object.NewString("none")
		}
		return object.NewString(role.Kind().String())
	})
}

// definitions_of(node) → []Node, the definitions a use resolves to.
func makeDefinitionsOfFn(snap *resolve.Snapshot) *object.Builtin {
	return object.NewBuiltin("definitions_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("definitions_of", 1, len(args))
		}
		node, errObj := nodeArg("definitions_of", args[0])
		if errObj != nil {
			return errObj
		}
		var out []*sitter.Node
		if u := snap.Use(node); u != nil {
			for _, d := range u.MatchingDefinitions() {
				out = append(out, d.Node)
			}
		}
		return nodeList("definitions_of", out)
	})
}

// uses_of(node) → []Node, the uses that resolve to a definition.
func makeUsesOfFn(snap *resolve.Snapshot) *object.Builtin {
	return object.NewBuiltin("uses_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("uses_of", 1, len(args))
		}
		node, errObj := nodeArg("uses_of", args[0])
		if errObj != nil {
			return errObj
		}
		var out []*sitter.Node
		if d := snap.Definition(node); d != nil {
			for _, u := range d.MatchingUses() {
				out = append(out, u.Node)
			}
		}
		return nodeList("uses_of", out)
	})
}

// is_builtin(name) → bool
func makeIsBuiltinFn(snap *resolve.Snapshot) *object.Builtin {
	return object.NewBuiltin("is_builtin", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("is_builtin", 1, len(args))
		}
		name, errObj := stringArg("is_builtin", "name", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewBool(snap.Registry.IsBuiltin(snap.Registry.Name(name)))
	})
}

func severityArg(fn string, arg object.Object) (lint.Severity, *object.Error) {
	s, errObj := stringArg(fn, "severity", arg)
	if errObj != nil {
		return 0, errObj
	}
	sev, err := lint.ParseSeverity(s)
	if err != nil {
		return 0, object.Errorf("%s: %v", fn, err)
	}
	return sev, nil
}

// report(severity, message) for node scripts. The diagnostic covers the
// checked node and carries the rule's code.
func makeNodeReportFn(c *lint.Context) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("report", 2, len(args))
		}
		sev, errObj := severityArg("report", args[0])
		if errObj != nil {
			return errObj
		}
		msg, errObj := stringArg("report", "message", args[1])
		if errObj != nil {
			return errObj
		}
		c.Diagnostic(sev, msg)
		return object.Nil
	})
}

// report(node, severity, message[, code]) for tree scripts.
func makeTreeReportFn(report func(lint.Diagnostic)) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 3 || len(args) > 4 {
			return object.Errorf("report: expected 3 or 4 arguments, got %d", len(args))
		}
		node, errObj := nodeArg("report", args[0])
		if errObj != nil {
			return errObj
		}
		sev, errObj := severityArg("report", args[1])
		if errObj != nil {
			return errObj
		}
		msg, errObj := stringArg("report", "message", args[2])
		if errObj != nil {
			return errObj
		}
		code := lint.CodeCustom
		if len(args) == 4 {
			if code, errObj = stringArg("report", "code", args[3]); errObj != nil {
				return errObj
			}
		}
		report(lint.Diagnostic{
			From:     node.StartByte(),
			To:       node.EndByte(),
			Severity: sev,
			Code:     code,
			Message:  msg,
		})
		return object.Nil
	})
}
