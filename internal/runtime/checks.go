package runtime

import (
	"context"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/resolve"
)

// NodeCheck loads a node script and wraps it as a lint check. The script
// sees node, text and report on top of the document builtins. Script
// errors are recorded on the lint context and end the run.
func (r *Runtime) NodeCheck(path string) (lint.Check, error) {
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}
	return func(c *lint.Context) {
		if c.Err() != nil {
			return
		}
		globals := snapshotGlobals(c.Snapshot())
		globals["node"] = proxyNode("node", c.Node())
		globals["text"] = c.Text()
		globals["report"] = makeNodeReportFn(c)
		if err := r.eval(c.Context(), src, path, globals); err != nil {
			c.Fail(err)
		}
	}, nil
}

// TreeCheck loads a tree script. It runs once per document with root,
// source and a node-addressed report.
func (r *Runtime) TreeCheck(path string) (lint.TreeCheck, error) {
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, snap *resolve.Snapshot, report func(lint.Diagnostic)) error {
		globals := snapshotGlobals(snap)
		globals["root"] = proxyNode("root", snap.Doc.Root())
		globals["source"] = string(snap.Doc.Source)
		globals["report"] = makeTreeReportFn(report)
		return r.eval(ctx, src, path, globals)
	}, nil
}

// TreeChecks loads every path in order.
func (r *Runtime) TreeChecks(paths []string) ([]lint.TreeCheck, error) {
	out := make([]lint.TreeCheck, 0, len(paths))
	for _, p := range paths {
		tc, err := r.TreeCheck(p)
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}
