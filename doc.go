// Package reflector resolves names and lints source files over
// tree-sitter syntax trees.
//
// # Roles
//
// A language profile assigns roles to syntax nodes. A scope node bounds
// where names live, a definition node introduces a name, and a use node
// refers to one. Resolution links each use to the definitions it can
// see, innermost scope first, taking source order and redefinition into
// account. Nothing is precomputed beyond a per-scope definition cache,
// so every answer reflects the tree it was asked about.
//
// # Lint
//
// Profiles also carry lint rules keyed by node type. The built-in checks
// report unused definitions, undefined uses and conflicting definitions.
// Custom checks are Risor scripts. Diagnostics carry quick-fix actions
// that name node types rather than nodes, so they still apply after the
// document has been edited and re-parsed.
//
// # Usage
//
//	e, err := reflector.New(reflector.WithConfig(cfg))
//	if err != nil { ... }
//	defer e.Close()
//
//	a, err := e.Analyze(ctx, "main.js", src)
//	if err != nil { ... }
//	defer a.Close()
//
//	for _, d := range a.Diagnostics { ... }
//	defs, err := a.DefinitionsAt(offset)
//
// [Engine.LintFiles] lints many files at once, in parallel, and caches
// results in SQLite keyed by content hash. [Engine.Fix] applies quick
// fixes until none remain.
package reflector
