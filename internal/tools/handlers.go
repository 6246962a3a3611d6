package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jward/reflector"
	"github.com/jward/reflector/internal/span"
)

type finding struct {
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	From     uint32   `json:"from"`
	To       uint32   `json:"to"`
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Fixes    []string `json:"fixes,omitempty"`
}

func findings(fs []reflector.Finding) []finding {
	out := make([]finding, 0, len(fs))
	for _, f := range fs {
		var fixes []string
		for _, a := range f.Actions {
			fixes = append(fixes, a.Label)
		}
		out = append(out, finding{
			Line:     f.Line + 1,
			Column:   f.Col + 1,
			From:     f.From,
			To:       f.To,
			Severity: f.Severity.String(),
			Code:     f.Code,
			Message:  f.Message,
			Fixes:    fixes,
		})
	}
	return out
}

type location struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	From   uint32 `json:"from"`
	To     uint32 `json:"to"`
	Text   string `json:"text"`
	Kind   string `json:"kind,omitempty"`
}

func locations(a *reflector.Analysis, rs []span.Range) []location {
	out := make([]location, 0, len(rs))
	for _, l := range a.Locate(rs) {
		out = append(out, location{Line: l.Line + 1, Column: l.Col + 1, From: l.Range.From, To: l.Range.To, Text: l.Text})
	}
	return out
}

func (s *Server) handleLintFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	a, err := s.analyze(ctx, args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer a.Close()

	s.logger.Debug("mcp.lint_file", "path", a.Path, "diagnostics", len(a.Diagnostics))
	return jsonResult(map[string]any{
		"path":     a.Path,
		"language": a.Language,
		"findings": findings(a.Findings()),
	}), nil
}

// rangeQuery runs a cursor query that answers with ranges.
func (s *Server) rangeQuery(ctx context.Context, req *mcp.CallToolRequest, query func(*reflector.Analysis, uint32) ([]span.Range, error)) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	a, err := s.analyze(ctx, args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer a.Close()

	pos, err := cursor(a, args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	rs, err := query(a, pos)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"path": a.Path, "results": locations(a, rs)}), nil
}

func (s *Server) handleFindDefinitions(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.rangeQuery(ctx, req, (*reflector.Analysis).DefinitionsAt)
}

func (s *Server) handleFindUses(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.rangeQuery(ctx, req, (*reflector.Analysis).UsesAt)
}

func (s *Server) handleHighlight(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	a, err := s.analyze(ctx, args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer a.Close()

	pos, err := cursor(a, args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	hs, err := a.Highlights(pos)
	if err != nil {
		return errResult(err.Error()), nil
	}
	rs := make([]span.Range, 0, len(hs))
	for _, h := range hs {
		rs = append(rs, h.Range)
	}
	out := locations(a, rs)
	for i := range out {
		out[i].Kind = hs[i].Kind
	}
	return jsonResult(map[string]any{"path": a.Path, "results": out}), nil
}

func (s *Server) handleComplete(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	a, err := s.analyze(ctx, args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	defer a.Close()

	pos, err := cursor(a, args)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"path": a.Path, "completions": a.Completions(pos)}), nil
}

func (s *Server) handleFixFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	p := getStringArg(args, "path")
	if p == "" {
		return errResult("path is required"), nil
	}
	path := s.resolvePath(p)

	var src []byte
	if text, ok := args["source"].(string); ok {
		src = []byte(text)
	} else if src, err = os.ReadFile(path); err != nil {
		return errResult(fmt.Sprintf("read: %v", err)), nil
	}

	res, err := s.engine.Fix(ctx, path, src, getStringsArg(args, "codes"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	written := false
	if getBoolArg(args, "write") && len(res.Applied) > 0 {
		if err := os.WriteFile(path, res.Source, 0o644); err != nil {
			return errResult(fmt.Sprintf("write: %v", err)), nil
		}
		written = true
	}
	s.logger.Debug("mcp.fix_file", "path", path, "applied", len(res.Applied), "written", written)
	return jsonResult(map[string]any{
		"path":      path,
		"applied":   res.Applied,
		"written":   written,
		"source":    string(res.Source),
		"remaining": findings(res.Remaining),
	}), nil
}

type fileFindings struct {
	Path     string    `json:"path"`
	Language string    `json:"language"`
	Findings []finding `json:"findings"`
}

func (s *Server) handleCachedFindings(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	code := getStringArg(args, "code")
	lang := getStringArg(args, "language")
	results, err := s.engine.CachedFindings(code, lang)
	if err != nil {
		return errResult(err.Error()), nil
	}

	out := make([]fileFindings, 0, len(results))
	for _, r := range results {
		out = append(out, fileFindings{Path: r.Path, Language: r.Language, Findings: findings(r.Findings)})
	}
	s.logger.Debug("mcp.cached_findings", "code", code, "language", lang, "files", len(out))
	return jsonResult(map[string]any{"files": out}), nil
}

func (s *Server) handleListLanguages(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Languages()), nil
}
