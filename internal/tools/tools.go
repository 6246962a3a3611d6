// Package tools exposes the engine to MCP clients over stdio.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jward/reflector"
)

// Version is reported in the MCP handshake.
var Version = "0.1.0"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp    *mcp.Server
	engine *reflector.Engine
	root   string
	logger *slog.Logger
}

// NewServer creates an MCP server with all tools registered. Relative
// paths in tool arguments resolve against root.
func NewServer(e *reflector.Engine, root string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		engine: e,
		root:   root,
		logger: logger,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "reflector",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves over stdin and stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

const positionProperties = `
				"path": {
					"type": "string",
					"description": "File path (absolute, or relative to the project root)"
				},
				"source": {
					"type": "string",
					"description": "Unsaved buffer contents. When omitted the file is read from disk."
				},
				"offset": {
					"type": "integer",
					"description": "Byte offset of the cursor. Takes precedence over line and column."
				},
				"line": {
					"type": "integer",
					"description": "1-based line of the cursor"
				},
				"column": {
					"type": "integer",
					"description": "1-based byte column of the cursor"
				}`

func positionSchema() json.RawMessage {
	return json.RawMessage(`{
			"type": "object",
			"properties": {` + positionProperties + `
			},
			"required": ["path"]
		}`)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "lint_file",
		Description: "Lint one file. Reports unused definitions, undefined names, duplicate definitions, syntax errors and profile or script findings, each with its line, column, severity, code and available quick-fix labels.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "File path (absolute, or relative to the project root)"
				},
				"source": {
					"type": "string",
					"description": "Unsaved buffer contents. When omitted the file is read from disk."
				}
			},
			"required": ["path"]
		}`),
	}, s.handleLintFile)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_definitions",
		Description: "Go to definition: the definitions the name at the cursor resolves to, following the language's scoping rules.",
		InputSchema: positionSchema(),
	}, s.handleFindDefinitions)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_uses",
		Description: "Find every use of the name at the cursor within the file, excluding shadowed names.",
		InputSchema: positionSchema(),
	}, s.handleFindUses)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "highlight",
		Description: "Highlight the name at the cursor together with its definitions and uses. Kinds are definition, use, unmatched-definition and unmatched-use.",
		InputSchema: positionSchema(),
	}, s.handleHighlight)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "complete",
		Description: "Names visible at the cursor that start with the word before it, innermost scope first, followed by language builtins.",
		InputSchema: positionSchema(),
	}, s.handleComplete)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "fix_file",
		Description: "Apply quick fixes until none remain and return the fixed text. Does not write to disk unless write is true.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "File path (absolute, or relative to the project root)"
				},
				"source": {
					"type": "string",
					"description": "Unsaved buffer contents. When omitted the file is read from disk."
				},
				"codes": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Only fix diagnostics with these codes, e.g. ['unused-definition']"
				},
				"write": {
					"type": "boolean",
					"description": "Write the fixed text back to path"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleFixFile)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "cached_findings",
		Description: "Findings recorded in the lint cache by the last lint of each file, without re-reading sources. Filter by diagnostic code, language or both. Fails when the cache is disabled.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"code": {
					"type": "string",
					"description": "Only diagnostics with this code, e.g. 'undefined-use'"
				},
				"language": {
					"type": "string",
					"description": "Only files of this language, e.g. 'python'"
				}
			}
		}`),
	}, s.handleCachedFindings)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_languages",
		Description: "List the loaded language profiles with their file extensions.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListLanguages)
}

// jsonResult marshals data to JSON and returns it as the tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

func getStringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	f, ok := args[key].(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

func getBoolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func getStringsArg(args map[string]any, key string) []string {
	list, _ := args[key].([]any)
	var out []string
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (s *Server) resolvePath(p string) string {
	if filepath.IsAbs(p) || s.root == "" {
		return p
	}
	return filepath.Join(s.root, p)
}

// analyze runs the engine on the path argument, using the source
// argument as the buffer when present.
func (s *Server) analyze(ctx context.Context, args map[string]any) (*reflector.Analysis, error) {
	p := getStringArg(args, "path")
	if p == "" {
		return nil, fmt.Errorf("path is required")
	}
	path := s.resolvePath(p)
	if src, ok := args["source"].(string); ok {
		return s.engine.Analyze(ctx, path, []byte(src))
	}
	return s.engine.AnalyzeFile(ctx, path)
}

// cursor reads offset, or 1-based line and column.
func cursor(a *reflector.Analysis, args map[string]any) (uint32, error) {
	if off := getIntArg(args, "offset", -1); off >= 0 {
		return uint32(off), nil
	}
	line := getIntArg(args, "line", 0)
	col := getIntArg(args, "column", 0)
	if line < 1 || col < 1 {
		return 0, fmt.Errorf("offset, or line and column, are required")
	}
	return a.Offset(line-1, col-1), nil
}
