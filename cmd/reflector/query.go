package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/reflector"
	"github.com/jward/reflector/internal/span"
)

var (
	flagOffset int
	flagStdin  bool
)

// positionCommand builds a command that takes <file> <line> <col>, or
// <file> with --offset.
func positionCommand(use, short string, run func(a *reflector.Analysis, pos uint32) (any, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <file> [<line> <col>]",
		Short: short,
		Long:  short + ". Lines and columns are 0-based byte positions; --offset gives a byte offset instead.",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := analyzeArg(cmd.Context(), args[0])
			if err != nil {
				return outputError(use, err)
			}
			defer a.Close()

			pos, err := resolvePosition(cmd, a, args[1:])
			if err != nil {
				return outputError(use, err)
			}
			results, err := run(a, pos)
			if err != nil {
				return outputError(use, err)
			}
			return outputResult(CLIResult{Command: use, Results: results})
		},
	}
	cmd.Flags().IntVar(&flagOffset, "offset", -1, "byte offset of the cursor")
	cmd.Flags().BoolVar(&flagStdin, "stdin", false, "read the buffer from stdin instead of the file")
	return cmd
}

var definitionCmd = positionCommand("definition", "Find the definitions of the name at a position",
	func(a *reflector.Analysis, pos uint32) (any, error) {
		rs, err := a.DefinitionsAt(pos)
		if err != nil {
			return nil, err
		}
		return locationsFor(a, rs), nil
	})

var usesCmd = positionCommand("uses", "Find the uses of the name at a position",
	func(a *reflector.Analysis, pos uint32) (any, error) {
		rs, err := a.UsesAt(pos)
		if err != nil {
			return nil, err
		}
		return locationsFor(a, rs), nil
	})

var highlightCmd = positionCommand("highlight", "Highlight the name at a position with its definitions and uses",
	func(a *reflector.Analysis, pos uint32) (any, error) {
		hs, err := a.Highlights(pos)
		if err != nil {
			return nil, err
		}
		rs := make([]span.Range, 0, len(hs))
		for _, h := range hs {
			rs = append(rs, h.Range)
		}
		locs := locationsFor(a, rs)
		for i := range locs {
			locs[i].Kind = hs[i].Kind
		}
		return locs, nil
	})

var completeCmd = positionCommand("complete", "List the names visible at a position",
	func(a *reflector.Analysis, pos uint32) (any, error) {
		out := []CLICompletion{}
		for _, c := range a.Completions(pos) {
			out = append(out, CLICompletion{Label: c.Label, Kind: c.Kind})
		}
		return out, nil
	})

var rolesCmd = &cobra.Command{
	Use:   "roles <file>",
	Short: "List the nodes that carry a scope, definition or use role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := analyzeArg(cmd.Context(), args[0])
		if err != nil {
			return outputError("roles", err)
		}
		defer a.Close()

		out := []CLIRole{}
		for _, r := range a.Roles() {
			line, col := a.Snapshot.Doc.Point(r.Range.From)
			out = append(out, CLIRole{Line: line, Col: col, Type: r.Type, Kind: r.Kind, Role: r.Role, Text: r.Text})
		}
		return outputResult(CLIResult{Command: "roles", Results: out})
	},
}

func init() {
	rolesCmd.Flags().BoolVar(&flagStdin, "stdin", false, "read the buffer from stdin instead of the file")
}

// analyzeArg analyzes file, or stdin under the file's name with --stdin.
func analyzeArg(ctx context.Context, file string) (*reflector.Analysis, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := newEngine(false)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	if flagStdin {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return e.Analyze(ctx, file, src)
	}
	return e.AnalyzeFile(ctx, file)
}

// resolvePosition reads --offset or the <line> <col> arguments.
func resolvePosition(cmd *cobra.Command, a *reflector.Analysis, args []string) (uint32, error) {
	if cmd.Flags().Changed("offset") {
		if len(args) > 0 {
			return 0, fmt.Errorf("give either <line> <col> or --offset, not both")
		}
		return span.Offset(flagOffset)
	}
	if len(args) != 2 {
		return 0, fmt.Errorf("requires <line> <col> arguments or --offset")
	}
	line, err := parseIntArg(args[0], "line")
	if err != nil {
		return 0, err
	}
	col, err := parseIntArg(args[1], "col")
	if err != nil {
		return 0, err
	}
	return a.Offset(line, col), nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

func locationsFor(a *reflector.Analysis, rs []span.Range) []CLILocation {
	file := displayPath(a.Path)
	out := []CLILocation{}
	for _, l := range a.Locate(rs) {
		out = append(out, CLILocation{File: file, Line: l.Line, Col: l.Col, From: l.Range.From, To: l.Range.To, Text: l.Text})
	}
	return out
}
