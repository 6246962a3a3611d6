package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/reflector"
)

// errFindings makes the process exit non-zero when error-severity
// findings were reported. The findings themselves are the output.
var errFindings = errors.New("lint reported errors")

var flagNoCache bool

var lintCmd = &cobra.Command{
	Use:   "lint [path...]",
	Short: "Lint files and directories",
	Long: `Lint the given files and directories (default: the current directory).
Directories inside a git work tree follow git ls-files; others are walked,
skipping hidden and dependency directories. Results are cached per file
content in .reflector/cache.db unless the cache is disabled.

Exits with status 1 when any error-severity finding is reported. Text
output uses 1-based lines and columns; JSON uses 0-based ones.`,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "do not read or write the lint cache")
}

func runLint(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	e, err := newEngine(!flagNoCache)
	if err != nil {
		return outputError("lint", err)
	}
	defer e.Close()

	results, err := lintPaths(cmd.Context(), e, args)
	if err != nil {
		return outputError("lint", err)
	}

	summary, sources := summarize(results)
	result := CLIResult{Command: "lint", Results: summary}
	if flagFormat == "text" {
		result.Results = textLint{summary: summary, sources: sources}
	}
	if err := outputResult(result); err != nil {
		return err
	}
	if summary.Counts["error"] > 0 {
		errorHandled = true
		return errFindings
	}
	return nil
}

// lintPaths lints directories with LintDir and the remaining files in
// one LintFiles batch.
func lintPaths(ctx context.Context, e *reflector.Engine, args []string) ([]reflector.FileResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var results []reflector.FileResult
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", arg)
		}
		if !info.IsDir() {
			if !e.Supported(arg) {
				return nil, fmt.Errorf("%s: %w", arg, reflector.ErrUnsupportedLanguage)
			}
			files = append(files, arg)
			continue
		}
		rs, err := e.LintDir(ctx, arg)
		if err != nil {
			return nil, err
		}
		results = append(results, rs...)
	}
	if len(files) > 0 {
		rs, err := e.LintFiles(ctx, files)
		if err != nil {
			return nil, err
		}
		results = append(results, rs...)
	}
	return results, nil
}

// summarize flattens results into findings with display paths relative
// to the working directory where possible.
func summarize(results []reflector.FileResult) (CLILintSummary, map[string][]byte) {
	summary := CLILintSummary{Files: len(results), Findings: []CLIFinding{}, Counts: map[string]int{}}
	sources := make(map[string][]byte, len(results))
	for _, r := range results {
		file := displayPath(r.Path)
		if r.Cached {
			summary.Cached++
		}
		if len(r.Findings) > 0 {
			sources[file] = r.Source
		}
		summary.Findings = append(summary.Findings, findingsFor(file, r.Findings)...)
		for _, f := range r.Findings {
			summary.Counts[f.Severity.String()]++
		}
	}
	return summary, sources
}

func findingsFor(file string, fs []reflector.Finding) []CLIFinding {
	out := make([]CLIFinding, 0, len(fs))
	for _, f := range fs {
		var fixes []string
		for _, a := range f.Actions {
			fixes = append(fixes, a.Label)
		}
		out = append(out, CLIFinding{
			File:     file,
			Line:     f.Line,
			Col:      f.Col,
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

// displayPath shortens absolute paths under the working directory.
func displayPath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(cwd, path); err == nil && filepath.IsLocal(rel) {
		return rel
	}
	return path
}
