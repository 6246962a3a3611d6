package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	flagWrite bool
	flagCodes []string
)

var fixCmd = &cobra.Command{
	Use:   "fix <file>",
	Short: "Apply quick fixes to a file",
	Long:  "Repeatedly apply the first quick fix of each fixable finding until none remain. The fixed text is printed unless --write is given.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "write the result back to the file")
	fixCmd.Flags().StringSliceVar(&flagCodes, "code", nil, "only fix findings with these codes (repeatable)")
}

func runFix(cmd *cobra.Command, args []string) error {
	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		return outputError("fix", fmt.Errorf("reading %s: %w", file, err))
	}
	e, err := newEngine(false)
	if err != nil {
		return outputError("fix", err)
	}
	defer e.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := e.Fix(ctx, file, src, flagCodes)
	if err != nil {
		return outputError("fix", err)
	}

	out := CLIFix{File: file, Applied: res.Applied, Remaining: findingsFor(file, res.Remaining)}
	if out.Applied == nil {
		out.Applied = []string{}
	}
	if flagWrite && len(res.Applied) > 0 {
		if err := writeFileAtomic(file, res.Source); err != nil {
			return outputError("fix", err)
		}
		out.Written = true
	}

	result := CLIResult{Command: "fix", Results: out}
	if flagFormat == "text" {
		result.Results = textFix{fix: out, source: res.Source, summary: flagWrite}
	}
	return outputResult(result)
}

// writeFileAtomic replaces path through a temporary file in the same
// directory, keeping the original permissions.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".reflector-fix-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
