package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jward/reflector/internal/tools"
)

var flagRoot string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve lint and navigation tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&flagRoot, "root", "", "directory relative tool paths resolve against (default: working directory)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	root := flagRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}
		root = cwd
	}
	e, err := newEngine(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := tools.NewServer(e, root, newLogger())
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
