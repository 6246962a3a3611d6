package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jward/reflector"
	"github.com/jward/reflector/internal/config"
)

var (
	flagFormat  string
	flagColor   string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "reflector",
	Short:         "Scope-aware name resolution and linting over tree-sitter",
	Long:          "Reflector resolves every name in a file to its definitions using per-language role profiles, and lints the result for unused, undefined and duplicate names.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return validateColor(flagColor)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize text output (auto|on|off)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "settings file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(definitionCmd)
	rootCmd.AddCommand(usesCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newLogger writes to stderr. REFLECTOR_LOG sets the level; --verbose
// forces debug.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("REFLECTOR_LOG")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config, or the nearest settings file above the
// working directory.
func loadConfig() (config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("getting cwd: %w", err)
	}
	return config.Discover(cwd)
}

// newEngine builds an engine from the discovered settings. The cache is
// only opened for commands that lint many files.
func newEngine(withCache bool) (*reflector.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	if cfg.Path != "" {
		logger.Debug("config.loaded", "path", cfg.Path)
	}
	opts := []reflector.Option{reflector.WithConfig(cfg), reflector.WithLogger(logger)}
	if !withCache {
		opts = append(opts, reflector.WithStore(""))
	}
	e, err := reflector.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// useColor resolves --color against stdout.
func useColor() bool {
	return flagColor == "on" || (flagColor == "auto" && isTerminal(os.Stdout))
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var validColors = []string{"auto", "on", "off"}

func validateColor(c string) error {
	for _, v := range validColors {
		if c == v {
			return nil
		}
	}
	return fmt.Errorf("invalid color %q: must be %s", c, strings.Join(validColors, ", "))
}
