// Package config loads the project settings file, .reflector.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/zeebo/xxh3"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/resolve"
)

// FileName is searched for from the working directory upward.
const FileName = ".reflector.toml"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Path is the file the settings came from, empty for defaults.
	Path string `toml:"-"`
	// Root is the directory relative paths are resolved against.
	Root string `toml:"-"`

	Lint     LintConfig     `toml:"lint"`
	Resolve  ResolveConfig  `toml:"resolve"`
	Profiles ProfilesConfig `toml:"profiles"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Store    StoreConfig    `toml:"store"`
	Engine   EngineConfig   `toml:"engine"`
}

type LintConfig struct {
	// Disable drops diagnostics with these codes.
	Disable []string `toml:"disable"`
	// Severity overrides the severity of a code.
	Severity map[string]string `toml:"severity"`
}

type ResolveConfig struct {
	// EarlyUse is "stop" or "fallthrough".
	EarlyUse string `toml:"early_use"`
}

type ProfilesConfig struct {
	// Dir holds extra YAML profiles that replace the built-in ones.
	Dir string `toml:"dir"`
}

type ScriptsConfig struct {
	// Dir is where Risor scripts named by profiles and Tree live.
	Dir string `toml:"dir"`
	// Tree maps a language to the tree scripts run once per document.
	Tree map[string][]string `toml:"tree"`
}

type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type EngineConfig struct {
	Parallel bool `toml:"parallel"`
	// Workers bounds parallel linting; 0 means one per CPU.
	Workers int `toml:"workers"`
}

// Defaults returns the settings used when no file is found.
func Defaults() Config {
	return Config{
		Resolve: ResolveConfig{EarlyUse: "stop"},
		Scripts: ScriptsConfig{Dir: "scripts"},
		Store:   StoreConfig{Enabled: true, Path: filepath.Join(".reflector", "cache.db")},
		Engine:  EngineConfig{Parallel: true},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("config: resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("config: stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest settings file above startDir, or returns
// Defaults rooted at startDir when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		cfg := Defaults()
		root, err := filepath.Abs(startDir)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		cfg.Root = root
		return cfg, nil
	}
	return Load(path)
}

// Load decodes path over Defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys %s: %w", path, strings.Join(keys, ", "), ErrInvalidConfig)
	}
	if meta.IsDefined("store", "path") && strings.TrimSpace(cfg.Store.Path) == "" {
		return Config{}, fmt.Errorf("config: %s: [store].path is empty: %w", path, ErrInvalidConfig)
	}
	if meta.IsDefined("engine", "workers") && cfg.Engine.Workers < 0 {
		return Config{}, fmt.Errorf("config: %s: [engine].workers must not be negative: %w", path, ErrInvalidConfig)
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the enumerated values.
func (c Config) Validate() error {
	if _, err := c.EarlyUse(); err != nil {
		return err
	}
	for code, s := range c.Lint.Severity {
		if _, err := lint.ParseSeverity(s); err != nil {
			return fmt.Errorf("[lint.severity].%s: %w", code, ErrInvalidConfig)
		}
	}
	return nil
}

// EarlyUse maps [resolve].early_use onto the resolver policy.
func (c Config) EarlyUse() (resolve.EarlyUse, error) {
	switch c.Resolve.EarlyUse {
	case "", "stop":
		return resolve.EarlyUseStop, nil
	case "fallthrough":
		return resolve.EarlyUseFallthrough, nil
	}
	return resolve.EarlyUseStop, fmt.Errorf("[resolve].early_use %q: %w", c.Resolve.EarlyUse, ErrInvalidConfig)
}

// ResolvePath makes a configured path absolute against Root.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Adjust drops disabled codes and applies severity overrides. The input
// slice is not modified.
func (c Config) Adjust(diags []lint.Diagnostic) []lint.Diagnostic {
	if len(c.Lint.Disable) == 0 && len(c.Lint.Severity) == 0 {
		return diags
	}
	disabled := make(map[string]bool, len(c.Lint.Disable))
	for _, code := range c.Lint.Disable {
		disabled[code] = true
	}
	out := make([]lint.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if disabled[d.Code] {
			continue
		}
		if s, ok := c.Lint.Severity[d.Code]; ok {
			if sev, err := lint.ParseSeverity(s); err == nil {
				d.Severity = sev
			}
		}
		out = append(out, d)
	}
	return out
}

// Hash identifies the settings that affect lint output. Cached results
// are discarded when it changes.
func (c Config) Hash() string {
	relevant := struct {
		Lint     LintConfig
		Resolve  ResolveConfig
		Profiles ProfilesConfig
		Scripts  ScriptsConfig
	}{c.Lint, c.Resolve, c.Profiles, c.Scripts}
	relevant.Lint.Disable = append([]string(nil), c.Lint.Disable...)
	sort.Strings(relevant.Lint.Disable)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(relevant); err != nil {
		// Only unsupported types fail to encode.
		panic(fmt.Sprintf("config: hash: %v", err))
	}
	h := xxh3.New()
	h.Write(buf.Bytes())
	return fmt.Sprintf("%x", h.Sum(nil))
}
