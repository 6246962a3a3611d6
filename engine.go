package reflector

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/reflector/internal/config"
	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/profile"
	"github.com/jward/reflector/internal/resolve"
	"github.com/jward/reflector/internal/runtime"
	"github.com/jward/reflector/internal/store"
	"github.com/jward/reflector/internal/syntax"
	"github.com/jward/reflector/profiles"
)

// ErrUnsupportedLanguage is returned for files no loaded profile covers.
var ErrUnsupportedLanguage = syntax.ErrUnsupportedLanguage

// Engine holds the compiled language profiles, the script runtime and
// the optional lint cache.
type Engine struct {
	cfg         config.Config
	profilesFS  fs.FS
	profilesDir string
	scriptsDir  string
	storePath   string
	useParallel bool
	workers     int
	logger      *slog.Logger

	earlyUse  resolve.EarlyUse
	runtime   *runtime.Runtime
	languages map[string]*language
	store     *store.Store
}

type language struct {
	*profile.Language
	extensions []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig applies settings loaded from .reflector.toml. Options after
// it override individual settings.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
		e.profilesDir = cfg.ResolvePath(cfg.Profiles.Dir)
		e.scriptsDir = cfg.ResolvePath(cfg.Scripts.Dir)
		e.storePath = ""
		if cfg.Store.Enabled {
			e.storePath = cfg.ResolvePath(cfg.Store.Path)
		}
		e.useParallel = cfg.Engine.Parallel
		e.workers = cfg.Engine.Workers
	}
}

// WithProfilesFS replaces the embedded profiles.
func WithProfilesFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.profilesFS = fsys
	}
}

// WithProfilesDir loads extra profiles from dir on top of the base set.
func WithProfilesDir(dir string) Option {
	return func(e *Engine) {
		e.profilesDir = dir
	}
}

// WithStore caches lint results in a SQLite database at path. An empty
// path disables the cache.
func WithStore(path string) Option {
	return func(e *Engine) {
		e.storePath = path
	}
}

// WithParallel controls parallel linting in LintFiles. Default true.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers bounds the number of files linted at once. Zero means one
// per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithScripts sets the directory Risor scripts are loaded from.
func WithScripts(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New loads and compiles the profiles and opens the cache when one is
// configured. Without options it uses the embedded profiles and no cache.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:         config.Defaults(),
		profilesFS:  profiles.FS,
		useParallel: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.earlyUse, err = e.cfg.EarlyUse(); err != nil {
		return nil, fmt.Errorf("reflector: %w", err)
	}
	e.runtime = runtime.New(e.scriptsDir, runtime.WithLogger(e.logger))

	if err := e.loadLanguages(); err != nil {
		return nil, err
	}
	if e.storePath != "" {
		if err := e.openStore(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) loadLanguages() error {
	ps, err := profile.Load(e.profilesFS)
	if err != nil {
		return fmt.Errorf("reflector: load profiles: %w", err)
	}
	if e.profilesDir != "" {
		extra, err := profile.LoadDir(e.profilesDir)
		if err != nil {
			return fmt.Errorf("reflector: load profiles from %s: %w", e.profilesDir, err)
		}
		ps = profile.Merge(ps, extra)
	}

	e.languages = make(map[string]*language, len(ps))
	for _, name := range profile.Names(ps) {
		l, err := ps[name].Compile(e.runtime.NodeCheck)
		if err != nil {
			return fmt.Errorf("reflector: %w", err)
		}
		tree, err := e.runtime.TreeChecks(e.cfg.Scripts.Tree[name])
		if err != nil {
			return fmt.Errorf("reflector: %s tree scripts: %w", name, err)
		}
		l.Spec.Tree = append(l.Spec.Tree, tree...)
		e.languages[name] = &language{Language: l, extensions: syntax.Extensions(name)}
	}
	for name := range e.cfg.Scripts.Tree {
		if e.languages[name] == nil {
			e.logger.Warn("config.scripts.unknown_language", "language", name)
		}
	}
	return nil
}

// openStore opens the cache and clears it when the settings hash changed
// since it was written.
func (e *Engine) openStore() error {
	if err := os.MkdirAll(filepath.Dir(e.storePath), 0o755); err != nil {
		return fmt.Errorf("reflector: create store dir: %w", err)
	}
	s, err := store.NewStore(e.storePath)
	if err != nil {
		return fmt.Errorf("reflector: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return fmt.Errorf("reflector: migrate: %w", err)
	}

	current := e.settingsHash()
	stored, err := s.GetMetadata(settingsHashKey)
	if err != nil {
		s.Close()
		return fmt.Errorf("reflector: %w", err)
	}
	if stored != current {
		e.logger.Debug("store.reset", "path", e.storePath, "stored", stored, "current", current)
		if err := s.Reset(); err != nil {
			s.Close()
			return fmt.Errorf("reflector: %w", err)
		}
		if err := s.SetMetadata(settingsHashKey, current); err != nil {
			s.Close()
			return fmt.Errorf("reflector: %w", err)
		}
	}
	e.store = s
	return nil
}

const settingsHashKey = "settings_hash"

// settingsHash covers everything besides file content that changes lint
// output: the config, every profile file and every script.
func (e *Engine) settingsHash() string {
	parts := [][]byte{[]byte(e.cfg.Hash())}
	parts = append(parts, hashFS(e.profilesFS, ".yaml", ".yml")...)
	if e.profilesDir != "" {
		parts = append(parts, hashFS(os.DirFS(e.profilesDir), ".yaml", ".yml")...)
	}
	if e.scriptsDir != "" {
		parts = append(parts, hashFS(os.DirFS(e.scriptsDir), ".risor")...)
	}
	return store.ContentHash(parts...)
}

// hashFS returns path and content of every matching file, sorted by path.
func hashFS(fsys fs.FS, exts ...string) [][]byte {
	var paths []string
	fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && hasExt(path, exts) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)

	var out [][]byte
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			continue
		}
		out = append(out, []byte(p), data)
	}
	return out
}

func hasExt(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Close releases the cache.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the lint cache, or nil when caching is disabled.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Config returns the settings the engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// LanguageInfo describes a loaded profile.
type LanguageInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Extensions  []string `json:"extensions"`
	Builtins    int      `json:"builtins"`
	Roles       int      `json:"roles"`
}

// Languages lists the loaded profiles by name.
func (e *Engine) Languages() []LanguageInfo {
	out := make([]LanguageInfo, 0, len(e.languages))
	for _, l := range e.languages {
		out = append(out, LanguageInfo{
			Name:        l.Name,
			Description: l.Profile.Description,
			Extensions:  l.extensions,
			Builtins:    len(l.Registry.Builtins()),
			Roles:       len(l.Registry.Entries()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// languageFor picks the profile for path by extension.
func (e *Engine) languageFor(path string) (*language, error) {
	name, ok := syntax.LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("reflector: %s: %w", path, ErrUnsupportedLanguage)
	}
	l, ok := e.languages[name]
	if !ok {
		return nil, fmt.Errorf("reflector: %s: no profile for %s: %w", path, name, ErrUnsupportedLanguage)
	}
	return l, nil
}

// Supported reports whether path has a loaded profile.
func (e *Engine) Supported(path string) bool {
	_, err := e.languageFor(path)
	return err == nil
}

// Analyze parses src as the file at path, resolves it and lints it. The
// caller must Close the result.
func (e *Engine) Analyze(ctx context.Context, path string, src []byte) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, err := e.languageFor(path)
	if err != nil {
		return nil, err
	}
	doc, err := syntax.Parse(ctx, l.Name, path, src)
	if err != nil {
		return nil, fmt.Errorf("reflector: %w", err)
	}
	snap := resolve.New(doc, l.Registry, resolve.WithEarlyUse(e.earlyUse))
	diags, err := lint.Run(ctx, snap, l.Spec)
	if err != nil {
		doc.Close()
		return nil, fmt.Errorf("reflector: lint %s: %w", path, err)
	}
	return &Analysis{
		Path:        path,
		Language:    l.Name,
		Snapshot:    snap,
		Diagnostics: e.cfg.Adjust(diags),
	}, nil
}

// AnalyzeFile reads path and analyzes it.
func (e *Engine) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reflector: read %s: %w", path, err)
	}
	return e.Analyze(ctx, path, src)
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// LintDir lints every supported file under root. Inside a git work tree
// it follows git ls-files so ignored files are skipped; otherwise it
// walks the tree, skipping hidden and dependency directories. Cached
// files under root that no longer exist are pruned.
func (e *Engine) LintDir(ctx context.Context, root string) ([]FileResult, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("reflector: %w", err)
	}
	paths, err := e.gitListFiles(abs)
	if err != nil {
		e.logger.Debug("lint.walk", "root", abs, "reason", err)
		if paths, err = e.walkListFiles(abs); err != nil {
			return nil, err
		}
	}

	results, err := e.LintFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if e.store != nil {
		keep := make([]string, 0, len(results))
		for _, r := range results {
			keep = append(keep, r.Path)
		}
		n, err := e.store.PruneFiles(abs+string(filepath.Separator), keep)
		if err != nil {
			return nil, fmt.Errorf("reflector: %w", err)
		}
		if n > 0 {
			e.logger.Debug("store.prune", "root", abs, "files", n)
		}
	}
	return results, nil
}

func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		abs := filepath.Join(root, line)
		if e.Supported(abs) {
			paths = append(paths, abs)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reflector: walk directory: %w", err)
	}
	return paths, nil
}
