// Package profile loads YAML language profiles and compiles them into a
// role registry and a lint spec.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/reflector/internal/syntax"
)

var ErrInvalidProfile = errors.New("invalid profile")

// Profile is the YAML description of one language.
type Profile struct {
	Language    string                 `yaml:"language"`
	Description string                 `yaml:"description,omitempty"`
	Normalize   string                 `yaml:"normalize,omitempty"`
	SyntaxError string                 `yaml:"syntax_error,omitempty"`
	Roles       []RoleDecl             `yaml:"roles"`
	Builtins    []string               `yaml:"builtins,omitempty"`
	Rules       map[string]RuleSetDecl `yaml:"rules,omitempty"`
	ErrorRules  *RuleSetDecl           `yaml:"error_rules,omitempty"`
	AllRules    *RuleSetDecl           `yaml:"all_rules,omitempty"`
}

// RoleDecl assigns a role to a selector. Exactly one of Scope,
// Definition, Use or Ignore is set; With carries the flat role encoding.
type RoleDecl struct {
	Scope      string `yaml:"scope,omitempty"`
	Definition string `yaml:"definition,omitempty"`
	Use        string `yaml:"use,omitempty"`
	Ignore     string `yaml:"ignore,omitempty"`
	With       string `yaml:"with,omitempty"`
}

type RuleSetDecl struct {
	Mode  string     `yaml:"mode,omitempty"`
	Rules []RuleDecl `yaml:"rules"`
}

type RuleDecl struct {
	Code    string      `yaml:"code,omitempty"`
	Context []string    `yaml:"context,omitempty"`
	Checks  []CheckDecl `yaml:"checks"`
}

// CheckDecl names a built-in check or a script.
type CheckDecl struct {
	Check     string       `yaml:"check"`
	Severity  string       `yaml:"severity,omitempty"`
	Message   string       `yaml:"message,omitempty"`
	Script    string       `yaml:"script,omitempty"`
	Following string       `yaml:"following,omitempty"`
	Inside    string       `yaml:"inside,omitempty"`
	Actions   []ActionDecl `yaml:"actions,omitempty"`
}

type ActionDecl struct {
	Remove       string `yaml:"remove,omitempty"`
	InsertBefore string `yaml:"insert_before,omitempty"`
	Template     string `yaml:"template,omitempty"`
	Label        string `yaml:"label"`
}

// Parse decodes one profile. Unknown keys are rejected.
func Parse(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("profile: decode: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if p.Language == "" {
		return fmt.Errorf("profile: missing language: %w", ErrInvalidProfile)
	}
	if _, ok := syntax.GrammarFor(p.Language); !ok {
		return fmt.Errorf("profile: %s: %w: %w", p.Language, ErrInvalidProfile, syntax.ErrUnsupportedLanguage)
	}
	for i, r := range p.Roles {
		set := 0
		for _, s := range []string{r.Scope, r.Definition, r.Use, r.Ignore} {
			if s != "" {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("profile: %s: role %d needs exactly one of scope, definition, use, ignore: %w", p.Language, i, ErrInvalidProfile)
		}
	}
	return nil
}

// Load reads every *.yaml and *.yml file at the root of fsys. Later
// files replace earlier ones for the same language.
func Load(fsys fs.FS) (map[string]*Profile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("profile: read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make(map[string]*Profile, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("profile: read %s: %w", name, err)
		}
		p, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[p.Language] = p
	}
	return out, nil
}

// LoadDir loads profiles from a directory on disk.
func LoadDir(dir string) (map[string]*Profile, error) {
	return Load(os.DirFS(dir))
}

// Merge overlays extra onto base. Profiles in extra replace same-language
// profiles in base.
func Merge(base, extra map[string]*Profile) map[string]*Profile {
	out := make(map[string]*Profile, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Names returns the profile languages in sorted order.
func Names(ps map[string]*Profile) []string {
	out := make([]string, 0, len(ps))
	for k := range ps {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r RoleDecl) selector() string {
	return strings.TrimSpace(r.Scope + r.Definition + r.Use + r.Ignore)
}
