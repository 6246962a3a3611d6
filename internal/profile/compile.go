package profile

import (
	"fmt"

	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/roles"
)

// ScriptResolver turns a script name from a profile into a check.
type ScriptResolver func(name string) (lint.Check, error)

// Language is a compiled profile.
type Language struct {
	Name     string
	Profile  *Profile
	Registry *roles.Registry
	Spec     *lint.Spec
}

// Compile builds the registry and lint spec. scripts may be nil when the
// profile uses no script checks.
func (p *Profile) Compile(scripts ScriptResolver) (*Language, error) {
	reg, err := p.registry()
	if err != nil {
		return nil, err
	}
	c := compiler{lang: p.Language, scripts: scripts}
	spec := &lint.Spec{
		NodeTypes:          make(map[string]*lint.RuleSet, len(p.Rules)),
		SyntaxErrorMessage: p.SyntaxError,
	}
	for typ, decl := range p.Rules {
		rs, err := c.ruleSet(decl)
		if err != nil {
			return nil, fmt.Errorf("profile: %s: rules for %s: %w", p.Language, typ, err)
		}
		spec.NodeTypes[typ] = rs
	}
	if p.ErrorRules != nil {
		if spec.ErrorNodes, err = c.ruleSet(*p.ErrorRules); err != nil {
			return nil, fmt.Errorf("profile: %s: error_rules: %w", p.Language, err)
		}
	}
	if p.AllRules != nil {
		if spec.AllNodes, err = c.ruleSet(*p.AllRules); err != nil {
			return nil, fmt.Errorf("profile: %s: all_rules: %w", p.Language, err)
		}
	}
	return &Language{Name: p.Language, Profile: p, Registry: reg, Spec: spec}, nil
}

func (p *Profile) registry() (*roles.Registry, error) {
	reg := roles.NewRegistry()
	if err := reg.SetNormalization(roles.Normalization(p.Normalize)); err != nil {
		return nil, fmt.Errorf("profile: %s: %w", p.Language, err)
	}
	for _, r := range p.Roles {
		var kind roles.Kind
		switch {
		case r.Scope != "":
			kind = roles.KindScope
		case r.Definition != "":
			kind = roles.KindDefinition
		case r.Use != "":
			kind = roles.KindUse
		default:
			kind = roles.KindNone
		}
		if err := reg.AddEncoded(kind, r.selector(), r.With); err != nil {
			return nil, fmt.Errorf("profile: %s: %w", p.Language, err)
		}
	}
	reg.AddBuiltins(p.Builtins...)
	return reg, nil
}

type compiler struct {
	lang    string
	scripts ScriptResolver
}

func (c compiler) ruleSet(decl RuleSetDecl) (*lint.RuleSet, error) {
	mode, err := lint.ParseMode(decl.Mode)
	if err != nil {
		return nil, err
	}
	rs := &lint.RuleSet{Mode: mode}
	for i, rd := range decl.Rules {
		rule := lint.Rule{Code: rd.Code, Context: rd.Context}
		for _, cd := range rd.Checks {
			check, err := c.check(cd)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			rule.Checks = append(rule.Checks, check)
		}
		rs.Rules = append(rs.Rules, rule)
	}
	return rs, nil
}

func (c compiler) check(cd CheckDecl) (lint.Check, error) {
	actions, err := compileActions(cd.Actions)
	if err != nil {
		return nil, err
	}
	sev := func(def lint.Severity) (lint.Severity, error) {
		if cd.Severity == "" {
			return def, nil
		}
		return lint.ParseSeverity(cd.Severity)
	}

	var check lint.Check
	switch cd.Check {
	case "unused":
		s, err := sev(lint.SeverityHint)
		if err != nil {
			return nil, err
		}
		check = lint.UnusedDefinition(s, actions...)
	case "undefined":
		s, err := sev(lint.SeverityError)
		if err != nil {
			return nil, err
		}
		check = lint.UndefinedUse(s, actions...)
	case "duplicate":
		s, err := sev(lint.SeverityError)
		if err != nil {
			return nil, err
		}
		check = lint.MultipleDefinitions(s, actions...)
	case "hint", "info", "warning", "error":
		s, err := lint.ParseSeverity(cd.Check)
		if err != nil {
			return nil, err
		}
		check = lint.Message(s, cd.Message, actions...)
	case "message":
		s, err := sev(lint.SeverityInfo)
		if err != nil {
			return nil, err
		}
		check = lint.Message(s, cd.Message, actions...)
	case "script":
		if c.scripts == nil {
			return nil, fmt.Errorf("script %q: no script runtime: %w", cd.Script, ErrInvalidProfile)
		}
		if check, err = c.scripts(cd.Script); err != nil {
			return nil, fmt.Errorf("script %q: %w", cd.Script, err)
		}
	default:
		return nil, fmt.Errorf("check %q: %w", cd.Check, ErrInvalidProfile)
	}

	if cd.Following != "" {
		check = lint.Following(cd.Following, check)
	}
	if cd.Inside != "" {
		check = lint.Inside(cd.Inside, check)
	}
	return check, nil
}

func compileActions(decls []ActionDecl) ([]lint.Action, error) {
	var out []lint.Action
	for _, a := range decls {
		switch {
		case a.Remove != "" && a.InsertBefore == "":
			out = append(out, lint.Remove(a.Remove, a.Label))
		case a.InsertBefore != "" && a.Remove == "":
			out = append(out, lint.InsertBefore(a.InsertBefore, a.Template, a.Label))
		default:
			return nil, fmt.Errorf("action %q needs exactly one of remove, insert_before: %w", a.Label, ErrInvalidProfile)
		}
	}
	return out, nil
}
