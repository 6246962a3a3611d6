package lint

import (
	"fmt"

	"github.com/jward/reflector/internal/syntax"
)

// UnusedDefinition reports a definition that no use resolves to.
func UnusedDefinition(sev Severity, actions ...Action) Check {
	return func(c *Context) {
		d := c.DefinitionNode()
		if d == nil {
			return
		}
		if len(d.MatchingUses()) == 0 {
			c.Emit(sev, CodeUnusedDefinition, fmt.Sprintf("'%s' is never used", c.Text()), actions...)
		}
	}
}

// UndefinedUse reports a use that resolves to no definition. Names the
// language predeclares are never reported.
func UndefinedUse(sev Severity, actions ...Action) Check {
	return func(c *Context) {
		u := c.UseNode()
		if u == nil || u.IsBuiltin() {
			return
		}
		if len(u.MatchingDefinitions()) == 0 {
			c.Emit(sev, CodeUndefinedUse, fmt.Sprintf("'%s' has not been defined", c.Text()), actions...)
		}
	}
}

// MultipleDefinitions reports a definition that conflicts with another
// same-named definition in its scope.
func MultipleDefinitions(sev Severity, actions ...Action) Check {
	return func(c *Context) {
		d := c.DefinitionNode()
		if d == nil {
			return
		}
		if len(d.ConflictingDefinitions()) > 0 {
			c.Emit(sev, CodeDuplicateDefinition, fmt.Sprintf("'%s' is defined more than once", c.Text()), actions...)
		}
	}
}

// Message reports message unconditionally.
func Message(sev Severity, message string, actions ...Action) Check {
	return func(c *Context) { c.Diagnostic(sev, message, actions...) }
}

func Hint(message string, actions ...Action) Check {
	return Message(SeverityHint, message, actions...)
}

func Info(message string, actions ...Action) Check {
	return Message(SeverityInfo, message, actions...)
}

func Warning(message string, actions ...Action) Check {
	return Message(SeverityWarning, message, actions...)
}

func Error(message string, actions ...Action) Check {
	return Message(SeverityError, message, actions...)
}

// Following runs check only when the node directly follows a sibling of
// the given type.
func Following(typeName string, check Check) Check {
	return func(c *Context) {
		prev := c.node.PrevSibling()
		if prev != nil && prev.Type() == typeName {
			check(c)
		}
	}
}

// Inside runs check only when the node has an ancestor of the given type.
func Inside(typeName string, check Check) Check {
	return func(c *Context) {
		if p := c.node.Parent(); p != nil && syntax.EnclosingNodeOfType(p, typeName) != nil {
			check(c)
		}
	}
}
