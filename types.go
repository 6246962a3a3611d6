package reflector

import (
	"github.com/jward/reflector/internal/config"
	"github.com/jward/reflector/internal/lint"
	"github.com/jward/reflector/internal/span"
)

// Public aliases for the internal types that appear in the Engine and
// Analysis APIs.

type Config = config.Config
type Diagnostic = lint.Diagnostic
type Severity = lint.Severity
type Action = lint.Action
type Edit = lint.Edit
type EditSurface = lint.EditSurface
type Buffer = lint.Buffer
type Range = span.Range

const (
	SeverityHint    = lint.SeverityHint
	SeverityInfo    = lint.SeverityInfo
	SeverityWarning = lint.SeverityWarning
	SeverityError   = lint.SeverityError
)
