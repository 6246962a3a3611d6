package store

import (
	"time"

	"github.com/jward/reflector/internal/lint"
)

type File struct {
	ID         int64
	Path       string
	Language   string
	Hash       string
	LastLinted time.Time
}

// Diagnostic is a cached lint diagnostic. Line and column are 0-based
// and stored for listing without re-parsing.
type Diagnostic struct {
	ID        int64
	FileID    int64
	StartByte uint32
	EndByte   uint32
	StartLine int
	StartCol  int
	Severity  string
	Code      string
	Message   string
	Actions   []lint.Action
}

// Result is one linted file with its diagnostics.
type Result struct {
	File        File
	Diagnostics []Diagnostic
}
