package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIFinding is a JSON-friendly diagnostic. Lines and columns are 0-based.
type CLIFinding struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Col      int      `json:"col"`
	From     uint32   `json:"from"`
	To       uint32   `json:"to"`
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Fixes    []string `json:"fixes,omitempty"`
}

// CLILintSummary is the result of the lint command.
type CLILintSummary struct {
	Files    int            `json:"files"`
	Cached   int            `json:"cached"`
	Findings []CLIFinding   `json:"findings"`
	Counts   map[string]int `json:"counts"`
}

// CLILocation is a resolved range.
type CLILocation struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	From uint32 `json:"from"`
	To   uint32 `json:"to"`
	Text string `json:"text"`
	Kind string `json:"kind,omitempty"`
}

// CLICompletion is a completion candidate.
type CLICompletion struct {
	Label string `json:"label"`
	Kind  string `json:"kind,omitempty"`
}

// CLIRole is a node that carries a role.
type CLIRole struct {
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Type string `json:"type"`
	Kind string `json:"kind"`
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
}

// CLIFix is the result of the fix command.
type CLIFix struct {
	File      string       `json:"file"`
	Applied   []string     `json:"applied"`
	Written   bool         `json:"written"`
	Remaining []CLIFinding `json:"remaining"`
}

// CLILanguage describes a loaded profile.
type CLILanguage struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Extensions  []string `json:"extensions"`
	Roles       int      `json:"roles"`
	Builtins    int      `json:"builtins"`
}
