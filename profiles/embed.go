// Package profiles embeds the built-in language profiles.
package profiles

import "embed"

// FS holds one YAML profile per supported language.
//
//go:embed *.yaml
var FS embed.FS
