// Package embedded provides the plugin assets compiled into the repath
// binary: the hooks manifest, the plugin manifest, the starter rules file,
// and the slash command definitions. These are the fallback when no repo
// checkout or plugin install is present (e.g. a bare `go install`).
package embedded

import "embed"

// HooksJSON contains the raw hooks.json configuration.
//
//go:embed hooks/hooks.json
var HooksJSON []byte

// PluginJSON contains the plugin.json manifest.
//
//go:embed plugin.json
var PluginJSON []byte

// RulesJSON contains the starter rules file written by `repath init`.
//
//go:embed rules.json
var RulesJSON []byte

// CommandsFS contains the slash command markdown files.
// Use fs.WalkDir to extract files to disk.
//
//go:embed all:commands
var CommandsFS embed.FS
