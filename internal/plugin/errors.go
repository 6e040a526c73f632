package plugin

import "errors"

// Sentinel errors for manifest validation.
var (
	// ErrNameMissing is returned when plugin.json has no name.
	ErrNameMissing = errors.New("plugin manifest missing name")

	// ErrVersionMissing is returned when plugin.json has no version.
	ErrVersionMissing = errors.New("plugin manifest missing version")

	// ErrPathEscapes is returned when a manifest path contains "..".
	ErrPathEscapes = errors.New("plugin manifest path escapes plugin root")
)
