package safety

import "errors"

// Sentinel errors for path canonicalization.
var (
	// ErrPathEmpty is returned for an empty or all-whitespace path.
	ErrPathEmpty = errors.New("path must not be empty")

	// ErrHomeUnknown is returned when a ~/ path cannot expand.
	ErrHomeUnknown = errors.New("home directory unknown, cannot expand ~")

	// ErrCwdUnknown is returned when a relative path has no cwd to resolve against.
	ErrCwdUnknown = errors.New("working directory unknown, cannot resolve relative path")

	// ErrUserExpansion is returned for ~user paths, which are not supported.
	ErrUserExpansion = errors.New("~user expansion is not supported")
)
