package rules

import "errors"

// Sentinel errors for rule set validation. Using sentinels allows callers
// to match with errors.Is for reliable error handling.
var (
	// ErrVersionUnsupported is returned when the rule set version is not CurrentVersion.
	ErrVersionUnsupported = errors.New("unsupported rules version")

	// ErrNameEmpty is returned when a rule has no name.
	ErrNameEmpty = errors.New("rule name must not be empty")

	// ErrPatternEmpty is returned when a rule has no pattern.
	ErrPatternEmpty = errors.New("rule pattern must not be empty")

	// ErrDestEmpty is returned when a rule has no destination.
	ErrDestEmpty = errors.New("rule dest must not be empty")

	// ErrDuplicateName is returned when two rules share a name.
	ErrDuplicateName = errors.New("duplicate rule name")

	// ErrKindUnknown is returned for a pattern kind outside glob/regex/literal/suffix.
	ErrKindUnknown = errors.New("unknown pattern kind")

	// ErrModeUnknown is returned for a destination mode outside dir/tree.
	ErrModeUnknown = errors.New("unknown destination mode")

	// ErrTreeNeedsFrom is returned when a tree-mode rule omits `from`.
	ErrTreeNeedsFrom = errors.New("tree mode requires from")

	// ErrToolUnknown is returned when a tools filter names a non-write tool.
	ErrToolUnknown = errors.New("unknown write tool")
)
