// Package rules defines the redirect rule set: the JSON schema users write,
// loading and validation, and the compiled matchers the decision engine runs.
//
// A rule set is a versioned JSON document:
//
//	{
//	  "version": 1,
//	  "rules": [
//	    {
//	      "name": "docs-to-notes",
//	      "pattern": "*.md",
//	      "kind": "glob",
//	      "tools": ["Write"],
//	      "from": "",
//	      "exclude": ["README.md"],
//	      "dest": "notes",
//	      "mode": "dir"
//	    }
//	  ]
//	}
//
// Patterns compile once at load time; the hook hot path only runs the
// compiled matchers.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// CurrentVersion is the rule set schema version this build understands.
const CurrentVersion = 1

// Pattern kinds.
const (
	KindGlob    = "glob"
	KindRegex   = "regex"
	KindLiteral = "literal"
	KindSuffix  = "suffix"
)

// Destination modes.
const (
	// ModeDir places the file directly in dest: dest/<basename>.
	ModeDir = "dir"
	// ModeTree preserves the path relative to `from`: dest/<rel>.
	// Requires the rule to set `from`.
	ModeTree = "tree"
)

// WriteTools are the Claude Code tools that target a file path.
// A rule with no tools filter applies to all of them.
var WriteTools = []string{"Write", "Edit", "MultiEdit", "NotebookEdit"}

// RuleSet is the top-level rules document.
type RuleSet struct {
	Version int    `json:"version"`
	Rules   []Rule `json:"rules"`
}

// Rule is a single redirect rule as written by the user.
type Rule struct {
	// Name identifies the rule in decisions and diagnostics. Required, unique.
	Name string `json:"name"`

	// Pattern is matched against the write target. Required.
	Pattern string `json:"pattern"`

	// Kind selects the pattern syntax: glob (default), regex, literal, suffix.
	Kind string `json:"kind,omitempty"`

	// Tools restricts the rule to specific write tools. Empty means all.
	Tools []string `json:"tools,omitempty"`

	// From confines the rule to paths under this directory. Tree mode
	// resolves the relative path against it.
	From string `json:"from,omitempty"`

	// Exclude patterns veto a match. Same syntax as Kind.
	Exclude []string `json:"exclude,omitempty"`

	// Dest is the redirect destination directory. Required.
	Dest string `json:"dest"`

	// Mode is dir (default) or tree.
	Mode string `json:"mode,omitempty"`

	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty"`
}

// IsEnabled reports whether the rule participates in matching.
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// kind returns the effective pattern kind.
func (r *Rule) kind() string {
	if r.Kind == "" {
		return KindGlob
	}
	return r.Kind
}

// mode returns the effective destination mode.
func (r *Rule) mode() string {
	if r.Mode == "" {
		return ModeDir
	}
	return r.Mode
}

// Parse decodes and validates a rule set from raw JSON.
func Parse(data []byte) (*RuleSet, error) {
	var set RuleSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Load reads and parses a rule set from a file.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Validate checks structural constraints. Pattern compilation is deferred
// to Compile, which reports the first broken pattern.
func (s *RuleSet) Validate() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrVersionUnsupported, s.Version, CurrentVersion)
	}
	seen := make(map[string]bool, len(s.Rules))
	for i := range s.Rules {
		r := &s.Rules[i]
		if err := r.validate(); err != nil {
			return fmt.Errorf("rule %d (%q): %w", i, r.Name, err)
		}
		if seen[r.Name] {
			return fmt.Errorf("rule %d: %w: %q", i, ErrDuplicateName, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

func (r *Rule) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameEmpty
	}
	if r.Pattern == "" {
		return ErrPatternEmpty
	}
	if strings.TrimSpace(r.Dest) == "" {
		return ErrDestEmpty
	}
	switch r.kind() {
	case KindGlob, KindRegex, KindLiteral, KindSuffix:
	default:
		return fmt.Errorf("%w: %q", ErrKindUnknown, r.Kind)
	}
	switch r.mode() {
	case ModeDir:
	case ModeTree:
		if r.From == "" {
			return ErrTreeNeedsFrom
		}
	default:
		return fmt.Errorf("%w: %q", ErrModeUnknown, r.Mode)
	}
	for _, tool := range r.Tools {
		if !isWriteTool(tool) {
			return fmt.Errorf("%w: %q", ErrToolUnknown, tool)
		}
	}
	return nil
}

func isWriteTool(name string) bool {
	for _, t := range WriteTools {
		if t == name {
			return true
		}
	}
	return false
}

// matcher reports whether a candidate path matches a compiled pattern.
type matcher func(path string) bool

// Compiled is a rule with its patterns compiled to matcher funcs.
type Compiled struct {
	Rule
	match   matcher
	exclude []matcher
}

// Compile validates the set and compiles every pattern. Disabled rules are
// compiled too so a broken pattern surfaces before the rule is re-enabled.
func (s *RuleSet) Compile() ([]Compiled, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	compiled := make([]Compiled, 0, len(s.Rules))
	for i := range s.Rules {
		r := s.Rules[i]
		m, err := compilePattern(r.kind(), r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: pattern %q: %w", r.Name, r.Pattern, err)
		}
		c := Compiled{Rule: r, match: m}
		for _, ex := range r.Exclude {
			em, err := compilePattern(r.kind(), ex)
			if err != nil {
				return nil, fmt.Errorf("rule %q: exclude %q: %w", r.Name, ex, err)
			}
			c.exclude = append(c.exclude, em)
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

// Matches reports whether the rule's pattern matches path and no exclusion
// vetoes it. Path must be absolute and slash-separated.
func (c *Compiled) Matches(path string) bool {
	if !c.match(path) {
		return false
	}
	for _, ex := range c.exclude {
		if ex(path) {
			return false
		}
	}
	return true
}

// AppliesTo reports whether the rule covers the given tool.
func (c *Compiled) AppliesTo(tool string) bool {
	if len(c.Tools) == 0 {
		return isWriteTool(tool)
	}
	for _, t := range c.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// Mode returns the effective destination mode.
func (c *Compiled) Mode() string { return c.mode() }

// compilePattern builds a matcher for one pattern.
//
// Patterns without a path separator match the basename. Patterns with a
// separator match the full slash-normalized path when absolute, and at any
// directory boundary when relative, so "docs/*.md" matches
// "/repo/docs/a.md". Regex patterns always see the full path and may anchor
// themselves.
func compilePattern(kind, pattern string) (matcher, error) {
	switch kind {
	case KindGlob:
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		if !strings.ContainsRune(pattern, '/') {
			return func(path string) bool { return g.Match(filepath.ToSlash(filepath.Base(path))) }, nil
		}
		if strings.HasPrefix(pattern, "/") {
			return func(path string) bool { return g.Match(path) }, nil
		}
		return func(path string) bool { return matchAtBoundary(g.Match, path) }, nil

	case KindRegex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil

	case KindLiteral:
		if strings.ContainsRune(pattern, '/') {
			cleaned := filepath.ToSlash(filepath.Clean(pattern))
			if strings.HasPrefix(cleaned, "/") {
				return func(path string) bool { return path == cleaned }, nil
			}
			return func(path string) bool { return strings.HasSuffix(path, "/"+cleaned) }, nil
		}
		return func(path string) bool { return filepath.Base(path) == pattern }, nil

	case KindSuffix:
		return func(path string) bool { return strings.HasSuffix(path, pattern) }, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrKindUnknown, kind)
	}
}

// matchAtBoundary tries a relative pattern against the remainder of path
// after every directory separator. Candidate paths are absolute, so the
// pattern can never match the whole path directly.
func matchAtBoundary(match func(string) bool, path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && match(path[i+1:]) {
			return true
		}
	}
	return false
}
