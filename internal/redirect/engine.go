// Package redirect implements the path-redirection decision engine.
//
// The engine scans enabled rules in file order; the first rule whose tool
// filter, pattern, location, and exclusions all agree produces a candidate
// target, which is then run through the safety guards. The engine is pure:
// it never touches the filesystem beyond best-effort symlink resolution and
// never writes output. Callers map its decision onto the hook protocol.
package redirect

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/boshu2/repath/internal/rules"
	"github.com/boshu2/repath/internal/safety"
)

// Action is the outcome of evaluating one write event.
type Action string

const (
	// ActionPass means the event flows through unmodified.
	ActionPass Action = "pass"
	// ActionRedirect means the target path is rewritten.
	ActionRedirect Action = "redirect"
	// ActionBlock means a rule matched but the redirect failed a safety
	// check. The hook maps this to deny (fail_mode block) or pass
	// (fail_mode open).
	ActionBlock Action = "block"
)

// Decision is the result of Evaluate for one event.
type Decision struct {
	Action Action `json:"action"`
	// Rule is the name of the matched rule, empty for pass-with-no-match.
	Rule string `json:"rule,omitempty"`
	// Source is the canonical write target.
	Source string `json:"source,omitempty"`
	// Target is the rewritten path when Action is redirect.
	Target string `json:"target,omitempty"`
	// Reason explains pass and block decisions.
	Reason string `json:"reason,omitempty"`
}

// Options configure an Engine for one evaluation context.
type Options struct {
	// CWD is the event working directory (project root).
	CWD string
	// Home is the user home directory, for ~ expansion and protected dirs.
	Home string
	// ConfineToProject requires redirect targets to stay under CWD or an
	// allowed base.
	ConfineToProject bool
	// AllowedBases are extra directories redirects may target when confined.
	AllowedBases []string
	// ProtectedExtra extends the built-in protected prefix list.
	ProtectedExtra []string
}

// Engine evaluates write events against a compiled rule set.
type Engine struct {
	rules     []rules.Compiled
	opts      Options
	cwd       string
	protected []string
	allowed   []string
}

// New compiles the rule set and canonicalizes the option paths.
func New(set *rules.RuleSet, opts Options) (*Engine, error) {
	compiled, err := set.Compile()
	if err != nil {
		return nil, err
	}
	e := &Engine{rules: compiled, opts: opts}
	if opts.CWD != "" {
		e.cwd = filepath.ToSlash(filepath.Clean(opts.CWD))
	}
	e.protected = safety.ProtectedPrefixes(opts.Home, opts.ProtectedExtra)
	for _, base := range opts.AllowedBases {
		canon, err := safety.Canonicalize(base, e.cwd, opts.Home)
		if err != nil {
			continue
		}
		e.allowed = append(e.allowed, canon)
	}
	return e, nil
}

// Evaluate decides what to do with one file-write event.
func (e *Engine) Evaluate(tool, rawPath string) Decision {
	if safety.EscapesBase(rawPath, e.cwd) {
		return Decision{Action: ActionBlock, Source: rawPath, Reason: "relative path escapes working directory"}
	}

	source, err := safety.Canonicalize(rawPath, e.cwd, e.opts.Home)
	if err != nil {
		return Decision{Action: ActionPass, Source: rawPath, Reason: fmt.Sprintf("unresolvable path: %v", err)}
	}

	if safety.IsProtected(source, e.protected) {
		// Not ours to move; the assistant's own permission layer owns
		// writes into system locations.
		return Decision{Action: ActionPass, Source: source, Reason: "source in protected directory"}
	}

	for i := range e.rules {
		r := &e.rules[i]
		if !r.IsEnabled() || !r.AppliesTo(tool) {
			continue
		}
		if d, matched := e.applyRule(r, source); matched {
			return d
		}
	}
	return Decision{Action: ActionPass, Source: source, Reason: "no rule matched"}
}

// applyRule checks one rule against a canonical source and, on match,
// resolves and validates the target. The second return is false when the
// rule simply does not apply and the scan should continue.
func (e *Engine) applyRule(r *rules.Compiled, source string) (Decision, bool) {
	from := ""
	if r.From != "" {
		canon, err := safety.Canonicalize(r.From, e.cwd, e.opts.Home)
		if err != nil {
			return Decision{}, false
		}
		from = canon
		if !safety.Contains(from, source) {
			return Decision{}, false
		}
	}

	if !r.Matches(source) {
		return Decision{}, false
	}

	destDir, err := safety.Canonicalize(r.Dest, e.cwd, e.opts.Home)
	if err != nil {
		return Decision{
			Action: ActionBlock, Rule: r.Name, Source: source,
			Reason: fmt.Sprintf("unresolvable dest: %v", err),
		}, true
	}

	// Already where the rule wants it: nothing to do, but the rule did
	// claim the event, so stop scanning.
	if safety.Contains(destDir, source) {
		return Decision{Action: ActionPass, Rule: r.Name, Source: source, Reason: "already under destination"}, true
	}

	target, err := resolveTarget(r, source, from, destDir)
	if err != nil {
		return Decision{Action: ActionBlock, Rule: r.Name, Source: source, Reason: err.Error()}, true
	}

	if d, ok := e.checkTarget(r, source, target); !ok {
		return d, true
	}

	return Decision{Action: ActionRedirect, Rule: r.Name, Source: source, Target: target}, true
}

// resolveTarget computes the rewritten path for a matched rule.
func resolveTarget(r *rules.Compiled, source, from, destDir string) (string, error) {
	switch r.Mode() {
	case rules.ModeTree:
		rel, err := filepath.Rel(from, source)
		if err != nil || strings.HasPrefix(filepath.ToSlash(rel), "../") {
			return "", fmt.Errorf("source not under from directory")
		}
		return filepath.ToSlash(filepath.Join(destDir, rel)), nil
	default:
		return filepath.ToSlash(filepath.Join(destDir, filepath.Base(source))), nil
	}
}

// checkTarget runs the safety guards over a candidate target.
func (e *Engine) checkTarget(r *rules.Compiled, source, target string) (Decision, bool) {
	resolved := safety.ResolveExisting(target)
	if safety.IsProtected(target, e.protected) || safety.IsProtected(resolved, e.protected) {
		return Decision{
			Action: ActionBlock, Rule: r.Name, Source: source,
			Reason: fmt.Sprintf("target %s in protected directory", target),
		}, false
	}
	// Symlinked roots (e.g. /tmp on macOS) make the resolved form diverge
	// from the lexical one; either counts as inside.
	if e.opts.ConfineToProject && !e.targetAllowed(target) && !e.targetAllowed(resolved) {
		return Decision{
			Action: ActionBlock, Rule: r.Name, Source: source,
			Reason: fmt.Sprintf("target %s outside project", target),
		}, false
	}
	return Decision{}, true
}

func (e *Engine) targetAllowed(target string) bool {
	if e.cwd != "" && safety.Contains(e.cwd, target) {
		return true
	}
	for _, base := range e.allowed {
		if safety.Contains(base, target) {
			return true
		}
	}
	return false
}
