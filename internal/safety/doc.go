// Package safety provides the path guards the redirect engine runs before
// rewriting a file-write target.
//
// repath sits in the assistant's write path: a bad redirect could move a
// file into a system directory, or a crafted rule could walk a relative
// path out of the project. The safety package centralizes the checks that
// keep redirects bounded.
//
// # Threat Model
//
// T1 - Path Traversal: A relative write target or a tree-mode relative path
// could escape the working directory via ".." sequences. Mitigations:
// canonicalization against the event cwd, rejection of relative inputs that
// resolve outside it, and containment checks on the resolved destination.
//
// T2 - Protected Directory Writes: A destination could land in a system
// directory (/etc, /usr, ...) or in the assistant's own configuration
// (~/.claude), where a redirect would corrupt the host or the runtime.
// Mitigation: a prefix block-list over lexically canonical paths, extendable
// via configuration but never shrinkable below the built-in set.
//
// T3 - Escaping the Project: Redirects that silently move files outside the
// repository surprise users and version control. Mitigation: by default the
// destination must stay under the event cwd or an allow-listed base
// directory.
//
// # Design Principles
//
// Fail open: the hook never blocks the assistant on repath's own failures.
// Guards report, the hook decides; with fail_mode "open" (the default) a
// rejected redirect degrades to a passthrough.
//
// Best effort: checks are lexical. Symlinks are resolved only when the
// destination parent already exists; repath is not a sandbox and does not
// try to be one.
//
// Kill switch: REPATH_DISABLED short-circuits the whole hook so an operator
// can disable enforcement without touching settings.
package safety
