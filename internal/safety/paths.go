package safety

import (
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize resolves a write target to an absolute, cleaned,
// slash-separated path. Tilde expands against home; relative paths resolve
// against cwd. Returns an error for empty paths and for ~user forms, which
// the hook cannot resolve reliably.
func Canonicalize(path, cwd, home string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrPathEmpty
	}
	if path == "~" {
		path = home
	} else if strings.HasPrefix(path, "~/") {
		if home == "" {
			return "", ErrHomeUnknown
		}
		path = filepath.Join(home, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", ErrUserExpansion
	}
	if !filepath.IsAbs(path) {
		if cwd == "" {
			return "", ErrCwdUnknown
		}
		path = filepath.Join(cwd, path)
	}
	return filepath.ToSlash(filepath.Clean(path)), nil
}

// EscapesBase reports whether raw is a relative path that resolves outside
// base once cleaned. Absolute inputs never escape: they name their target
// directly. This is the traversal check for relative write targets and for
// tree-mode relative segments.
func EscapesBase(raw, base string) bool {
	if raw == "" || base == "" {
		return false
	}
	if filepath.IsAbs(raw) || strings.HasPrefix(raw, "~") {
		return false
	}
	resolved := filepath.ToSlash(filepath.Clean(filepath.Join(base, raw)))
	return !Contains(filepath.ToSlash(filepath.Clean(base)), resolved)
}

// Contains reports whether path equals base or sits under it.
// Both arguments must already be canonical (absolute, cleaned, slashed).
func Contains(base, path string) bool {
	if base == "" || path == "" {
		return false
	}
	if path == base {
		return true
	}
	if base == "/" {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, base+"/")
}

// protectedSystemPrefixes are directory roots a redirect may never target.
var protectedSystemPrefixes = []string{
	"/bin", "/boot", "/dev", "/etc", "/lib", "/opt",
	"/proc", "/root", "/sbin", "/sys", "/usr", "/var",
}

// protectedHomeSuffixes are home-relative directories a redirect may never
// target. ~/.claude is included: rewriting the assistant's own settings
// from inside one of its hooks is refused outright.
var protectedHomeSuffixes = []string{
	".ssh", ".gnupg", ".claude",
}

// ProtectedPrefixes returns the built-in block-list plus any extra prefixes.
// Extras are canonicalized; empty or unresolvable entries are dropped.
func ProtectedPrefixes(home string, extra []string) []string {
	prefixes := make([]string, 0, len(protectedSystemPrefixes)+len(protectedHomeSuffixes)+len(extra))
	prefixes = append(prefixes, protectedSystemPrefixes...)
	if home != "" {
		for _, s := range protectedHomeSuffixes {
			prefixes = append(prefixes, filepath.ToSlash(filepath.Join(home, s)))
		}
	}
	for _, e := range extra {
		canon, err := Canonicalize(e, "", home)
		if err != nil {
			continue
		}
		prefixes = append(prefixes, canon)
	}
	return prefixes
}

// IsProtected reports whether a canonical path sits under any prefix.
func IsProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if Contains(p, path) {
			return true
		}
	}
	return false
}

// ResolveExisting walks up from path to the deepest existing ancestor,
// resolves its symlinks, and rejoins the remainder. Best effort: on any
// error the input is returned unchanged.
func ResolveExisting(path string) string {
	remainder := ""
	dir := path
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.ToSlash(filepath.Join(resolved, remainder))
		} else if !os.IsNotExist(err) {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return path
		}
		remainder = filepath.Join(filepath.Base(dir), remainder)
		dir = parent
	}
}
