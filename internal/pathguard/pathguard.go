// Package pathguard validates that every path the engine touches
// resolves inside a session's repository root, rejecting traversal
// (spec.md §4.1, invariant I1/P1).
package pathguard

import (
	"path/filepath"
	"strings"

	"github.com/thebtf/refineloop/internal/refineerr"
)

// Resolve computes the canonical absolute path for the user-supplied
// relative path p inside root, and verifies it did not escape root
// (directly, or via a symlink whose target resolves outside root).
// p must be non-empty and relative.
func Resolve(root, p string) (string, *refineerr.Error) {
	if p == "" {
		return "", refineerr.New(refineerr.PathEscaped, "path must not be empty")
	}
	if filepath.IsAbs(p) {
		return "", refineerr.New(refineerr.PathEscaped, "path must be relative: %s", p)
	}

	root = filepath.Clean(root)
	joined := filepath.Join(root, p)

	resolved, err := resolveSymlinks(joined)
	if err != nil {
		resolved = joined
	}
	resolvedRoot, err := resolveSymlinks(root)
	if err != nil {
		resolvedRoot = root
	}

	if !within(resolvedRoot, resolved) {
		return "", refineerr.New(refineerr.PathEscaped, "path escapes repository root: %s", p)
	}
	return joined, nil
}

// within reports whether target equals root or has root+separator as
// a strict prefix, per spec.md P1.
func within(root, target string) bool {
	if target == root {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(target, strings.TrimSuffix(root, sep)+sep)
}
