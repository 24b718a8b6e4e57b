package pathguard

import (
	"os"
	"path/filepath"
)

// resolveSymlinks resolves symlinks along p, tolerating components
// that do not yet exist (a candidate may create a new file). It walks
// up to the deepest existing ancestor, resolves that with
// filepath.EvalSymlinks, then reattaches the non-existent suffix.
func resolveSymlinks(p string) (string, error) {
	p = filepath.Clean(p)

	var suffix []string
	cur := p
	for {
		if _, err := os.Lstat(cur); err == nil {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached filesystem root without finding an existing
			// ancestor; nothing to resolve against.
			return p, nil
		}
		suffix = append([]string{filepath.Base(cur)}, suffix...)
		cur = parent
	}

	resolved, err := filepath.EvalSymlinks(cur)
	if err != nil {
		return "", err
	}
	for _, part := range suffix {
		resolved = filepath.Join(resolved, part)
	}
	return resolved, nil
}
