package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thebtf/refineloop/internal/refineerr"
)

func TestResolve_WithinRoot(t *testing.T) {
	root := t.TempDir()
	abs, errs := Resolve(root, "a/b.txt")
	assert.Nil(t, errs)
	assert.Equal(t, filepath.Join(root, "a/b.txt"), abs)
}

func TestResolve_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	_, errs := Resolve(root, "../outside.txt")
	if assert.NotNil(t, errs) {
		assert.Equal(t, refineerr.PathEscaped, errs.Code)
	}
}

func TestResolve_RejectsAbsolute(t *testing.T) {
	root := t.TempDir()
	_, errs := Resolve(root, "/etc/passwd")
	assert.NotNil(t, errs)
}

func TestResolve_RejectsEmpty(t *testing.T) {
	root := t.TempDir()
	_, errs := Resolve(root, "")
	assert.NotNil(t, errs)
}

func TestResolve_DeepTraversalThroughNested(t *testing.T) {
	root := t.TempDir()
	_, errs := Resolve(root, "a/../../outside.txt")
	assert.NotNil(t, errs)
}

func TestResolve_SymlinkEscapeRejected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	_, errs := Resolve(root, "escape/file.txt")
	assert.NotNil(t, errs)
}

func TestResolve_NonexistentPathStillValidated(t *testing.T) {
	root := t.TempDir()
	abs, errs := Resolve(root, "new/file.txt")
	assert.Nil(t, errs)
	assert.Equal(t, filepath.Join(root, "new/file.txt"), abs)
}
