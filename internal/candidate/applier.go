package candidate

import (
	"path/filepath"

	"github.com/thebtf/refineloop/internal/diffparser"
	"github.com/thebtf/refineloop/internal/edit"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/patch"
	"github.com/thebtf/refineloop/internal/pathguard"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

// Result is what Apply returns on success: the pre-change content of
// every touched path (for the undo stack) and any non-fatal warnings
// (e.g. large submission).
type Result struct {
	PreContent map[string]string
	Warnings   []string
}

// TargetPaths extracts the relative paths a candidate will touch,
// without applying anything — used both by Apply's own snapshot step
// and by ContextTracker's stale-context check (spec.md §4.12 step 1).
func TargetPaths(c models.Candidate) ([]string, *refineerr.Error) {
	switch c.Mode {
	case models.ModeDiff:
		paths := make([]string, len(c.Diffs))
		for i, d := range c.Diffs {
			paths[i] = d.Path
		}
		return paths, nil
	case models.ModePatch:
		files, err := diffparser.Parse(c.Patch)
		if err != nil {
			return nil, err
		}
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Path
		}
		return paths, nil
	case models.ModeFiles, models.ModeCreate:
		paths := make([]string, len(c.Files))
		for i, f := range c.Files {
			paths[i] = f.Path
		}
		return paths, nil
	case models.ModeModify:
		paths := make([]string, len(c.Edits))
		for i, f := range c.Edits {
			paths[i] = f.File
		}
		return paths, nil
	default:
		return nil, refineerr.New(refineerr.InvalidParameter, "unknown candidate mode: %q", c.Mode)
	}
}

// Apply dispatches c on its mode, enforcing size/count limits and
// PathGuard on every path, and writes through fs. root is the
// session's repository root (absolute). On any failure no write
// performed by this call is left in place for modes that batch
// multiple files atomically (diff/patch/files); per-file modes
// (create/modify) abort the remaining files but do not roll back
// files already written earlier in the same batch — callers recover
// via the pre-change snapshot already captured for those paths.
func Apply(fsImpl fsys.FS, root string, c models.Candidate) (Result, *refineerr.Error) {
	paths, err := TargetPaths(c)
	if err != nil {
		return Result{}, err
	}
	if len(paths) > MaxFiles {
		return Result{}, refineerr.New(refineerr.TooManyFiles, "candidate touches %d files, limit is %d", len(paths), MaxFiles)
	}

	resolved := make([]string, len(paths))
	for i, p := range paths {
		abs, err := pathguard.Resolve(root, p)
		if err != nil {
			return Result{}, err
		}
		resolved[i] = abs
	}

	pre, err := snapshotPreContent(fsImpl, resolved)
	if err != nil {
		return Result{}, err
	}

	var warnErr *refineerr.Error
	switch c.Mode {
	case models.ModeDiff:
		warnErr = applyDiffs(fsImpl, resolved, c.Diffs)
	case models.ModePatch:
		warnErr = applyPatch(fsImpl, resolved, c.Patch)
	case models.ModeFiles:
		warnErr = applyFiles(fsImpl, resolved, c.Files, false)
	case models.ModeCreate:
		warnErr = applyFiles(fsImpl, resolved, c.Files, true)
	case models.ModeModify:
		warnErr = applyEdits(fsImpl, resolved, c.Edits)
	}
	if warnErr != nil {
		return Result{}, warnErr
	}

	return Result{PreContent: pre, Warnings: sizeWarnings(c)}, nil
}

func snapshotPreContent(fsImpl fsys.FS, resolved []string) (map[string]string, *refineerr.Error) {
	pre := make(map[string]string, len(resolved))
	for _, abs := range resolved {
		if !fsImpl.Exists(abs) {
			pre[abs] = ""
			continue
		}
		content, readErr := fsImpl.ReadFile(abs)
		if readErr != nil {
			return nil, refineerr.New(refineerr.ValidationError, "reading %s: %v", abs, readErr)
		}
		pre[abs] = string(content)
	}
	return pre, nil
}

func applyDiffs(fsImpl fsys.FS, resolved []string, diffs []models.FileDiff) *refineerr.Error {
	for i, d := range diffs {
		if len(d.Diff) > MaxBytes {
			return refineerr.New(refineerr.FileTooLarge, "diff for %s exceeds %d bytes", d.Path, MaxBytes)
		}
		files, err := diffparser.Parse(d.Diff)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return refineerr.New(refineerr.InvalidDiff, "diff for %s contains no file headers", d.Path)
		}
		abs := resolved[i]
		current := ""
		if fsImpl.Exists(abs) {
			content, readErr := fsImpl.ReadFile(abs)
			if readErr != nil {
				return refineerr.New(refineerr.ValidationError, "reading %s: %v", abs, readErr)
			}
			current = string(content)
		}
		patched, err := patch.Apply(current, files[0], patch.Options{})
		if err != nil {
			return err
		}
		if writeErr := fsImpl.WriteFile(abs, []byte(patched)); writeErr != nil {
			return refineerr.New(refineerr.ValidationError, "writing %s: %v", abs, writeErr)
		}
	}
	return nil
}

func applyPatch(fsImpl fsys.FS, resolved []string, text string) *refineerr.Error {
	if len(text) > MaxBytes {
		return refineerr.New(refineerr.FileTooLarge, "patch exceeds %d bytes", MaxBytes)
	}
	if !diffparser.HasHunk(text) {
		return refineerr.New(refineerr.InvalidDiff, "patch contains no @@ hunks")
	}
	files, err := diffparser.Parse(text)
	if err != nil {
		return err
	}
	for i, f := range files {
		abs := resolved[i]
		current := ""
		if fsImpl.Exists(abs) {
			content, readErr := fsImpl.ReadFile(abs)
			if readErr != nil {
				return refineerr.New(refineerr.ValidationError, "reading %s: %v", abs, readErr)
			}
			current = string(content)
		}
		patched, err := patch.Apply(current, f, patch.Options{})
		if err != nil {
			return err
		}
		if writeErr := fsImpl.WriteFile(abs, []byte(patched)); writeErr != nil {
			return refineerr.New(refineerr.ValidationError, "writing %s: %v", abs, writeErr)
		}
	}
	return nil
}

func applyFiles(fsImpl fsys.FS, resolved []string, files []models.FileContent, createOnly bool) *refineerr.Error {
	for i, f := range files {
		if len(f.Content) > MaxBytes {
			return refineerr.New(refineerr.FileTooLarge, "%s exceeds %d bytes", f.Path, MaxBytes)
		}
		abs := resolved[i]
		if createOnly && fsImpl.Exists(abs) {
			return refineerr.New(refineerr.FileExists, "%s already exists", f.Path)
		}
		if err := fsImpl.EnsureDir(filepath.Dir(abs)); err != nil {
			return refineerr.New(refineerr.ValidationError, "creating directory for %s: %v", f.Path, err)
		}
		if err := fsImpl.WriteFile(abs, []byte(f.Content)); err != nil {
			return refineerr.New(refineerr.ValidationError, "writing %s: %v", f.Path, err)
		}
	}
	return nil
}

func applyEdits(fsImpl fsys.FS, resolved []string, fileEdits []models.FileEdits) *refineerr.Error {
	for i, fe := range fileEdits {
		abs := resolved[i]
		if !fsImpl.Exists(abs) {
			return refineerr.New(refineerr.FileNotFound, "%s does not exist", fe.File)
		}
		content, readErr := fsImpl.ReadFile(abs)
		if readErr != nil {
			return refineerr.New(refineerr.ValidationError, "reading %s: %v", fe.File, readErr)
		}
		out, err := edit.Apply(string(content), fe.Edits)
		if err != nil {
			return err
		}
		if writeErr := fsImpl.WriteFile(abs, []byte(out)); writeErr != nil {
			return refineerr.New(refineerr.ValidationError, "writing %s: %v", fe.File, writeErr)
		}
	}
	return nil
}

func sizeWarnings(c models.Candidate) []string {
	total := 0
	switch c.Mode {
	case models.ModeDiff:
		for _, d := range c.Diffs {
			total += len(d.Diff)
		}
	case models.ModePatch:
		total = len(c.Patch)
	case models.ModeFiles, models.ModeCreate:
		for _, f := range c.Files {
			total += len(f.Content)
		}
	}
	if total > LargeSubmissionWarn {
		return []string{"large submission: total payload exceeds 100 KiB"}
	}
	return nil
}
