// Package staletrack implements ContextTracker: detecting when a
// submission targets a file the session modified in an earlier step
// without the caller having refreshed its view of that file since
// (spec.md §4.9), plus proactive invalidation via filesystem watching
// (SPEC_FULL.md "Watching").
package staletrack

import (
	"fmt"

	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/pkg/models"
)

// StaleWarnings returns one warning string per target path that is
// both in session.ModifiedFiles and absent from session.FileSnapshots
// — meaning the engine modified it in a previous step and the caller
// never re-read or re-wrote it since. Called before a candidate is
// applied (spec.md §4.12 step 2).
func StaleWarnings(session *models.Session, targetPaths []string) []string {
	var warnings []string
	for _, p := range targetPaths {
		if _, modified := session.ModifiedFiles[p]; !modified {
			continue
		}
		if _, cached := session.FileSnapshots[p]; cached {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s was modified at step %d but context has not been refreshed since", p, session.Step))
	}
	return warnings
}

// RefreshAfterApply marks every touched path as modified and
// refreshes its snapshot cache entry from disk, removing the entry if
// the path no longer exists (spec.md §4.9, invariant I8).
func RefreshAfterApply(session *models.Session, fsImpl fsys.FS, touchedPaths []string) {
	for _, p := range touchedPaths {
		session.ModifiedFiles[p] = struct{}{}
		refreshOne(session, fsImpl, p)
	}
}

// RecordRead populates the snapshot cache for a path the caller just
// read via getFileContent, per spec.md §4.9's "a successful
// getFileContent also populates the snapshot map".
func RecordRead(session *models.Session, path, content string) {
	session.FileSnapshots[path] = content
}

func refreshOne(session *models.Session, fsImpl fsys.FS, path string) {
	if !fsImpl.Exists(path) {
		delete(session.FileSnapshots, path)
		return
	}
	content, err := fsImpl.ReadFile(path)
	if err != nil {
		delete(session.FileSnapshots, path)
		return
	}
	session.FileSnapshots[path] = string(content)
}
