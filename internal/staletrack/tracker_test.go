package staletrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/pkg/models"
)

func TestStaleWarnings_WarnsOnModifiedUnrefreshedFile(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.Step = 3
	s.ModifiedFiles["/repo/a.txt"] = struct{}{}

	warnings := StaleWarnings(s, []string{"/repo/a.txt"})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "/repo/a.txt")
}

func TestStaleWarnings_NoWarningWhenSnapshotPresent(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.ModifiedFiles["/repo/a.txt"] = struct{}{}
	s.FileSnapshots["/repo/a.txt"] = "content"

	warnings := StaleWarnings(s, []string{"/repo/a.txt"})
	assert.Empty(t, warnings)
}

func TestStaleWarnings_NoWarningForUntouchedFile(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	warnings := StaleWarnings(s, []string{"/repo/new.txt"})
	assert.Empty(t, warnings)
}

func TestRefreshAfterApply_PopulatesSnapshotFromDisk(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	m := fsys.NewMem()
	m.Seed("/repo/a.txt", "hello\n")

	RefreshAfterApply(s, m, []string{"/repo/a.txt"})
	assert.Equal(t, "hello\n", s.FileSnapshots["/repo/a.txt"])
	_, modified := s.ModifiedFiles["/repo/a.txt"]
	assert.True(t, modified)
}

func TestRefreshAfterApply_RemovesSnapshotForDeletedFile(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.FileSnapshots["/repo/gone.txt"] = "old"
	m := fsys.NewMem()

	RefreshAfterApply(s, m, []string{"/repo/gone.txt"})
	_, ok := s.FileSnapshots["/repo/gone.txt"]
	assert.False(t, ok)
}

func TestRecordRead_PopulatesSnapshotCache(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	RecordRead(s, "/repo/a.txt", "content")
	assert.Equal(t, "content", s.FileSnapshots["/repo/a.txt"])
}
