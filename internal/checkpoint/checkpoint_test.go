package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

func TestSave_CumulativeModeCapturesNoFiles(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.Step = 3
	s.BestScore = 0.7
	m := fsys.NewMem()

	cp := Save(s, m, "before risky change")
	assert.Empty(t, cp.Files)
	assert.Equal(t, 3, cp.Step)
	assert.Equal(t, 0.7, cp.Score)
}

func TestSave_SnapshotModeCapturesModifiedFiles(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.Mode = models.ModeSnapshot
	s.ModifiedFiles["/repo/a.txt"] = struct{}{}
	s.FileSnapshots["/repo/a.txt"] = "hello"

	cp := Save(s, fsys.NewMem(), "")
	assert.Equal(t, "hello", cp.Files["/repo/a.txt"])
}

func TestRestore_MissingCheckpointFails(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	err := Restore(s, fsys.NewMem(), "nope")
	require.NotNil(t, err)
	assert.Equal(t, refineerr.CheckpointNotFound, err.Code)
}

func TestRestore_CumulativeModeRestoresScalarsOnly(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	cp := Save(s, fsys.NewMem(), "")
	s.Step = 10
	s.BestScore = 0.9

	err := Restore(s, fsys.NewMem(), cp.ID)
	require.Nil(t, err)
	assert.Equal(t, 0, s.Step)
	assert.Equal(t, 0.0, s.BestScore)
}

func TestRestore_SnapshotModeRewritesFiles(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.Mode = models.ModeSnapshot
	s.ModifiedFiles["/repo/a.txt"] = struct{}{}
	s.FileSnapshots["/repo/a.txt"] = "original"
	cp := Save(s, fsys.NewMem(), "")

	m := fsys.NewMem()
	m.Seed("/repo/a.txt", "modified later")
	err := Restore(s, m, cp.ID)
	require.Nil(t, err)
	got, _ := m.ReadFile("/repo/a.txt")
	assert.Equal(t, "original", string(got))
}

func TestSave_SnapshotModeSetsFingerprint(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.Mode = models.ModeSnapshot
	s.ModifiedFiles["/repo/a.txt"] = struct{}{}
	s.FileSnapshots["/repo/a.txt"] = "hello"

	cp := Save(s, fsys.NewMem(), "")
	assert.NotEmpty(t, cp.Fingerprint)
}

func TestSave_CumulativeModeLeavesFingerprintEmpty(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	cp := Save(s, fsys.NewMem(), "")
	assert.Empty(t, cp.Fingerprint)
}

func TestRestore_FingerprintMismatchFailsRestore(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.Mode = models.ModeSnapshot
	s.ModifiedFiles["/repo/a.txt"] = struct{}{}
	s.FileSnapshots["/repo/a.txt"] = "original"
	cp := Save(s, fsys.NewMem(), "")
	cp.Fingerprint = "deliberately-wrong"

	err := Restore(s, fsys.NewMem(), cp.ID)
	require.NotNil(t, err)
	assert.Equal(t, refineerr.ValidationError, err.Code)
}

func TestUndo_EmptyStackReturnsFalse(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	assert.False(t, Undo(s, fsys.NewMem()))
}

func TestUndo_RestoresFileAndDeletesCreatedFile(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	m := fsys.NewMem()
	m.Seed("/repo/existing.txt", "new content")

	s.History = []*models.EvalResult{{Step: 1, Score: 0.5, EmaScore: 0.5}}
	s.UndoStack = []*models.CandidateSnapshot{{
		Step: 1,
		PreContent: map[string]string{
			"/repo/existing.txt": "old content",
			"/repo/created.txt":  "",
		},
	}}
	m.Seed("/repo/created.txt", "brand new")

	ok := Undo(s, m)
	require.True(t, ok)
	assert.Equal(t, 0, s.Step)
	assert.Empty(t, s.History)

	got, _ := m.ReadFile("/repo/existing.txt")
	assert.Equal(t, "old content", string(got))
	assert.False(t, m.Exists("/repo/created.txt"))
}

func TestUndo_RecomputesBestScoreAndStreak(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.History = []*models.EvalResult{
		{Step: 1, Score: 0.5, EmaScore: 0.5},
		{Step: 2, Score: 0.8, EmaScore: 0.7},
		{Step: 3, Score: 0.6, EmaScore: 0.72},
	}
	s.UndoStack = []*models.CandidateSnapshot{{Step: 3, PreContent: map[string]string{}}}

	ok := Undo(s, fsys.NewMem())
	require.True(t, ok)
	assert.Equal(t, 2, s.Step)
	assert.Len(t, s.History, 2)
	assert.InDelta(t, 0.8, s.BestScore, 1e-9)
	assert.Equal(t, 0, s.NoImproveStreak)
	assert.InDelta(t, 0.7, s.EmaScore, 1e-9)
}

func TestUndo_StreakAfterTiedBestIsNotReset(t *testing.T) {
	s := models.NewSession("s1", "/repo")
	s.History = []*models.EvalResult{
		{Step: 1, Score: 0.5},
		{Step: 2, Score: 0.6},
		{Step: 3, Score: 0.6},
		{Step: 4, Score: 0.6},
	}
	s.UndoStack = []*models.CandidateSnapshot{{Step: 4, PreContent: map[string]string{}}}

	Undo(s, fsys.NewMem())
	assert.InDelta(t, 0.6, s.BestScore, 1e-9)
	assert.Equal(t, 1, s.NoImproveStreak)
}
