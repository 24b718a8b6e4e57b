package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

func defaultHalt() models.HaltConfig {
	return models.HaltConfig{MaxSteps: 3, PatienceNoImprove: 2, MinSteps: 1, PassThreshold: 0.9}
}

func TestStart_RejectsMissingRepoPath(t *testing.T) {
	_, err := Start(context.Background(), fsys.OS{}, "/nope/does/not/exist", StartOptions{Halt: defaultHalt()})
	require.NotNil(t, err)
	assert.Equal(t, refineerr.InvalidParameter, err.Code)
}

func TestStart_RejectsInvalidHaltConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(context.Background(), fsys.OS{}, dir, StartOptions{Halt: models.HaltConfig{}})
	require.NotNil(t, err)
	assert.Equal(t, refineerr.InvalidParameter, err.Code)
}

func TestStart_ProbesCommandsWhenPreflightRequested(t *testing.T) {
	dir := t.TempDir()
	s, err := Start(context.Background(), fsys.OS{}, dir, StartOptions{
		Halt:      defaultHalt(),
		Commands:  models.CommandSet{Build: "true", Test: "this-command-does-not-exist-anywhere"},
		Preflight: true,
	})
	require.Nil(t, err)
	assert.Equal(t, models.StatusAvailable, s.CommandStatus.Build)
	assert.Equal(t, models.StatusUnavailable, s.CommandStatus.Test)
	assert.Equal(t, models.StatusUnavailable, s.CommandStatus.Lint)
}

func TestStart_SkipsProbingWithoutPreflight(t *testing.T) {
	dir := t.TempDir()
	s, err := Start(context.Background(), fsys.OS{}, dir, StartOptions{
		Halt:     defaultHalt(),
		Commands: models.CommandSet{Build: "true"},
	})
	require.Nil(t, err)
	assert.Equal(t, models.CommandStatus(""), s.CommandStatus.Build)
}

func newTestSession(t *testing.T) *models.Session {
	t.Helper()
	repo := t.TempDir()
	s := models.NewSession("s1", repo)
	s.Weights = models.Weights{Build: 1}
	s.Halt = defaultHalt()
	s.EmaAlpha = 0.9
	s.TimeoutSec = 10
	s.Commands = models.CommandSet{Build: "true"}
	return s
}

func TestSubmit_HappyBuildPassHalts(t *testing.T) {
	s := newTestSession(t)
	fsImpl := fsys.NewMem()

	result, err := Submit(context.Background(), fsImpl, s, SubmitOptions{
		Candidate: models.Candidate{Mode: models.ModeCreate, Files: []models.FileContent{{Path: "a.txt", Content: "ok\n"}}},
	})
	require.Nil(t, err)
	assert.Equal(t, 1, result.Step)
	assert.True(t, result.OkBuild)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 1.0, result.EmaScore)
	assert.True(t, result.ShouldHalt)
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "tests pass and score")
}

func TestSubmit_BuildFailureLowersScoreAndAddsFeedback(t *testing.T) {
	s := newTestSession(t)
	s.Commands.Build = "false"
	fsImpl := fsys.NewMem()

	result, err := Submit(context.Background(), fsImpl, s, SubmitOptions{
		Candidate: models.Candidate{Mode: models.ModeCreate, Files: []models.FileContent{{Path: "a.txt", Content: "x\n"}}},
	})
	require.Nil(t, err)
	assert.False(t, result.OkBuild)
	assert.Equal(t, 0.0, result.Score)
	assert.Contains(t, result.Feedback, "build failed")
}

func TestSubmit_AppendsUndoStackEntryWithPreContent(t *testing.T) {
	s := newTestSession(t)
	fsImpl := fsys.NewMem()
	fsImpl.Seed(s.RepoRoot+"/a.txt", "old\n")

	_, err := Submit(context.Background(), fsImpl, s, SubmitOptions{
		Candidate: models.Candidate{Mode: models.ModeFiles, Files: []models.FileContent{{Path: "a.txt", Content: "new\n"}}},
	})
	require.Nil(t, err)
	require.Len(t, s.UndoStack, 1)
	assert.Equal(t, "old\n", s.UndoStack[0].PreContent[s.RepoRoot+"/a.txt"])
}

func TestSubmit_PathEscapeRejected(t *testing.T) {
	s := newTestSession(t)
	fsImpl := fsys.NewMem()

	_, err := Submit(context.Background(), fsImpl, s, SubmitOptions{
		Candidate: models.Candidate{Mode: models.ModeFiles, Files: []models.FileContent{{Path: "../escape.txt", Content: "x"}}},
	})
	require.NotNil(t, err)
	assert.Equal(t, refineerr.PathEscaped, err.Code)
	assert.Equal(t, 0, s.Step)
}

func TestSubmit_StaleContextWarningSurfacesInFeedback(t *testing.T) {
	s := newTestSession(t)
	fsImpl := fsys.NewMem()
	fsImpl.Seed(s.RepoRoot+"/a.txt", "1\n")
	s.ModifiedFiles[s.RepoRoot+"/a.txt"] = struct{}{}

	result, err := Submit(context.Background(), fsImpl, s, SubmitOptions{
		Candidate: models.Candidate{Mode: models.ModeFiles, Files: []models.FileContent{{Path: "a.txt", Content: "2\n"}}},
	})
	require.Nil(t, err)
	found := false
	for _, f := range result.Feedback {
		if f == s.RepoRoot+"/a.txt was modified at step 0 but context has not been refreshed since" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSubmit_NoImprovementIncrementsStreakAndPatienceHalts(t *testing.T) {
	s := newTestSession(t)
	s.Commands.Build = "false"
	s.Halt = models.HaltConfig{MaxSteps: 10, PatienceNoImprove: 2, MinSteps: 1, PassThreshold: 0.9}
	fsImpl := fsys.NewMem()

	var last *models.EvalResult
	for i := 0; i < 2; i++ {
		r, err := Submit(context.Background(), fsImpl, s, SubmitOptions{
			Candidate: models.Candidate{Mode: models.ModeFiles, Files: []models.FileContent{{Path: "a.txt", Content: "x\n"}}},
		})
		require.Nil(t, err)
		last = r
	}
	assert.Equal(t, 2, s.NoImproveStreak)
	assert.True(t, last.ShouldHalt)
	assert.Contains(t, last.Reasons[0], "no improvement")
}
