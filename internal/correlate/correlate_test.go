package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thebtf/refineloop/pkg/models"
)

func TestReferencedFiles_PlainForm(t *testing.T) {
	files := ReferencedFiles("src/foo.go:12:5: undefined: bar")
	assert.Equal(t, []string{"src/foo.go"}, files)
}

func TestReferencedFiles_StackFrameForm(t *testing.T) {
	files := ReferencedFiles("    at main (src/foo.go:12:5)")
	assert.Equal(t, []string{"src/foo.go"}, files)
}

func TestReferencedFiles_ErrorInForm(t *testing.T) {
	files := ReferencedFiles("Error in src/foo.go")
	assert.Equal(t, []string{"src/foo.go"}, files)
}

func TestCorrelate_FindsLikelyCulprit(t *testing.T) {
	iterations := []*models.IterationContext{
		{Step: 1, FilesModified: []string{"src/other.go"}, Success: true},
		{Step: 2, FilesModified: []string{"src/foo.go"}, Success: false},
	}
	a := Correlate("src/foo.go:12:5: undefined: bar", iterations, nil)
	assert.NotNil(t, a.LikelyCulprit)
	assert.Equal(t, 2, a.LikelyCulprit.Step)
	assert.NotNil(t, a.LastSuccessful)
	assert.Equal(t, 1, a.LastSuccessful.Step)
}

func TestCorrelate_NoReferencesYieldsEmptyAnalysis(t *testing.T) {
	a := Correlate("all good", nil, nil)
	assert.Nil(t, a.LikelyCulprit)
	assert.Empty(t, a.Lines)
}

func TestCorrelate_SuggestsModifyAfterRepeatedDiffFailures(t *testing.T) {
	a := Correlate("src/foo.go:1:1: x", nil, []models.CandidateMode{models.ModeDiff, models.ModePatch})
	assert.Contains(t, a.Suggestions[0], "mode=modify")
}

func TestCascadeWarnings_BuildFailureCascading(t *testing.T) {
	history := []*models.EvalResult{
		{OkBuild: true},
		{OkBuild: false},
		{OkBuild: false},
	}
	warnings := CascadeWarnings(history)
	assert.Contains(t, warnings, "build failure likely cascading to tests")
}

func TestCascadeWarnings_TestFailuresIncreasing(t *testing.T) {
	history := []*models.EvalResult{
		{Tests: &models.TestCounts{Passed: 9, Total: 10}},
		{Tests: &models.TestCounts{Passed: 4, Total: 10}},
		{Tests: &models.TestCounts{Passed: 1, Total: 10}},
	}
	warnings := CascadeWarnings(history)
	assert.Contains(t, warnings, "test failures increasing — fundamental issue")
}

func TestCascadeWarnings_NoWarningsWithFewerThanThreeEntries(t *testing.T) {
	history := []*models.EvalResult{{OkBuild: false}, {OkBuild: false}}
	assert.Empty(t, CascadeWarnings(history))
}

func TestCascadeWarnings_StableHistoryNoWarnings(t *testing.T) {
	history := []*models.EvalResult{
		{OkBuild: true, Tests: &models.TestCounts{Passed: 10, Total: 10}},
		{OkBuild: true, Tests: &models.TestCounts{Passed: 10, Total: 10}},
		{OkBuild: true, Tests: &models.TestCounts{Passed: 10, Total: 10}},
	}
	assert.Empty(t, CascadeWarnings(history))
}
