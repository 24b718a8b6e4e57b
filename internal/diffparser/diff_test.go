package diffparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/refineloop/pkg/models"
)

const sampleDiff = `diff --git a/x.ts b/x.ts
--- a/x.ts
+++ b/x.ts
@@ -1,3 +1,3 @@
 a
-b
+B
 c
`

func TestParse_SingleFileSingleHunk(t *testing.T) {
	files, errs := Parse(sampleDiff)
	require.Nil(t, errs)
	require.Len(t, files, 1)
	assert.Equal(t, "x.ts", files[0].Path)
	require.Len(t, files[0].Hunks, 1)
	h := files[0].Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 3, h.OldLines)
	require.Len(t, h.Lines, 4)
	assert.Equal(t, models.LineContext, h.Lines[0].Kind)
	assert.Equal(t, models.LineRemove, h.Lines[1].Kind)
	assert.Equal(t, "b", h.Lines[1].Content)
	assert.Equal(t, models.LineAdd, h.Lines[2].Kind)
	assert.Equal(t, "B", h.Lines[2].Content)
}

func TestParse_StripsLeadingBPrefix(t *testing.T) {
	diff := "--- a/foo.go\n+++ b/foo.go\n@@ -1,1 +1,1 @@\n-old\n+new\n"
	files, errs := Parse(diff)
	require.Nil(t, errs)
	require.Len(t, files, 1)
	assert.Equal(t, "foo.go", files[0].Path)
}

func TestParse_OmittedCountsDefaultToOne(t *testing.T) {
	diff := "--- a/f.go\n+++ b/f.go\n@@ -5 +5 @@\n-x\n+y\n"
	files, errs := Parse(diff)
	require.Nil(t, errs)
	h := files[0].Hunks[0]
	assert.Equal(t, 1, h.OldLines)
	assert.Equal(t, 1, h.NewLines)
}

func TestParse_MultipleHunksSameFile(t *testing.T) {
	diff := "--- a/f.go\n+++ b/f.go\n@@ -1,1 +1,1 @@\n-a\n+A\n@@ -10,1 +10,1 @@\n-b\n+B\n"
	files, errs := Parse(diff)
	require.Nil(t, errs)
	require.Len(t, files[0].Hunks, 2)
}

func TestParse_EmptyInputFails(t *testing.T) {
	_, errs := Parse("")
	assert.NotNil(t, errs)
}

func TestParse_EmptyLineIsContext(t *testing.T) {
	diff := "--- a/f.go\n+++ b/f.go\n@@ -1,2 +1,2 @@\n \n-x\n+y\n"
	files, errs := Parse(diff)
	require.Nil(t, errs)
	assert.Equal(t, models.LineContext, files[0].Hunks[0].Lines[0].Kind)
}

func TestHasHunk(t *testing.T) {
	assert.True(t, HasHunk(sampleDiff))
	assert.False(t, HasHunk("just some text"))
}
