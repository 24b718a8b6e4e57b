package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/pkg/models"
)

func TestApply_ReplaceLine(t *testing.T) {
	out, errs := Apply("a\nb\nc\n", []models.EditOperation{
		{Kind: models.EditReplaceLine, Line: 2, Content: "B"},
	})
	require.Nil(t, errs)
	assert.Equal(t, "a\nB\nc\n", out)
}

func TestApply_InsertBeforeAtEndOfFile(t *testing.T) {
	out, errs := Apply("a\nb\n", []models.EditOperation{
		{Kind: models.EditInsertBefore, Line: 3, Content: "c"},
	})
	require.Nil(t, errs)
	assert.Equal(t, "a\nb\nc\n", out)
}

func TestApply_InsertAfter(t *testing.T) {
	out, errs := Apply("a\nb\nc\n", []models.EditOperation{
		{Kind: models.EditInsertAfter, Line: 1, Content: "x"},
	})
	require.Nil(t, errs)
	assert.Equal(t, "a\nx\nb\nc\n", out)
}

func TestApply_DeleteLine(t *testing.T) {
	out, errs := Apply("a\nb\nc\n", []models.EditOperation{
		{Kind: models.EditDeleteLine, Line: 2},
	})
	require.Nil(t, errs)
	assert.Equal(t, "a\nc\n", out)
}

func TestApply_ReplaceRange(t *testing.T) {
	out, errs := Apply("a\nb\nc\nd\n", []models.EditOperation{
		{Kind: models.EditReplaceRange, StartLine: 2, EndLine: 3, Content: "X\nY\nZ"},
	})
	require.Nil(t, errs)
	assert.Equal(t, "a\nX\nY\nZ\nd\n", out)
}

func TestApply_DeleteRange(t *testing.T) {
	out, errs := Apply("a\nb\nc\nd\n", []models.EditOperation{
		{Kind: models.EditDeleteRange, StartLine: 2, EndLine: 3},
	})
	require.Nil(t, errs)
	assert.Equal(t, "a\nd\n", out)
}

func TestApply_ReplaceOldTextNotFound(t *testing.T) {
	_, errs := Apply("a\nb\n", []models.EditOperation{
		{Kind: models.EditReplace, OldText: "nope"},
	})
	require.NotNil(t, errs)
	assert.Equal(t, refineerr.ReplaceNotFound, errs.Code)
}

func TestApply_ReplaceAll(t *testing.T) {
	out, errs := Apply("foo bar foo\n", []models.EditOperation{
		{Kind: models.EditReplace, OldText: "foo", NewText: "baz", All: true},
	})
	require.Nil(t, errs)
	assert.Equal(t, "baz bar baz\n", out)
}

func TestApply_ReplaceSingleOccurrence(t *testing.T) {
	out, errs := Apply("foo bar foo\n", []models.EditOperation{
		{Kind: models.EditReplace, OldText: "foo", NewText: "baz"},
	})
	require.Nil(t, errs)
	assert.Equal(t, "baz bar foo\n", out)
}

func TestApply_InvalidLineOutOfRange(t *testing.T) {
	_, errs := Apply("a\nb\n", []models.EditOperation{
		{Kind: models.EditReplaceLine, Line: 5, Content: "x"},
	})
	require.NotNil(t, errs)
	assert.Equal(t, refineerr.InvalidLine, errs.Code)
}

func TestApply_InvalidRangeBackwards(t *testing.T) {
	_, errs := Apply("a\nb\nc\n", []models.EditOperation{
		{Kind: models.EditReplaceRange, StartLine: 3, EndLine: 1, Content: "x"},
	})
	require.NotNil(t, errs)
	assert.Equal(t, refineerr.InvalidRange, errs.Code)
}

func TestApply_DescendingOrderAvoidsOffsetDrift(t *testing.T) {
	// Deleting line 2 first would shift line 4 up to 3, so the executor
	// must apply the higher-numbered op first (property P9).
	out, errs := Apply("a\nb\nc\nd\n", []models.EditOperation{
		{Kind: models.EditDeleteLine, Line: 2},
		{Kind: models.EditReplaceLine, Line: 4, Content: "D"},
	})
	require.Nil(t, errs)
	assert.Equal(t, "a\nc\nD\n", out)
}

func TestApply_ReplaceAppliesAfterLineOps(t *testing.T) {
	out, errs := Apply("a\nb\nc\n", []models.EditOperation{
		{Kind: models.EditInsertBefore, Line: 1, Content: "foo"},
		{Kind: models.EditReplace, OldText: "foo", NewText: "bar"},
	})
	require.Nil(t, errs)
	assert.Equal(t, "bar\na\nb\nc\n", out)
}

func TestCheckDuplicateDeclarations_RejectsExistingFuncNearby(t *testing.T) {
	content := "package p\n\nfunc Foo() {}\n\nfunc Bar() {}\n"
	_, errs := Apply(content, []models.EditOperation{
		{Kind: models.EditInsertAfter, Line: 1, Content: "func Foo() {\n\treturn\n}"},
	})
	require.NotNil(t, errs)
	assert.Equal(t, refineerr.DuplicateDeclaration, errs.Code)
}

func TestCheckDuplicateDeclarations_AllowsOutsideWindow(t *testing.T) {
	lines := make([]string, 0, 30)
	lines = append(lines, "func Foo() {}")
	for i := 0; i < 20; i++ {
		lines = append(lines, "// filler")
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	_, errs := Apply(content, []models.EditOperation{
		{Kind: models.EditInsertAfter, Line: len(lines), Content: "func Foo() {}"},
	})
	assert.Nil(t, errs)
}

func TestCheckDuplicateDeclarations_IgnoresUnexportedNames(t *testing.T) {
	content := "func foo() {}\n"
	_, errs := Apply(content, []models.EditOperation{
		{Kind: models.EditInsertAfter, Line: 1, Content: "func foo() {}"},
	})
	assert.Nil(t, errs)
}

func TestCheckDuplicateDeclarations_RejectsExistingClassNearby(t *testing.T) {
	content := "class Widget {}\n\nclass Other {}\n"
	_, errs := Apply(content, []models.EditOperation{
		{Kind: models.EditInsertAfter, Line: 1, Content: "class Widget {\n  x: number\n}"},
	})
	require.NotNil(t, errs)
	assert.Equal(t, refineerr.DuplicateDeclaration, errs.Code)
}
