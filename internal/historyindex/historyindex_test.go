package historyindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/refineloop/pkg/models"
)

func TestAppendAndByFile(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(ctx)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Append(ctx, &models.IterationContext{Step: 1, Mode: "diff", FilesModified: []string{"a.go"}, Success: true}))
	require.NoError(t, idx.Append(ctx, &models.IterationContext{Step: 2, Mode: "modify", FilesModified: []string{"b.go", "c.go"}, Success: false}))

	results, err := idx.ByFile(ctx, "b.go")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Step)
	assert.False(t, results[0].Success)
}

func TestByFile_NewestFirst(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(ctx)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Append(ctx, &models.IterationContext{Step: 1, Mode: "diff", FilesModified: []string{"x.go"}, Success: true}))
	require.NoError(t, idx.Append(ctx, &models.IterationContext{Step: 2, Mode: "diff", FilesModified: []string{"x.go"}, Success: true}))

	results, err := idx.ByFile(ctx, "x.go")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].Step)
	assert.Equal(t, 1, results[1].Step)
}

func TestRebuild_ReplacesContents(t *testing.T) {
	ctx := context.Background()
	idx, err := Open(ctx)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Append(ctx, &models.IterationContext{Step: 1, Mode: "diff", FilesModified: []string{"a.go"}, Success: true}))
	require.NoError(t, idx.Rebuild(ctx, []*models.IterationContext{
		{Step: 1, Mode: "files", FilesModified: []string{"z.go"}, Success: true},
	}))

	results, err := idx.ByFile(ctx, "a.go")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.ByFile(ctx, "z.go")
	require.NoError(t, err)
	require.Len(t, results, 1)
}
