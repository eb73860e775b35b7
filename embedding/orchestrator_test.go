package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevOrchestratorDeterministic(t *testing.T) {
	o := NewDev(Dims)
	ctx := context.Background()

	a, err := o.EmbedTexts(ctx, []string{"a cat on a mat"})
	require.NoError(t, err)
	b, err := o.EmbedTexts(ctx, []string{"a cat on a mat"})
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Slice(), b[0].Slice())
	assert.True(t, a[0].IsUnitNorm())
}

func TestDevOrchestratorDistinctInputsDiffer(t *testing.T) {
	o := NewDev(Dims)
	ctx := context.Background()
	vecs, err := o.EmbedTexts(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEqual(t, vecs[0].Slice(), vecs[1].Slice())
}

func TestDevOrchestratorEmbedImagesUsesPathAsInput(t *testing.T) {
	o := NewDev(Dims)
	ctx := context.Background()
	vecs, err := o.EmbedImages(ctx, []string{"/tmp/a.jpg", "/tmp/b.jpg"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEqual(t, vecs[0].Slice(), vecs[1].Slice())
}

func TestDevOrchestratorEmptyInput(t *testing.T) {
	o := NewDev(Dims)
	vecs, err := o.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
