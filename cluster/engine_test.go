package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

func fixtureEmbedding(t *testing.T, cluster int, jitter int) embedding.Embedding {
	raw := make([]float32, embedding.Dims)
	raw[cluster%embedding.Dims] = 10
	raw[(cluster+1)%embedding.Dims] = float32(jitter) * 0.01
	e, err := embedding.New(raw)
	require.NoError(t, err)
	return e
}

func saveClusterFixture(t *testing.T, dir, hash string, e embedding.Embedding) {
	s := &sidecar.ImageSidecar{
		FormatVersion:    sidecar.FormatVersion,
		OriginalFilename: hash + ".jpg",
		ContentHash:      hash,
		CreatedAt:        time.Unix(0, 0).UTC(),
		Embedding:        e.Slice(),
	}
	require.NoError(t, sidecar.SaveImage(dir, s))
}

func TestRunGroupsSimilarImagesTogether(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		saveClusterFixture(t, dir, "A"+string(rune('0'+i)), fixtureEmbedding(t, 0, i))
	}
	for i := 0; i < 5; i++ {
		saveClusterFixture(t, dir, "B"+string(rune('0'+i)), fixtureEmbedding(t, 100, i))
	}

	opts := DefaultOptions()
	opts.MinClusterSize = 3
	opts.MinSamples = 3
	cache, err := Run(dir, opts)
	require.NoError(t, err)
	require.Equal(t, 10, cache.TotalInputs)
	require.Len(t, cache.Clusters, 2)
	assert.Equal(t, 5, len(cache.Clusters[0].MemberHashes))
	assert.Equal(t, 5, len(cache.Clusters[1].MemberHashes))
}

func TestRunReusesCacheWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		saveClusterFixture(t, dir, "C"+string(rune('0'+i)), fixtureEmbedding(t, 0, i))
	}

	opts := DefaultOptions()
	opts.MinClusterSize = 3
	opts.MinSamples = 3
	first, err := Run(dir, opts)
	require.NoError(t, err)

	second, err := Run(dir, opts)
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
}

func TestRunRecomputesWhenForced(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		saveClusterFixture(t, dir, "D"+string(rune('0'+i)), fixtureEmbedding(t, 0, i))
	}

	opts := DefaultOptions()
	opts.MinClusterSize = 3
	opts.MinSamples = 3
	first, err := Run(dir, opts)
	require.NoError(t, err)

	time.Sleep(1 * time.Millisecond)
	opts.Force = true
	second, err := Run(dir, opts)
	require.NoError(t, err)
	assert.True(t, second.GeneratedAt.After(first.GeneratedAt) || second.GeneratedAt.Equal(first.GeneratedAt))
}

func TestMeanEmbeddingRejectsEmptyFrames(t *testing.T) {
	_, err := MeanEmbedding(nil)
	assert.Error(t, err)
}
