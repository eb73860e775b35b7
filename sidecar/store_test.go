package sidecar

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEmbedding() []float32 {
	v := make([]float32, 1024)
	v[0] = 1
	return v
}

func TestSaveLoadImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img := &ImageSidecar{
		FormatVersion:        FormatVersion,
		OriginalFilename:     "photo.jpg",
		ContentHash:          "ABCDEFGHJKMNP",
		CreatedAt:            time.Now().UTC().Truncate(time.Second),
		Embedding:            sampleEmbedding(),
		ProcessingDurationMs: 42,
		Width:                800,
		Height:               600,
		Orientation:          1,
	}
	require.NoError(t, SaveImage(dir, img))

	path := pathFor(dir, img.ContentHash)
	entry, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, entry.Image)
	assert.Nil(t, entry.Video)
	assert.Equal(t, img.OriginalFilename, entry.Image.OriginalFilename)
	assert.Equal(t, img.ContentHash, entry.Image.ContentHash)
	assert.Equal(t, img.Width, entry.Image.Width)
}

func TestSaveLoadVideoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := &VideoSidecar{
		FormatVersion:        FormatVersion,
		OriginalFilename:     "clip.mp4",
		ContentHash:          "0123456789ABC",
		CreatedAt:            time.Now().UTC().Truncate(time.Second),
		ProcessingDurationMs: 100,
		Frames: []Frame{
			{TimestampSeconds: 0, Embedding: sampleEmbedding()},
			{TimestampSeconds: 1.5, Embedding: sampleEmbedding()},
		},
	}
	require.NoError(t, SaveVideo(dir, v))

	path := pathFor(dir, v.ContentHash)
	entry, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, entry.Video)
	assert.Nil(t, entry.Image)
	assert.Len(t, entry.Video.Frames, 2)
}

func TestLoadRejectsOutOfOrderVideoFrames(t *testing.T) {
	dir := t.TempDir()
	v := &VideoSidecar{
		FormatVersion:    FormatVersion,
		ContentHash:      "ZZZZZZZZZZZZZ",
		OriginalFilename: "bad.mp4",
		CreatedAt:        time.Now().UTC(),
		Frames: []Frame{
			{TimestampSeconds: 2, Embedding: sampleEmbedding()},
			{TimestampSeconds: 1, Embedding: sampleEmbedding()},
		},
	}
	require.NoError(t, SaveVideo(dir, v))
	_, err := Load(pathFor(dir, v.ContentHash))
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	img := &ImageSidecar{FormatVersion: FormatVersion, ContentHash: "HASH1", Embedding: sampleEmbedding()}
	assert.False(t, Exists(dir, "HASH1"))
	require.NoError(t, SaveImage(dir, img))
	assert.True(t, Exists(dir, "HASH1"))
}

func TestVersionOf(t *testing.T) {
	dir := t.TempDir()
	img := &ImageSidecar{FormatVersion: "0.0.0", ContentHash: "HASH2", Embedding: sampleEmbedding()}
	require.NoError(t, SaveImage(dir, img))
	v, err := VersionOf(pathFor(dir, "HASH2"))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v)
}

func TestDeleteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	img := &ImageSidecar{FormatVersion: FormatVersion, ContentHash: "HASH3", Embedding: sampleEmbedding()}
	require.NoError(t, SaveImage(dir, img))
	path := pathFor(dir, "HASH3")
	require.NoError(t, Delete(path))
	assert.False(t, Exists(dir, "HASH3"))
	require.NoError(t, Delete(path))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	img := &ImageSidecar{FormatVersion: FormatVersion, ContentHash: "HASH4", Embedding: sampleEmbedding()}
	require.NoError(t, SaveImage(dir, img))
	_, err := Load(pathFor(dir, "HASH4") + tmpSuffix)
	assert.Error(t, err)
}

func TestEnumerateNonRecursive(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, SaveImage(root, &ImageSidecar{FormatVersion: FormatVersion, ContentHash: "A", Embedding: sampleEmbedding()}))
	require.NoError(t, SaveImage(sub, &ImageSidecar{FormatVersion: FormatVersion, ContentHash: "B", Embedding: sampleEmbedding()}))

	refs, err := Enumerate(root, false)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "A", refs[0].Hash)
}

func TestEnumerateRecursive(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, SaveImage(root, &ImageSidecar{FormatVersion: FormatVersion, ContentHash: "A", Embedding: sampleEmbedding()}))
	require.NoError(t, SaveImage(sub, &ImageSidecar{FormatVersion: FormatVersion, ContentHash: "B", Embedding: sampleEmbedding()}))

	refs, err := Enumerate(root, true)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "A", refs[0].Hash)
	assert.Equal(t, "B", refs[1].Hash)
}

func TestClusterCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := &ClusterCache{
		MinClusterSize: 5,
		MinSamples:     3,
		UsedUMAP:       true,
		TotalInputs:    10,
		Clusters: []Cluster{
			{ID: 0, MemberHashes: []string{"A", "B"}, RepresentativeHash: "A", Cohesion: 0.9},
		},
		Noise:       []string{"C"},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, SaveClusterCache(dir, c))
	loaded, err := LoadClusterCache(dir)
	require.NoError(t, err)
	assert.Equal(t, c.MinClusterSize, loaded.MinClusterSize)
	assert.Len(t, loaded.Clusters, 1)
	assert.Equal(t, []string{"C"}, loaded.Noise)
}

func TestSaveRejectsEmptyHash(t *testing.T) {
	dir := t.TempDir()
	err := SaveImage(dir, &ImageSidecar{FormatVersion: FormatVersion, Embedding: sampleEmbedding()})
	assert.Error(t, err)
}
