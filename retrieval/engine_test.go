package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

func unitVector(t *testing.T, seed float32) embedding.Embedding {
	raw := make([]float32, embedding.Dims)
	raw[0] = 1 + seed
	raw[1] = seed
	e, err := embedding.New(raw)
	require.NoError(t, err)
	return e
}

func saveImage(t *testing.T, dir, hash string, e embedding.Embedding, version string) {
	s := &sidecar.ImageSidecar{
		FormatVersion:    version,
		OriginalFilename: hash + ".jpg",
		ContentHash:      hash,
		CreatedAt:        time.Unix(0, 0).UTC(),
		Embedding:        e.Slice(),
	}
	require.NoError(t, sidecar.SaveImage(dir, s))
}

func saveVideo(t *testing.T, dir, hash string, frames []sidecar.Frame) {
	s := &sidecar.VideoSidecar{
		FormatVersion:    sidecar.FormatVersion,
		OriginalFilename: hash + ".mp4",
		ContentHash:      hash,
		CreatedAt:        time.Unix(0, 0).UTC(),
		Frames:           frames,
	}
	require.NoError(t, sidecar.SaveVideo(dir, s))
}

func TestSearchResolvedOrdersByScore(t *testing.T) {
	dir := t.TempDir()
	near := unitVector(t, 0.001)
	far := unitVector(t, 5.0)
	saveImage(t, dir, "AAAA", near, sidecar.FormatVersion)
	saveImage(t, dir, "BBBB", far, sidecar.FormatVersion)

	q := Resolved{Positive: near, NegativeLambda: DefaultNegativeLambda}
	rows, err := SearchResolved(dir, q, Options{MinScore: -1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "AAAA", rows[0].ContentHash)
	require.GreaterOrEqual(t, rows[0].Score, rows[1].Score)
}

func TestSearchResolvedMinScoreFilters(t *testing.T) {
	dir := t.TempDir()
	v := unitVector(t, 0.5)
	saveImage(t, dir, "CCCC", v, sidecar.FormatVersion)

	q := Resolved{Positive: unitVector(t, 3.0), NegativeLambda: DefaultNegativeLambda}
	rows, err := SearchResolved(dir, q, Options{MinScore: 0.999})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestSearchResolvedExcludesReferenceByDefault(t *testing.T) {
	dir := t.TempDir()
	v := unitVector(t, 0.001)
	saveImage(t, dir, "DDDD", v, sidecar.FormatVersion)

	q := Resolved{Positive: v, NegativeLambda: DefaultNegativeLambda, ReferenceHash: "DDDD"}
	rows, err := SearchResolved(dir, q, Options{MinScore: -1})
	require.NoError(t, err)
	require.Empty(t, rows)

	rows, err = SearchResolved(dir, q, Options{MinScore: -1, IncludeReference: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestSearchResolvedExcludeVideos(t *testing.T) {
	dir := t.TempDir()
	v := unitVector(t, 0.001)
	saveVideo(t, dir, "EEEE", []sidecar.Frame{
		{TimestampSeconds: 1, Embedding: v.Slice()},
		{TimestampSeconds: 2, Embedding: unitVector(t, 9).Slice()},
	})

	q := Resolved{Positive: v, NegativeLambda: DefaultNegativeLambda}
	rows, err := SearchResolved(dir, q, Options{MinScore: -1, ExcludeVideos: true})
	require.NoError(t, err)
	require.Empty(t, rows)

	rows, err = SearchResolved(dir, q, Options{MinScore: -1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.InDelta(t, 1.0, rows[0].TimestampSeconds, 1e-6)
}

func TestSearchResolvedFlagsStaleVersion(t *testing.T) {
	dir := t.TempDir()
	v := unitVector(t, 0.001)
	saveImage(t, dir, "FFFF", v, "0.0.1")

	q := Resolved{Positive: v, NegativeLambda: DefaultNegativeLambda}
	rows, err := SearchResolved(dir, q, Options{MinScore: -1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Stale)
}

func TestSearchResolvedAppliesNegativePenalty(t *testing.T) {
	dir := t.TempDir()
	v := unitVector(t, 0.001)
	saveImage(t, dir, "GGGG", v, sidecar.FormatVersion)

	neg := v
	withNeg := Resolved{Positive: v, Negative: &neg, NegativeLambda: 0.7}
	rows, err := SearchResolved(dir, withNeg, Options{MinScore: -1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.InDelta(t, float32(0.3), rows[0].Score, 1e-4)
}

func TestSearchResolvedLimitTruncates(t *testing.T) {
	dir := t.TempDir()
	for i, h := range []string{"H1", "H2", "H3"} {
		saveImage(t, dir, h, unitVector(t, float32(i)*0.01), sidecar.FormatVersion)
	}
	q := Resolved{Positive: unitVector(t, 0), NegativeLambda: DefaultNegativeLambda}
	rows, err := SearchResolved(dir, q, Options{MinScore: -1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestSearchEncodesTextQuery(t *testing.T) {
	dir := t.TempDir()
	orch := embedding.NewDev(embedding.Dims)
	ctx := context.Background()

	imgEmbs, err := orch.EmbedTexts(ctx, []string{"a red bicycle"})
	require.NoError(t, err)
	saveImage(t, dir, "JJJJ", imgEmbs[0], sidecar.FormatVersion)

	rows, err := Search(ctx, orch, dir, Query{Text: "a red bicycle"}, Options{MinScore: -1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "JJJJ", rows[0].ContentHash)
}

func TestResolveRequiresPositiveTerm(t *testing.T) {
	orch := embedding.NewDev(embedding.Dims)
	_, err := Resolve(context.Background(), orch, Query{})
	require.Error(t, err)
}

func TestResolveComputesReferenceHashForImageQuery(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "ref.txt")
	require.NoError(t, os.WriteFile(imgPath, []byte("reference bytes"), 0o644))

	orch := embedding.NewDev(embedding.Dims)
	resolved, err := Resolve(context.Background(), orch, Query{ImagePath: imgPath})
	require.NoError(t, err)
	require.NotEmpty(t, resolved.ReferenceHash)
}
