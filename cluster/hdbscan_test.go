package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blob(cx, cy float64, offsets [][2]float64) [][]float64 {
	out := make([][]float64, len(offsets))
	for i, o := range offsets {
		out[i] = []float64{cx + o[0], cy + o[1]}
	}
	return out
}

func TestHDBSCANSeparatesTwoBlobs(t *testing.T) {
	offsets := [][2]float64{{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1}, {-0.1, 0}}
	a := blob(0, 0, offsets)
	b := blob(20, 20, offsets)
	points := append(append([][]float64{}, a...), b...)

	labels := HDBSCAN(points, 3, 3)
	require.Len(t, labels, len(points))

	labelA := labels[0]
	labelB := labels[len(a)]
	assert.NotEqual(t, Noise, labelA)
	assert.NotEqual(t, Noise, labelB)
	assert.NotEqual(t, labelA, labelB)

	for i := 0; i < len(a); i++ {
		assert.Equal(t, labelA, labels[i], "blob a point %d", i)
	}
	for i := len(a); i < len(points); i++ {
		assert.Equal(t, labelB, labels[i], "blob b point %d", i)
	}
}

func TestHDBSCANTooFewPointsAreNoise(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 1}}
	labels := HDBSCAN(points, 5, 5)
	for _, l := range labels {
		assert.Equal(t, Noise, l)
	}
}

func TestRelabelContiguousKeepsNoise(t *testing.T) {
	raw := []int{7, 7, Noise, 3, 3, 3}
	out := relabelContiguous(raw)
	assert.Equal(t, out[0], out[1])
	assert.Equal(t, Noise, out[2])
	assert.Equal(t, out[3], out[4])
	assert.Equal(t, out[4], out[5])
	assert.NotEqual(t, out[0], out[3])
}
