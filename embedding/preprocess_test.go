package embedding

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestPreprocessImageShapeAndDims(t *testing.T) {
	path := writeTestPNG(t, 300, 150)
	tensor, w, h, err := preprocessImage(path, 64)
	require.NoError(t, err)
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)
	assert.Len(t, tensor, 3*64*64)
}

func TestPreprocessImageMissingFile(t *testing.T) {
	_, _, _, err := preprocessImage(filepath.Join(t.TempDir(), "nope.png"), 64)
	assert.Error(t, err)
}

func TestReadOrientationDefaultsToUprightWithoutEXIF(t *testing.T) {
	path := writeTestPNG(t, 10, 10)
	assert.Equal(t, orientationUpright, readOrientation(path))
}

func TestToCHWTensorNormalizesToExpectedRange(t *testing.T) {
	path := writeTestPNG(t, 8, 8)
	tensor, _, _, err := preprocessImage(path, 8)
	require.NoError(t, err)
	for _, v := range tensor {
		assert.Greater(t, v, float32(-6))
		assert.Less(t, v, float32(6))
	}
}
