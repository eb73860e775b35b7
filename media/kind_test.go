package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyImages(t *testing.T) {
	for _, p := range []string{"a.jpg", "a.JPG", "dir/b.png", "c.webp", "d.tiff", "e.gif", "f.bmp"} {
		assert.Equal(t, Image, Classify(p), p)
	}
}

func TestClassifyVideos(t *testing.T) {
	for _, p := range []string{"a.mp4", "a.MOV", "dir/b.mkv"} {
		assert.Equal(t, Video, Classify(p), p)
	}
}

func TestClassifyUnsupported(t *testing.T) {
	for _, p := range []string{"a.txt", "a.svg", "noext", "a.psd"} {
		assert.Equal(t, Unsupported, Classify(p), p)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "image", Image.String())
	assert.Equal(t, "video", Video.String())
	assert.Equal(t, "unsupported", Unsupported.String())
}
