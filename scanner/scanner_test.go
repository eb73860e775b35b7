package scanner

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/scout/sidecar"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestScanAcceptsWhitelistedExtensions(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a.jpg"), 100, 100)
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("hello"))

	s := New(DefaultScanOptions("1.0.0"))
	var accepted []Accepted
	counts, err := s.Scan(context.Background(), root, func(a Accepted) {
		accepted = append(accepted, a)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Accepted)
	assert.Equal(t, int64(1), counts.SkipFiltered)
	require.Len(t, accepted, 1)
	assert.Equal(t, filepath.Join(root, "a.jpg"), accepted[0].Path)
}

func TestScanNeverDescendsIntoScoutDir(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, ".scout", "sneaky.jpg"), 10, 10)

	s := New(DefaultScanOptions("1.0.0"))
	var accepted []Accepted
	counts, err := s.Scan(context.Background(), root, func(a Accepted) {
		accepted = append(accepted, a)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Accepted)
	assert.Empty(t, accepted)
}

func TestScanHonorsScoutignore(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "keep.jpg"), 10, 10)
	writeJPEG(t, filepath.Join(root, "skip.jpg"), 10, 10)
	writeFile(t, filepath.Join(root, IgnoreFilename), []byte("skip.jpg\n"))

	s := New(DefaultScanOptions("1.0.0"))
	var accepted []string
	counts, err := s.Scan(context.Background(), root, func(a Accepted) {
		accepted = append(accepted, filepath.Base(a.Path))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Accepted)
	assert.Equal(t, []string{"keep.jpg"}, accepted)
}

func TestScanNestedScoutignoreOverridesParent(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	writeFile(t, filepath.Join(root, IgnoreFilename), []byte("*.jpg\n"))
	writeFile(t, filepath.Join(sub, IgnoreFilename), []byte("nothing-matches-this\n"))
	writeJPEG(t, filepath.Join(sub, "photo.jpg"), 10, 10)

	s := New(DefaultScanOptions("1.0.0"))
	var accepted []string
	counts, err := s.Scan(context.Background(), root, func(a Accepted) {
		accepted = append(accepted, filepath.Base(a.Path))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Accepted)
	assert.Equal(t, []string{"photo.jpg"}, accepted)
}

func TestScanSkipsAlreadyIndexed(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	writeJPEG(t, path, 10, 10)

	opts := DefaultScanOptions("1.0.0")
	s := New(opts)
	var firstPass []Accepted
	_, err := s.Scan(context.Background(), root, func(a Accepted) {
		firstPass = append(firstPass, a)
	})
	require.NoError(t, err)
	require.Len(t, firstPass, 1)

	require.NoError(t, sidecar.SaveImage(root, &sidecar.ImageSidecar{
		FormatVersion:    "1.0.0",
		ContentHash:      firstPass[0].Hash.String(),
		OriginalFilename: "a.jpg",
		Embedding:        make([]float32, 1024),
	}))

	var secondPass []Accepted
	counts, err := s.Scan(context.Background(), root, func(a Accepted) {
		secondPass = append(secondPass, a)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Accepted)
	assert.Equal(t, int64(1), counts.SkipAlreadyIndexed)
	assert.Empty(t, secondPass)
}

func TestScanOutdatedRequiresForce(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	writeJPEG(t, path, 10, 10)

	opts := DefaultScanOptions("2.0.0")
	s := New(opts)
	var firstPass []Accepted
	_, err := s.Scan(context.Background(), root, func(a Accepted) {
		firstPass = append(firstPass, a)
	})
	require.NoError(t, err)
	require.Len(t, firstPass, 1)

	require.NoError(t, sidecar.SaveImage(root, &sidecar.ImageSidecar{
		FormatVersion:    "1.0.0",
		ContentHash:      firstPass[0].Hash.String(),
		OriginalFilename: "a.jpg",
		Embedding:        make([]float32, 1024),
	}))

	counts, err := s.Scan(context.Background(), root, func(a Accepted) {})
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Accepted)
	assert.Equal(t, int64(1), counts.SkipOutdated)

	forced := DefaultScanOptions("2.0.0")
	forced.Force = true
	var forcedAccepted []Accepted
	counts, err = New(forced).Scan(context.Background(), root, func(a Accepted) {
		forcedAccepted = append(forcedAccepted, a)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Accepted)
	assert.Len(t, forcedAccepted, 1)
}

func TestScanMinResolutionFilter(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "small.jpg"), 20, 20)
	writeJPEG(t, filepath.Join(root, "big.jpg"), 200, 200)

	opts := DefaultScanOptions("1.0.0")
	opts.MinResolutionPx = 100
	s := New(opts)
	var accepted []string
	counts, err := s.Scan(context.Background(), root, func(a Accepted) {
		accepted = append(accepted, filepath.Base(a.Path))
	})
	require.NoError(t, err)
	sort.Strings(accepted)
	assert.Equal(t, int64(1), counts.Accepted)
	assert.Equal(t, []string{"big.jpg"}, accepted)
}

func TestAcceptPathMatchesScanDecision(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.jpg")
	writeJPEG(t, path, 50, 50)

	opts := DefaultScanOptions("1.0.0")
	accepted, ok, err := AcceptPath(path, opts)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, path, accepted.Path)

	require.NoError(t, sidecar.SaveImage(root, &sidecar.ImageSidecar{
		FormatVersion:    "1.0.0",
		ContentHash:      accepted.Hash.String(),
		OriginalFilename: "a.jpg",
		Embedding:        make([]float32, 1024),
	}))

	_, ok, err = AcceptPath(path, opts)
	require.NoError(t, err)
	assert.False(t, ok, "already-indexed file should not be re-accepted")
}

func TestAcceptPathRejectsUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeFile(t, path, []byte("hello"))

	_, ok, err := AcceptPath(path, DefaultScanOptions("1.0.0"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcceptPathHonorsScoutignore(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "skip.jpg")
	writeJPEG(t, path, 20, 20)
	writeFile(t, filepath.Join(root, IgnoreFilename), []byte("skip.jpg\n"))

	_, ok, err := AcceptPath(path, DefaultScanOptions("1.0.0"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanNonRecursive(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "top.jpg"), 10, 10)
	writeJPEG(t, filepath.Join(root, "sub", "nested.jpg"), 10, 10)

	opts := DefaultScanOptions("1.0.0")
	opts.Recursive = false
	var accepted []string
	counts, err := New(opts).Scan(context.Background(), root, func(a Accepted) {
		accepted = append(accepted, filepath.Base(a.Path))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Accepted)
	assert.Equal(t, []string{"top.jpg"}, accepted)
}
