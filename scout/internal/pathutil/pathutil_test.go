package pathutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePathCleansRelative(t *testing.T) {
	got := NormalizePath("./a/../b")
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "b", filepath.Base(got))
}

func TestIsSubpathTrueForNested(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "sub", "file.jpg")
	assert.True(t, IsSubpath(parent, child))
}

func TestIsSubpathFalseForSibling(t *testing.T) {
	parent := t.TempDir()
	sibling := filepath.Join(filepath.Dir(parent), "other")
	assert.False(t, IsSubpath(parent, sibling))
}

func TestIsSubpathTrueForSamePath(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, IsSubpath(dir, dir))
}

func TestValidatePathRejectsEmpty(t *testing.T) {
	assert.Error(t, ValidatePath(""))
}

func TestValidatePathRejectsNullByte(t *testing.T) {
	assert.Error(t, ValidatePath("a\x00b"))
}

func TestValidatePathRejectsTooLong(t *testing.T) {
	assert.Error(t, ValidatePath(strings.Repeat("a", MaxPathLength+1)))
}

func TestValidatePathAcceptsNormal(t *testing.T) {
	assert.NoError(t, ValidatePath("/tmp/photos/a.jpg"))
}
