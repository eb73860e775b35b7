package scouterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(SidecarCorrupt, nil, "whatever"))
}

func TestOfRoundTrips(t *testing.T) {
	err := New(AssetMissing, "model file not found")
	assert.Equal(t, AssetMissing, Of(err))
	assert.True(t, Is(err, AssetMissing))
	assert.False(t, Is(err, Fatal))
}

func TestWrapPreservesCauseAndUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(SidecarCorrupt, cause, "writing %s", "a.msgpack")
	assert.Equal(t, SidecarCorrupt, Of(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "a.msgpack")
}

func TestOfUnknownForPlainError(t *testing.T) {
	assert.Equal(t, Unknown, Of(errors.New("plain")))
	assert.Equal(t, Unknown, Of(nil))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "sidecar_corrupt", SidecarCorrupt.String())
	assert.Equal(t, "unknown", Unknown.String())
}
