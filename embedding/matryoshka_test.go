package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustToDimsTruncates(t *testing.T) {
	v := make([]float32, 2048)
	v[0] = 1
	out := AdjustToDims(v, 1024)
	assert.Len(t, out, 1024)
	assert.Equal(t, float32(1), out[0])
}

func TestAdjustToDimsPads(t *testing.T) {
	v := []float32{1, 2, 3}
	out := AdjustToDims(v, 5)
	assert.Equal(t, []float32{1, 2, 3, 0, 0}, out)
}

func TestAdjustToDimsExactMatch(t *testing.T) {
	v := []float32{1, 2, 3}
	out := AdjustToDims(v, 3)
	assert.Equal(t, v, out)
}
