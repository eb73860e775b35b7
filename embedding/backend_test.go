package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBackend(t *testing.T) {
	assert.Equal(t, CUDA, ParseBackend("CUDA"))
	assert.Equal(t, TensorRT, ParseBackend("tensorrt"))
	assert.Equal(t, XNNPACK, ParseBackend("xnnpack"))
	assert.Equal(t, CoreML, ParseBackend("coreml"))
	assert.Equal(t, CPU, ParseBackend("cpu"))
	assert.Equal(t, Auto, ParseBackend(""))
	assert.Equal(t, Auto, ParseBackend("nonsense"))
}

func TestBackendString(t *testing.T) {
	assert.Equal(t, "auto", Auto.String())
	assert.Equal(t, "cpu", CPU.String())
}
