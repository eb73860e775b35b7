//go:build !onnx
// +build !onnx

package embedding

import (
	"context"

	"github.com/ZanzyTHEbar/scout/scouterr"
)

// onnxOrchestrator is a stub used when built without the "onnx" build tag,
// so the module compiles without the ONNX Runtime shared library present.
type onnxOrchestrator struct {
	opts Options
}

func newONNXOrchestrator(opts Options) Orchestrator {
	return &onnxOrchestrator{opts: opts}
}

func (o *onnxOrchestrator) Dimensions() int      { return Dims }
func (o *onnxOrchestrator) BackendUsed() Backend { return o.opts.Backend }

func (o *onnxOrchestrator) EmbedImages(ctx context.Context, paths []string) ([]Embedding, error) {
	return nil, scouterr.New(scouterr.BackendUnavailable, "embedding: onnx runtime not built in; rebuild with -tags onnx and provide model files")
}

func (o *onnxOrchestrator) EmbedTexts(ctx context.Context, texts []string) ([]Embedding, error) {
	return nil, scouterr.New(scouterr.BackendUnavailable, "embedding: onnx runtime not built in; rebuild with -tags onnx and provide model files")
}
