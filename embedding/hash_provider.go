package embedding

import (
	"context"
	"crypto/sha256"
)

// devOrchestrator derives a deterministic embedding from the SHA256 of its
// input (path or text), with no model loading and no external dependency.
// It satisfies Orchestrator so tests can exercise the rest of the pipeline
// without ONNX Runtime or real model weights. It is built only through
// NewDev; no --provider value selects it.
type devOrchestrator struct{ dims int }

func newDevOrchestrator(dims int) Orchestrator {
	if dims <= 0 {
		dims = Dims
	}
	return &devOrchestrator{dims: dims}
}

func (d *devOrchestrator) Dimensions() int     { return d.dims }
func (d *devOrchestrator) BackendUsed() Backend { return CPU }

func (d *devOrchestrator) EmbedImages(ctx context.Context, paths []string) ([]Embedding, error) {
	return d.embedAll(paths)
}

func (d *devOrchestrator) EmbedTexts(ctx context.Context, texts []string) ([]Embedding, error) {
	return d.embedAll(texts)
}

func (d *devOrchestrator) embedAll(inputs []string) ([]Embedding, error) {
	out := make([]Embedding, len(inputs))
	for i, s := range inputs {
		e, err := d.embedOne(s)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (d *devOrchestrator) embedOne(s string) (Embedding, error) {
	sum := sha256.Sum256([]byte(s))
	raw := make([]float32, d.dims)
	for j := range raw {
		b := sum[j%len(sum)]
		raw[j] = (float32(int(b)) - 128.0) / 128.0
	}
	return New(AdjustToDims(raw, Dims))
}
