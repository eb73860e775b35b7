package embedding

import "context"

// Orchestrator wraps the dual vision/text encoder family: both models
// produce embeddings in the same D-dimensional space, so a text query and an
// image query can be blended directly. Both models are loaded lazily, on
// first Embed call; until then the orchestrator holds only paths and a
// backend selector.
type Orchestrator interface {
	// Dimensions reports the encoder's output width. The dev orchestrator
	// reports its raw width, before AdjustToDims fits it to Dims; the ONNX
	// orchestrator reports Dims.
	Dimensions() int
	// BackendUsed reports which execution provider actually served the
	// last successful inference (relevant in Auto mode).
	BackendUsed() Backend
	// EmbedImages decodes and encodes each image path, returning one
	// unit-norm Embedding per input, in order.
	EmbedImages(ctx context.Context, paths []string) ([]Embedding, error)
	// EmbedTexts tokenizes and encodes each string, returning one
	// unit-norm Embedding per input, in order.
	EmbedTexts(ctx context.Context, texts []string) ([]Embedding, error)
}

// Options configures encoder construction. ModelDir holds the three
// well-known files: vision_model_q4f16.onnx, text_model_q4f16.onnx,
// vocab.txt. VisionModelFile/TextModelFile/TokenizerFile override the
// filenames within ModelDir; each defaults to the well-known name when empty.
type Options struct {
	ModelDir        string
	VisionModelFile string
	TextModelFile   string
	TokenizerFile   string
	Backend         Backend
	TextMaxSeqLen   int
	ImageSize       int
	EPDeviceID      int
}

// DefaultOptions returns encoder construction defaults: Auto backend, 512x512
// image preprocessing, and the model family's typical 64-token text limit.
func DefaultOptions(modelDir string) Options {
	return Options{
		ModelDir:      modelDir,
		Backend:       Auto,
		TextMaxSeqLen: 64,
		ImageSize:     512,
	}
}

// NewOrchestrator builds the real ONNX-backed Orchestrator when compiled
// with the onnx build tag, or a stub that reports BackendUnavailable
// otherwise.
func NewOrchestrator(opts Options) Orchestrator {
	return newONNXOrchestrator(opts)
}

// NewDev builds a deterministic, dependency-free Orchestrator suitable for
// tests and local development without real models on disk.
func NewDev(dims int) Orchestrator {
	return newDevOrchestrator(dims)
}
