//go:build onnx
// +build onnx

package embedding

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/scout/embedding/tokenizer"
	"github.com/ZanzyTHEbar/scout/scouterr"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	visionModelFilename = "vision_model_q4f16.onnx"
	textModelFilename   = "text_model_q4f16.onnx"
	vocabFilename       = "vocab.txt"
)

// onnxOrchestrator wraps two ONNX Runtime sessions from a shared model
// family. Sessions are created lazily on first use of the matching
// EmbedImages/EmbedTexts call.
type onnxOrchestrator struct {
	opts Options

	mu           sync.Mutex
	visionSess   *ort.DynamicAdvancedSession
	visionInputs []string
	visionOutput string

	textSess   *ort.DynamicAdvancedSession
	textInputs []string
	textOutput string
	tok        tokenizer.Tokenizer

	backendUsed Backend
}

func (o *onnxOrchestrator) visionFilename() string {
	if o.opts.VisionModelFile != "" {
		return o.opts.VisionModelFile
	}
	return visionModelFilename
}

func (o *onnxOrchestrator) textFilename() string {
	if o.opts.TextModelFile != "" {
		return o.opts.TextModelFile
	}
	return textModelFilename
}

func (o *onnxOrchestrator) tokenizerFilename() string {
	if o.opts.TokenizerFile != "" {
		return o.opts.TokenizerFile
	}
	return vocabFilename
}

func newONNXOrchestrator(opts Options) Orchestrator {
	if opts.ImageSize <= 0 {
		opts.ImageSize = 512
	}
	if opts.TextMaxSeqLen <= 0 {
		opts.TextMaxSeqLen = 64
	}
	return &onnxOrchestrator{opts: opts, backendUsed: opts.Backend}
}

func (o *onnxOrchestrator) Dimensions() int      { return Dims }
func (o *onnxOrchestrator) BackendUsed() Backend { return o.backendUsed }

func (o *onnxOrchestrator) ensureEnvironment() error {
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return scouterr.Wrap(scouterr.BackendUnavailable, err, "embedding: initialize onnx runtime")
		}
	}
	return nil
}

// sessionOptionsFor builds SessionOptions for the given backend, or nil for
// CPU (ORT's default). Returns an error when the provider-specific setup
// fails, which buildSession treats as "try the next one".
func sessionOptionsFor(backend Backend, deviceID int) (*ort.SessionOptions, error) {
	if backend == CPU {
		return nil, nil
	}
	o, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	_ = o.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll)

	switch backend {
	case CUDA:
		cu, err := ort.NewCUDAProviderOptions()
		if err != nil {
			o.Destroy()
			return nil, err
		}
		_ = o.AppendExecutionProviderCUDA(cu)
		cu.Destroy()
	case TensorRT:
		trt, err := ort.NewTensorRTProviderOptions()
		if err != nil {
			o.Destroy()
			return nil, err
		}
		_ = o.AppendExecutionProviderTensorRT(trt)
		trt.Destroy()
	case CoreML:
		if err := o.AppendExecutionProviderCoreMLV2(map[string]string{}); err != nil {
			o.Destroy()
			return nil, err
		}
	case XNNPACK:
		if err := o.AppendExecutionProviderXnnpack(map[string]string{}); err != nil {
			o.Destroy()
			return nil, err
		}
	default:
		o.Destroy()
		return nil, fmt.Errorf("unsupported backend %s", backend)
	}
	return o, nil
}

// buildSession tries the requested backend (expanding Auto to the fallback
// order), retrying with CPU if every candidate EP fails to construct.
func buildSession(modelPath string, inputNames, outputNames []string, requested Backend, deviceID int) (*ort.DynamicAdvancedSession, Backend, error) {
	candidates := []Backend{requested}
	if requested == Auto {
		candidates = autoOrder
	} else if requested != CPU {
		candidates = append(candidates, CPU)
	}

	var lastErr error
	for _, b := range candidates {
		opts, err := sessionOptionsFor(b, deviceID)
		if err != nil {
			lastErr = err
			continue
		}
		sess, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, opts)
		if opts != nil {
			opts.Destroy()
		}
		if err != nil {
			lastErr = err
			continue
		}
		return sess, b, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no execution provider available")
	}
	return nil, CPU, scouterr.Wrap(scouterr.BackendUnavailable, lastErr, "embedding: construct onnx session for %s", modelPath)
}

func detectIOInfo(modelPath string) (inputs []string, floatOutput string, err error) {
	ins, outs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, "", fmt.Errorf("get IO info for %s: %w", modelPath, err)
	}

	var idsName, maskName, tokTypeName, pixelsName string
	for _, ii := range ins {
		n := strings.ToLower(ii.Name)
		switch {
		case strings.Contains(n, "input_ids"):
			idsName = ii.Name
		case strings.Contains(n, "attention_mask"):
			maskName = ii.Name
		case strings.Contains(n, "token_type"):
			tokTypeName = ii.Name
		case strings.Contains(n, "pixel_values") || strings.Contains(n, "pixel"):
			pixelsName = ii.Name
		}
	}
	for _, name := range []string{idsName, maskName, tokTypeName, pixelsName} {
		if name != "" {
			inputs = append(inputs, name)
		}
	}
	if len(inputs) == 0 {
		for _, ii := range ins {
			inputs = append(inputs, ii.Name)
		}
	}
	if len(inputs) == 0 {
		return nil, "", fmt.Errorf("could not determine onnx input names for %s", modelPath)
	}

	for _, oi := range outs {
		if oi.DataType == ort.TensorElementDataTypeFloat {
			floatOutput = oi.Name
			break
		}
	}
	if floatOutput == "" {
		return nil, "", fmt.Errorf("could not determine onnx float output for %s", modelPath)
	}
	return inputs, floatOutput, nil
}

func (o *onnxOrchestrator) ensureVisionSession() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.visionSess != nil {
		return nil
	}
	if err := o.ensureEnvironment(); err != nil {
		return err
	}
	modelPath := filepath.Join(o.opts.ModelDir, o.visionFilename())
	inputs, output, err := detectIOInfo(modelPath)
	if err != nil {
		return scouterr.Wrap(scouterr.AssetMissing, err, "embedding: vision model")
	}
	sess, used, err := buildSession(modelPath, inputs, []string{output}, o.opts.Backend, o.opts.EPDeviceID)
	if err != nil {
		return err
	}
	o.visionSess = sess
	o.visionInputs = inputs
	o.visionOutput = output
	o.backendUsed = used
	return nil
}

func (o *onnxOrchestrator) ensureTextSession() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.textSess != nil {
		return nil
	}
	if err := o.ensureEnvironment(); err != nil {
		return err
	}
	modelPath := filepath.Join(o.opts.ModelDir, o.textFilename())
	inputs, output, err := detectIOInfo(modelPath)
	if err != nil {
		return scouterr.Wrap(scouterr.AssetMissing, err, "embedding: text model")
	}
	sess, used, err := buildSession(modelPath, inputs, []string{output}, o.opts.Backend, o.opts.EPDeviceID)
	if err != nil {
		return err
	}

	vocabPath := filepath.Join(o.opts.ModelDir, o.tokenizerFilename())
	var tok tokenizer.Tokenizer
	if swp, werr := tokenizer.NewSugarWordPiece(vocabPath, o.opts.TextMaxSeqLen); werr == nil {
		tok = swp
	} else if wp, werr2 := tokenizer.LoadWordPieceFromVocab(vocabPath, o.opts.TextMaxSeqLen); werr2 == nil {
		tok = wp
	} else {
		sess.Destroy()
		return scouterr.Wrap(scouterr.AssetMissing, werr, "embedding: load tokenizer from %s", o.opts.ModelDir)
	}

	o.textSess = sess
	o.textInputs = inputs
	o.textOutput = output
	o.tok = tok
	o.backendUsed = used
	return nil
}

func (o *onnxOrchestrator) EmbedImages(ctx context.Context, paths []string) ([]Embedding, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if err := o.ensureVisionSession(); err != nil {
		return nil, err
	}
	out := make([]Embedding, 0, len(paths))
	for i := 0; i < len(paths); i += onnxImageBatchSize {
		end := i + onnxImageBatchSize
		if end > len(paths) {
			end = len(paths)
		}
		vecs, err := o.embedImageBatch(ctx, paths[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (o *onnxOrchestrator) embedImageBatch(ctx context.Context, paths []string) ([]Embedding, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	size := o.opts.ImageSize
	batch := len(paths)
	flat := make([]float32, 0, batch*3*size*size)
	for _, p := range paths {
		tensor, _, _, err := preprocessImage(p, size)
		if err != nil {
			return nil, scouterr.Wrap(scouterr.MediaUnreadable, err, "embedding: preprocess %s", p)
		}
		flat = append(flat, tensor...)
	}

	shape := ort.NewShape(int64(batch), 3, int64(size), int64(size))
	pixelTensor, err := ort.NewTensor(shape, flat)
	if err != nil {
		return nil, fmt.Errorf("embedding: pixel tensor: %w", err)
	}
	defer pixelTensor.Destroy()

	outs := make([]ort.Value, 1)
	if err := o.visionSess.Run([]ort.Value{pixelTensor}, outs); err != nil {
		return nil, fmt.Errorf("embedding: vision session run: %w", err)
	}
	defer outs[0].Destroy()

	return extractEmbeddings(outs[0], batch)
}

func (o *onnxOrchestrator) EmbedTexts(ctx context.Context, texts []string) ([]Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := o.ensureTextSession(); err != nil {
		return nil, err
	}
	out := make([]Embedding, 0, len(texts))
	for i := 0; i < len(texts); i += onnxTextBatchSize {
		end := i + onnxTextBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := o.embedTextBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (o *onnxOrchestrator) embedTextBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ids, masks, err := o.tok.Tokenize(texts)
	if err != nil {
		return nil, fmt.Errorf("embedding: tokenize: %w", err)
	}
	batch := len(ids)
	if batch == 0 {
		return nil, nil
	}
	seq := len(ids[0])

	flatIDs := make([]int64, batch*seq)
	flatMask := make([]int64, batch*seq)
	for i := 0; i < batch; i++ {
		copy(flatIDs[i*seq:(i+1)*seq], ids[i])
		if i < len(masks) {
			copy(flatMask[i*seq:(i+1)*seq], masks[i])
		}
	}
	shape := ort.NewShape(int64(batch), int64(seq))

	idsTensor, err := ort.NewTensor(shape, flatIDs)
	if err != nil {
		return nil, fmt.Errorf("embedding: ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, flatMask)
	if err != nil {
		return nil, fmt.Errorf("embedding: mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inVals := make([]ort.Value, len(o.textInputs))
	for i, name := range o.textInputs {
		n := strings.ToLower(name)
		switch {
		case strings.Contains(n, "input_ids"):
			inVals[i] = idsTensor
		case strings.Contains(n, "attention_mask"):
			inVals[i] = maskTensor
		default:
			zero := make([]int64, batch*seq)
			zt, err := ort.NewTensor(shape, zero)
			if err != nil {
				return nil, fmt.Errorf("embedding: alloc zero tensor: %w", err)
			}
			defer zt.Destroy()
			inVals[i] = zt
		}
	}

	outs := make([]ort.Value, 1)
	if err := o.textSess.Run(inVals, outs); err != nil {
		return nil, fmt.Errorf("embedding: text session run: %w", err)
	}
	defer outs[0].Destroy()

	return extractEmbeddings(outs[0], batch)
}

func extractEmbeddings(v ort.Value, batch int) ([]Embedding, error) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("embedding: unexpected output tensor type")
	}
	data := t.GetData()
	shape := t.GetShape()
	if len(shape) != 2 || int(shape[0]) != batch {
		return nil, fmt.Errorf("embedding: unexpected output shape %v", shape)
	}
	cols := int(shape[1])
	out := make([]Embedding, batch)
	for r := 0; r < batch; r++ {
		start := r * cols
		raw := make([]float32, cols)
		copy(raw, data[start:start+cols])
		e, err := New(AdjustToDims(raw, Dims))
		if err != nil {
			return nil, fmt.Errorf("embedding: normalize row %d: %w", r, err)
		}
		out[r] = e
	}
	return out, nil
}
