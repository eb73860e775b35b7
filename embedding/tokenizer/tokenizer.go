package tokenizer

import "fmt"

// Tokenizer turns search query text into the fixed-length input_ids/
// attention_mask pair the text ONNX model expects. Scout only ever tokenizes
// short search queries, never a corpus of documents, so implementations need
// not be fast — they need to agree with whatever vocabulary the paired text
// model was trained against.
type Tokenizer interface {
	Tokenize(texts []string) (inputIDs [][]int64, attentionMasks [][]int64, err error)
}

// Config carries the sequence-length budget queries are padded/truncated to.
type Config struct {
	MaxSeqLen int
}

// ErrUnsupported is returned when the model directory's tokenizer asset
// doesn't match any format Scout knows how to load.
var ErrUnsupported = fmt.Errorf("unsupported tokenizer configuration")
