package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"
)

// SugarWordPiece wraps sugarme/tokenizer's BERT WordPiece pipeline
// (normalizer + pre-tokenizer + post-processor) so Scout's query encoding
// matches how the paired text ONNX model was trained: lowercase, accent
// strip, greedy-longest-match subwords, [CLS]/[SEP] wrapping.
type SugarWordPiece struct {
	t         *tk.Tokenizer
	maxSeqLen int
}

// fastTokenizerModel is the subset of a HuggingFace fast-tokenizer's
// tokenizer.json this package understands: a WordPiece model plus its vocab
// and the unk token Scout falls back to for out-of-vocabulary subwords.
type fastTokenizerModel struct {
	Model struct {
		Type     string           `json:"type"`
		Vocab    map[string]int64 `json:"vocab"`
		UnkToken string           `json:"unk_token"`
	} `json:"model"`
}

// NewSugarWordPiece builds a tokenizer from tokenizerPath, which is either a
// full tokenizer.json (the format Scout's model directory contract
// specifies) or a bare newline-delimited vocab.txt. A path ending in .json
// is read as tokenizer.json, which carries the real special-token ids; any
// other path is read as a vocab.txt, for which the well-known BERT defaults
// are assumed.
func NewSugarWordPiece(tokenizerPath string, maxSeq int) (*SugarWordPiece, error) {
	wp, clsID, sepID, err := loadWordPieceModel(tokenizerPath)
	if err != nil {
		return nil, err
	}

	t := tk.NewTokenizer(wp)
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	t.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Value: "[SEP]", Id: sepID},
		processor.PostToken{Value: "[CLS]", Id: clsID},
	))
	t.WithTruncation(&tk.TruncationParams{MaxLength: maxSeq})
	t.WithPadding(&tk.PaddingParams{})

	return &SugarWordPiece{t: t, maxSeqLen: maxSeq}, nil
}

// loadWordPieceModel resolves tokenizerPath to a wordpiece.WordPiece model
// plus the [CLS]/[SEP] ids to post-process with.
func loadWordPieceModel(tokenizerPath string) (wordpiece.WordPiece, int, int, error) {
	if filepath.Ext(tokenizerPath) == ".json" {
		return loadFromTokenizerJSON(tokenizerPath)
	}
	wp, err := wordpiece.NewWordPieceFromFile(tokenizerPath, "[UNK]")
	if err != nil {
		return wordpiece.WordPiece{}, 0, 0, fmt.Errorf("load vocab %s: %w", tokenizerPath, err)
	}
	return wp, 101, 102, nil
}

// loadFromTokenizerJSON reads a HuggingFace fast-tokenizer's tokenizer.json,
// pulls its WordPiece vocab and special-token ids, and rebuilds an in-process
// wordpiece.WordPiece from it. sugarme/tokenizer's WordPiece builder only
// loads from a vocab file, so the extracted vocab is re-serialized to a
// scratch file in id order before handing it to the real loader.
func loadFromTokenizerJSON(path string) (wordpiece.WordPiece, int, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return wordpiece.WordPiece{}, 0, 0, fmt.Errorf("read tokenizer.json: %w", err)
	}
	var parsed fastTokenizerModel
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return wordpiece.WordPiece{}, 0, 0, fmt.Errorf("parse tokenizer.json: %w", err)
	}
	if len(parsed.Model.Vocab) == 0 {
		return wordpiece.WordPiece{}, 0, 0, fmt.Errorf("tokenizer.json %s carries no model.vocab", path)
	}

	scratch, err := vocabScratchFile(parsed.Model.Vocab)
	if err != nil {
		return wordpiece.WordPiece{}, 0, 0, err
	}
	defer os.Remove(scratch)

	unk := parsed.Model.UnkToken
	if unk == "" {
		unk = "[UNK]"
	}
	wp, err := wordpiece.NewWordPieceFromFile(scratch, unk)
	if err != nil {
		return wordpiece.WordPiece{}, 0, 0, fmt.Errorf("rebuild wordpiece model: %w", err)
	}

	clsID, sepID := 101, 102
	if id, ok := parsed.Model.Vocab["[CLS]"]; ok {
		clsID = int(id)
	}
	if id, ok := parsed.Model.Vocab["[SEP]"]; ok {
		sepID = int(id)
	}
	return wp, clsID, sepID, nil
}

// vocabScratchFile writes vocab out as one token per line in id order, the
// layout wordpiece.NewWordPieceFromFile expects.
func vocabScratchFile(vocab map[string]int64) (string, error) {
	tokens := make([]string, len(vocab))
	for tok, id := range vocab {
		if id < 0 || int(id) >= len(tokens) {
			return "", fmt.Errorf("vocab id %d out of range for %d entries", id, len(tokens))
		}
		tokens[id] = tok
	}

	f, err := os.CreateTemp("", "scout-vocab-*.txt")
	if err != nil {
		return "", fmt.Errorf("scratch vocab file: %w", err)
	}
	defer f.Close()
	for _, tok := range tokens {
		if _, err := f.WriteString(tok + "\n"); err != nil {
			return "", fmt.Errorf("write scratch vocab: %w", err)
		}
	}
	return f.Name(), nil
}

// Tokenize runs each query through the configured pipeline and pads/truncates
// to a fixed maxSeqLen row so every query produces identically-shaped tensors.
func (s *SugarWordPiece) Tokenize(texts []string) ([][]int64, [][]int64, error) {
	ids := make([][]int64, len(texts))
	masks := make([][]int64, len(texts))
	for i, txt := range texts {
		enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(txt)), true)
		if err != nil {
			return nil, nil, err
		}
		uids := enc.GetIds()
		umask := enc.GetAttentionMask()

		rowIDs := make([]int64, s.maxSeqLen)
		rowMask := make([]int64, s.maxSeqLen)
		n := len(uids)
		if n > s.maxSeqLen {
			n = s.maxSeqLen
		}
		for j := 0; j < n; j++ {
			rowIDs[j] = int64(uids[j])
			if j < len(umask) {
				rowMask[j] = int64(umask[j])
			} else {
				rowMask[j] = 1
			}
		}
		ids[i] = rowIDs
		masks[i] = rowMask
	}
	return ids, masks, nil
}
