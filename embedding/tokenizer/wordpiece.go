package tokenizer

import (
	"bufio"
	"os"
	"strings"
)

// WordPiece tokenizes against a bare newline-separated vocabulary list (one
// token per line, line number == id), the format a model directory carries
// when it ships a raw vocab.txt instead of a full tokenizer.json. The ONNX
// orchestrator falls back to it when NewSugarWordPiece cannot load the
// tokenizer file. It does its own whitespace splitting rather than BERT's WordPiece
// greedy-longest-match, so it is only as accurate as the query vocabulary
// overlap allows.
type WordPiece struct {
	vocab     map[string]int64
	unkID     int64
	clsID     int64
	sepID     int64
	maxSeqLen int
}

// LoadWordPieceFromVocab reads path as a newline-delimited vocabulary list.
func LoadWordPieceFromVocab(path string, maxSeq int) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vocab := make(map[string]int64, 60000)
	var idx int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		vocab[tok] = idx
		idx++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return newWordPiece(vocab, maxSeq), nil
}

func newWordPiece(vocab map[string]int64, maxSeq int) *WordPiece {
	wp := &WordPiece{vocab: vocab, maxSeqLen: maxSeq, unkID: 100, clsID: 101, sepID: 102}
	if id, ok := vocab["[UNK]"]; ok {
		wp.unkID = id
	}
	if id, ok := vocab["[CLS]"]; ok {
		wp.clsID = id
	}
	if id, ok := vocab["[SEP]"]; ok {
		wp.sepID = id
	}
	return wp
}

// Tokenize splits each query on whitespace and maps tokens through vocab,
// wrapping with [CLS]/[SEP] and padding to maxSeqLen.
func (w *WordPiece) Tokenize(texts []string) ([][]int64, [][]int64, error) {
	ids := make([][]int64, len(texts))
	masks := make([][]int64, len(texts))
	for i, t := range texts {
		tokens := strings.Fields(t)
		seq := make([]int64, 0, w.maxSeqLen)
		mask := make([]int64, 0, w.maxSeqLen)
		seq = append(seq, w.clsID)
		mask = append(mask, 1)
		for _, tok := range tokens {
			id, ok := w.vocab[tok]
			if !ok {
				id = w.unkID
			}
			seq = append(seq, id)
			mask = append(mask, 1)
			if len(seq) >= w.maxSeqLen-1 {
				break
			}
		}
		seq = append(seq, w.sepID)
		mask = append(mask, 1)
		for len(seq) < w.maxSeqLen {
			seq = append(seq, 0)
			mask = append(mask, 0)
		}
		ids[i] = seq
		masks[i] = mask
	}
	return ids, masks, nil
}
