// Package retrieval scores indexed sidecars against a text/image query and
// returns a ranked, deterministic result set.
package retrieval

import (
	"context"

	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/hashing"
	"github.com/ZanzyTHEbar/scout/scouterr"
)

// DefaultTextWeight is used to blend a positive text and image query when
// the caller does not specify one explicitly.
const DefaultTextWeight float32 = 0.5

// DefaultNegativeLambda is the weight applied to the negative query's
// penalty term.
const DefaultNegativeLambda float32 = 0.7

// Query describes one search request. At least one of Text or ImagePath
// must be set.
type Query struct {
	Text           string
	ImagePath      string
	NegativeText   string
	TextWeight     float32
	NegativeLambda float32
}

// Resolved holds the encoded query vectors ready for scoring. ReferenceHash
// is the content hash of ImagePath, set only when a positive image query
// was supplied, so the engine can exclude the reference image from results.
type Resolved struct {
	Positive       embedding.Embedding
	Negative       *embedding.Embedding
	NegativeLambda float32
	ReferenceHash  string
}

// Resolve encodes a Query's text/image inputs into normalized vectors via
// orch, blending positive text and image per spec §4.5: Q+ = normalize(w ·
// Q_text + (1-w) · Q_image).
func Resolve(ctx context.Context, orch embedding.Orchestrator, q Query) (Resolved, error) {
	if q.Text == "" && q.ImagePath == "" {
		return Resolved{}, scouterr.New(scouterr.InputInvalid, "retrieval: query must have a positive text or image term")
	}
	lambda := q.NegativeLambda
	if lambda == 0 {
		lambda = DefaultNegativeLambda
	}

	var (
		textEmb  embedding.Embedding
		imageEmb embedding.Embedding
		haveText bool
		haveImg  bool
		refHash  string
	)

	if q.Text != "" {
		embs, err := orch.EmbedTexts(ctx, []string{q.Text})
		if err != nil {
			return Resolved{}, err
		}
		textEmb = embs[0]
		haveText = true
	}
	if q.ImagePath != "" {
		embs, err := orch.EmbedImages(ctx, []string{q.ImagePath})
		if err != nil {
			return Resolved{}, err
		}
		imageEmb = embs[0]
		haveImg = true

		h, err := hashing.HashFile(q.ImagePath)
		if err != nil {
			return Resolved{}, err
		}
		refHash = h.String()
	}

	var positive embedding.Embedding
	switch {
	case haveText && haveImg:
		w := q.TextWeight
		if w == 0 {
			w = DefaultTextWeight
		}
		blended, err := embedding.Blend(textEmb, imageEmb, w)
		if err != nil {
			return Resolved{}, err
		}
		positive = blended
	case haveText:
		positive = textEmb
	default:
		positive = imageEmb
	}

	resolved := Resolved{
		Positive:       positive,
		NegativeLambda: lambda,
		ReferenceHash:  refHash,
	}

	if q.NegativeText != "" {
		embs, err := orch.EmbedTexts(ctx, []string{q.NegativeText})
		if err != nil {
			return Resolved{}, err
		}
		neg := embs[0]
		resolved.Negative = &neg
	}

	return resolved, nil
}
