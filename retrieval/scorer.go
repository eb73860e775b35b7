package retrieval

import "github.com/ZanzyTHEbar/scout/embedding"

// score applies the spec §4.5 formula to a single embedding: base = dot(E,
// Q+); penalty = λ·max(0, dot(E, Q-)) if a negative query is present.
func score(e embedding.Embedding, q Resolved) float32 {
	base := embedding.Similarity(e, q.Positive)
	if q.Negative == nil {
		return base
	}
	neg := embedding.Similarity(e, *q.Negative)
	if neg < 0 {
		neg = 0
	}
	return base - q.NegativeLambda*neg
}

// scoreFrames returns the maximum score across a video's frame embeddings
// along with the winning frame's timestamp, per spec §4.5's "the sidecar's
// score is the maximum across frames" rule.
func scoreFrames(frames []frameEmbedding, q Resolved) (best float32, timestamp float64, ok bool) {
	for _, f := range frames {
		s := score(f.embedding, q)
		if !ok || s > best {
			best, timestamp, ok = s, f.timestampSeconds, true
		}
	}
	return best, timestamp, ok
}

type frameEmbedding struct {
	embedding        embedding.Embedding
	timestampSeconds float64
}
