package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/ZanzyTHEbar/assert-lib"
)

// invariants guards the embedding package's internal assumptions: conditions
// that a well-formed caller can never actually trip, as opposed to the
// ordinary validation errors New and Blend return for bad encoder output.
var invariants = assert.NewAssertHandler()

// Dims is the fixed dimensionality of every Embedding produced by this
// module. The vision and text encoders share this space so that image and
// text queries can be blended directly.
const Dims = 1024

// normTolerance bounds how far ||e|| may drift from 1 before an embedding
// is rejected as malformed (construction) or treated as corrupt (sidecar
// load).
const normTolerance = 1e-4

// Embedding is an immutable, L2-normalized vector in the shared vision/text
// space. The zero value is not valid; construct one with New or FromNormalized.
type Embedding struct {
	v []float32
}

// New builds an Embedding from raw encoder output, dividing by its L2 norm.
// Returns an error if raw has the wrong length or is (within tolerance) the
// zero vector.
func New(raw []float32) (Embedding, error) {
	if len(raw) != Dims {
		return Embedding{}, fmt.Errorf("embedding: expected %d dimensions, got %d", Dims, len(raw))
	}
	norm := l2norm(raw)
	if norm < 1e-12 {
		return Embedding{}, fmt.Errorf("embedding: cannot normalize a zero vector")
	}
	out := make([]float32, Dims)
	inv := float32(1.0 / norm)
	for i, x := range raw {
		out[i] = x * inv
	}
	return Embedding{v: out}, nil
}

// FromNormalized wraps an already-unit-norm vector without renormalizing.
// Used when deserializing a sidecar whose embedding was normalized at write
// time; callers must validate with IsUnitNorm first, since a sidecar that
// reaches here with a non-unit-norm vector indicates a bug upstream, not a
// recoverable input error.
func FromNormalized(v []float32) Embedding {
	e := Embedding{v: v}
	invariants.Assert(context.Background(), len(v) == Dims, "embedding: FromNormalized called with %d dims, want %d", len(v), Dims)
	invariants.Assert(context.Background(), e.IsUnitNorm(), "embedding: FromNormalized called with a non-unit-norm vector")
	return e
}

// Slice returns the underlying vector. The caller must not mutate it.
func (e Embedding) Slice() []float32 { return e.v }

// Len reports the vector's dimensionality (0 for the zero value).
func (e Embedding) Len() int { return len(e.v) }

// IsUnitNorm reports whether the embedding's norm is within normTolerance
// of 1, per the sidecar invariant in the data model.
func (e Embedding) IsUnitNorm() bool {
	if len(e.v) != Dims {
		return false
	}
	return math.Abs(float64(l2norm(e.v))-1) < normTolerance
}

// Similarity returns the dot product of two unit-norm embeddings, equal to
// their cosine similarity, in [-1, 1].
func Similarity(a, b Embedding) float32 {
	var sum float32
	for i := range a.v {
		sum += a.v[i] * b.v[i]
	}
	return sum
}

// Blend computes w*a + (1-w)*b and re-normalizes. w must be in [0, 1]. If
// both inputs are unit-norm and w is strictly between 0 and 1 the result is
// well-defined per the data model; w == 0 or w == 1 degenerate to b or a.
func Blend(a, b Embedding, w float32) (Embedding, error) {
	if w < 0 || w > 1 {
		return Embedding{}, fmt.Errorf("embedding: blend weight %v out of [0,1]", w)
	}
	raw := make([]float32, Dims)
	for i := range raw {
		raw[i] = w*a.v[i] + (1-w)*b.v[i]
	}
	return New(raw)
}

func l2norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}
