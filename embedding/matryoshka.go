package embedding

// AdjustToDims truncates or pads a raw encoder output to Dims before it is
// wrapped as an Embedding. Vision/text backbones don't all emit exactly Dims
// floats, and a matryoshka-trained model's leading dimensions already carry
// the coarse similarity signal, so truncation is a valid, cheap fit rather
// than a lossy hack. If target <= 0, returns the original slice.
func AdjustToDims(vec []float32, target int) []float32 {
	if target <= 0 {
		return vec
	}
	if len(vec) == target {
		return vec
	}
	if len(vec) > target {
		return vec[:target]
	}
	out := make([]float32, target)
	copy(out, vec)
	// leave tail zeros
	return out
}
