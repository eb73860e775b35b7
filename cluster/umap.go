package cluster

import (
	"math"
	"math/rand"
	"sort"
)

// UMAPOptions configures the dimensionality reduction pass ahead of
// HDBSCAN, per spec §4.6.
type UMAPOptions struct {
	TargetDim int
	Neighbors int
	Spread    float64
	MinDist   float64
	Epochs    int
	Seed      int64
}

// DefaultUMAPOptions matches the spec's stated defaults: k=15, d'=512,
// spread=1.0, min_dist=0.1.
func DefaultUMAPOptions() UMAPOptions {
	return UMAPOptions{TargetDim: 512, Neighbors: 15, Spread: 1.0, MinDist: 0.1, Epochs: 200, Seed: 1}
}

type neighborEdge struct {
	to   int
	dist float64
}

// neighborGraph returns, for each point, its k nearest neighbors with
// distances, excluding itself.
func neighborGraph(vectors [][]float64, k int) [][]neighborEdge {
	return bruteForceKNN(vectors, k)
}

// bruteForceKNN computes exact k-nearest-neighbor edges directly; the UMAP
// fuzzy set only needs a modest k (default 15) so an O(n^2) pass is simpler
// to reason about than threading a kdtree query per point here, and the
// original tool this spec was distilled from used the same brute-force
// strategy for this step.
func bruteForceKNN(vectors [][]float64, k int) [][]neighborEdge {
	n := len(vectors)
	out := make([][]neighborEdge, n)
	for i := 0; i < n; i++ {
		edges := make([]neighborEdge, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			edges = append(edges, neighborEdge{to: j, dist: euclidean(vectors[i], vectors[j])})
		}
		sort.Slice(edges, func(a, b int) bool { return edges[a].dist < edges[b].dist })
		if len(edges) > k {
			edges = edges[:k]
		}
		out[i] = edges
	}
	return out
}

// localConnectivity solves per-point rho (nearest-neighbor distance) and
// sigma (bandwidth) such that Σ_j exp(-max(0, d_ij-rho_i)/sigma_i) =
// log2(k), per spec §4.6.
func localConnectivity(edges []neighborEdge, k int) (rho, sigma float64) {
	if len(edges) == 0 {
		return 0, 1
	}
	rho = edges[0].dist
	target := math.Log2(float64(k))

	lo, hi := 1e-6, 1.0
	sumAt := func(sig float64) float64 {
		var s float64
		for _, e := range edges {
			d := e.dist - rho
			if d < 0 {
				d = 0
			}
			s += math.Exp(-d / sig)
		}
		return s
	}
	for sumAt(hi) < target && hi < 1e6 {
		hi *= 2
	}
	for iter := 0; iter < 60; iter++ {
		mid := (lo + hi) / 2
		if sumAt(mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return rho, (lo + hi) / 2
}

// fuzzyMembership computes the directed membership strength p_{j|i} for
// each of i's nearest neighbors.
func fuzzyMembership(edges []neighborEdge, rho, sigma float64) map[int]float64 {
	p := make(map[int]float64, len(edges))
	for _, e := range edges {
		d := e.dist - rho
		if d < 0 {
			d = 0
		}
		p[e.to] = math.Exp(-d / sigma)
	}
	return p
}

type weightedEdge struct {
	i, j   int
	weight float64
}

// symmetrize combines directed membership strengths into undirected edge
// weights p_ij = p_{j|i} + p_{i|j} - p_{j|i}*p_{i|j}, per spec §4.6.
func symmetrize(directed []map[int]float64) []weightedEdge {
	seen := make(map[[2]int]bool)
	var edges []weightedEdge
	for i, row := range directed {
		for j, pij := range row {
			key := [2]int{i, j}
			if j < i {
				key = [2]int{j, i}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			pji := directed[j][i]
			w := pij + pji - pij*pji
			if w <= 0 {
				continue
			}
			edges = append(edges, weightedEdge{i: key[0], j: key[1], weight: w})
		}
	}
	// Map iteration order is random; a fixed edge order keeps the SGD pass
	// deterministic for a given seed.
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].i != edges[b].i {
			return edges[a].i < edges[b].i
		}
		return edges[a].j < edges[b].j
	})
	return edges
}

// solveAB fits the low-dimensional kernel constants a, b used in
// q_ij = 1/(1 + a·dist^(2b)) to approximate a curve that is ~1 within
// min_dist and decays exponentially beyond it, over spread. A small grid
// search stands in for UMAP's scipy curve_fit since no such solver is
// available in the Go ecosystem used by this module.
func solveAB(spread, minDist float64) (a, b float64) {
	xs := make([]float64, 300)
	target := make([]float64, 300)
	for i := range xs {
		x := float64(i) / float64(len(xs)) * spread * 3
		xs[i] = x
		if x <= minDist {
			target[i] = 1
		} else {
			target[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	bestErr := math.Inf(1)
	for _, cb := range []float64{0.2, 0.5, 0.7915, 1.0, 1.5, 2.0} {
		for _, ca := range []float64{0.2, 0.5, 1.0, 1.5, 1.929, 2.5, 3.5} {
			var err float64
			for i, x := range xs {
				q := 1 / (1 + ca*math.Pow(x, 2*cb))
				diff := q - target[i]
				err += diff * diff
			}
			if err < bestErr {
				bestErr, a, b = err, ca, cb
			}
		}
	}
	return a, b
}

// Reduce runs the spec §4.6 UMAP pass: fuzzy simplicial set construction
// followed by SGD-with-negative-sampling optimization of a low-dimensional
// embedding against the t-distribution-like kernel. Deterministic given
// opts.Seed.
func Reduce(vectors [][]float64, opts UMAPOptions) [][]float64 {
	n := len(vectors)
	if n == 0 {
		return nil
	}
	if opts.TargetDim >= len(vectors[0]) {
		return vectors
	}

	k := opts.Neighbors
	if k >= n {
		k = n - 1
	}
	if k < 1 {
		k = 1
	}

	knn := neighborGraph(vectors, k)
	directed := make([]map[int]float64, n)
	for i, edges := range knn {
		rho, sigma := localConnectivity(edges, k)
		directed[i] = fuzzyMembership(edges, rho, sigma)
	}
	edges := symmetrize(directed)
	a, b := solveAB(opts.Spread, opts.MinDist)

	rng := rand.New(rand.NewSource(opts.Seed))
	y := make([][]float64, n)
	for i := range y {
		y[i] = make([]float64, opts.TargetDim)
		for d := range y[i] {
			y[i][d] = (rng.Float64()*2 - 1) * 10
		}
	}

	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = 200
	}
	negativeSamples := 5

	for epoch := 0; epoch < epochs; epoch++ {
		lr := 1.0 - float64(epoch)/float64(epochs)
		for _, e := range edges {
			attract(y[e.i], y[e.j], a, b, lr*e.weight)
			for s := 0; s < negativeSamples; s++ {
				neg := rng.Intn(n)
				if neg == e.i {
					continue
				}
				repel(y[e.i], y[neg], a, b, lr)
			}
		}
	}
	return y
}

func attract(yi, yj []float64, a, b, lr float64) {
	distSq := sqDist(yi, yj)
	if distSq < 1e-12 {
		distSq = 1e-12
	}
	coeff := (-2 * a * b * math.Pow(distSq, b-1)) / (1 + a*math.Pow(distSq, b))
	for d := range yi {
		grad := clampGrad(coeff * (yi[d] - yj[d]))
		yi[d] += lr * grad
		yj[d] -= lr * grad
	}
}

func repel(yi, yk []float64, a, b, lr float64) {
	distSq := sqDist(yi, yk)
	if distSq < 1e-12 {
		distSq = 1e-12
	}
	coeff := (2 * b) / ((0.001 + distSq) * (1 + a*math.Pow(distSq, b)))
	for d := range yi {
		grad := clampGrad(coeff * (yi[d] - yk[d]))
		yi[d] += lr * grad
	}
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clampGrad(g float64) float64 {
	if g > 4 {
		return 4
	}
	if g < -4 {
		return -4
	}
	return g
}
