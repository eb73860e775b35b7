// Package cluster groups indexed sidecars by embedding similarity using
// HDBSCAN over (optionally UMAP-reduced) vectors.
package cluster

import "math"

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// mutualReachability returns max(core_a, core_b, d(a,b)) per spec §4.6 step 2.
func mutualReachability(coreA, coreB, dist float64) float64 {
	m := dist
	if coreA > m {
		m = coreA
	}
	if coreB > m {
		m = coreB
	}
	return m
}

// lambdaOf converts a mutual reachability distance to the HDBSCAN lambda
// scale (1/distance). A zero distance (coincident points) maps to +Inf.
func lambdaOf(dist float64) float64 {
	if dist <= 0 {
		return math.Inf(1)
	}
	return 1 / dist
}
