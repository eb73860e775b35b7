package cluster

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// vecPoint adapts a raw float64 vector to gonum's kdtree.Comparable,
// following the same Compare/Dims/Distance shape as the teacher's
// DirectoryPoint, generalized from directory metadata to embedding space.
type vecPoint struct {
	vec []float64
	idx int
}

func (p vecPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.vec[d] - c.(vecPoint).vec[d]
}

func (p vecPoint) Dims() int { return len(p.vec) }

func (p vecPoint) Distance(c kdtree.Comparable) float64 {
	return euclidean(p.vec, c.(vecPoint).vec)
}

// vecPoints implements kdtree.Interface. Pivot partitions by sorting on the
// requested dimension and returning the median index; this trades the
// O(n) quickselect gonum's own Points type uses for a simpler, unambiguously
// correct O(n log n) partition, since cluster runs are offline and not on
// a request-latency path.
type vecPoints []vecPoint

func (p vecPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p vecPoints) Len() int                      { return len(p) }
func (p vecPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p vecPoints) Pivot(d kdtree.Dim) int {
	sort.Slice(p, func(i, j int) bool { return p[i].vec[d] < p[j].vec[d] })
	return len(p) / 2
}

// coreDistances returns, for each point, the distance to its minSamples-th
// nearest neighbor (excluding itself), per spec §4.6 step 1.
func coreDistances(vectors [][]float64, minSamples int) []float64 {
	n := len(vectors)
	points := make(vecPoints, n)
	for i, v := range vectors {
		points[i] = vecPoint{vec: v, idx: i}
	}
	tree := kdtree.New(points, false)

	core := make([]float64, n)
	k := minSamples + 1 // includes the query point itself
	if k > n {
		k = n
	}
	for i, v := range vectors {
		keeper := kdtree.NewNKeeper(k)
		tree.NearestSet(keeper, vecPoint{vec: v, idx: i})
		dists := make([]float64, 0, k)
		for _, item := range keeper.Heap {
			dists = append(dists, item.Dist)
		}
		sort.Float64s(dists)
		if len(dists) == 0 {
			core[i] = 0
			continue
		}
		last := len(dists) - 1
		core[i] = dists[last]
	}
	return core
}
