package cluster

import (
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/scout/embedding"
)

// neighborhood is one point's k nearest neighbors by cosine distance and its
// k-distance: the distance to the farthest of those neighbors.
type neighborhood struct {
	neighbors []int
	kDistance float32
}

// LOF scores every embedding by Local Outlier Factor (Breunig et al.) using
// k neighbors: a score near 1 means a point sits in a neighborhood as dense
// as its neighbors' own, a score well above 1 means it sits in a sparser
// region than its neighbors do, i.e. it looks unusual relative to its local
// context rather than to the collection as a whole. Brute-force cosine
// distance over every pair, same as the reference implementation this is
// grounded on — collections large enough for that to matter belong to an ANN
// index, which is out of scope (see Non-goals).
func LOF(embs []embedding.Embedding, k int) []float32 {
	n := len(embs)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n-1 {
		k = n - 1
	}

	neighborhoods := make([]neighborhood, n)
	knnPool := pool.New().WithMaxGoroutines(4)
	for i := 0; i < n; i++ {
		i := i
		knnPool.Go(func() {
			neighborhoods[i] = kNearest(embs, i, k)
		})
	}
	knnPool.Wait()

	lrd := make([]float32, n)
	lrdPool := pool.New().WithMaxGoroutines(4)
	for i := 0; i < n; i++ {
		i := i
		lrdPool.Go(func() {
			lrd[i] = localReachabilityDensity(embs, neighborhoods, i)
		})
	}
	lrdPool.Wait()

	scores := make([]float32, n)
	lofPool := pool.New().WithMaxGoroutines(4)
	for i := 0; i < n; i++ {
		i := i
		lofPool.Go(func() {
			scores[i] = lofScore(neighborhoods, lrd, i)
		})
	}
	lofPool.Wait()

	return scores
}

func kNearest(embs []embedding.Embedding, i, k int) neighborhood {
	type candidate struct {
		idx  int
		dist float32
	}
	candidates := make([]candidate, 0, len(embs)-1)
	for j := range embs {
		if j == i {
			continue
		}
		candidates = append(candidates, candidate{idx: j, dist: 1 - embedding.Similarity(embs[i], embs[j])})
	}
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	neighbors := make([]int, len(candidates))
	var kDistance float32
	for idx, c := range candidates {
		neighbors[idx] = c.idx
		kDistance = c.dist
	}
	return neighborhood{neighbors: neighbors, kDistance: kDistance}
}

// localReachabilityDensity is the inverse of the average reachability
// distance from i to its neighbors, where the reachability distance floors
// the raw distance at the neighbor's own k-distance.
func localReachabilityDensity(embs []embedding.Embedding, neigh []neighborhood, i int) float32 {
	n := neigh[i]
	if len(n.neighbors) == 0 {
		return 1
	}
	var sumReach float32
	for _, j := range n.neighbors {
		reach := 1 - embedding.Similarity(embs[i], embs[j])
		if neigh[j].kDistance > reach {
			reach = neigh[j].kDistance
		}
		sumReach += reach
	}
	if sumReach <= 0 {
		return 1
	}
	return float32(len(n.neighbors)) / sumReach
}

func lofScore(neigh []neighborhood, lrd []float32, i int) float32 {
	n := neigh[i]
	if len(n.neighbors) == 0 || lrd[i] == 0 {
		return 1
	}
	var sum float32
	for _, j := range n.neighbors {
		sum += lrd[j] / lrd[i]
	}
	return sum / float32(len(n.neighbors))
}
