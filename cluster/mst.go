package cluster

import (
	"math"
	"sort"
)

type mstEdge struct {
	a, b int
	dist float64
}

// buildMST constructs a minimum spanning tree over all N points using
// mutual reachability distance, via Prim's algorithm starting from point 0.
// Spec §4.6 step 3.
func buildMST(vectors [][]float64, core []float64) []mstEdge {
	n := len(vectors)
	if n < 2 {
		return nil
	}

	inTree := make([]bool, n)
	best := make([]float64, n)
	bestFrom := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
		bestFrom[i] = -1
	}
	inTree[0] = true
	for j := 1; j < n; j++ {
		d := mutualReachability(core[0], core[j], euclidean(vectors[0], vectors[j]))
		best[j] = d
		bestFrom[j] = 0
	}

	edges := make([]mstEdge, 0, n-1)
	for k := 1; k < n; k++ {
		u := -1
		for i := 0; i < n; i++ {
			if inTree[i] {
				continue
			}
			if u == -1 || best[i] < best[u] {
				u = i
			}
		}
		inTree[u] = true
		edges = append(edges, mstEdge{a: bestFrom[u], b: u, dist: best[u]})

		for i := 0; i < n; i++ {
			if inTree[i] {
				continue
			}
			d := mutualReachability(core[u], core[i], euclidean(vectors[u], vectors[i]))
			if d < best[i] {
				best[i] = d
				bestFrom[i] = u
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].dist < edges[j].dist })
	return edges
}

// dendroNode is one internal merge of the single-linkage hierarchy. Leaves
// are the original point indices [0,n); internal nodes are numbered
// [n, 2n-2].
type dendroNode struct {
	id          int
	left, right int
	dist        float64
	size        int
}

// buildDendrogram converts sorted MST edges into a single-linkage
// hierarchy, per spec §4.6 step 4. Returns the node map (indexed by id,
// leaves included with size 1 and zero dist) and the root's id.
func buildDendrogram(n int, edges []mstEdge) (map[int]dendroNode, int) {
	nodes := make(map[int]dendroNode, 2*n-1)
	for i := 0; i < n; i++ {
		nodes[i] = dendroNode{id: i, left: -1, right: -1, size: 1}
	}
	if n == 1 {
		return nodes, 0
	}

	uf := newUnionFind(n)
	topNode := make([]int, n)
	for i := range topNode {
		topNode[i] = i
	}

	nextID := n
	var root int
	for _, e := range edges {
		ra, rb := uf.find(e.a), uf.find(e.b)
		if ra == rb {
			continue
		}
		leftTop, rightTop := topNode[ra], topNode[rb]
		id := nextID
		nextID++
		nodes[id] = dendroNode{
			id:    id,
			left:  leftTop,
			right: rightTop,
			dist:  e.dist,
			size:  nodes[leftTop].size + nodes[rightTop].size,
		}
		newRep := uf.union(ra, rb)
		topNode[newRep] = id
		root = id
	}
	return nodes, root
}
