package cluster

import "math"

// Noise is the label assigned to points that fall outside every selected
// cluster.
const Noise = -1

type fallout struct {
	point  int
	lambda float64
}

// condensedNode is one surviving cluster in the condensed tree (spec §4.6
// step 5): a branch that was never smaller than minClusterSize during its
// lifetime. Its fallouts are the individual points that dropped out of it
// before it either split into two child clusters of at least minClusterSize
// members each or ran out of members.
type condensedNode struct {
	id          int
	birthLambda float64
	children    []int
	fallouts    []fallout
}

// condense walks the single-linkage hierarchy top-down from root, folding
// any branch smaller than minClusterSize into its parent's fallout list
// instead of promoting it to a cluster of its own.
func condense(nodes map[int]dendroNode, root int, minClusterSize int) map[int]*condensedNode {
	condensed := make(map[int]*condensedNode)
	condensed[root] = &condensedNode{id: root, birthLambda: 0}

	var walk func(id, clusterID int)
	walk = func(id, clusterID int) {
		node := nodes[id]
		if node.left == -1 {
			// Leaf reached while still the same open cluster: it simply
			// remains a member until the cluster itself terminates, so it
			// contributes no separate fallout event.
			return
		}
		lambda := lambdaOf(node.dist)
		left, right := nodes[node.left], nodes[node.right]

		leftBig := left.size >= minClusterSize
		rightBig := right.size >= minClusterSize

		switch {
		case leftBig && rightBig:
			for _, child := range [2]dendroNode{left, right} {
				condensed[clusterID].children = append(condensed[clusterID].children, child.id)
				condensed[child.id] = &condensedNode{id: child.id, birthLambda: lambda}
				walk(child.id, child.id)
			}
		case leftBig:
			addFallouts(condensed[clusterID], nodes, node.right, lambda)
			walk(node.left, clusterID)
		case rightBig:
			addFallouts(condensed[clusterID], nodes, node.left, lambda)
			walk(node.right, clusterID)
		default:
			addFallouts(condensed[clusterID], nodes, node.left, lambda)
			addFallouts(condensed[clusterID], nodes, node.right, lambda)
		}
	}
	walk(root, root)
	return condensed
}

// addFallouts records every leaf under subtreeRoot as falling out of
// cluster c at lambda.
func addFallouts(c *condensedNode, nodes map[int]dendroNode, subtreeRoot int, lambda float64) {
	var collect func(id int)
	collect = func(id int) {
		n := nodes[id]
		if n.left == -1 {
			c.fallouts = append(c.fallouts, fallout{point: id, lambda: lambda})
			return
		}
		collect(n.left)
		collect(n.right)
	}
	collect(subtreeRoot)
}

func stabilityOf(c *condensedNode) float64 {
	var s float64
	for _, f := range c.fallouts {
		if math.IsInf(f.lambda, 1) {
			return math.Inf(1)
		}
		s += f.lambda - c.birthLambda
	}
	return s
}

// selectClusters implements spec §4.6 step 6's excess-of-mass rule: a node
// is selected iff its own stability is at least the sum of its selected
// descendants' stability, in which case those descendants are unselected.
//
// The root is handled separately and is excluded from ordinary competition
// (matching the Rust hdbscan crate's allow_single_cluster=false default): a
// root that would otherwise "win" collapses the whole dataset into one
// cluster, which is wrong whenever the points just happen to have no real
// density structure (e.g. mutually distant points, which must report as all
// noise). The one exception is a root whose own stability is infinite,
// meaning every point merged at distance zero — genuinely coincident points
// are a single cluster of size N, not noise.
func selectClusters(condensed map[int]*condensedNode, root int) map[int]bool {
	selected := make(map[int]bool)

	var visit func(id int) float64
	visit = func(id int) float64 {
		node := condensed[id]
		var childSum float64
		for _, c := range node.children {
			childSum += visit(c)
		}
		own := stabilityOf(node)
		if len(node.children) == 0 || own >= childSum {
			selected[id] = true
			unselectDescendants(condensed, node.children, selected)
			return own
		}
		selected[id] = false
		return childSum
	}

	rootNode := condensed[root]
	var childSum float64
	for _, c := range rootNode.children {
		childSum += visit(c)
	}
	own := stabilityOf(rootNode)
	if math.IsInf(own, 1) && (len(rootNode.children) == 0 || own >= childSum) {
		selected[root] = true
		unselectDescendants(condensed, rootNode.children, selected)
	} else {
		selected[root] = false
	}
	return selected
}

func unselectDescendants(condensed map[int]*condensedNode, ids []int, selected map[int]bool) {
	for _, id := range ids {
		selected[id] = false
		unselectDescendants(condensed, condensed[id].children, selected)
	}
}

// assignLabels walks the condensed tree from root, attributing each
// fallout to the nearest selected ancestor cluster (or Noise if none has
// been selected yet along that path).
func assignLabels(condensed map[int]*condensedNode, root int, selected map[int]bool, n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	var walk func(id, active int)
	walk = func(id, active int) {
		node := condensed[id]
		if selected[id] {
			active = id
		}
		for _, f := range node.fallouts {
			labels[f.point] = active
		}
		for _, c := range node.children {
			walk(c, active)
		}
	}
	walk(root, Noise)
	return labels
}

// HDBSCAN clusters vectors with Euclidean distance, implementing spec
// §4.6's HDBSCAN steps 1-7. Returns a label per input vector: a
// non-negative cluster id, or Noise.
func HDBSCAN(vectors [][]float64, minClusterSize, minSamples int) []int {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if n < minClusterSize || n < minSamples {
		return labels
	}

	core := coreDistances(vectors, minSamples)
	edges := buildMST(vectors, core)
	nodes, root := buildDendrogram(n, edges)
	condensed := condense(nodes, root, minClusterSize)
	selected := selectClusters(condensed, root)
	rawLabels := assignLabels(condensed, root, selected, n)

	return relabelContiguous(rawLabels)
}

// relabelContiguous renumbers the surviving cluster ids as 0..C-1 in the
// order they were first encountered, leaving Noise untouched. Final
// size-descending, hash-ascending numbering per spec §4.6 is applied by
// the caller once representatives are known.
func relabelContiguous(raw []int) []int {
	next := 0
	mapping := make(map[int]int)
	out := make([]int, len(raw))
	for i, r := range raw {
		if r == Noise {
			out[i] = Noise
			continue
		}
		id, ok := mapping[r]
		if !ok {
			id = next
			mapping[r] = id
			next++
		}
		out[i] = id
	}
	return out
}
