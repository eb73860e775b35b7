package cluster

import (
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

// Options configures a clustering run over one media directory.
type Options struct {
	MinClusterSize int
	MinSamples     int
	UseUMAP        bool
	UMAP           UMAPOptions
	Force          bool
	Recursive      bool
}

// DefaultOptions mirrors the CLI's cluster subcommand defaults.
func DefaultOptions() Options {
	return Options{
		MinClusterSize: 5,
		MinSamples:     5,
		UseUMAP:        false,
		UMAP:           DefaultUMAPOptions(),
		Recursive:      true,
	}
}

type member struct {
	hash string
	emb  embedding.Embedding
}

// Run clusters every sidecar under dir per spec §4.6, reusing a cached
// result when the parameter tuple and input hash set are unchanged and
// opts.Force is false.
func Run(dir string, opts Options) (*sidecar.ClusterCache, error) {
	refs, err := sidecar.Enumerate(dir, opts.Recursive)
	if err != nil {
		return nil, err
	}

	members := make([]member, 0, len(refs))
	for _, ref := range refs {
		entry, err := sidecar.Load(ref.SidecarPath)
		if err != nil {
			continue
		}
		switch {
		case entry.Image != nil:
			members = append(members, member{hash: entry.Image.ContentHash, emb: embedding.FromNormalized(entry.Image.Embedding)})
		case entry.Video != nil:
			mean, err := MeanEmbedding(entry.Video.Frames)
			if err != nil {
				continue
			}
			members = append(members, member{hash: entry.Video.ContentHash, emb: mean})
		}
	}

	if !opts.Force {
		if cached, err := sidecar.LoadClusterCache(dir); err == nil {
			if cacheMatches(cached, opts, members) {
				return cached, nil
			}
		}
	}

	if opts.MinClusterSize < 1 {
		return nil, scouterr.New(scouterr.InputInvalid, "cluster: min_cluster_size must be >= 1")
	}

	vectors := make([][]float64, len(members))
	for i, m := range members {
		vectors[i] = toFloat64(m.emb.Slice())
	}

	reduceDim := opts.UseUMAP
	work := vectors
	if reduceDim && len(vectors) > opts.UMAP.Neighbors {
		work = Reduce(vectors, opts.UMAP)
	} else {
		reduceDim = false
	}

	labels := HDBSCAN(work, opts.MinClusterSize, opts.MinSamples)

	// Membership is kept as a roaring.Bitmap over the dense point index
	// HDBSCAN already assigns each run (0..len(members)-1) rather than a
	// []int per cluster: cluster sizes are usually a small fraction of the
	// input set, and the bitmap form is what a caller wants to intersect
	// clusters against later (e.g. "cluster N minus already-reviewed
	// hashes"). It is flattened to a sorted hash list only when building the
	// on-disk sidecar.Cluster, since dense ids are only valid for this run.
	byLabel := make(map[int]*roaring.Bitmap)
	noiseSet := roaring.New()
	for i, l := range labels {
		if l == Noise {
			noiseSet.Add(uint32(i))
			continue
		}
		bm, ok := byLabel[l]
		if !ok {
			bm = roaring.New()
			byLabel[l] = bm
		}
		bm.Add(uint32(i))
	}

	type built struct {
		cluster sidecar.Cluster
	}
	builtClusters := make([]built, 0, len(byLabel))
	for _, bm := range byLabel {
		idxs := bitmapToIndices(bm)
		rep, cohesion := summarize(members, idxs)
		hashes := make([]string, len(idxs))
		for i, idx := range idxs {
			hashes[i] = members[idx].hash
		}
		sort.Strings(hashes)
		builtClusters = append(builtClusters, built{cluster: sidecar.Cluster{
			MemberHashes:       hashes,
			RepresentativeHash: rep,
			Cohesion:           cohesion,
		}})
	}

	sort.Slice(builtClusters, func(i, j int) bool {
		a, b := builtClusters[i].cluster, builtClusters[j].cluster
		if len(a.MemberHashes) != len(b.MemberHashes) {
			return len(a.MemberHashes) > len(b.MemberHashes)
		}
		return a.RepresentativeHash < b.RepresentativeHash
	})

	clusters := make([]sidecar.Cluster, len(builtClusters))
	for i, b := range builtClusters {
		b.cluster.ID = i
		clusters[i] = b.cluster
	}

	noise := make([]string, 0, noiseSet.GetCardinality())
	for _, i := range bitmapToIndices(noiseSet) {
		noise = append(noise, members[i].hash)
	}
	sort.Strings(noise)

	cache := &sidecar.ClusterCache{
		MinClusterSize: opts.MinClusterSize,
		MinSamples:     opts.MinSamples,
		UsedUMAP:       reduceDim,
		TotalInputs:    len(members),
		Clusters:       clusters,
		Noise:          noise,
		GeneratedAt:    time.Now().UTC(),
	}
	if err := sidecar.SaveClusterCache(dir, cache); err != nil {
		return nil, err
	}
	return cache, nil
}

// MeanEmbedding reduces a video's per-frame embeddings to their mean,
// re-normalized, per spec §4.6.
func MeanEmbedding(frames []sidecar.Frame) (embedding.Embedding, error) {
	if len(frames) == 0 {
		return embedding.Embedding{}, scouterr.New(scouterr.SidecarCorrupt, "cluster: video sidecar has no frames")
	}
	sum := make([]float32, embedding.Dims)
	for _, f := range frames {
		for i, v := range f.Embedding {
			sum[i] += v
		}
	}
	for i := range sum {
		sum[i] /= float32(len(frames))
	}
	e, err := embedding.New(sum)
	if err != nil {
		return embedding.Embedding{}, scouterr.Wrap(scouterr.SidecarCorrupt, err, "cluster: mean video embedding")
	}
	return e, nil
}

// summarize computes a cluster's representative hash and cohesion in the
// original D-dim space, per spec §4.6's per-cluster outputs.
func summarize(members []member, idxs []int) (representativeHash string, cohesion float64) {
	sum := make([]float32, embedding.Dims)
	for _, idx := range idxs {
		for i, v := range members[idx].emb.Slice() {
			sum[i] += v
		}
	}
	for i := range sum {
		sum[i] /= float32(len(idxs))
	}
	meanEmb, err := embedding.New(sum)
	if err != nil {
		// Degenerate mean (only possible if members exactly cancel);
		// fall back to the first member as representative.
		return members[idxs[0]].hash, 1
	}

	bestIdx := idxs[0]
	bestSim := float32(-2)
	for _, idx := range idxs {
		s := embedding.Similarity(members[idx].emb, meanEmb)
		if s > bestSim {
			bestSim, bestIdx = s, idx
		}
	}
	representativeHash = members[bestIdx].hash

	if len(idxs) < 2 {
		return representativeHash, 1
	}
	var sumSim float64
	var pairs int
	for i := 0; i < len(idxs); i++ {
		for j := i + 1; j < len(idxs); j++ {
			s := embedding.Similarity(members[idxs[i]].emb, members[idxs[j]].emb)
			sumSim += float64(s)
			pairs++
		}
	}
	cohesion = sumSim / float64(pairs)
	if cohesion < 0 {
		cohesion = 0
	}
	if cohesion > 1 {
		cohesion = 1
	}
	return representativeHash, cohesion
}

// bitmapToIndices flattens a roaring.Bitmap of dense point indices back to
// an []int for the member-lookup APIs that predate the bitmap change.
func bitmapToIndices(bm *roaring.Bitmap) []int {
	raw := bm.ToArray()
	out := make([]int, len(raw))
	for i, v := range raw {
		out[i] = int(v)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// cacheMatches reports whether cached was generated with the same
// parameter tuple and input hash set as the current run would use.
func cacheMatches(cached *sidecar.ClusterCache, opts Options, members []member) bool {
	wouldUseUMAP := opts.UseUMAP && len(members) > opts.UMAP.Neighbors
	if cached.MinClusterSize != opts.MinClusterSize || cached.MinSamples != opts.MinSamples || cached.UsedUMAP != wouldUseUMAP {
		return false
	}
	if cached.TotalInputs != len(members) {
		return false
	}
	current := make([]string, 0, len(members))
	for _, m := range members {
		current = append(current, m.hash)
	}
	sort.Strings(current)

	cachedHashes := make([]string, 0, cached.TotalInputs)
	cachedHashes = append(cachedHashes, cached.Noise...)
	for _, c := range cached.Clusters {
		cachedHashes = append(cachedHashes, c.MemberHashes...)
	}
	sort.Strings(cachedHashes)

	if len(current) != len(cachedHashes) {
		return false
	}
	for i := range current {
		if current[i] != cachedHashes[i] {
			return false
		}
	}
	return true
}
