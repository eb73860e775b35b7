package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/cluster"
	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

var (
	clusterDir            string
	clusterForce          bool
	clusterMinClusterSize int
	clusterMinSamples     int
	clusterUseUMAP        bool
	clusterExportPath     string
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Group indexed media into visually/semantically similar clusters",
	RunE:  runCluster,
}

func init() {
	defaults := cluster.DefaultOptions()
	clusterCmd.Flags().StringVar(&clusterDir, "dir", ".", "directory to cluster")
	clusterCmd.Flags().BoolVar(&clusterForce, "force", false, "recompute even if a matching cache exists")
	clusterCmd.Flags().IntVar(&clusterMinClusterSize, "min-cluster-size", defaults.MinClusterSize, "HDBSCAN minimum cluster size")
	clusterCmd.Flags().IntVar(&clusterMinSamples, "min-samples", defaults.MinSamples, "HDBSCAN minimum samples")
	clusterCmd.Flags().BoolVar(&clusterUseUMAP, "use-umap", defaults.UseUMAP, "reduce dimensionality with UMAP before clustering")
	clusterCmd.Flags().StringVar(&clusterExportPath, "export", "", "write the result as JSON to PATH, or - for stdout")
}

type clusterExportParams struct {
	MinClusterSize int  `json:"min_cluster_size"`
	MinSamples     int  `json:"min_samples"`
	UsedUMAP       bool `json:"used_umap"`
}

type clusterExportCluster struct {
	ID             int      `json:"id"`
	Size           int      `json:"size"`
	Cohesion       float64  `json:"cohesion"`
	Representative string   `json:"representative"`
	Members        []string `json:"members"`
}

type clusterExport struct {
	Parameters  clusterExportParams    `json:"parameters"`
	TotalInputs int                    `json:"total_inputs"`
	Clusters    []clusterExportCluster `json:"clusters"`
	Noise       []string               `json:"noise"`
}

func runCluster(cmd *cobra.Command, args []string) error {
	opts := cluster.Options{
		MinClusterSize: clusterMinClusterSize,
		MinSamples:     clusterMinSamples,
		UseUMAP:        clusterUseUMAP,
		UMAP:           cluster.DefaultUMAPOptions(),
		Force:          clusterForce,
		Recursive:      true,
	}

	cache, err := cluster.Run(clusterDir, opts)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: cluster %s", clusterDir)
	}

	paths, err := hashToPath(clusterDir)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: resolve cluster members")
	}

	if clusterExportPath != "" {
		return exportClusterResult(cache, paths)
	}

	for _, c := range cache.Clusters {
		interactor.Output(fmt.Sprintf(
			"cluster %d  size=%d  cohesion=%.3f  representative=%s",
			c.ID, len(c.MemberHashes), c.Cohesion, resolveHash(paths, c.RepresentativeHash),
		))
	}
	interactor.Output(fmt.Sprintf("noise=%d total=%d", len(cache.Noise), cache.TotalInputs))
	return nil
}

func hashToPath(dir string) (map[string]string, error) {
	refs, err := sidecar.Enumerate(dir, true)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		entry, err := sidecar.Load(ref.SidecarPath)
		if err != nil {
			continue
		}
		switch {
		case entry.Image != nil:
			out[entry.Image.ContentHash] = filepath.Join(ref.MediaDir, entry.Image.OriginalFilename)
		case entry.Video != nil:
			out[entry.Video.ContentHash] = filepath.Join(ref.MediaDir, entry.Video.OriginalFilename)
		}
	}
	return out, nil
}

func resolveHash(paths map[string]string, hash string) string {
	if p, ok := paths[hash]; ok {
		return p
	}
	return hash
}

func exportClusterResult(cache *sidecar.ClusterCache, paths map[string]string) error {
	export := clusterExport{
		Parameters: clusterExportParams{
			MinClusterSize: cache.MinClusterSize,
			MinSamples:     cache.MinSamples,
			UsedUMAP:       cache.UsedUMAP,
		},
		TotalInputs: cache.TotalInputs,
		Clusters:    make([]clusterExportCluster, 0, len(cache.Clusters)),
		Noise:       make([]string, 0, len(cache.Noise)),
	}
	for _, c := range cache.Clusters {
		members := make([]string, 0, len(c.MemberHashes))
		for _, h := range c.MemberHashes {
			members = append(members, resolveHash(paths, h))
		}
		export.Clusters = append(export.Clusters, clusterExportCluster{
			ID:             c.ID,
			Size:           len(c.MemberHashes),
			Cohesion:       c.Cohesion,
			Representative: resolveHash(paths, c.RepresentativeHash),
			Members:        members,
		})
	}
	for _, h := range cache.Noise {
		export.Noise = append(export.Noise, resolveHash(paths, h))
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: marshal cluster export")
	}
	data = append(data, '\n')

	if clusterExportPath == "" || clusterExportPath == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(clusterExportPath, data, 0o644)
}
