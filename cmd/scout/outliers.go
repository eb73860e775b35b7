package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/cluster"
	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

var (
	outliersDir       string
	outliersRecursive bool
	outliersLimit     int
	outliersNeighbors int
	outliersExport    string
)

var outliersCmd = &cobra.Command{
	Use:   "outliers",
	Short: "Rank indexed media by how unusual it is relative to its neighbors",
	RunE:  runOutliers,
}

func init() {
	outliersCmd.Flags().StringVar(&outliersDir, "dir", ".", "directory to analyze")
	outliersCmd.Flags().BoolVarP(&outliersRecursive, "recursive", "r", true, "descend into subdirectories")
	outliersCmd.Flags().IntVar(&outliersLimit, "limit", 20, "maximum outliers reported")
	outliersCmd.Flags().IntVar(&outliersNeighbors, "neighbors", 5, "neighborhood size (k) for the LOF score")
	outliersCmd.Flags().StringVar(&outliersExport, "export", "", "write results as JSON to PATH, or - for stdout")
}

type outlierRow struct {
	hash  string
	path  string
	score float32
}

type outlierExportRow struct {
	Path  string  `json:"path"`
	Score float32 `json:"score"`
}

type outlierExport struct {
	TotalAnalyzed int                 `json:"total_analyzed"`
	Outliers      []outlierExportRow `json:"outliers"`
}

func runOutliers(cmd *cobra.Command, args []string) error {
	refs, err := sidecar.Enumerate(outliersDir, outliersRecursive)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: enumerate %s", outliersDir)
	}

	type item struct {
		hash string
		path string
		emb  embedding.Embedding
	}
	items := make([]item, 0, len(refs))
	for _, ref := range refs {
		entry, err := sidecar.Load(ref.SidecarPath)
		if err != nil {
			continue
		}
		switch {
		case entry.Image != nil:
			items = append(items, item{
				hash: entry.Image.ContentHash,
				path: filepath.Join(ref.MediaDir, entry.Image.OriginalFilename),
				emb:  embedding.FromNormalized(entry.Image.Embedding),
			})
		case entry.Video != nil:
			mean, err := cluster.MeanEmbedding(entry.Video.Frames)
			if err != nil {
				continue
			}
			items = append(items, item{
				hash: entry.Video.ContentHash,
				path: filepath.Join(ref.MediaDir, entry.Video.OriginalFilename),
				emb:  mean,
			})
		}
	}

	if len(items) < outliersNeighbors+1 {
		interactor.Warning(fmt.Sprintf("not enough media (%d) for outlier detection, need at least %d files", len(items), outliersNeighbors+1))
		return nil
	}

	embs := make([]embedding.Embedding, len(items))
	for i, it := range items {
		embs[i] = it.emb
	}
	scores := cluster.LOF(embs, outliersNeighbors)

	rows := make([]outlierRow, len(items))
	for i, it := range items {
		rows[i] = outlierRow{hash: it.hash, path: it.path, score: scores[i]}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].hash < rows[j].hash
	})
	if outliersLimit > 0 && len(rows) > outliersLimit {
		rows = rows[:outliersLimit]
	}

	if outliersExport != "" {
		return exportOutliers(len(items), rows)
	}

	for i, r := range rows {
		interactor.Output(fmt.Sprintf("%2d. %-60s LOF: %.3f", i+1, r.path, r.score))
	}
	interactor.Output(fmt.Sprintf("found %d outliers among %d analyzed", len(rows), len(items)))
	return nil
}

func exportOutliers(total int, rows []outlierRow) error {
	export := outlierExport{TotalAnalyzed: total, Outliers: make([]outlierExportRow, 0, len(rows))}
	for _, r := range rows {
		export.Outliers = append(export.Outliers, outlierExportRow{Path: r.path, Score: r.score})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: marshal outliers export")
	}
	data = append(data, '\n')

	if outliersExport == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outliersExport, data, 0o644)
}
