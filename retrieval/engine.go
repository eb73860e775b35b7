package retrieval

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/media"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

// Options constrains a single search, independent of the query itself.
type Options struct {
	Recursive        bool
	ExcludeVideos    bool
	IncludeReference bool
	MinScore         float32
	Limit            int
}

// Row is one scored result, ready for CLI presentation or JSON export.
type Row struct {
	Path             string
	ContentHash      string
	Kind             media.Kind
	Score            float32
	TimestampSeconds float64
	Stale            bool
}

// Search runs the spec §4.5 pipeline: enumerate sidecars under dir, filter,
// score against q, threshold, exclude the reference image if requested,
// sort, and truncate to opts.Limit. It does not itself check ctx for
// cancellation beyond what Resolve already did; callers composing a
// long-running search loop should select on ctx.Done() between batches.
func Search(ctx context.Context, orch embedding.Orchestrator, dir string, q Query, opts Options) ([]Row, error) {
	resolved, err := Resolve(ctx, orch, q)
	if err != nil {
		return nil, err
	}
	return SearchResolved(dir, resolved, opts)
}

// SearchResolved runs the pipeline against an already-encoded query,
// letting callers reuse one Resolve across multiple directories.
func SearchResolved(dir string, q Resolved, opts Options) ([]Row, error) {
	refs, err := sidecar.Enumerate(dir, opts.Recursive)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(refs))
	for _, ref := range refs {
		entry, err := sidecar.Load(ref.SidecarPath)
		if err != nil {
			continue
		}

		switch {
		case entry.Image != nil:
			img := entry.Image
			if !opts.IncludeReference && q.ReferenceHash != "" && img.ContentHash == q.ReferenceHash {
				continue
			}
			s := score(embedding.FromNormalized(img.Embedding), q)
			if s < opts.MinScore {
				continue
			}
			rows = append(rows, Row{
				Path:        filepath.Join(ref.MediaDir, img.OriginalFilename),
				ContentHash: img.ContentHash,
				Kind:        media.Image,
				Score:       s,
				Stale:       img.FormatVersion != sidecar.FormatVersion,
			})

		case entry.Video != nil:
			if opts.ExcludeVideos {
				continue
			}
			vid := entry.Video
			if !opts.IncludeReference && q.ReferenceHash != "" && vid.ContentHash == q.ReferenceHash {
				continue
			}
			frames := make([]frameEmbedding, len(vid.Frames))
			for i, f := range vid.Frames {
				frames[i] = frameEmbedding{
					embedding:        embedding.FromNormalized(f.Embedding),
					timestampSeconds: f.TimestampSeconds,
				}
			}
			best, ts, ok := scoreFrames(frames, q)
			if !ok || best < opts.MinScore {
				continue
			}
			rows = append(rows, Row{
				Path:             filepath.Join(ref.MediaDir, vid.OriginalFilename),
				ContentHash:      vid.ContentHash,
				Kind:             media.Video,
				Score:            best,
				TimestampSeconds: ts,
				Stale:            vid.FormatVersion != sidecar.FormatVersion,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].ContentHash < rows[j].ContentHash
	})

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows, nil
}
