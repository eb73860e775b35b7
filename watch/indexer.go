package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/media"
	"github.com/ZanzyTHEbar/scout/scanner"
	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
	"github.com/ZanzyTHEbar/scout/video"
)

// FileIndexer turns one scanner.Accepted decision into a persisted sidecar.
// It is the watch processor's seam onto the encoder orchestrator, so tests
// can substitute a fake instead of loading a real ONNX model.
type FileIndexer interface {
	Index(ctx context.Context, a scanner.Accepted) error
}

// MediaIndexer embeds accepted files through orch and writes the resulting
// sidecar next to the source file, exactly as the scan subcommand's indexing
// step does, so a file picked up by the watcher is processed identically to
// one found by a directory scan.
type MediaIndexer struct {
	Orchestrator embedding.Orchestrator
	VideoOptions video.Options
}

// Index embeds a and saves its sidecar under a.Path's directory.
func (m *MediaIndexer) Index(ctx context.Context, a scanner.Accepted) error {
	start := time.Now()
	dir := filepath.Dir(a.Path)

	switch a.Kind {
	case media.Image:
		return m.indexImage(ctx, dir, a, start)
	case media.Video:
		return m.indexVideo(ctx, dir, a, start)
	default:
		return nil
	}
}

func (m *MediaIndexer) indexImage(ctx context.Context, dir string, a scanner.Accepted, start time.Time) error {
	embs, err := m.Orchestrator.EmbedImages(ctx, []string{a.Path})
	if err != nil {
		return err
	}
	if len(embs) != 1 {
		return scouterr.New(scouterr.BackendUnavailable, "watch: embedder returned no embedding for "+a.Path)
	}

	s := &sidecar.ImageSidecar{
		FormatVersion:        sidecar.FormatVersion,
		OriginalFilename:     filepath.Base(a.Path),
		ContentHash:          a.Hash.String(),
		CreatedAt:            time.Now().UTC(),
		Embedding:            embs[0].Slice(),
		ProcessingDurationMs: uint64(time.Since(start).Milliseconds()),
	}
	return sidecar.SaveImage(dir, s)
}

func (m *MediaIndexer) indexVideo(ctx context.Context, dir string, a scanner.Accepted, start time.Time) error {
	tmp, err := os.MkdirTemp("", "scout-watch-frames-*")
	if err != nil {
		return scouterr.Wrap(scouterr.BackendUnavailable, err, "watch: create frame scratch dir")
	}
	defer os.RemoveAll(tmp)

	frames, err := video.Select(ctx, a.Path, m.VideoOptions, tmp)
	if err != nil {
		return err
	}

	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.ImagePath
	}
	embs, err := m.Orchestrator.EmbedImages(ctx, paths)
	if err != nil {
		return err
	}
	if len(embs) != len(frames) {
		return scouterr.New(scouterr.BackendUnavailable, "watch: embedder returned wrong frame count for "+a.Path)
	}

	sidecarFrames := make([]sidecar.Frame, len(frames))
	for i, f := range frames {
		sidecarFrames[i] = sidecar.Frame{
			TimestampSeconds: video.RoundTimestamp(f.TimestampSeconds),
			Embedding:        embs[i].Slice(),
		}
	}

	s := &sidecar.VideoSidecar{
		FormatVersion:        sidecar.FormatVersion,
		OriginalFilename:     filepath.Base(a.Path),
		ContentHash:          a.Hash.String(),
		CreatedAt:            time.Now().UTC(),
		ProcessingDurationMs: uint64(time.Since(start).Milliseconds()),
		Frames:               sidecarFrames,
	}
	return sidecar.SaveVideo(dir, s)
}
