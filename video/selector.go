// Package video selects representative timestamps from a video file and
// decodes the corresponding frames for the encoder orchestrator.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ZanzyTHEbar/scout/scouterr"
)

// Strategy selects which timestamps within a video are sampled.
type Strategy int

const (
	// Uniform samples K evenly-spaced timestamps.
	Uniform Strategy = iota
	// SceneDetection defers to ffmpeg's scene-change filter, falling back
	// to Uniform to fill out any shortfall below K.
	SceneDetection
)

// DefaultK is the default number of frames sampled per video.
const DefaultK = 12

// DefaultSceneThreshold is the ffmpeg scene-change score threshold used by
// SceneDetection.
const DefaultSceneThreshold = 0.3

// Options configures frame selection for a single video.
type Options struct {
	K              int
	Strategy       Strategy
	SceneThreshold float64
}

// DefaultOptions returns Uniform sampling with DefaultK frames.
func DefaultOptions() Options {
	return Options{K: DefaultK, Strategy: Uniform, SceneThreshold: DefaultSceneThreshold}
}

// Frame is one selected instant, still encoded as an RGB raster on disk (a
// temporary PNG produced by ffmpeg) at the time it is returned.
type Frame struct {
	TimestampSeconds float64
	ImagePath        string
}

var (
	availabilityOnce sync.Once
	availabilityErr  error
)

// checkAvailable verifies ffprobe and ffmpeg are on PATH, caching the result
// per process per the spec's "surfaced once" requirement.
func checkAvailable() error {
	availabilityOnce.Do(func() {
		if _, err := exec.LookPath("ffprobe"); err != nil {
			availabilityErr = scouterr.Wrap(scouterr.BackendUnavailable, err, "video: ffprobe not found on PATH")
			return
		}
		if _, err := exec.LookPath("ffmpeg"); err != nil {
			availabilityErr = scouterr.Wrap(scouterr.BackendUnavailable, err, "video: ffmpeg not found on PATH")
			return
		}
	})
	return availabilityErr
}

// probeResult mirrors the subset of `ffprobe -show_format -show_streams
// -print_format json` output this package needs.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeDuration returns a video's duration in seconds via ffprobe.
func probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, scouterr.Wrap(scouterr.MediaUnreadable, err, "video: probe %s", path)
	}
	var res probeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return 0, scouterr.Wrap(scouterr.MediaUnreadable, err, "video: parse probe output for %s", path)
	}
	var duration float64
	if _, err := fmt.Sscanf(res.Format.Duration, "%f", &duration); err != nil || duration <= 0 {
		return 0, scouterr.New(scouterr.MediaUnreadable, fmt.Sprintf("video: could not determine duration for %s", path))
	}
	return duration, nil
}

// uniformTimestamps returns K evenly-spaced timestamps at the centers of
// equal intervals: t_i = (i + 0.5) * duration / K.
func uniformTimestamps(duration float64, k int) []float64 {
	ts := make([]float64, k)
	for i := 0; i < k; i++ {
		ts[i] = (float64(i) + 0.5) * duration / float64(k)
	}
	return ts
}

type sceneCandidate struct {
	timestamp float64
	score     float64
}

// sceneTimestamps runs ffmpeg's scene-change filter and returns candidate
// (timestamp, score) pairs by parsing showinfo log lines from stderr.
func sceneTimestamps(ctx context.Context, path string, threshold float64) ([]sceneCandidate, error) {
	filter := fmt.Sprintf("select='gt(scene,%.4f)',metadata=print,showinfo", threshold)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-vf", filter,
		"-f", "null", "-",
	)
	var stderr = &lineCollector{}
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, scouterr.Wrap(scouterr.MediaUnreadable, err, "video: scene-detect %s", path)
		}
	}
	return stderr.parseShowinfo(), nil
}

func selectTimestamps(ctx context.Context, path string, opts Options, duration float64) ([]float64, error) {
	if opts.Strategy == Uniform {
		return uniformTimestamps(duration, opts.K), nil
	}

	candidates, err := sceneTimestamps(ctx, path, opts.SceneThreshold)
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > opts.K {
		candidates = candidates[:opts.K]
	}
	ts := make([]float64, len(candidates))
	for i, c := range candidates {
		ts[i] = c.timestamp
	}
	sort.Float64s(ts)

	if len(ts) < opts.K {
		// A highly static video may legitimately produce fewer than K
		// scenes; fill the remainder with a uniform pass over the whole
		// duration. The fill is not checked against the scene timestamps
		// already chosen.
		fill := uniformTimestamps(duration, opts.K-len(ts))
		ts = append(ts, fill...)
		sort.Float64s(ts)
	}
	return ts, nil
}

// Select probes duration, chooses timestamps per opts, and extracts each
// timestamp as a temporary PNG frame in dir, in ascending timestamp order.
// Callers must remove the returned frames' ImagePath files when done.
func Select(ctx context.Context, path string, opts Options, dir string) ([]Frame, error) {
	if err := checkAvailable(); err != nil {
		return nil, err
	}
	if opts.K <= 0 {
		opts = DefaultOptions()
	}

	duration, err := probeDuration(ctx, path)
	if err != nil {
		return nil, err
	}

	timestamps, err := selectTimestamps(ctx, path, opts, duration)
	if err != nil {
		return nil, err
	}

	frames := make([]Frame, 0, len(timestamps))
	for i, ts := range timestamps {
		imgPath := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		if err := extractFrame(ctx, path, ts, imgPath); err != nil {
			return nil, err
		}
		frames = append(frames, Frame{TimestampSeconds: ts, ImagePath: imgPath})
	}
	return frames, nil
}

func extractFrame(ctx context.Context, videoPath string, timestamp float64, outPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-ss", fmt.Sprintf("%.3f", timestamp),
		"-i", videoPath,
		"-frames:v", "1",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return scouterr.Wrap(scouterr.MediaUnreadable, err, "video: extract frame at %.3fs from %s: %s", timestamp, videoPath, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return scouterr.Wrap(scouterr.MediaUnreadable, err, "video: frame not written for %s", videoPath)
	}
	return nil
}

// RoundTimestamp normalizes a timestamp to millisecond precision for stable
// sidecar serialization.
func RoundTimestamp(t float64) float64 {
	return math.Round(t*1000) / 1000
}
