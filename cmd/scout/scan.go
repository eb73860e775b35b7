package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/scanner"
	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
	"github.com/ZanzyTHEbar/scout/video"
	watcher "github.com/ZanzyTHEbar/scout/watch"
)

var (
	scanDir            string
	scanRecursive      bool
	scanForce          bool
	scanThreads        int
	scanExcludeVideos  bool
	scanMinResolution  int
	scanMaxSizeMB      int64
	scanMinSizeKB      int64
	scanExcludeString  string
	scanMaxFrames      int
	scanSceneThreshold float64
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index images and videos under a directory into embedding sidecars",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanDir, "dir", ".", "root directory to scan")
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", true, "descend into subdirectories")
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "re-embed files whose sidecar is merely outdated")
	scanCmd.Flags().IntVar(&scanThreads, "threads", 2, "worker pool size for embedding")
	scanCmd.Flags().BoolVar(&scanExcludeVideos, "exclude-videos", false, "skip video files entirely")
	scanCmd.Flags().IntVar(&scanMinResolution, "min-resolution", 0, "skip images whose shortest side is below this many pixels")
	scanCmd.Flags().Int64Var(&scanMaxSizeMB, "max-size", 0, "skip files larger than this many megabytes")
	scanCmd.Flags().Int64Var(&scanMinSizeKB, "min-size", 0, "skip files smaller than this many kilobytes")
	scanCmd.Flags().StringVar(&scanExcludeString, "exclude", "", "comma-separated gitignore-style patterns to skip")
	scanCmd.Flags().IntVar(&scanMaxFrames, "max-frames", video.DefaultK, "frames sampled per video")
	scanCmd.Flags().Float64Var(&scanSceneThreshold, "scene-threshold", video.DefaultSceneThreshold, "ffmpeg scene-change score threshold")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scanOpts := scanner.DefaultScanOptions(sidecar.FormatVersion)
	scanOpts.Recursive = scanRecursive
	scanOpts.Force = scanForce
	scanOpts.MinResolutionPx = scanMinResolution
	scanOpts.MaxSizeMB = scanMaxSizeMB
	scanOpts.MinSizeKB = scanMinSizeKB
	if scanExcludeString != "" {
		scanOpts.ExcludePatterns = strings.Split(scanExcludeString, ",")
	}

	videoOpts := video.DefaultOptions()
	videoOpts.K = scanMaxFrames
	videoOpts.SceneThreshold = scanSceneThreshold

	workers := scanThreads
	if workers < 1 {
		workers = 1
	}

	ctx := cmd.Context()
	work := make(chan scanner.Accepted, workers*2)
	p := pool.New().WithContext(ctx)
	var errCount int64

	for i := 0; i < workers; i++ {
		p.Go(func(ctx context.Context) error {
			orch := buildOrchestrator(cfg)
			indexer := &watcher.MediaIndexer{Orchestrator: orch, VideoOptions: videoOpts}
			for {
				select {
				case <-ctx.Done():
					return nil
				case a, ok := <-work:
					if !ok {
						return nil
					}
					if scanExcludeVideos && a.Kind.String() == "video" {
						continue
					}
					if err := indexer.Index(ctx, a); err != nil {
						errCount++
						interactor.Warning(fmt.Sprintf("index %s: %v", a.Path, err))
					}
				}
			}
		})
	}

	s := scanner.New(scanOpts)
	counts, scanErr := s.Scan(ctx, scanDir, func(a scanner.Accepted) {
		work <- a
	})
	close(work)
	poolErr := p.Wait()
	if scanErr != nil {
		return scouterr.Wrap(scouterr.Fatal, scanErr, "scout: scan %s", scanDir)
	}
	if poolErr != nil {
		return scouterr.Wrap(scouterr.Fatal, poolErr, "scout: index %s", scanDir)
	}

	interactor.Output(fmt.Sprintf(
		"accepted=%d already_indexed=%d outdated=%d filtered=%d errors=%d",
		counts.Accepted, counts.SkipAlreadyIndexed, counts.SkipOutdated, counts.SkipFiltered, counts.Errors+errCount,
	))
	return nil
}
