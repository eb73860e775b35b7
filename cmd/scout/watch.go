package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/scanner"
	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
	"github.com/ZanzyTHEbar/scout/video"
	watcher "github.com/ZanzyTHEbar/scout/watch"
)

var (
	watchDir           string
	watchRecursive     bool
	watchExcludeVideos bool
	watchMinResolution int
	watchMaxSizeMB     int64
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index images and videos as they appear under a directory",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", ".", "root directory to watch")
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", true, "descend into subdirectories")
	watchCmd.Flags().BoolVar(&watchExcludeVideos, "exclude-videos", false, "skip video files entirely")
	watchCmd.Flags().IntVar(&watchMinResolution, "min-resolution", 0, "skip images whose shortest side is below this many pixels")
	watchCmd.Flags().Int64Var(&watchMaxSizeMB, "max-size", 0, "skip files larger than this many megabytes")
}

// videoFilteringIndexer drops video files before they reach the real
// indexer, for --exclude-videos/--disable-video.
type videoFilteringIndexer struct {
	inner watcher.FileIndexer
}

func (v *videoFilteringIndexer) Index(ctx context.Context, a scanner.Accepted) error {
	if a.Kind.String() == "video" {
		return nil
	}
	return v.inner.Index(ctx, a)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scanOpts := scanner.DefaultScanOptions(sidecar.FormatVersion)
	scanOpts.Recursive = watchRecursive
	scanOpts.MinResolutionPx = watchMinResolution
	scanOpts.MaxSizeMB = watchMaxSizeMB

	orch := buildOrchestrator(cfg)
	videoOpts := video.DefaultOptions()
	var indexer watcher.FileIndexer = &watcher.MediaIndexer{Orchestrator: orch, VideoOptions: videoOpts}
	if watchExcludeVideos || flagDisableVideo {
		indexer = &videoFilteringIndexer{inner: indexer}
	}

	processor := watcher.NewIndexProcessor(indexer, scanOpts, watcher.DefaultConfig().QueueCapacity)
	defer processor.Close()

	wcfg := watcher.DefaultConfig()
	w, err := watcher.NewWatcherWithProcessor(wcfg, processor)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: create watcher")
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx, []string{watchDir}); err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: watch %s", watchDir)
	}

	interactor.Output(fmt.Sprintf("watching %s (ctrl-c to stop)", watchDir))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				interactor.Warning(fmt.Sprintf("watch: %v", err))
			}
		}
	}()

	<-ctx.Done()
	if n := processor.DroppedEvents(); n > 0 {
		interactor.Warning(fmt.Sprintf("dropped %d events under sustained load", n))
	}
	return nil
}
