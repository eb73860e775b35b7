// Command scout indexes, searches, and clusters a local image and video
// collection by semantic content, without any network calls.
package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/config"
	"github.com/ZanzyTHEbar/scout/embedding"
	"github.com/ZanzyTHEbar/scout/ports"
	"github.com/ZanzyTHEbar/scout/scouterr"
	internal "github.com/ZanzyTHEbar/scout/scout"
)

var (
	flagVerbose      bool
	flagConfigPath   string
	flagProvider     string
	flagModelDir     string
	flagVisionModel  string
	flagTextModel    string
	flagTokenizer    string
	flagFFmpegPath   string
	flagDisableVideo bool

	logger     zerolog.Logger
	interactor ports.Interactor
)

var rootCmd = &cobra.Command{
	Use:           "scout",
	Short:         "scout finds and organizes photos and videos by what's in them, locally",
	Long:          "scout indexes a photo and video collection into per-file embedding sidecars, then searches and clusters them by semantic content. Everything runs on-device; no network calls.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a config.yaml (defaults to ./config.yaml or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "inference backend: auto|cpu|cuda|tensorrt|coreml|xnnpack")
	rootCmd.PersistentFlags().StringVar(&flagModelDir, "model-dir", "", "directory containing the vision/text models and tokenizer")
	rootCmd.PersistentFlags().StringVar(&flagVisionModel, "vision-model", "", "vision model filename override")
	rootCmd.PersistentFlags().StringVar(&flagTextModel, "text-model", "", "text model filename override")
	rootCmd.PersistentFlags().StringVar(&flagTokenizer, "tokenizer", "", "tokenizer filename override")
	rootCmd.PersistentFlags().StringVar(&flagFFmpegPath, "ffmpeg-path", "", "path to the ffmpeg binary")
	rootCmd.PersistentFlags().BoolVar(&flagDisableVideo, "disable-video", false, "skip video indexing and search entirely")

	rootCmd.AddCommand(scanCmd, searchCmd, clusterCmd, cleanCmd, watchCmd, outliersCmd, replCmd)
}

// loadConfig reads config.yaml (if any) then applies persistent-flag
// overrides on top, so CLI flags always win over file and SCOUT_MODELS_DIR
// defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(flagConfigPath)
	if err != nil {
		return nil, scouterr.Wrap(scouterr.InputInvalid, err, "scout: load config")
	}

	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagModelDir != "" {
		cfg.ModelDir = flagModelDir
	}
	if flagVisionModel != "" {
		cfg.VisionModel = flagVisionModel
	}
	if flagTextModel != "" {
		cfg.TextModel = flagTextModel
	}
	if flagTokenizer != "" {
		cfg.Tokenizer = flagTokenizer
	}
	if flagFFmpegPath != "" {
		cfg.FFmpegPath = flagFFmpegPath
	}
	return cfg, nil
}

// buildOrchestrator constructs the embedding backend named by cfg, using the
// vision model, text model and tokenizer filenames from cfg (the three fixed
// names unless overridden) under cfg.ModelDir.
func buildOrchestrator(cfg *config.Config) embedding.Orchestrator {
	opts := embedding.DefaultOptions(cfg.ModelDir)
	opts.Backend = embedding.ParseBackend(cfg.Provider)
	opts.VisionModelFile = cfg.VisionModel
	opts.TextModelFile = cfg.TextModel
	opts.TokenizerFile = cfg.Tokenizer
	return embedding.NewOrchestrator(opts)
}

func modelPaths(cfg *config.Config) (vision, text, tokenizer string) {
	vision = cfg.VisionModel
	if vision == "" {
		vision = internal.VisionModelFilename
	}
	text = cfg.TextModel
	if text == "" {
		text = internal.TextModelFilename
	}
	tokenizer = cfg.Tokenizer
	if tokenizer == "" {
		tokenizer = internal.TokenizerFilename
	}
	return vision, text, tokenizer
}

// Execute runs the CLI and returns the process exit code per spec §6: 0
// success, 1 user-visible error, 2 unrecoverable internal error.
func Execute() int {
	logger = internal.GetLogger()
	interactor = ports.NewStderrInteractor(logger)

	cobra.OnInitialize(func() {
		if flagVerbose {
			logger = logger.Level(zerolog.DebugLevel)
		} else {
			logger = logger.Level(zerolog.InfoLevel)
		}
		interactor = ports.NewStderrInteractor(logger)
	})

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	interactor.Error(err.Error(), err)
	switch scouterr.Of(err) {
	case scouterr.Fatal:
		return 2
	default:
		return 1
	}
}
