package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName names the config directory and CLI binary.
	DefaultAppName    = "scout"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultCacheDir   = filepath.Join(DefaultConfigPath, ".cache")

	// DefaultGlobalConfigFile is the user-level config file, overridden by
	// a --config flag or a config.yaml in the working directory.
	DefaultGlobalConfigFile = filepath.Join(DefaultConfigPath, "config.yaml")

	// DefaultModelsDir is where the three fixed-name model files (spec §6)
	// are looked up when neither --model-dir nor SCOUT_MODELS_DIR is set.
	DefaultModelsDir = filepath.Join(DefaultConfigPath, "models")

	// ModelsDirEnvVar overrides DefaultModelsDir per spec §6's Environment
	// section. No other environment inputs are recognized.
	ModelsDirEnvVar = "SCOUT_MODELS_DIR"

	// Fixed model directory filenames per spec §6. TokenizerFilename matches
	// the real HuggingFace fast-tokenizer file the original ships
	// (config.rs's TOKENIZER constant); embedding.tokenizer parses it
	// directly. A tokenizer filename override that does not end in .json is
	// read as a bare vocab.txt instead.
	VisionModelFilename = "vision_model_q4f16.onnx"
	TextModelFilename   = "text_model_q4f16.onnx"
	TokenizerFilename   = "tokenizer.json"
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance.
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
