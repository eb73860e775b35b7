package config

import (
	"fmt"
	"os"
	"path/filepath"

	internal "github.com/ZanzyTHEbar/scout/scout"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application. Values are read by
// viper from a config file, defaulting per field, then overridden by the
// single environment input the spec allows (SCOUT_MODELS_DIR).
type Config struct {
	ModelDir   string         `mapstructure:"modelDir"`
	VisionModel string        `mapstructure:"visionModel"`
	TextModel  string         `mapstructure:"textModel"`
	Tokenizer  string         `mapstructure:"tokenizer"`
	FFmpegPath string         `mapstructure:"ffmpegPath"`
	Provider   string         `mapstructure:"provider"`
	Workers    int            `mapstructure:"workers"`
	Scan       ScanConfig     `mapstructure:"scan"`
	Search     SearchConfig   `mapstructure:"search"`
	Cluster    ClusterConfig  `mapstructure:"cluster"`
}

// ScanConfig mirrors the scan subcommand's defaults (spec §6).
type ScanConfig struct {
	Recursive       bool `mapstructure:"recursive"`
	MinSizeKB       int  `mapstructure:"minSizeKB"`
	MaxSizeMB       int  `mapstructure:"maxSizeMB"`
	MinResolutionPx int  `mapstructure:"minResolutionPx"`
}

// SearchConfig mirrors the search subcommand's defaults (spec §4.5).
type SearchConfig struct {
	Limit          int     `mapstructure:"limit"`
	MinScore       float64 `mapstructure:"minScore"`
	TextWeight     float64 `mapstructure:"textWeight"`
	NegativeLambda float64 `mapstructure:"negativeLambda"`
}

// ClusterConfig mirrors the cluster subcommand's defaults (spec §4.6).
type ClusterConfig struct {
	MinClusterSize int  `mapstructure:"minClusterSize"`
	MinSamples     int  `mapstructure:"minSamples"`
	UseUMAP        bool `mapstructure:"useUMAP"`
}

// LoadConfig reads configuration from configPath (if set) or the search
// path below, applying defaults for any field left unset. Per spec §6, the
// only environment override recognized anywhere in the module is
// SCOUT_MODELS_DIR; LoadConfig does not bind any other environment
// variable, unlike a viper.AutomaticEnv() setup.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("modelDir", internal.DefaultModelsDir)
	v.SetDefault("visionModel", internal.VisionModelFilename)
	v.SetDefault("textModel", internal.TextModelFilename)
	v.SetDefault("tokenizer", internal.TokenizerFilename)
	v.SetDefault("ffmpegPath", "ffmpeg")
	v.SetDefault("provider", "auto")
	v.SetDefault("workers", 2)

	v.SetDefault("scan.recursive", true)
	v.SetDefault("scan.minSizeKB", 0)
	v.SetDefault("scan.maxSizeMB", 0)
	v.SetDefault("scan.minResolutionPx", 0)

	v.SetDefault("search.limit", 20)
	v.SetDefault("search.minScore", 0.0)
	v.SetDefault("search.textWeight", 0.5)
	v.SetDefault("search.negativeLambda", 0.7)

	v.SetDefault("cluster.minClusterSize", 5)
	v.SetDefault("cluster.minSamples", 5)
	v.SetDefault("cluster.useUMAP", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("scout: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("scout: decode config: %w", err)
	}

	if dir := os.Getenv(internal.ModelsDirEnvVar); dir != "" {
		cfg.ModelDir = dir
	}

	return &cfg, nil
}
