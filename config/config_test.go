package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/scout/scout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(orig)
	require.NoError(t, os.Chdir(dir))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, internal.DefaultModelsDir, cfg.ModelDir)
	assert.Equal(t, internal.VisionModelFilename, cfg.VisionModel)
	assert.Equal(t, "auto", cfg.Provider)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Scan.Recursive)
	assert.Equal(t, 20, cfg.Search.Limit)
	assert.InDelta(t, 0.7, cfg.Search.NegativeLambda, 1e-9)
	assert.Equal(t, 5, cfg.Cluster.MinClusterSize)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
modelDir: /opt/scout-models
provider: cuda
workers: 4
scan:
  recursive: false
  minResolutionPx: 200
search:
  limit: 50
  textWeight: 0.8
cluster:
  minClusterSize: 10
  useUMAP: true
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/scout-models", cfg.ModelDir)
	assert.Equal(t, "cuda", cfg.Provider)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.Scan.Recursive)
	assert.Equal(t, 200, cfg.Scan.MinResolutionPx)
	assert.Equal(t, 50, cfg.Search.Limit)
	assert.InDelta(t, 0.8, cfg.Search.TextWeight, 1e-9)
	assert.Equal(t, 10, cfg.Cluster.MinClusterSize)
	assert.True(t, cfg.Cluster.UseUMAP)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadConfigEnvOverridesModelDir(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(orig)
	require.NoError(t, os.Chdir(dir))

	t.Setenv(internal.ModelsDirEnvVar, "/env/models")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/env/models", cfg.ModelDir)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
