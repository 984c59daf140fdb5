package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, float32(0.8), cfg.Classifier.ConfidenceThreshold)
	assert.Equal(t, "bilinear", cfg.Classifier.Resample)
	assert.False(t, cfg.Classifier.InkCheck.Enabled)
	assert.Equal(t, float32(0.85), cfg.Classifier.InkCheck.DarkLevel)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 4096*4096, cfg.Classifier.MaxImagePixels)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  shutdown_timeout: 2s
model:
  path: /srv/model.onnx
  labels_path: /srv/labels.json
  mapping_path: ""
classifier:
  confidence_threshold: 0.9
  resample: lanczos3
  ink_check:
    enabled: true
history:
  driver: postgres
  dsn: postgres://localhost/mathsym
`)
	t.Setenv("MATHSYM_CLASSIFIER_CONFIDENCE_THRESHOLD", "0.85")
	t.Setenv("MATHSYM_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/srv/model.onnx", cfg.Model.Path)
	assert.Empty(t, cfg.Model.MappingPath)
	assert.InDelta(t, 0.85, cfg.Classifier.ConfidenceThreshold, 1e-6)
	assert.True(t, cfg.Classifier.InkCheck.Enabled)
	assert.Equal(t, float32(0.02), cfg.Classifier.InkCheck.MinForeground)
	assert.Equal(t, "postgres", cfg.History.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)

	opts, err := cfg.ClassifierOptions()
	require.NoError(t, err)
	assert.Equal(t, resize.Lanczos3, opts.Resample)
	assert.True(t, opts.InkCheck.Enabled)
	assert.Equal(t, "/srv/labels.json", opts.LabelsPath)
	assert.Equal(t, 4096*4096, opts.MaxPixels)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Classifier.ConfidenceThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.Classifier.ConfidenceThreshold = -0.1 }},
		{"unknown resample", func(c *Config) { c.Classifier.Resample = "sinc" }},
		{"inverted ink bounds", func(c *Config) { c.Classifier.InkCheck.MinForeground = 0.9 }},
		{"unknown driver", func(c *Config) { c.History.Driver = "mysql" }},
		{"zero upload cap", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"zero pixel cap", func(c *Config) { c.Classifier.MaxImagePixels = 0 }},
		{"missing model", func(c *Config) { c.Model.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.History.Enabled = false
	cfg.History.Driver = "mysql"
	assert.NoError(t, cfg.Validate(), "driver is ignored while history is disabled")
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}
