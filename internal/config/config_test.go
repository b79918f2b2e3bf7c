package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Paths.IndexCacheDir)
	assert.NotEmpty(t, cfg.Paths.OCRCacheDir)
	assert.Equal(t, "off", cfg.OCR.Mode)
	assert.Equal(t, "percentile", cfg.Search.Fusion)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semloc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ocr:
  mode: fast
  dpi: 300
search:
  lexical_bias: 0.5
  top_k: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.OCR.Mode)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 0.5, cfg.Search.LexicalBias)
	assert.Equal(t, 3, cfg.Search.TopK)

	// Untouched sections keep their defaults.
	assert.Equal(t, "percentile", cfg.Search.Fusion)
	assert.Equal(t, 400, cfg.Chunking.MaxTokens)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ocr: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bias above one", func(c *Config) { c.Search.LexicalBias = 1.5 }},
		{"negative bias", func(c *Config) { c.Search.LexicalBias = -0.1 }},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }},
		{"zero pool", func(c *Config) { c.Search.CandidatePool = 0 }},
		{"unknown fusion", func(c *Config) { c.Search.Fusion = "borda" }},
		{"unknown ocr mode", func(c *Config) { c.OCR.Mode = "turbo" }},
		{"overlap >= max tokens", func(c *Config) { c.Chunking.MaxTokens = 50; c.Chunking.OverlapTokens = 50 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
