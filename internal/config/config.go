// Package config loads and validates the locator configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration. Cache directories are
// resolved here and injected everywhere else, so the engine never reads
// the environment and tests can point it at temp dirs.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	OCR        OCRConfig        `yaml:"ocr"`
	Search     SearchConfig     `yaml:"search"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	LogLevel   string           `yaml:"log_level"`
}

// PathsConfig holds resolved cache directories.
type PathsConfig struct {
	IndexCacheDir string `yaml:"index_cache_dir"`
	OCRCacheDir   string `yaml:"ocr_cache_dir"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string        `yaml:"provider"` // "ollama", "static", "" = keywords-only
	Model      string        `yaml:"model"`
	OllamaHost string        `yaml:"ollama_host"`
	Dimensions int           `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheSize  int           `yaml:"cache_size"`
}

// OCRConfig configures OCR augmentation.
type OCRConfig struct {
	Mode      string   `yaml:"mode"` // off, fast, deep
	DPI       int      `yaml:"dpi"`
	Languages []string `yaml:"languages"`
}

// SearchConfig configures retrieval and fusion.
type SearchConfig struct {
	Fusion        string  `yaml:"fusion"`         // rrf, percentile
	LexicalBias   float64 `yaml:"lexical_bias"`   // weight of the lexical score in [0,1]
	TopK          int     `yaml:"top_k"`          // results returned
	CandidatePool int     `yaml:"candidate_pool"` // first-stage candidates
	RRFConstant   int     `yaml:"rrf_constant"`
}

// ChunkingConfig configures the chunker token budgets.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
}

// DefaultConfig returns the defaults, with cache directories under the
// user cache dir.
func DefaultConfig() Config {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	root := filepath.Join(base, "semloc")
	return Config{
		Paths: PathsConfig{
			IndexCacheDir: filepath.Join(root, "index"),
			OCRCacheDir:   filepath.Join(root, "ocr"),
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "BAAI/bge-small-en-v1.5",
			OllamaHost: "http://localhost:11434",
			Timeout:    60 * time.Second,
			CacheSize:  1000,
		},
		OCR: OCRConfig{
			Mode:      "off",
			DPI:       150,
			Languages: []string{"eng"},
		},
		Search: SearchConfig{
			Fusion:        "percentile",
			LexicalBias:   0.3,
			TopK:          5,
			CandidatePool: 20,
			RRFConstant:   60,
		},
		Chunking: ChunkingConfig{
			MaxTokens:     400,
			OverlapTokens: 80,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Search.LexicalBias < 0 || c.Search.LexicalBias > 1 {
		return fmt.Errorf("lexical_bias must be in [0,1], got %v", c.Search.LexicalBias)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.CandidatePool <= 0 {
		return fmt.Errorf("candidate_pool must be positive, got %d", c.Search.CandidatePool)
	}
	switch c.Search.Fusion {
	case "rrf", "percentile":
	default:
		return fmt.Errorf("fusion must be rrf or percentile, got %q", c.Search.Fusion)
	}
	switch c.OCR.Mode {
	case "off", "fast", "deep":
	default:
		return fmt.Errorf("ocr mode must be off, fast, or deep, got %q", c.OCR.Mode)
	}
	if c.Chunking.MaxTokens > 0 && c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("overlap_tokens (%d) must be smaller than max_tokens (%d)",
			c.Chunking.OverlapTokens, c.Chunking.MaxTokens)
	}
	return nil
}
