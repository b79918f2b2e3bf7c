package embed

import (
	"fmt"
	"time"
)

// FactoryConfig selects and configures an embedding backend.
type FactoryConfig struct {
	Provider   string // "ollama", "static", or "" for none (keywords-only mode)
	Model      string
	Host       string // Ollama endpoint
	Dimensions int
	Timeout    time.Duration
	CacheSize  int // query-embedding LRU size
}

// New creates an embedder for the configured provider, wrapped with an
// LRU cache. A nil embedder (no error) means keywords-only mode.
func New(cfg FactoryConfig) (Embedder, error) {
	var inner Embedder
	switch cfg.Provider {
	case "":
		return nil, nil
	case "static":
		inner = NewStaticEmbedder()
	case "ollama":
		if cfg.Model == "" {
			return nil, fmt.Errorf("ollama provider requires a model name")
		}
		inner = NewOllamaEmbedder(OllamaConfig{
			Host:       cfg.Host,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
