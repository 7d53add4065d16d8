// Package embedding produces vector embeddings for text via OpenAI-compatible
// APIs or a local ONNX model, with LRU caching.
package embedding

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hyperjump/kurabe/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the embedder selected by cfg.Backend.
func New(cfg config.EmbeddingConfig, provider config.ProviderConfig) (Embedder, error) {
	switch cfg.Backend {
	case config.EmbeddingBackendOpenAI:
		apiKey := os.Getenv(provider.APIKeyEnv)
		return NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     apiKey,
			BaseURL:    provider.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    time.Duration(provider.TimeoutSecs) * time.Second,
			CacheSize:  cfg.CacheSize,
		})
	case config.EmbeddingBackendONNX:
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case config.EmbeddingBackendMock:
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}
}
