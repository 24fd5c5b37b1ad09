package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"DocumentExtractionSystem/pkg/extraction"
	"DocumentExtractionSystem/pkg/schema"
)

// InitExtractionClient initializes the model client for the configured provider.
// The returned close function releases provider resources and is never nil.
func InitExtractionClient(ctx context.Context, cfg ModelConfig, registry *schema.Registry, logger *zap.Logger) (extraction.Client, func() error, error) {
	opts := []extraction.Option{
		extraction.WithModel(cfg.Name),
		extraction.WithTemperature(cfg.Temperature),
		extraction.WithLogger(logger),
	}

	switch cfg.Provider {
	case ProviderGemini:
		client, err := extraction.NewGeminiClient(ctx, cfg.GeminiAPIKey, registry, opts...)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case ProviderVertex:
		client, err := extraction.NewVertexClient(ctx, cfg.VertexProject, cfg.VertexLocation, registry, opts...)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}
