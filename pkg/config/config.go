package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"DocumentExtractionSystem/pkg/extraction"
)

// Model providers
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
)

// Config holds the application configuration
type Config struct {
	Port     string
	LogLevel string
	// MaxUploadBytes bounds the multipart form kept in memory per request
	MaxUploadBytes int64
	Model          ModelConfig
}

// ModelConfig selects and configures the generative model
type ModelConfig struct {
	Provider       string
	Name           string
	Temperature    float32
	GeminiAPIKey   string
	VertexProject  string
	VertexLocation string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the .env file doesn't exist
		log.Println("No .env file found. Using system environment variables.")
	} else {
		log.Println("Loaded environment variables from .env file.")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Model: ModelConfig{
			Provider:       strings.ToLower(getEnv("MODEL_PROVIDER", ProviderGemini)),
			Name:           getEnv("GEMINI_MODEL", extraction.DefaultModel),
			GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
			VertexProject:  os.Getenv("VERTEX_PROJECT"),
			VertexLocation: getEnv("VERTEX_LOCATION", "us-central1"),
		},
	}

	temp, err := strconv.ParseFloat(getEnv("MODEL_TEMPERATURE", "0"), 32)
	if err != nil {
		return nil, fmt.Errorf("MODEL_TEMPERATURE: %w", err)
	}
	cfg.Model.Temperature = float32(temp)

	maxMB, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "32"), 10, 64)
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be a positive integer, got %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	cfg.MaxUploadBytes = maxMB << 20

	if err := cfg.Model.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m ModelConfig) validate() error {
	switch m.Provider {
	case ProviderGemini:
		if m.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
	case ProviderVertex:
		if m.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT environment variable is not set")
		}
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER %q", m.Provider)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
