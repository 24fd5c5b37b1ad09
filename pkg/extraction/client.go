package extraction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"DocumentExtractionSystem/pkg/models"
)

// DefaultModel is the model used when none is configured
const DefaultModel = "gemini-2.0-flash"

// ErrEmptyResponse is wrapped in a ModelError when the model answers without any text
var ErrEmptyResponse = errors.New("no text in model response")

// Client sends one document to a generative model and returns its raw text answer.
// It performs no parsing or validation of that text.
type Client interface {
	Extract(ctx context.Context, file models.EncodedFile, kind models.DocumentKind) (string, error)
}

// ModelError is returned when the model call fails or comes back empty
type ModelError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s model %s: %v", e.Provider, e.Model, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

type settings struct {
	model       string
	temperature float32
	logger      *zap.Logger
}

// Option configures a Client
type Option func(*settings)

// WithModel sets the model name
func WithModel(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.model = name
		}
	}
}

// WithTemperature sets the sampling temperature. 0 gives the most deterministic output.
func WithTemperature(t float32) Option {
	return func(s *settings) { s.temperature = t }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		model:  DefaultModel,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
