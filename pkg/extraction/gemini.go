package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"DocumentExtractionSystem/pkg/models"
	"DocumentExtractionSystem/pkg/schema"
)

const geminiProvider = "gemini"

// GeminiClient calls the Gemini API with the document sent inline as binary data
type GeminiClient struct {
	client   *genai.Client
	registry *schema.Registry
	settings settings
}

// NewGeminiClient initializes a Gemini API client authenticated with apiKey
func NewGeminiClient(ctx context.Context, apiKey string, registry *schema.Registry, opts ...Option) (*GeminiClient, error) {
	return newGeminiClient(ctx, registry, opts, option.WithAPIKey(apiKey))
}

func newGeminiClient(ctx context.Context, registry *schema.Registry, opts []Option, clientOpts ...option.ClientOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiClient{
		client:   client,
		registry: registry,
		settings: newSettings(opts),
	}, nil
}

// Close releases the underlying connection
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Extract sends the instruction, the schema and the file in a single request
func (c *GeminiClient) Extract(ctx context.Context, file models.EncodedFile, kind models.DocumentKind) (string, error) {
	def, err := c.registry.SchemaFor(kind)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.settings.model)
	model.SetTemperature(c.settings.temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiSchema(def.Fields)

	c.settings.logger.Debug("calling Gemini",
		zap.String("model", c.settings.model),
		zap.String("kind", kind.String()),
		zap.String("media_type", file.MediaType),
		zap.Int("bytes", len(file.Content)),
	)

	resp, err := model.GenerateContent(ctx,
		genai.Text(def.Instruction),
		genai.Blob{
			MIMEType: file.MediaType,
			Data:     file.Content,
		},
	)
	if err != nil {
		return "", c.modelError(err)
	}

	text := geminiText(resp)
	if strings.TrimSpace(text) == "" {
		return "", c.modelError(ErrEmptyResponse)
	}
	return text, nil
}

func (c *GeminiClient) modelError(err error) *ModelError {
	return &ModelError{Provider: geminiProvider, Model: c.settings.model, Err: err}
}

// geminiText concatenates the text parts of the first candidate
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// geminiSchema translates declared fields into the Gemini response schema
func geminiSchema(fields []schema.FieldSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f.Name] = geminiField(f)
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   schema.RequiredNames(fields),
	}
}

func geminiField(f schema.FieldSchema) *genai.Schema {
	var s *genai.Schema
	switch f.Type {
	case schema.TypeNumber:
		s = &genai.Schema{Type: genai.TypeNumber}
	case schema.TypeObjectArray:
		s = &genai.Schema{Type: genai.TypeArray, Items: geminiSchema(f.Items)}
	default:
		s = &genai.Schema{Type: genai.TypeString}
	}
	s.Description = f.Description
	s.Nullable = !f.Required
	return s
}
