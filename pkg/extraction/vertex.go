package extraction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"DocumentExtractionSystem/pkg/models"
	"DocumentExtractionSystem/pkg/schema"
)

const vertexProvider = "vertex"

// VertexClient calls Gemini through Vertex AI using application default credentials
type VertexClient struct {
	client   *genai.Client
	registry *schema.Registry
	settings settings
}

// NewVertexClient creates a Vertex AI backed client for the given project and location
func NewVertexClient(ctx context.Context, project, location string, registry *schema.Registry, opts ...Option) (*VertexClient, error) {
	return newVertexClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	}, registry, opts)
}

func newVertexClient(ctx context.Context, cfg *genai.ClientConfig, registry *schema.Registry, opts []Option) (*VertexClient, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &VertexClient{
		client:   client,
		registry: registry,
		settings: newSettings(opts),
	}, nil
}

// Extract sends the instruction, the schema and the file in a single request
func (c *VertexClient) Extract(ctx context.Context, file models.EncodedFile, kind models.DocumentKind) (string, error) {
	def, err := c.registry.SchemaFor(kind)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: def.Instruction},
				{
					InlineData: &genai.Blob{
						MIMEType: file.MediaType,
						Data:     file.Content,
					},
				},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.settings.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   vertexSchema(def.Fields),
	}

	c.settings.logger.Debug("calling Vertex AI",
		zap.String("model", c.settings.model),
		zap.String("kind", kind.String()),
		zap.String("media_type", file.MediaType),
		zap.Int("bytes", len(file.Content)),
	)

	resp, err := c.client.Models.GenerateContent(ctx, c.settings.model, contents, config)
	if err != nil {
		return "", &ModelError{Provider: vertexProvider, Model: c.settings.model, Err: err}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &ModelError{Provider: vertexProvider, Model: c.settings.model, Err: ErrEmptyResponse}
	}
	return text, nil
}

// vertexSchema translates declared fields into the genai response schema
func vertexSchema(fields []schema.FieldSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f.Name] = vertexField(f)
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   schema.RequiredNames(fields),
	}
}

func vertexField(f schema.FieldSchema) *genai.Schema {
	var s *genai.Schema
	switch f.Type {
	case schema.TypeNumber:
		s = &genai.Schema{Type: genai.TypeNumber}
	case schema.TypeObjectArray:
		s = &genai.Schema{Type: genai.TypeArray, Items: vertexSchema(f.Items)}
	default:
		s = &genai.Schema{Type: genai.TypeString}
	}
	s.Description = f.Description
	if !f.Required {
		s.Nullable = genai.Ptr(true)
	}
	return s
}
