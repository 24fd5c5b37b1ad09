package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/genai"

	"DocumentExtractionSystem/pkg/models"
	"DocumentExtractionSystem/pkg/schema"
)

const (
	answerBody = `{"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"full_name\": \"Jane Doe\"}"}]}}]}`
	emptyBody  = `{"candidates": [{"content": {"role": "model", "parts": []}}]}`
	rejectBody = `{"error": {"code": 400, "message": "request contains an invalid argument", "status": "INVALID_ARGUMENT"}}`
)

// modelServer answers every request with a fixed status and body and keeps the last request
type modelServer struct {
	*httptest.Server
	path string
	body map[string]any
}

func newModelServer(t *testing.T, status int, body string) *modelServer {
	t.Helper()
	ms := &modelServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.path = r.URL.Path
		raw, err := io.ReadAll(r.Body)
		if err == nil {
			ms.body = nil
			_ = json.Unmarshal(raw, &ms.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ms.Close)
	return ms
}

var cardFile = models.EncodedFile{Content: []byte("card-bytes"), MediaType: "image/png"}

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := schema.NewRegistry()
	require.NoError(t, err)
	return r
}

func newTestVertexClient(t *testing.T, srv *modelServer) *VertexClient {
	t.Helper()
	c, err := newVertexClient(context.Background(), &genai.ClientConfig{
		Backend:     genai.BackendGeminiAPI,
		APIKey:      "test-key",
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	}, newRegistry(t), []Option{WithModel("test-model")})
	require.NoError(t, err)
	return c
}

func newTestGeminiClient(t *testing.T, srv *modelServer) *GeminiClient {
	t.Helper()
	c, err := newGeminiClient(context.Background(), newRegistry(t), []Option{WithModel("test-model")},
		option.WithAPIKey("test-key"),
		option.WithEndpoint(srv.URL),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// part returns the index-th part of the first content in a generateContent request body
func part(t *testing.T, body map[string]any, index int) map[string]any {
	t.Helper()
	contents, ok := body["contents"].([]any)
	require.True(t, ok, "request has no contents: %v", body)
	require.NotEmpty(t, contents)
	parts, ok := contents[0].(map[string]any)["parts"].([]any)
	require.True(t, ok)
	require.Greater(t, len(parts), index)
	return parts[index].(map[string]any)
}

func assertRequest(t *testing.T, srv *modelServer) {
	t.Helper()
	def, err := newRegistry(t).SchemaFor(models.BusinessCardKind)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(srv.path, "models/test-model:generateContent"), srv.path)

	assert.Equal(t, def.Instruction, part(t, srv.body, 0)["text"])
	blob, ok := part(t, srv.body, 1)["inlineData"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "image/png", blob["mimeType"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(cardFile.Content), blob["data"])

	gen, ok := srv.body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	respSchema, ok := gen["responseSchema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"full_name"}, respSchema["required"])
	assert.Contains(t, respSchema["properties"], "email")
}

func TestClientsExtract(t *testing.T) {
	clients := map[string]func(*testing.T, *modelServer) Client{
		"vertex": func(t *testing.T, srv *modelServer) Client { return newTestVertexClient(t, srv) },
		"gemini": func(t *testing.T, srv *modelServer) Client { return newTestGeminiClient(t, srv) },
	}

	for name, newClient := range clients {
		t.Run(name, func(t *testing.T) {
			t.Run("returns the model text", func(t *testing.T) {
				srv := newModelServer(t, http.StatusOK, answerBody)

				text, err := newClient(t, srv).Extract(context.Background(), cardFile, models.BusinessCardKind)
				require.NoError(t, err)
				assert.JSONEq(t, `{"full_name": "Jane Doe"}`, text)
				assertRequest(t, srv)
			})

			t.Run("empty answer", func(t *testing.T) {
				srv := newModelServer(t, http.StatusOK, emptyBody)

				_, err := newClient(t, srv).Extract(context.Background(), cardFile, models.BusinessCardKind)

				var modelErr *ModelError
				require.True(t, errors.As(err, &modelErr), "got %v", err)
				assert.Equal(t, "test-model", modelErr.Model)
				assert.ErrorIs(t, err, ErrEmptyResponse)
			})

			t.Run("provider failure", func(t *testing.T) {
				srv := newModelServer(t, http.StatusBadRequest, rejectBody)

				_, err := newClient(t, srv).Extract(context.Background(), cardFile, models.BusinessCardKind)

				var modelErr *ModelError
				require.True(t, errors.As(err, &modelErr), "got %v", err)
				assert.NotErrorIs(t, err, ErrEmptyResponse)
				assert.Contains(t, err.Error(), "invalid argument")
			})

			t.Run("unknown kind never reaches the model", func(t *testing.T) {
				srv := newModelServer(t, http.StatusOK, answerBody)

				_, err := newClient(t, srv).Extract(context.Background(), cardFile, "receipt")
				assert.ErrorIs(t, err, models.ErrUnknownKind)
				assert.Empty(t, srv.path)
			})
		})
	}
}
