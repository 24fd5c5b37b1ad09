package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"DocumentExtractionSystem/pkg/models"
)

// maxSnippet bounds how much of the model response is kept on a ParseError
const maxSnippet = 200

// ErrNotObject is wrapped in a ParseError when the response is valid JSON but not an object
var ErrNotObject = errors.New("response is not a JSON object")

// ErrTrailingData is wrapped in a ParseError when text follows the JSON value
var ErrTrailingData = errors.New("unexpected data after JSON value")

// ParseError is returned when the model response is not a JSON object
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model response: %v (response: %q)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// cleanJSONResponse removes markdown code block markers from a JSON string
// This handles cases where the model returns JSON wrapped in ```json ... ``` markers
func cleanJSONResponse(jsonStr string) string {
	// Remove leading ```json or ``` if present
	jsonStr = strings.TrimPrefix(strings.TrimSpace(jsonStr), "```json")
	jsonStr = strings.TrimPrefix(strings.TrimSpace(jsonStr), "```")

	// Remove trailing ``` if present
	jsonStr = strings.TrimSuffix(strings.TrimSpace(jsonStr), "```")

	// Trim any remaining whitespace
	return strings.TrimSpace(jsonStr)
}

// Parse decodes the model's raw text into an ExtractionResult.
// Missing and extra fields are allowed; only malformed text fails.
func Parse(text string) (models.ExtractionResult, error) {
	jsonStr := cleanJSONResponse(text)

	// Numbers stay json.Number so long identifiers keep every digit
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return models.ExtractionResult{}, &ParseError{Snippet: snippet(jsonStr), Err: err}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return models.ExtractionResult{}, &ParseError{Snippet: snippet(jsonStr), Err: ErrTrailingData}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return models.ExtractionResult{}, &ParseError{Snippet: snippet(jsonStr), Err: ErrNotObject}
	}

	return models.NewExtractionResult(obj), nil
}

// snippet cuts s to at most maxSnippet bytes without splitting a rune
func snippet(s string) string {
	if len(s) <= maxSnippet {
		return s
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
