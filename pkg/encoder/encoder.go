package encoder

import (
	"context"
	"fmt"
	"io"

	"DocumentExtractionSystem/pkg/models"
)

// EncodingError is returned when a source file cannot be read
type EncodingError struct {
	FileName string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %q: %v", e.FileName, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Encode reads the file's full content and pairs it with its declared media type.
// If the file declares no media type, one is derived from its name.
func Encode(ctx context.Context, file models.SourceFile) (models.EncodedFile, error) {
	rc, err := file.Open(ctx)
	if err != nil {
		return models.EncodedFile{}, &EncodingError{FileName: file.Name(), Err: err}
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return models.EncodedFile{}, &EncodingError{FileName: file.Name(), Err: err}
	}

	mediaType := file.MediaType()
	if mediaType == "" {
		mediaType = DetectMediaType(file.Name())
	}

	return models.EncodedFile{
		Content:   content,
		MediaType: mediaType,
	}, nil
}
