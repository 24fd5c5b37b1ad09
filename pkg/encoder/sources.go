package encoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// LocalFile is a file on the local filesystem
type LocalFile struct {
	Path string
}

func (f LocalFile) Name() string      { return filepath.Base(f.Path) }
func (f LocalFile) MediaType() string { return DetectMediaType(f.Path) }

func (f LocalFile) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// BytesFile is an in-memory file
type BytesFile struct {
	FileName string
	Type     string
	Data     []byte
}

func (f BytesFile) Name() string      { return f.FileName }
func (f BytesFile) MediaType() string { return f.Type }

func (f BytesFile) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

// UploadedFile is one part of a multipart/form-data upload
type UploadedFile struct {
	Header *multipart.FileHeader
}

func (f UploadedFile) Name() string { return f.Header.Filename }

// MediaType prefers the part's Content-Type unless the client sent the generic octet-stream
func (f UploadedFile) MediaType() string {
	ct := f.Header.Header.Get("Content-Type")
	if ct == "" || ct == DefaultMediaType {
		return DetectMediaType(f.Header.Filename)
	}
	return ct
}

func (f UploadedFile) Open(_ context.Context) (io.ReadCloser, error) {
	return f.Header.Open()
}

// GCSFile is an object in Google Cloud Storage
type GCSFile struct {
	client      *storage.Client
	bucket      string
	object      string
	contentType string
}

// NewGCSFile creates a source for a "gs://bucket/path/to/object" URI
func NewGCSFile(client *storage.Client, uri string) (*GCSFile, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	return &GCSFile{client: client, bucket: bucket, object: object}, nil
}

func (f *GCSFile) Name() string { return path.Base(f.object) }

// MediaType returns the object's stored content type once it has been opened
func (f *GCSFile) MediaType() string {
	if f.contentType != "" && f.contentType != DefaultMediaType {
		return f.contentType
	}
	return DetectMediaType(f.object)
}

func (f *GCSFile) Open(ctx context.Context) (io.ReadCloser, error) {
	r, err := f.client.Bucket(f.bucket).Object(f.object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	f.contentType = r.Attrs.ContentType
	return r, nil
}

// IsGCSURI reports whether s looks like a gs:// URI
func IsGCSURI(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// ParseGCSURI splits "gs://bucket/path/to/object" into bucket and object names
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCSURI(uri) {
		return "", "", fmt.Errorf("not a GCS URI: %q", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("GCS URI must name a bucket and an object: %q", uri)
	}
	return parts[0], parts[1], nil
}
