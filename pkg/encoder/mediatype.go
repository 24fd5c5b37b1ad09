package encoder

import (
	"path/filepath"
	"strings"
)

// DefaultMediaType is used when nothing better is known about a file
const DefaultMediaType = "application/octet-stream"

// DetectMediaType determines the MIME type based on the file extension
func DetectMediaType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".gif":
		return "image/gif"
	case ".txt":
		return "text/plain"
	default:
		return DefaultMediaType
	}
}
