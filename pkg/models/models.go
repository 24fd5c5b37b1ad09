package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DocumentKind represents the type of document to extract
type DocumentKind string

const (
	InvoiceKind      DocumentKind = "invoice"
	BusinessCardKind DocumentKind = "business_card"
)

// ErrUnknownKind is returned when a document kind string does not match a known kind
var ErrUnknownKind = errors.New("unknown document kind")

// Kinds lists every supported document kind in a stable order
func Kinds() []DocumentKind {
	return []DocumentKind{InvoiceKind, BusinessCardKind}
}

// ParseDocumentKind converts user input such as "invoice" or "business-card" into a DocumentKind
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "invoice":
		return InvoiceKind, nil
	case "business_card", "card":
		return BusinessCardKind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Valid reports whether k is one of the supported kinds
func (k DocumentKind) Valid() bool {
	return k == InvoiceKind || k == BusinessCardKind
}

func (k DocumentKind) String() string {
	return string(k)
}

// SourceFile is one uploaded file as exposed by the host environment
type SourceFile interface {
	Name() string
	MediaType() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// EncodedFile is the transport-ready payload for a single source file
type EncodedFile struct {
	Content   []byte
	MediaType string
}
