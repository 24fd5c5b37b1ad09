package normalize

import (
	"fmt"

	"github.com/google/uuid"

	"DocumentExtractionSystem/pkg/models"
)

// Defaults substituted for fields the model did not return
const (
	DefaultSupplierName = "Unknown Supplier"
	DefaultCurrency     = "USD"
	DefaultFullName     = "Unknown"
)

// IDGenerator returns a fresh opaque record identifier
type IDGenerator func() string

// NewUUID returns a random (version 4) UUID string
func NewUUID() string {
	return uuid.NewString()
}

// Normalizer turns parsed model output into complete records
type Normalizer struct {
	newID IDGenerator
}

// New creates a Normalizer. A nil generator falls back to NewUUID.
func New(newID IDGenerator) *Normalizer {
	if newID == nil {
		newID = NewUUID
	}
	return &Normalizer{newID: newID}
}

// Normalize fills every field of the kind's record from raw, substituting defaults
// for absent values. It never fails; an unknown kind yields a failure placeholder.
func (n *Normalizer) Normalize(raw models.ExtractionResult, kind models.DocumentKind, fileName string) models.NormalizedRecord {
	rec := models.NormalizedRecord{
		ID:       n.newID(),
		FileName: fileName,
		Kind:     kind,
		Outcome:  models.OutcomeSuccess,
	}

	switch kind {
	case models.InvoiceKind:
		rec.Invoice = normalizeInvoice(raw)
	case models.BusinessCardKind:
		rec.BusinessCard = normalizeBusinessCard(raw)
	default:
		rec.Outcome = models.OutcomeFailed
		rec.Reason = fmt.Sprintf("%v: %q", models.ErrUnknownKind, kind)
	}
	return rec
}

// Failed builds the placeholder record for a file whose pipeline failed
func (n *Normalizer) Failed(kind models.DocumentKind, fileName string, err error) models.NormalizedRecord {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return models.NormalizedRecord{
		ID:       n.newID(),
		FileName: fileName,
		Kind:     kind,
		Outcome:  models.OutcomeFailed,
		Reason:   reason,
	}
}

func normalizeInvoice(raw models.ExtractionResult) *models.InvoiceRecord {
	rec := &models.InvoiceRecord{
		InvoiceNumber: optionalString(raw, "invoice_number"),
		InvoiceDate:   optionalString(raw, "invoice_date"),
		SupplierName:  DefaultSupplierName,
		SupplierTaxID: optionalString(raw, "supplier_tax_id"),
		Currency:      DefaultCurrency,
		LineItems:     []models.LineItem{},
	}

	if v, ok := raw.String("supplier_name"); ok {
		rec.SupplierName = v
	}
	if v, ok := raw.String("currency"); ok {
		rec.Currency = v
	}
	if v, ok := raw.Number("total_amount"); ok {
		rec.TotalAmount = v
	}
	if v, ok := raw.Number("tax_amount"); ok {
		rec.TaxAmount = v
	}

	if items, ok := raw.Objects("line_items"); ok {
		for _, item := range items {
			rec.LineItems = append(rec.LineItems, normalizeLineItem(item))
		}
	}
	return rec
}

func normalizeLineItem(raw models.ExtractionResult) models.LineItem {
	item := models.LineItem{
		Quantity:  optionalNumber(raw, "quantity"),
		UnitPrice: optionalNumber(raw, "unit_price"),
	}
	if v, ok := raw.String("description"); ok {
		item.Description = v
	}
	if v, ok := raw.Number("line_total"); ok {
		item.LineTotal = v
	}
	return item
}

func normalizeBusinessCard(raw models.ExtractionResult) *models.BusinessCardRecord {
	rec := &models.BusinessCardRecord{
		FullName: DefaultFullName,
		Company:  optionalString(raw, "company"),
		JobTitle: optionalString(raw, "job_title"),
		Email:    optionalString(raw, "email"),
		Phone:    optionalString(raw, "phone"),
		Website:  optionalString(raw, "website"),
		Address:  optionalString(raw, "address"),
	}
	if v, ok := raw.String("full_name"); ok {
		rec.FullName = v
	}
	return rec
}

func optionalString(raw models.ExtractionResult, name string) *string {
	if v, ok := raw.String(name); ok {
		return &v
	}
	return nil
}

func optionalNumber(raw models.ExtractionResult, name string) *float64 {
	if v, ok := raw.Number(name); ok {
		return &v
	}
	return nil
}
