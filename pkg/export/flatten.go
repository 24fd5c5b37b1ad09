package export

import (
	"strconv"
	"strings"

	"DocumentExtractionSystem/pkg/models"
	"DocumentExtractionSystem/pkg/schema"
)

// Sentinel values shown in place of data for failed records
const (
	FailureMarker = "ERROR"
	FailedName    = "Extraction Failed"
)

// Flatten returns rec with its data filled in for display. Failure placeholders
// get sentinel values in the identifying and name fields and zero/empty values elsewhere.
func Flatten(rec models.NormalizedRecord) models.NormalizedRecord {
	if !rec.Failed() {
		return rec
	}
	switch rec.Kind {
	case models.InvoiceKind:
		rec.Invoice = &models.InvoiceRecord{
			InvoiceNumber: models.StringPtr(FailureMarker),
			SupplierName:  FailedName,
			Currency:      "",
			LineItems:     []models.LineItem{},
		}
	case models.BusinessCardKind:
		rec.BusinessCard = &models.BusinessCardRecord{
			FullName: FailedName,
		}
	}
	return rec
}

// Columns returns the column names for kind: file name followed by the declared fields
func Columns(kind models.DocumentKind) []string {
	return append([]string{"file_name"}, schema.FieldNamesFor(kind)...)
}

// Values returns the flattened record's cells in Columns order.
// A cell is nil, a string or a float64.
func Values(rec models.NormalizedRecord) []any {
	flat := Flatten(rec)
	cols := Columns(rec.Kind)
	out := make([]any, len(cols))
	out[0] = flat.FileName
	for i, name := range cols[1:] {
		out[i+1] = fieldValue(flat, name)
	}
	return out
}

func fieldValue(rec models.NormalizedRecord, name string) any {
	if inv := rec.Invoice; inv != nil {
		switch name {
		case "invoice_number":
			return deref(inv.InvoiceNumber)
		case "invoice_date":
			return deref(inv.InvoiceDate)
		case "supplier_name":
			return inv.SupplierName
		case "supplier_tax_id":
			return deref(inv.SupplierTaxID)
		case "total_amount":
			return inv.TotalAmount
		case "currency":
			return inv.Currency
		case "tax_amount":
			return inv.TaxAmount
		case "line_items":
			return formatLineItems(inv.LineItems)
		}
	}
	if card := rec.BusinessCard; card != nil {
		switch name {
		case "full_name":
			return card.FullName
		case "company":
			return deref(card.Company)
		case "job_title":
			return deref(card.JobTitle)
		case "email":
			return deref(card.Email)
		case "phone":
			return deref(card.Phone)
		case "website":
			return deref(card.Website)
		case "address":
			return deref(card.Address)
		}
	}
	return nil
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// formatLineItems renders items as "desc x qty @ price = total" joined by " | "
func formatLineItems(items []models.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		var sb strings.Builder
		sb.WriteString(item.Description)
		if item.Quantity != nil {
			sb.WriteString(" x ")
			sb.WriteString(formatNumber(*item.Quantity))
		}
		if item.UnitPrice != nil {
			sb.WriteString(" @ ")
			sb.WriteString(formatNumber(*item.UnitPrice))
		}
		sb.WriteString(" = ")
		sb.WriteString(formatNumber(item.LineTotal))
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, " | ")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cellText renders a cell value as text; nil becomes an empty string
func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatNumber(val)
	default:
		return ""
	}
}
