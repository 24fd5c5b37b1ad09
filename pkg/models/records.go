package models

// Outcome tells whether a record was extracted or synthesized after a failure
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// LineItem is one row of an invoice's itemized charges
type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	LineTotal   float64  `json:"line_total"`
}

// InvoiceRecord is the normalized shape of an extracted invoice.
// Pointer fields are nil when the value is unknown.
type InvoiceRecord struct {
	InvoiceNumber *string    `json:"invoice_number"`
	InvoiceDate   *string    `json:"invoice_date"`
	SupplierName  string     `json:"supplier_name"`
	SupplierTaxID *string    `json:"supplier_tax_id"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
	TaxAmount     float64    `json:"tax_amount"`
	LineItems     []LineItem `json:"line_items"`
}

// BusinessCardRecord is the normalized shape of an extracted business card
type BusinessCardRecord struct {
	FullName string  `json:"full_name"`
	Company  *string `json:"company"`
	JobTitle *string `json:"job_title"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Website  *string `json:"website"`
	Address  *string `json:"address"`
}

// NormalizedRecord is the final record for one processed file.
// Exactly one of Invoice or BusinessCard is set on a successful record;
// a failed record carries only the Reason.
type NormalizedRecord struct {
	ID           string              `json:"id"`
	FileName     string              `json:"file_name"`
	Kind         DocumentKind        `json:"kind"`
	Outcome      Outcome             `json:"status"`
	Reason       string              `json:"error,omitempty"`
	Invoice      *InvoiceRecord      `json:"invoice,omitempty"`
	BusinessCard *BusinessCardRecord `json:"business_card,omitempty"`
}

// Failed reports whether the record is a failure placeholder
func (r NormalizedRecord) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to f
func Float64Ptr(f float64) *float64 {
	return &f
}
