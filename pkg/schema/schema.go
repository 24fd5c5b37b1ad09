package schema

import "DocumentExtractionSystem/pkg/models"

// FieldType is the primitive type of an output field
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeNumber      FieldType = "number"
	TypeObjectArray FieldType = "array"
)

// FieldSchema describes one output field the model is asked to produce
type FieldSchema struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	// Items describes the element fields when Type is TypeObjectArray
	Items []FieldSchema
}

// SchemaDefinition is the declared output shape for one document kind.
// Definitions are built once and shared read-only.
type SchemaDefinition struct {
	Kind        models.DocumentKind
	Instruction string
	Fields      []FieldSchema
}

// RequiredFieldNames returns the names of the required top-level fields in declared order
func (d SchemaDefinition) RequiredFieldNames() []string {
	return RequiredNames(d.Fields)
}

// IsRequired reports whether the named top-level field is required
func (d SchemaDefinition) IsRequired(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Required
		}
	}
	return false
}

// FieldNames returns the top-level field names in declared order
func (d SchemaDefinition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredNames returns the names of the required fields in declared order
func RequiredNames(fields []FieldSchema) []string {
	var names []string
	for _, f := range fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// invoicePrompt returns the instruction for extracting invoice data
func invoicePrompt() string {
	return `Extract the following invoice data from the attached document: invoice number, invoice date, supplier name, supplier tax ID, total amount, currency, tax amount, and every line item with its description, quantity, unit price and line total.
Use ISO 4217 codes for the currency and YYYY-MM-DD for dates when the document allows it.
Return JSON.`
}

// businessCardPrompt returns the instruction for extracting business card details
func businessCardPrompt() string {
	return `Extract contact details from the attached business card: full name, company, job title, email, phone, website, and address.
Return JSON.`
}

func invoiceDefinition() SchemaDefinition {
	return SchemaDefinition{
		Kind:        models.InvoiceKind,
		Instruction: invoicePrompt(),
		Fields: []FieldSchema{
			{Name: "invoice_number", Type: TypeString, Description: "Invoice number or reference as printed"},
			{Name: "invoice_date", Type: TypeString, Description: "Issue date of the invoice"},
			{Name: "supplier_name", Type: TypeString, Description: "Name of the company that issued the invoice", Required: true},
			{Name: "supplier_tax_id", Type: TypeString, Description: "Supplier VAT or tax identification number"},
			{Name: "total_amount", Type: TypeNumber, Description: "Grand total including tax", Required: true},
			{Name: "currency", Type: TypeString, Description: "Currency code, e.g. USD or EUR"},
			{Name: "tax_amount", Type: TypeNumber, Description: "Total tax amount"},
			{
				Name:        "line_items",
				Type:        TypeObjectArray,
				Description: "Itemized charges in the order they appear",
				Items: []FieldSchema{
					{Name: "description", Type: TypeString, Description: "Item or service description", Required: true},
					{Name: "quantity", Type: TypeNumber, Description: "Quantity billed"},
					{Name: "unit_price", Type: TypeNumber, Description: "Price per unit"},
					{Name: "line_total", Type: TypeNumber, Description: "Total for this line", Required: true},
				},
			},
		},
	}
}

func businessCardDefinition() SchemaDefinition {
	return SchemaDefinition{
		Kind:        models.BusinessCardKind,
		Instruction: businessCardPrompt(),
		Fields: []FieldSchema{
			{Name: "full_name", Type: TypeString, Description: "Full name of the person", Required: true},
			{Name: "company", Type: TypeString, Description: "Company or organization name"},
			{Name: "job_title", Type: TypeString, Description: "Job title or role"},
			{Name: "email", Type: TypeString, Description: "Email address"},
			{Name: "phone", Type: TypeString, Description: "Phone number"},
			{Name: "website", Type: TypeString, Description: "Website URL"},
			{Name: "address", Type: TypeString, Description: "Postal address"},
		},
	}
}

// FieldNamesFor returns the declared top-level field names for kind, or nil for an unknown kind
func FieldNamesFor(kind models.DocumentKind) []string {
	switch kind {
	case models.InvoiceKind:
		return invoiceDefinition().FieldNames()
	case models.BusinessCardKind:
		return businessCardDefinition().FieldNames()
	default:
		return nil
	}
}
