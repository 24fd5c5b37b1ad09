package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"DocumentExtractionSystem/pkg/models"
)

// LineSeparator joins the fields of one record in the line format
const LineSeparator = "; "

// WriteCSV writes a header row and one row per record of the given kind.
// The header is the kind's columns followed by id and status.
func WriteCSV(w io.Writer, kind models.DocumentKind, records []models.NormalizedRecord) error {
	cw := csv.NewWriter(w)
	header := append(Columns(kind), "id", "status")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		if rec.Kind != kind {
			continue
		}
		row := make([]string, 0, len(header))
		for _, v := range Values(rec) {
			row = append(row, cellText(v))
		}
		row = append(row, rec.ID, string(rec.Outcome))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %q: %w", rec.FileName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Line renders one record as its fields joined by LineSeparator in column order.
// A field containing ';' or '"' is double-quoted with inner quotes doubled.
func Line(rec models.NormalizedRecord) string {
	values := Values(rec)
	fields := make([]string, len(values))
	for i, v := range values {
		// One record per line, so embedded line breaks are flattened
		fields[i] = quoteLineField(strings.Join(strings.Fields(cellText(v)), " "))
	}
	return strings.Join(fields, LineSeparator)
}

func quoteLineField(s string) string {
	if !strings.ContainsAny(s, `;"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteLines writes one line per record
func WriteLines(w io.Writer, records []models.NormalizedRecord) error {
	for _, rec := range records {
		if _, err := io.WriteString(w, Line(rec)+"\n"); err != nil {
			return fmt.Errorf("write line for %q: %w", rec.FileName, err)
		}
	}
	return nil
}

// SheetName returns the worksheet title used for kind
func SheetName(kind models.DocumentKind) string {
	switch kind {
	case models.InvoiceKind:
		return "Invoices"
	case models.BusinessCardKind:
		return "Business Cards"
	default:
		return string(kind)
	}
}

// WriteXLSX writes an XLSX workbook with one sheet per document kind present in records
func WriteXLSX(w io.Writer, records []models.NormalizedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	wrote := false

	for _, kind := range models.Kinds() {
		var ofKind []models.NormalizedRecord
		for _, rec := range records {
			if rec.Kind == kind {
				ofKind = append(ofKind, rec)
			}
		}
		if len(ofKind) == 0 {
			continue
		}

		sheet := SheetName(kind)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}

		header := append(Columns(kind), "id", "status")
		headerRow := make([]any, len(header))
		for i, h := range header {
			headerRow[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
			return fmt.Errorf("write header on %q: %w", sheet, err)
		}

		for i, rec := range ofKind {
			row := append(Values(rec), rec.ID, string(rec.Outcome))
			for j, v := range row {
				if v == nil {
					row[j] = ""
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write row for %q: %w", rec.FileName, err)
			}
		}
		wrote = true
	}

	if wrote {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
		f.SetActiveSheet(0)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
