package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceDocument describes the content of a rendered fee invoice.
type InvoiceDocument struct {
	Title    string
	Header   []KeyValue
	Table    Dataset
	Summary  []KeyValue
	Footnote string
}

// KeyValue is a labelled line in the invoice header or summary block.
type KeyValue struct {
	Label string
	Value string
}

// PDFExporter renders fee invoices into basic PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderInvoice produces an invoice PDF with a header block, installment
// table and totals summary.
func (e *PDFExporter) RenderInvoice(doc InvoiceDocument) ([]byte, error) {
	if len(doc.Table.Headers) == 0 {
		return nil, fmt.Errorf("invoice requires a table")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Header {
		pdf.CellFormat(45, 6, line.Label, "", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, line.Value, "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	e.renderTable(pdf, doc.Table)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	for _, line := range doc.Summary {
		pdf.CellFormat(140, 7, line.Label, "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, line.Value, "1", 1, "R", false, 0, "")
	}

	if doc.Footnote != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, doc.Footnote, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) renderTable(pdf *gofpdf.Fpdf, data Dataset) {
	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
