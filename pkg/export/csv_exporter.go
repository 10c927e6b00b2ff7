package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset holds the tabular part of an export, keyed by column header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders fee invoices as spreadsheet-friendly CSV. The layout
// mirrors the PDF invoice: header key/values, the installment table, then
// the totals summary, separated by blank lines.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// RenderInvoice flattens an invoice document into CSV bytes.
func (e *CSVExporter) RenderInvoice(doc InvoiceDocument) ([]byte, error) {
	if len(doc.Table.Headers) == 0 {
		return nil, fmt.Errorf("invoice requires a table")
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if doc.Title != "" {
		if err := w.Write([]string{doc.Title}); err != nil {
			return nil, fmt.Errorf("write invoice title: %w", err)
		}
	}
	for _, line := range doc.Header {
		if err := w.Write([]string{line.Label, line.Value}); err != nil {
			return nil, fmt.Errorf("write invoice header: %w", err)
		}
	}

	if err := e.writeTable(w, doc.Table); err != nil {
		return nil, err
	}

	if err := w.Write([]string{""}); err != nil {
		return nil, fmt.Errorf("write separator: %w", err)
	}
	for _, line := range doc.Summary {
		if err := w.Write([]string{line.Label, line.Value}); err != nil {
			return nil, fmt.Errorf("write invoice summary: %w", err)
		}
	}
	if doc.Footnote != "" {
		if err := w.Write([]string{doc.Footnote}); err != nil {
			return nil, fmt.Errorf("write invoice footnote: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush invoice csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *CSVExporter) writeTable(w *csv.Writer, table Dataset) error {
	if err := w.Write([]string{""}); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}
	if err := w.Write(table.Headers); err != nil {
		return fmt.Errorf("write table headers: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i, header := range table.Headers {
			record[i] = row[header]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write table row: %w", err)
		}
	}
	return nil
}
