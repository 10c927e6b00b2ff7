package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRenderInvoice(t *testing.T) {
	doc := InvoiceDocument{
		Title:  "Fee Invoice",
		Header: []KeyValue{{Label: "Student", Value: "Asha"}, {Label: "Branch", Value: "Andheri"}},
		Table: Dataset{
			Headers: []string{"Installment", "Amount"},
			Rows: []map[string]string{
				{"Installment": "1", "Amount": "726"},
				{"Installment": "2", "Amount": "726"},
			},
		},
		Summary:  []KeyValue{{Label: "Total", Value: "1452"}},
		Footnote: "Payable at the branch office.",
	}

	payload, err := NewCSVExporter().RenderInvoice(doc)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	assert.Equal(t, "Fee Invoice", lines[0])
	assert.Equal(t, "Student,Asha", lines[1])
	assert.Contains(t, lines, "Installment,Amount")
	assert.Contains(t, lines, "2,726")
	assert.Contains(t, lines, "Total,1452")
	assert.Equal(t, "Payable at the branch office.", lines[len(lines)-1])
}

func TestCSVExporterRenderInvoiceRequiresTable(t *testing.T) {
	_, err := NewCSVExporter().RenderInvoice(InvoiceDocument{Title: "Fee Invoice"})
	assert.Error(t, err)
}
