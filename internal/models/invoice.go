package models

import "time"

// InvoiceFormat enumerates supported invoice render formats.
type InvoiceFormat string

const (
	InvoiceFormatPDF InvoiceFormat = "pdf"
	InvoiceFormatCSV InvoiceFormat = "csv"
)

// InvoiceJobStatus tracks the lifecycle of an invoice export job.
type InvoiceJobStatus string

const (
	InvoiceStatusPending    InvoiceJobStatus = "pending"
	InvoiceStatusProcessing InvoiceJobStatus = "processing"
	InvoiceStatusCompleted  InvoiceJobStatus = "completed"
	InvoiceStatusFailed     InvoiceJobStatus = "failed"
)

// InvoiceJob describes one asynchronous invoice export request.
type InvoiceJob struct {
	ID          string           `json:"id"`
	StudentID   string           `json:"student_id"`
	Format      InvoiceFormat    `json:"format"`
	Status      InvoiceJobStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
	FilePath    string           `json:"-"`
	DownloadURL string           `json:"download_url,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}
