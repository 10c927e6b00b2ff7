package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edunest/tutoring-api/internal/models"
	appErrors "github.com/edunest/tutoring-api/pkg/errors"
	"github.com/edunest/tutoring-api/pkg/export"
	"github.com/edunest/tutoring-api/pkg/jobs"
	"github.com/edunest/tutoring-api/pkg/storage"
)

type feeStateReader interface {
	GetState(ctx context.Context, studentID string) (*models.FeeState, error)
}

type invoiceStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type invoiceRenderer interface {
	RenderInvoice(doc export.InvoiceDocument) ([]byte, error)
}

// InvoiceConfig tunes invoice generation behaviour.
type InvoiceConfig struct {
	APIPrefix  string
	ResultTTL  time.Duration
	Workers    int
	MaxRetries int
}

// InvoiceService renders fee invoices asynchronously. Requests are queued to
// a worker pool; job status lives in memory and download links are signed
// and time-limited.
type InvoiceService struct {
	students studentReader
	fees     feeStateReader
	storage  invoiceStorage
	signer   *storage.SignedURLSigner
	csv      invoiceRenderer
	pdf      invoiceRenderer
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      InvoiceConfig

	mu   sync.RWMutex
	jobs map[string]*models.InvoiceJob
}

// NewInvoiceService constructs an InvoiceService and its worker queue.
func NewInvoiceService(students studentReader, fees feeStateReader, store invoiceStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg InvoiceConfig, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &InvoiceService{
		students: students,
		fees:     fees,
		storage:  store,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		jobs:     make(map[string]*models.InvoiceJob),
	}
	s.queue = jobs.NewQueue("invoices", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the invoice workers.
func (s *InvoiceService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the invoice workers.
func (s *InvoiceService) Stop() {
	s.queue.Stop()
}

// Enqueue registers an invoice job for the student and queues it for
// rendering.
func (s *InvoiceService) Enqueue(ctx context.Context, studentID string, format models.InvoiceFormat) (*models.InvoiceJob, error) {
	switch format {
	case models.InvoiceFormatPDF, models.InvoiceFormatCSV:
	case "":
		format = models.InvoiceFormatPDF
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported invoice format %q", format))
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	job := &models.InvoiceJob{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Format:    format,
		Status:    models.InvoiceStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: "invoice", Ref: job.ID}); err != nil {
		s.setFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue invoice job")
	}
	return s.Job(job.ID)
}

// Job returns a snapshot of the job state.
func (s *InvoiceService) Job(id string) (*models.InvoiceJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice job not found")
	}
	snapshot := *job
	return &snapshot, nil
}

// Open resolves a signed download token to the stored invoice file.
func (s *InvoiceService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice file not found")
	}
	return file, nil
}

// Cleanup removes rendered invoices older than the configured TTL.
func (s *InvoiceService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

func (s *InvoiceService) process(ctx context.Context, qj jobs.Job) error {
	jobID := qj.Ref
	s.setStatus(jobID, models.InvoiceStatusProcessing)

	job, err := s.Job(jobID)
	if err != nil {
		return err
	}

	student, err := s.students.FindByID(ctx, job.StudentID)
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}
	state, err := s.fees.GetState(ctx, job.StudentID)
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}

	doc := buildInvoiceDocument(student, state)
	var payload []byte
	switch job.Format {
	case models.InvoiceFormatCSV:
		payload, err = s.csv.RenderInvoice(doc)
	default:
		payload, err = s.pdf.RenderInvoice(doc)
	}
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}

	filename := fmt.Sprintf("invoice_%s_%s.%s", sanitizeFilename(student.FullName), time.Now().UTC().Format("20060102_150405"), job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}
	url := strings.TrimRight(s.cfg.APIPrefix, "/")
	if url == "" {
		url = "/api/v1"
	}
	url = fmt.Sprintf("%s/invoices/download/%s", url, token)

	now := time.Now().UTC()
	s.mu.Lock()
	if stored, ok := s.jobs[jobID]; ok {
		stored.Status = models.InvoiceStatusCompleted
		stored.FilePath = relPath
		stored.DownloadURL = url
		stored.ExpiresAt = &expiresAt
		stored.CompletedAt = &now
	}
	s.mu.Unlock()
	s.metrics.RecordInvoiceJob(string(models.InvoiceStatusCompleted))
	s.logger.Info("invoice rendered",
		zap.String("job_id", jobID),
		zap.String("student_id", job.StudentID),
		zap.String("format", string(job.Format)))
	return nil
}

func (s *InvoiceService) setStatus(jobID string, status models.InvoiceJobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
	}
}

func (s *InvoiceService) setFailed(jobID string, err error) {
	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = models.InvoiceStatusFailed
		job.Error = err.Error()
	}
	s.mu.Unlock()
	s.metrics.RecordInvoiceJob(string(models.InvoiceStatusFailed))
}

func installmentDataset(installments []models.Installment) export.Dataset {
	rows := make([]map[string]string, 0, len(installments))
	for _, inst := range installments {
		paid := ""
		if inst.PaidDate != nil {
			paid = inst.PaidDate.Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Installment":  fmt.Sprintf("%d", inst.Seq+1),
			"Amount":       fmt.Sprintf("%.0f", inst.Pay),
			"Due Date":     inst.DueDate.Format("2006-01-02"),
			"Paid":         fmt.Sprintf("%.0f", inst.Paid),
			"Paid Date":    paid,
			"Payment Type": string(inst.PaymentType),
		})
	}
	return export.Dataset{
		Headers: []string{"Installment", "Amount", "Due Date", "Paid", "Paid Date", "Payment Type"},
		Rows:    rows,
	}
}

func buildInvoiceDocument(student *models.Student, state *models.FeeState) export.InvoiceDocument {
	header := []export.KeyValue{
		{Label: "Student", Value: student.FullName},
		{Label: "Branch", Value: student.Branch},
		{Label: "Board / Grade", Value: fmt.Sprintf("%s / %s", student.Board, student.Grade)},
	}
	if student.GuardianName != "" {
		header = append(header, export.KeyValue{Label: "Guardian", Value: student.GuardianName})
	}

	summary := []export.KeyValue{}
	if state.Config.SubjectDiscountAmount > 0 {
		summary = append(summary, export.KeyValue{Label: "Multi-subject discount", Value: fmt.Sprintf("-%.0f", state.Config.SubjectDiscountAmount)})
	}
	if state.Config.ScholarshipApplied {
		summary = append(summary, export.KeyValue{Label: fmt.Sprintf("Scholarship (%.0f%%)", state.Config.ScholarshipPercentage), Value: fmt.Sprintf("-%.0f", state.Config.ScholarshipAmount)})
	}
	if state.Config.GSTApplied {
		summary = append(summary, export.KeyValue{Label: fmt.Sprintf("GST (%.0f%%)", state.Config.GSTPercentage), Value: fmt.Sprintf("%.0f", state.Config.GSTAmount)})
	}
	summary = append(summary, export.KeyValue{Label: "Total", Value: fmt.Sprintf("%.0f", state.Config.TotalAmount)})

	footnote := ""
	if state.Config.CustomTotalApplied {
		footnote = "Total agreed with administration; standard rate breakdown does not apply."
	}

	return export.InvoiceDocument{
		Title:    "Fee Invoice",
		Header:   header,
		Table:    installmentDataset(state.Installments),
		Summary:  summary,
		Footnote: footnote,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
