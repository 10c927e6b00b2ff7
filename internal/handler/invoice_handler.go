package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/edunest/tutoring-api/internal/models"
	"github.com/edunest/tutoring-api/internal/service"
	appErrors "github.com/edunest/tutoring-api/pkg/errors"
	"github.com/edunest/tutoring-api/pkg/response"
)

// InvoiceHandler exposes asynchronous invoice export endpoints.
type InvoiceHandler struct {
	invoices *service.InvoiceService
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type enqueueInvoiceRequest struct {
	Format models.InvoiceFormat `json:"format"`
}

// Enqueue godoc
// @Summary Queue an invoice export for a student
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body enqueueInvoiceRequest false "Export options"
// @Success 202 {object} response.Envelope
// @Router /students/{id}/invoices [post]
func (h *InvoiceHandler) Enqueue(c *gin.Context) {
	var req enqueueInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	job, err := h.invoices.Enqueue(c.Request.Context(), c.Param("id"), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Get invoice job status
// @Tags Invoices
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/jobs/{jobId} [get]
func (h *InvoiceHandler) Status(c *gin.Context) {
	job, err := h.invoices.Job(c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a rendered invoice via signed token
// @Tags Invoices
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /invoices/download/{token} [get]
func (h *InvoiceHandler) Download(c *gin.Context) {
	file, err := h.invoices.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat invoice file"))
		return
	}

	name := filepath.Base(file.Name())
	mimeType := "application/pdf"
	if filepath.Ext(name) == ".csv" {
		mimeType = "text/csv"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
