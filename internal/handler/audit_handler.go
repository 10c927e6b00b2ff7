package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edunest/tutoring-api/internal/repository"
	"github.com/edunest/tutoring-api/pkg/response"
)

// AuditHandler exposes the audit trail of fee mutations.
type AuditHandler struct {
	audits *repository.AuditRepository
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audits *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// ListForStudent godoc
// @Summary List audit entries recorded against a student's fee records
// @Tags Audit
// @Produce json
// @Param id path string true "Student ID"
// @Param resource query string false "Resource filter (fees, installments, students)"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/audit [get]
func (h *AuditHandler) ListForStudent(c *gin.Context) {
	resource := c.DefaultQuery("resource", "fees")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.audits.ListByResource(c.Request.Context(), resource, c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
