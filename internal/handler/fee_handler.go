package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edunest/tutoring-api/internal/service"
	appErrors "github.com/edunest/tutoring-api/pkg/errors"
	"github.com/edunest/tutoring-api/pkg/response"
)

// FeeHandler exposes fee computation and installment endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// Preview godoc
// @Summary Preview a fee breakdown without saving
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.FeeUpdateRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees/preview [post]
func (h *FeeHandler) Preview(c *gin.Context) {
	var req service.FeeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	breakdown, err := h.fees.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, breakdown, nil)
}

// Update godoc
// @Summary Recompute and save the fee state
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.FeeUpdateRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees [put]
func (h *FeeHandler) Update(c *gin.Context) {
	var req service.FeeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := h.fees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// GetState godoc
// @Summary Get the saved fee state
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees [get]
func (h *FeeHandler) GetState(c *gin.Context) {
	state, err := h.fees.GetState(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// RecordPayment godoc
// @Summary Record a payment against one installment
// @Tags Installments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param seq path int true "Installment sequence"
// @Param payload body service.PaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/installments/{seq}/payment [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid installment sequence"))
		return
	}
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	installment, err := h.fees.RecordPayment(c.Request.Context(), c.Param("id"), seq, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, installment, nil)
}

// AddInstallment godoc
// @Summary Append an installment slot and redistribute the unpaid balance
// @Tags Installments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/installments [post]
func (h *FeeHandler) AddInstallment(c *gin.Context) {
	plan, err := h.fees.AddInstallment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// DeleteInstallment godoc
// @Summary Remove an unpaid installment slot and redistribute its amount
// @Tags Installments
// @Produce json
// @Param id path string true "Student ID"
// @Param seq path int true "Installment sequence"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/installments/{seq} [delete]
func (h *FeeHandler) DeleteInstallment(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid installment sequence"))
		return
	}
	plan, err := h.fees.DeleteInstallment(c.Request.Context(), c.Param("id"), seq)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}
