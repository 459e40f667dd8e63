package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/export"
	"github.com/noah-isme/sfp-api/pkg/response"
)

type paymentService interface {
	Initiate(ctx context.Context, parentID string, req models.InitiatePaymentRequest) (*models.Payment, error)
	Receipt(ctx context.Context, parentID, paymentID string) (*models.Receipt, error)
	AllReceipts(ctx context.Context, parentID string) ([]models.Receipt, error)
}

type receiptSummarizer interface {
	SummarizeReceipts(ctx context.Context, parentID, prompt string) (*models.ReceiptSummaryResponse, error)
}

// PaymentHandler serves payment initiation and receipt endpoints.
type PaymentHandler struct {
	service    paymentService
	summarizer receiptSummarizer
	pdf        *export.ReceiptPDF
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(service paymentService, summarizer receiptSummarizer, pdf *export.ReceiptPDF) *PaymentHandler {
	return &PaymentHandler{service: service, summarizer: summarizer, pdf: pdf}
}

// Initiate godoc
// @Summary Initiate a payment
// @Description Charge a fee category for an owned student and record the outcome
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.InitiatePaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/initiate [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}

	payment, err := h.service.Initiate(c.Request.Context(), claims.ParentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, payment)
}

// Receipt godoc
// @Summary Payment receipt
// @Description Receipt for a successful payment owned by the caller
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/receipt/{id} [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	receipt, err := h.service.Receipt(c.Request.Context(), claims.ParentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, receipt, nil)
}

// ReceiptPDF godoc
// @Summary Download receipt PDF
// @Description Render the receipt for a successful payment as a PDF document
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /payments/receipt/{id}/pdf [get]
func (h *PaymentHandler) ReceiptPDF(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	receipt, err := h.service.Receipt(c.Request.Context(), claims.ParentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.pdf.Render(*receipt)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", receipt.ReceiptID))
	c.Data(http.StatusOK, "application/pdf", data)
}

// AllReceipts godoc
// @Summary List receipts
// @Description Receipts of every successful payment by the caller
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /payments/all-receipts [get]
func (h *PaymentHandler) AllReceipts(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	receipts, err := h.service.AllReceipts(c.Request.Context(), claims.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, receipts, nil, map[string]interface{}{"total_count": len(receipts)})
}

// SummarizeReceipts godoc
// @Summary Summarize receipts
// @Description Analyze the caller's receipts against a free-form prompt
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.SummarizeReceiptsRequest true "Summarize payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /payments/summarize-receipts [post]
func (h *PaymentHandler) SummarizeReceipts(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SummarizeReceiptsRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "prompt is required"))
		return
	}

	res, err := h.summarizer.SummarizeReceipts(c.Request.Context(), claims.ParentID, req.Prompt)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
