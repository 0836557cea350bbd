package handler

import (
	"context"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceService is the invoice lifecycle the handler depends on
type InvoiceService interface {
	CreateDraft(ctx context.Context, req apptc.CreateInvoiceRequest) (*apptc.InvoiceResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*apptc.InvoiceResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, req apptc.CancelInvoiceRequest) (*apptc.InvoiceResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req apptc.RecordPaymentRequest) (*apptc.InvoiceResponse, error)
}

// InvoiceSubmitter finalizes draft invoices under the temp credit gate
type InvoiceSubmitter interface {
	Submit(ctx context.Context, invoiceID uuid.UUID) (*apptc.SubmitResult, error)
}

// SalesInvoiceHandler handles sales invoice endpoints
type SalesInvoiceHandler struct {
	BaseHandler
	invoiceService InvoiceService
	submitter      InvoiceSubmitter
}

// NewSalesInvoiceHandler creates a new SalesInvoiceHandler
func NewSalesInvoiceHandler(invoiceService InvoiceService, submitter InvoiceSubmitter) *SalesInvoiceHandler {
	return &SalesInvoiceHandler{
		invoiceService: invoiceService,
		submitter:      submitter,
	}
}

// Create creates a draft invoice
// POST /temp-credit/sales-invoices
func (h *SalesInvoiceHandler) Create(c *gin.Context) {
	var req apptc.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateDraft(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID returns an invoice
// GET /temp-credit/sales-invoices/:id
func (h *SalesInvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Submit finalizes a draft invoice. A policy rejection answers 422 with the
// decision in data; a lock timeout answers 503 with Retry-After.
// POST /temp-credit/sales-invoices/:id/submit
func (h *SalesInvoiceHandler) Submit(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, apptc.SubmitInvoiceResponse{
		Invoice:  apptc.ToInvoiceResponse(result.Invoice),
		Decision: apptc.ToDecisionResponse(result.Decision),
	})
}

// Cancel cancels a submitted invoice, releasing its outstanding amount
// POST /temp-credit/sales-invoices/:id/cancel
func (h *SalesInvoiceHandler) Cancel(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req apptc.CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RecordPayment reduces the outstanding amount of a submitted invoice
// POST /temp-credit/sales-invoices/:id/payments
func (h *SalesInvoiceHandler) RecordPayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req apptc.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}
