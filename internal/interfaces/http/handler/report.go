package handler

import (
	"context"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/erp/tempcredit/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReportService builds the temp credit reports
type ReportService interface {
	CustomerStatus(ctx context.Context, req apptc.CustomerStatusRequest) (*apptc.CustomerStatusResponse, error)
	SalesmanStatus(ctx context.Context, req apptc.SalesmanStatusRequest) (*apptc.SalesmanStatusResponse, error)
	EvaluateBatch(ctx context.Context, req apptc.BatchRequest) ([]apptc.BatchRowResponse, error)
}

// ReportHandler handles the temp credit report endpoints
type ReportHandler struct {
	BaseHandler
	reportService ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// CustomerStatus returns the invoice-wise customer status report
// GET /temp-credit/reports/customer-status
func (h *ReportHandler) CustomerStatus(c *gin.Context) {
	var req apptc.CustomerStatusRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	var ok bool
	if req.CustomerID, ok = h.parseUUIDQuery(c, "customer_id"); !ok {
		return
	}
	if req.SalesmanUserID, ok = h.parseUUIDQuery(c, "salesman_user_id"); !ok {
		return
	}

	report, err := h.reportService.CustomerStatus(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// SalesmanStatus returns the salesman exposure report
// GET /temp-credit/reports/salesman-status
func (h *ReportHandler) SalesmanStatus(c *gin.Context) {
	var req apptc.SalesmanStatusRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	var ok bool
	if req.SalesmanUserID, ok = h.parseUUIDQuery(c, "salesman_user_id"); !ok {
		return
	}

	report, err := h.reportService.SalesmanStatus(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Batch evaluates a window of invoices grouped by customer or salesman.
// Rows are paged with page and page_size.
// GET /temp-credit/reports/batch
func (h *ReportHandler) Batch(c *gin.Context) {
	var req apptc.BatchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&page); err != nil {
		h.BindError(c, err)
		return
	}

	rows, err := h.reportService.EvaluateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page.Page = max(page.Page, 1)
	if page.PageSize < 1 {
		page.PageSize = dto.DefaultListRequest().PageSize
	}
	total := len(rows)
	start := min((page.Page-1)*page.PageSize, total)
	end := min(start+page.PageSize, total)
	h.SuccessWithMeta(c, rows[start:end], int64(total), page.Page, page.PageSize)
}
