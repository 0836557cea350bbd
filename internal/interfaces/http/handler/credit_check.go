package handler

import (
	"context"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/gin-gonic/gin"
)

// AdvisoryChecker runs editor-side credit checks
type AdvisoryChecker interface {
	Check(ctx context.Context, req apptc.AdvisoryCheckRequest) apptc.AdvisoryCheckResult
}

// CreditCheckHandler serves advisory checks for invoice editors
type CreditCheckHandler struct {
	BaseHandler
	checker AdvisoryChecker
}

// NewCreditCheckHandler creates a new CreditCheckHandler
func NewCreditCheckHandler(checker AdvisoryChecker) *CreditCheckHandler {
	return &CreditCheckHandler{checker: checker}
}

// Check evaluates a prospective invoice. It always answers 200: evaluation
// faults come back as an "unavailable" decision, and results for a stale
// sequence number come back with superseded set.
// POST /temp-credit/check
func (h *CreditCheckHandler) Check(c *gin.Context) {
	var req apptc.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result := h.checker.Check(c.Request.Context(), req.ToAdvisoryCheck())
	h.Success(c, apptc.ToCheckResponse(result))
}
