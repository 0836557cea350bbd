package handler

import (
	"context"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PolicyService is the policy administration the handler depends on
type PolicyService interface {
	GetCustomerPolicy(ctx context.Context, customerID uuid.UUID) (*apptc.CustomerPolicyResponse, error)
	UpsertCustomerPolicy(ctx context.Context, customerID uuid.UUID, req apptc.UpsertCustomerPolicyRequest) (*apptc.CustomerPolicyResponse, error)
	DeleteCustomerPolicy(ctx context.Context, customerID uuid.UUID) error
	GetSalesmanPolicy(ctx context.Context, userID uuid.UUID) (*apptc.SalesmanPolicyResponse, error)
	UpsertSalesmanPolicy(ctx context.Context, userID uuid.UUID, req apptc.UpsertSalesmanPolicyRequest) (*apptc.SalesmanPolicyResponse, error)
	DeleteSalesmanPolicy(ctx context.Context, userID uuid.UUID) error
}

// PolicyHandler handles customer and salesman policy endpoints
type PolicyHandler struct {
	BaseHandler
	policyService PolicyService
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(policyService PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

// GetCustomerPolicy returns the policy of a customer
// GET /temp-credit/customer-policies/:id
func (h *PolicyHandler) GetCustomerPolicy(c *gin.Context) {
	customerID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	policy, err := h.policyService.GetCustomerPolicy(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, policy)
}

// UpsertCustomerPolicy creates or replaces the policy of a customer.
// Overrides that are not numbers are rejected with ERR_INVALID_OVERRIDE.
// PUT /temp-credit/customer-policies/:id
func (h *PolicyHandler) UpsertCustomerPolicy(c *gin.Context) {
	customerID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req apptc.UpsertCustomerPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	policy, err := h.policyService.UpsertCustomerPolicy(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, policy)
}

// DeleteCustomerPolicy removes the policy of a customer
// DELETE /temp-credit/customer-policies/:id
func (h *PolicyHandler) DeleteCustomerPolicy(c *gin.Context) {
	customerID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.policyService.DeleteCustomerPolicy(c.Request.Context(), customerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetSalesmanPolicy returns the policy of a salesman
// GET /temp-credit/salesman-policies/:id
func (h *PolicyHandler) GetSalesmanPolicy(c *gin.Context) {
	userID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	policy, err := h.policyService.GetSalesmanPolicy(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, policy)
}

// UpsertSalesmanPolicy creates or replaces the policy of a salesman
// PUT /temp-credit/salesman-policies/:id
func (h *PolicyHandler) UpsertSalesmanPolicy(c *gin.Context) {
	userID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req apptc.UpsertSalesmanPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	policy, err := h.policyService.UpsertSalesmanPolicy(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, policy)
}

// DeleteSalesmanPolicy removes the policy of a salesman
// DELETE /temp-credit/salesman-policies/:id
func (h *PolicyHandler) DeleteSalesmanPolicy(c *gin.Context) {
	userID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.policyService.DeleteSalesmanPolicy(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
