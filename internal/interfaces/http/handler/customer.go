package handler

import (
	"context"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerService is the customer directory the handler depends on
type CustomerService interface {
	Create(ctx context.Context, req apptc.CreateCustomerRequest) (*apptc.CustomerResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*apptc.CustomerResponse, error)
	Update(ctx context.Context, id uuid.UUID, req apptc.UpdateCustomerRequest) (*apptc.CustomerResponse, error)
	SetAttribute(ctx context.Context, id uuid.UUID, key string, req apptc.SetAttributeRequest) (*apptc.CustomerResponse, error)
}

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	customerService CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create creates a customer
// POST /temp-credit/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req apptc.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// GetByID returns a customer
// GET /temp-credit/customers/:id
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Update updates a customer
// PUT /temp-credit/customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req apptc.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// SetAttribute sets one customer attribute, e.g. the eligibility field
// PUT /temp-credit/customers/:id/attributes/:key
func (h *CustomerHandler) SetAttribute(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	key := c.Param("key")
	if key == "" {
		h.BadRequest(c, "Attribute key is required")
		return
	}

	var req apptc.SetAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customerService.SetAttribute(c.Request.Context(), id, key, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}
