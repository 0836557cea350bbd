package handler

import (
	"context"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/gin-gonic/gin"
)

// SettingsService is the settings administration the handler depends on
type SettingsService interface {
	Get(ctx context.Context) (*apptc.SettingsResponse, error)
	Update(ctx context.Context, req apptc.UpdateSettingsRequest) (*apptc.SettingsResponse, error)
}

// SettingsHandler handles the temp credit settings endpoints
type SettingsHandler struct {
	BaseHandler
	settingsService SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Get returns the current settings
// GET /temp-credit/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// Update applies a partial settings update
// PUT /temp-credit/settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req apptc.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}
