package handler

import (
	"errors"
	"net/http"
	"strconv"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/logger"
	"github.com/erp/tempcredit/internal/interfaces/http/dto"
	"github.com/erp/tempcredit/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockRetryAfterSeconds is advertised to clients that hit a lock timeout
const LockRetryAfterSeconds = 1

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// parseUUIDParam parses a UUID path parameter, writing a 400 when it is malformed
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// parseUUIDQuery parses an optional UUID query parameter
func (h *BaseHandler) parseUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(dto.NormalizeErrorCode(code)), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError reports a failed ShouldBind* call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError maps service errors onto HTTP responses.
//
// Rejections carry the full decision in data so callers can show limits and
// usage. Lock timeouts are transient and advertise Retry-After. Errors without
// a domain meaning are logged and reported as 500 without internals.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var exceeded *tempcredit.CreditLimitExceededError
	switch {
	case errors.Is(err, tempcredit.ErrUnexpectedFailure):
		logger.GetGinLogger(c).Error("Temp credit evaluation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeUnexpectedFailure,
			tempcredit.ErrUnexpectedFailure.Message,
			requestID,
		))
		return
	case errors.Is(err, tempcredit.ErrLockTimeout):
		c.Header("Retry-After", strconv.Itoa(LockRetryAfterSeconds))
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeLockTimeout,
			tempcredit.ErrLockTimeout.Message,
			requestID,
		))
		return
	case errors.As(err, &exceeded):
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithData(
			dto.ErrCodeTempCreditExceeded,
			exceeded.Error(),
			requestID,
			apptc.ToDecisionResponse(exceeded.Decision),
		))
		return
	}

	if domainErr, ok := shared.AsDomainError(err); ok {
		c.JSON(dto.DomainErrorStatus(domainErr.Code), dto.NewErrorResponseWithRequestID(
			domainErr.Code,
			domainErr.Message,
			requestID,
		))
		return
	}

	logger.GetGinLogger(c).Error("Unhandled request error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
