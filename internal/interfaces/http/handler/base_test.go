package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/interfaces/http/dto"
	"github.com/erp/tempcredit/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext()
	assert.Empty(t, getRequestID(c))

	c.Set(middleware.RequestIDKey, "req-1")
	assert.Equal(t, "req-1", getRequestID(c))
}

func TestBaseHandlerSuccessResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("success", func(t *testing.T) {
		c, w := newTestContext()
		h.Success(c, gin.H{"k": "v"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode(t, w).Success)
	})

	t.Run("created", func(t *testing.T) {
		c, w := newTestContext()
		h.Created(c, gin.H{"id": "1"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("no content", func(t *testing.T) {
		c, w := newTestContext()
		h.NoContent(c)
		// gin writes the header lazily for bodiless responses
		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("with meta", func(t *testing.T) {
		c, w := newTestContext()
		h.SuccessWithMeta(c, []int{1, 2}, 12, 2, 5)
		resp := decode(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(12), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	h := &BaseHandler{}
	tests := []struct {
		name   string
		call   func(c *gin.Context)
		status int
		code   string
	}{
		{"bad request", func(c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"not found", func(c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unauthorized", func(c *gin.Context) { h.Unauthorized(c, "who") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"forbidden", func(c *gin.Context) { h.Forbidden(c, "no") }, http.StatusForbidden, dto.ErrCodeForbidden},
		{"internal", func(c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"error with code", func(c *gin.Context) { h.ErrorWithCode(c, "NOT_FOUND", "gone") }, http.StatusNotFound, dto.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			c.Set(middleware.RequestIDKey, "req-err")
			tt.call(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-err", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", shared.ErrNotFound.WithMessage("Customer not found")), http.StatusNotFound, dto.ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"invalid override", shared.NewDomainError("INVALID_OVERRIDE", "bad"), http.StatusBadRequest, dto.ErrCodeInvalidOverride},
		{"unmapped invalid code", shared.NewDomainError("INVALID_COMPANY", "empty"), http.StatusBadRequest, "INVALID_COMPANY"},
		{"unmapped rule code", shared.NewDomainError("PAYMENT_EXCEEDS_OUTSTANDING", "too much"), http.StatusUnprocessableEntity, "PAYMENT_EXCEEDS_OUTSTANDING"},
		{"unexpected failure", tempcredit.NewUnexpectedFailure("load usage", errors.New("connection reset")), http.StatusInternalServerError, dto.ErrCodeUnexpectedFailure},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleError_HidesInternals(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, tempcredit.NewUnexpectedFailure("load usage", errors.New("pq: password authentication failed")))

	assert.NotContains(t, w.Body.String(), "password")
}

func TestBaseHandlerHandleError_LockTimeout(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, fmt.Errorf("submit: %w", tempcredit.ErrLockTimeout))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeLockTimeout, decode(t, w).Error.Code)
}

func TestBaseHandlerHandleError_CreditLimitExceeded(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	decision := tempcredit.CreditDecision{
		Verdict:          tempcredit.VerdictBlocked,
		Exceeded:         true,
		CustomerExceeded: true,
		Title:            tempcredit.TitleExceeded,
		BlockedReason:    "Customer credit limit exceeded",
		RemainingCredit:  decimal.Zero,
		InFlightAmount:   decimal.NewFromInt(700),
	}
	h.HandleError(c, &tempcredit.CreditLimitExceededError{Decision: decision})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeTempCreditExceeded, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, tempcredit.TitleExceeded)

	data := dataMap(t, resp)
	assert.Equal(t, "blocked", data["verdict"])
	assert.Equal(t, true, data["customer_exceeded"])
	assert.Equal(t, "700", data["in_flight_amount"])
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.False(t, c.Writer.Written())
	assert.Empty(t, w.Body.String())
}

func TestParseUUIDParam(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/x/:id", func(c *gin.Context) {
		if _, ok := h.parseUUIDParam(c, "id"); ok {
			c.Status(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/"+"7b0e4c34-1f2d-4b6a-9d7e-0a1b2c3d4e5f", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
