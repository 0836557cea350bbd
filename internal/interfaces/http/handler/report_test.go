package handler

import (
	"net/http"
	"testing"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupReportTestRouter() (*gin.Engine, *MockReportService) {
	svc := new(MockReportService)
	h := NewReportHandler(svc)

	router := gin.New()
	router.GET("/reports/customer-status", h.CustomerStatus)
	router.GET("/reports/salesman-status", h.SalesmanStatus)
	router.GET("/reports/batch", h.Batch)
	return router, svc
}

func TestReportHandler_CustomerStatus(t *testing.T) {
	customerID := uuid.New()

	t.Run("binds filters", func(t *testing.T) {
		router, svc := setupReportTestRouter()
		svc.On("CustomerStatus", mock.Anything, mock.MatchedBy(func(req apptc.CustomerStatusRequest) bool {
			return req.Company == "Acme" &&
				req.Duration == "Last 60 Days" &&
				req.CreditType == "Temp Credit" &&
				req.OverLimitOnly &&
				req.CustomerID != nil && *req.CustomerID == customerID &&
				req.SalesmanUserID == nil
		})).Return(&apptc.CustomerStatusResponse{
			Rows:    []apptc.CustomerStatusRowResponse{},
			Chart:   []apptc.ChartPointResponse{},
			Summary: apptc.SummaryResponse{TotalUsed: decimal.NewFromInt(900), Count: 2},
		}, nil)

		w, resp := doRequest(t, router, http.MethodGet,
			"/reports/customer-status?company=Acme&duration=Last+60+Days&credit_type=Temp+Credit&over_limit_only=true&customer_id="+customerID.String(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		summary := dataMap(t, resp)["summary"].(map[string]any)
		assert.Equal(t, "900", summary["total_used"])
		svc.AssertExpectations(t)
	})

	t.Run("invalid customer id", func(t *testing.T) {
		router, svc := setupReportTestRouter()

		w, _ := doRequest(t, router, http.MethodGet, "/reports/customer-status?customer_id=xyz", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CustomerStatus", mock.Anything, mock.Anything)
	})

	t.Run("invalid credit type", func(t *testing.T) {
		router, _ := setupReportTestRouter()

		w, resp := doRequest(t, router, http.MethodGet, "/reports/customer-status?credit_type=Cash", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("unknown duration", func(t *testing.T) {
		router, svc := setupReportTestRouter()
		svc.On("CustomerStatus", mock.Anything, mock.Anything).
			Return(nil, shared.ErrInvalidInput.WithMessage("unknown duration: Forever"))

		w, resp := doRequest(t, router, http.MethodGet, "/reports/customer-status?duration=Forever", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	})
}

func TestReportHandler_SalesmanStatus(t *testing.T) {
	router, svc := setupReportTestRouter()
	salesmanID := uuid.New()
	svc.On("SalesmanStatus", mock.Anything, mock.MatchedBy(func(req apptc.SalesmanStatusRequest) bool {
		return req.SalesmanUserID != nil && *req.SalesmanUserID == salesmanID && req.BlockedOnly
	})).Return(&apptc.SalesmanStatusResponse{Rows: []apptc.SalesmanStatusRowResponse{}}, nil)

	w, _ := doRequest(t, router, http.MethodGet,
		"/reports/salesman-status?blocked_only=true&salesman_user_id="+salesmanID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestReportHandler_Batch(t *testing.T) {
	t.Run("groups by salesman", func(t *testing.T) {
		router, svc := setupReportTestRouter()
		svc.On("EvaluateBatch", mock.Anything, apptc.BatchRequest{GroupBy: apptc.GroupBySalesman}).
			Return([]apptc.BatchRowResponse{{Label: "Sam", OverLimit: true}}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/reports/batch?group_by=salesman", nil)

		require.Equal(t, http.StatusOK, w.Code)
		rows := resp.Data.([]any)
		require.Len(t, rows, 1)
		assert.Equal(t, "Sam", rows[0].(map[string]any)["label"])
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("pages rows", func(t *testing.T) {
		router, svc := setupReportTestRouter()
		svc.On("EvaluateBatch", mock.Anything, apptc.BatchRequest{}).
			Return([]apptc.BatchRowResponse{{Label: "A"}, {Label: "B"}, {Label: "C"}}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/reports/batch?page=2&page_size=2", nil)

		require.Equal(t, http.StatusOK, w.Code)
		rows := resp.Data.([]any)
		require.Len(t, rows, 1)
		assert.Equal(t, "C", rows[0].(map[string]any)["label"])
		assert.Equal(t, 2, resp.Meta.TotalPages)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		router, svc := setupReportTestRouter()
		svc.On("EvaluateBatch", mock.Anything, apptc.BatchRequest{}).
			Return([]apptc.BatchRowResponse{{Label: "A"}}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/reports/batch?page=3&page_size=10", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, resp.Data)
	})

	t.Run("rejects unknown grouping", func(t *testing.T) {
		router, svc := setupReportTestRouter()

		w, _ := doRequest(t, router, http.MethodGet, "/reports/batch?group_by=warehouse", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "EvaluateBatch", mock.Anything, mock.Anything)
	})
}
