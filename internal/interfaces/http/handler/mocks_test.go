package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/erp/tempcredit/internal/interfaces/http/dto"
	"github.com/erp/tempcredit/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockSettingsService implements SettingsService for testing
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context) (*apptc.SettingsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.SettingsResponse), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, req apptc.UpdateSettingsRequest) (*apptc.SettingsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.SettingsResponse), args.Error(1)
}

// MockPolicyService implements PolicyService for testing
type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) GetCustomerPolicy(ctx context.Context, customerID uuid.UUID) (*apptc.CustomerPolicyResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.CustomerPolicyResponse), args.Error(1)
}

func (m *MockPolicyService) UpsertCustomerPolicy(ctx context.Context, customerID uuid.UUID, req apptc.UpsertCustomerPolicyRequest) (*apptc.CustomerPolicyResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.CustomerPolicyResponse), args.Error(1)
}

func (m *MockPolicyService) DeleteCustomerPolicy(ctx context.Context, customerID uuid.UUID) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockPolicyService) GetSalesmanPolicy(ctx context.Context, userID uuid.UUID) (*apptc.SalesmanPolicyResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.SalesmanPolicyResponse), args.Error(1)
}

func (m *MockPolicyService) UpsertSalesmanPolicy(ctx context.Context, userID uuid.UUID, req apptc.UpsertSalesmanPolicyRequest) (*apptc.SalesmanPolicyResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.SalesmanPolicyResponse), args.Error(1)
}

func (m *MockPolicyService) DeleteSalesmanPolicy(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockAdvisoryChecker implements AdvisoryChecker for testing
type MockAdvisoryChecker struct {
	mock.Mock
}

func (m *MockAdvisoryChecker) Check(ctx context.Context, req apptc.AdvisoryCheckRequest) apptc.AdvisoryCheckResult {
	return m.Called(ctx, req).Get(0).(apptc.AdvisoryCheckResult)
}

// MockInvoiceService implements InvoiceService for testing
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateDraft(ctx context.Context, req apptc.CreateInvoiceRequest) (*apptc.InvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*apptc.InvoiceResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) Cancel(ctx context.Context, id uuid.UUID, req apptc.CancelInvoiceRequest) (*apptc.InvoiceResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) RecordPayment(ctx context.Context, id uuid.UUID, req apptc.RecordPaymentRequest) (*apptc.InvoiceResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.InvoiceResponse), args.Error(1)
}

// MockInvoiceSubmitter implements InvoiceSubmitter for testing
type MockInvoiceSubmitter struct {
	mock.Mock
}

func (m *MockInvoiceSubmitter) Submit(ctx context.Context, invoiceID uuid.UUID) (*apptc.SubmitResult, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.SubmitResult), args.Error(1)
}

// MockCustomerService implements CustomerService for testing
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, req apptc.CreateCustomerRequest) (*apptc.CustomerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, id uuid.UUID) (*apptc.CustomerResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, id uuid.UUID, req apptc.UpdateCustomerRequest) (*apptc.CustomerResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) SetAttribute(ctx context.Context, id uuid.UUID, key string, req apptc.SetAttributeRequest) (*apptc.CustomerResponse, error) {
	args := m.Called(ctx, id, key, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.CustomerResponse), args.Error(1)
}

// MockReportService implements ReportService for testing
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) CustomerStatus(ctx context.Context, req apptc.CustomerStatusRequest) (*apptc.CustomerStatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.CustomerStatusResponse), args.Error(1)
}

func (m *MockReportService) SalesmanStatus(ctx context.Context, req apptc.SalesmanStatusRequest) (*apptc.SalesmanStatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptc.SalesmanStatusResponse), args.Error(1)
}

func (m *MockReportService) EvaluateBatch(ctx context.Context, req apptc.BatchRequest) ([]apptc.BatchRowResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apptc.BatchRowResponse), args.Error(1)
}

// doRequest sends a JSON request through router and decodes the envelope
func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	if w.Code != http.StatusNoContent && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// dataMap returns the response data as a JSON object
func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}
