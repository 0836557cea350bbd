package tempcredit

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/erp/tempcredit/internal/domain/partner"
	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockSettingsProvider is a mock implementation of SettingsProvider
type MockSettingsProvider struct {
	mock.Mock
}

func (m *MockSettingsProvider) Get(ctx context.Context) (tempcredit.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(tempcredit.Settings), args.Error(1)
}

func (m *MockSettingsProvider) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSettingsRepository is a mock implementation of tempcredit.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context) (*tempcredit.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tempcredit.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, s *tempcredit.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockCustomerPolicyRepository is a mock implementation of tempcredit.CustomerPolicyRepository
type MockCustomerPolicyRepository struct {
	mock.Mock
}

func (m *MockCustomerPolicyRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*tempcredit.CustomerPolicy, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tempcredit.CustomerPolicy), args.Error(1)
}

func (m *MockCustomerPolicyRepository) FindByCustomers(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]*tempcredit.CustomerPolicy, error) {
	args := m.Called(ctx, customerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*tempcredit.CustomerPolicy), args.Error(1)
}

func (m *MockCustomerPolicyRepository) Save(ctx context.Context, p *tempcredit.CustomerPolicy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockCustomerPolicyRepository) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

// MockSalesmanPolicyRepository is a mock implementation of tempcredit.SalesmanPolicyRepository
type MockSalesmanPolicyRepository struct {
	mock.Mock
}

func (m *MockSalesmanPolicyRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*tempcredit.SalesmanPolicy, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tempcredit.SalesmanPolicy), args.Error(1)
}

func (m *MockSalesmanPolicyRepository) FindByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*tempcredit.SalesmanPolicy, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*tempcredit.SalesmanPolicy), args.Error(1)
}

func (m *MockSalesmanPolicyRepository) Save(ctx context.Context, p *tempcredit.SalesmanPolicy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockSalesmanPolicyRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockCustomerDirectory is a mock implementation of tempcredit.CustomerDirectory
type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) GetEligibilityField(ctx context.Context, customerID uuid.UUID, fieldName string) (string, bool, error) {
	args := m.Called(ctx, customerID, fieldName)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCustomerDirectory) GetDisplayName(ctx context.Context, customerID uuid.UUID) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

// MockUsageReader is a mock implementation of tempcredit.UsageReader
type MockUsageReader struct {
	mock.Mock
}

func (m *MockUsageReader) GetOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]tempcredit.OutstandingInvoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tempcredit.OutstandingInvoice), args.Error(1)
}

func (m *MockUsageReader) GetWarehouseOutstanding(ctx context.Context, warehouse, fieldName, marker string) (decimal.Decimal, error) {
	args := m.Called(ctx, warehouse, fieldName, marker)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUsageReader) GetSalesmanOutstanding(ctx context.Context, salesmanUserID uuid.UUID, fieldName, marker string) (decimal.Decimal, error) {
	args := m.Called(ctx, salesmanUserID, fieldName, marker)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockReportSource is a mock implementation of tempcredit.ReportSource
type MockReportSource struct {
	mock.Mock
}

func (m *MockReportSource) ListReportInvoices(ctx context.Context, q tempcredit.ReportQuery) ([]tempcredit.ReportInvoice, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tempcredit.ReportInvoice), args.Error(1)
}

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockSalesInvoiceRepository is a mock implementation of trade.SalesInvoiceRepository
type MockSalesInvoiceRepository struct {
	mock.Mock
}

func (m *MockSalesInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesInvoice), args.Error(1)
}

func (m *MockSalesInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*trade.SalesInvoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesInvoice), args.Error(1)
}

func (m *MockSalesInvoiceRepository) Save(ctx context.Context, invoice *trade.SalesInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockSalesInvoiceRepository) SaveWithLock(ctx context.Context, invoice *trade.SalesInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// =============================================================================
// Fakes
// =============================================================================

// fakeGuard serializes callers with a mutex, or fails with err without running
// fn. Pool locks are recorded and pass straight through.
type fakeGuard struct {
	mu    sync.Mutex
	err   error
	calls int

	poolMu sync.Mutex
	pools  []string
}

func (g *fakeGuard) WithCustomerLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return g.err
	}
	return fn(ctx)
}

func (g *fakeGuard) WithPoolLock(ctx context.Context, pool string, fn func(ctx context.Context) error) error {
	g.poolMu.Lock()
	g.pools = append(g.pools, pool)
	g.poolMu.Unlock()
	return fn(ctx)
}

type recordedDecision struct {
	mode    string
	verdict tempcredit.Verdict
}

// fakeRecorder captures decision metrics
type fakeRecorder struct {
	mu        sync.Mutex
	decisions []recordedDecision
	invalid   []string
}

func (r *fakeRecorder) RecordDecision(mode string, d tempcredit.CreditDecision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, recordedDecision{mode: mode, verdict: d.Verdict})
}

func (r *fakeRecorder) RecordInvalidOverride(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalid = append(r.invalid, field)
}

// =============================================================================
// Fixtures
// =============================================================================

func enabledSettings() tempcredit.Settings {
	s := tempcredit.DefaultSettings()
	s.Enabled = true
	return s
}

type engineMocks struct {
	settings  *MockSettingsProvider
	customers *MockCustomerPolicyRepository
	salesmen  *MockSalesmanPolicyRepository
	directory *MockCustomerDirectory
	usage     *MockUsageReader
	recorder  *fakeRecorder
}

func newEngineMocks() *engineMocks {
	return &engineMocks{
		settings:  new(MockSettingsProvider),
		customers: new(MockCustomerPolicyRepository),
		salesmen:  new(MockSalesmanPolicyRepository),
		directory: new(MockCustomerDirectory),
		usage:     new(MockUsageReader),
		recorder:  &fakeRecorder{},
	}
}

func (m *engineMocks) evaluator() *EvaluationService {
	loader := NewSnapshotLoader(m.settings, m.customers, m.salesmen, m.directory, m.usage)
	return NewEvaluationService(loader, nil, WithDecisionRecorder(m.recorder))
}

// tempCreditCustomer stubs a temp-credit customer with the given outstanding invoices
func (m *engineMocks) tempCreditCustomer(id uuid.UUID, outstanding ...string) {
	m.directory.On("GetEligibilityField", mock.Anything, id, tempcredit.DefaultEligibilityField).
		Return(tempcredit.DefaultTempCreditValue, true, nil)
	m.directory.On("GetDisplayName", mock.Anything, id).Return("Acme Trading", nil)
	m.customers.On("FindByCustomer", mock.Anything, id).Return(nil, shared.ErrNotFound)

	invoices := make([]tempcredit.OutstandingInvoice, 0, len(outstanding))
	for _, amt := range outstanding {
		invoices = append(invoices, tempcredit.OutstandingInvoice{InvoiceID: uuid.New(), Amount: decimal.RequireFromString(amt)})
	}
	m.usage.On("GetOutstandingInvoices", mock.Anything, id).Return(invoices, nil)
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
