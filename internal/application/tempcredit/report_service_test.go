package tempcredit

import (
	"context"
	"testing"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC)

	temp := uuid.New()
	standard := uuid.New()
	salesman := uuid.New()
	marker := tempcredit.Attributes{tempcredit.DefaultEligibilityField: tempcredit.DefaultTempCreditValue}
	invoices := []tempcredit.ReportInvoice{
		{
			InvoiceID: uuid.New(), InvoiceNo: "SINV-1", PostingDate: now.AddDate(0, 0, -3),
			CustomerID: temp, CustomerName: "Temp Co", CustomerAttributes: marker,
			SalesmanUserID: salesman, SalesmanName: "Sara",
			GrandTotal: decimal.NewFromInt(500), OutstandingAmount: decimal.NewFromInt(500),
		},
		{
			InvoiceID: uuid.New(), InvoiceNo: "SINV-2", PostingDate: now.AddDate(0, 0, -1),
			CustomerID: temp, CustomerName: "Temp Co", CustomerAttributes: marker,
			SalesmanUserID: salesman, SalesmanName: "Sara",
			GrandTotal: decimal.NewFromInt(300), OutstandingAmount: decimal.NewFromInt(300),
		},
		{
			InvoiceID: uuid.New(), InvoiceNo: "SINV-3", PostingDate: now.AddDate(0, 0, -2),
			CustomerID: standard, CustomerName: "Standard Co", StandardCreditLimit: decimal.NewFromInt(5000),
			GrandTotal: decimal.NewFromInt(100), OutstandingAmount: decimal.NewFromInt(100),
		},
	}

	newService := func() (*ReportService, *MockReportSource) {
		settings := new(MockSettingsProvider)
		settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
		source := new(MockReportSource)
		cps := new(MockCustomerPolicyRepository)
		cps.On("FindByCustomers", mock.Anything, mock.Anything).Return(map[uuid.UUID]*tempcredit.CustomerPolicy{}, nil)
		sps := new(MockSalesmanPolicyRepository)
		sps.On("FindByUsers", mock.Anything, mock.Anything).Return(map[uuid.UUID]*tempcredit.SalesmanPolicy{}, nil)
		svc := NewReportService(settings, source, cps, sps, nil)
		svc.now = func() time.Time { return now }
		return svc, source
	}

	t.Run("customer status applies the duration window", func(t *testing.T) {
		svc, source := newService()
		since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		source.On("ListReportInvoices", mock.Anything, mock.MatchedBy(func(q tempcredit.ReportQuery) bool {
			return q.Since != nil && q.Since.Equal(since) && q.Company == "Acme KSA"
		})).Return(invoices, nil)

		resp, err := svc.CustomerStatus(ctx, CustomerStatusRequest{Company: "Acme KSA"})

		require.NoError(t, err)
		require.Len(t, resp.Rows, 3)
		assert.Equal(t, "SINV-2", resp.Rows[0].InvoiceNo)
		assert.True(t, resp.Rows[0].OverLimit)
		assert.Equal(t, string(tempcredit.CreditTypeTemp), resp.Rows[0].CreditType)
		assert.Equal(t, 2, resp.Summary.Count)
	})

	t.Run("customer status filters over-limit temp rows", func(t *testing.T) {
		svc, source := newService()
		source.On("ListReportInvoices", mock.Anything, mock.Anything).Return(invoices, nil)

		resp, err := svc.CustomerStatus(ctx, CustomerStatusRequest{
			Duration:      string(tempcredit.DurationAll),
			CreditType:    string(tempcredit.CreditTypeTemp),
			OverLimitOnly: true,
		})

		require.NoError(t, err)
		assert.Len(t, resp.Rows, 2)
		require.NotEmpty(t, resp.Chart)
		assert.Equal(t, "Temp Co", resp.Chart[0].Label)
	})

	t.Run("rejects unknown durations", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.CustomerStatus(ctx, CustomerStatusRequest{Duration: "Last Year"})

		assert.Error(t, err)
	})

	t.Run("salesman status groups temp credit exposure", func(t *testing.T) {
		svc, source := newService()
		source.On("ListReportInvoices", mock.Anything, mock.Anything).Return(invoices, nil)

		resp, err := svc.SalesmanStatus(ctx, SalesmanStatusRequest{})

		require.NoError(t, err)
		require.Len(t, resp.Rows, 1)
		assert.Equal(t, "Sara", resp.Rows[0].SalesmanName)
		assert.True(t, resp.Rows[0].UsedCredit.Equal(decimal.NewFromInt(800)))
		assert.Equal(t, 1, resp.Rows[0].TempCustomers)
	})

	t.Run("batch evaluation groups by customer", func(t *testing.T) {
		svc, source := newService()
		source.On("ListReportInvoices", mock.Anything, mock.Anything).Return(invoices, nil)

		rows, err := svc.EvaluateBatch(ctx, BatchRequest{GroupBy: GroupByCustomer})

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, temp, rows[0].ID)
		assert.True(t, rows[0].OverLimit)
	})
}
