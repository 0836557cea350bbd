package tempcredit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettingsRepository stores the singleton settings
type SettingsRepository interface {
	// Get returns the saved settings, or shared.ErrNotFound if none were saved yet
	Get(ctx context.Context) (*Settings, error)

	// Save upserts the singleton
	Save(ctx context.Context, s *Settings) error
}

// CustomerPolicyRepository stores per-customer overrides
type CustomerPolicyRepository interface {
	// FindByCustomer returns the policy of a customer, or shared.ErrNotFound
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerPolicy, error)

	// FindByCustomers returns the policies that exist for the given customers
	FindByCustomers(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]*CustomerPolicy, error)

	Save(ctx context.Context, p *CustomerPolicy) error
	DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error
}

// SalesmanPolicyRepository stores per-salesman overrides
type SalesmanPolicyRepository interface {
	// FindByUser returns the policy of a user, or shared.ErrNotFound
	FindByUser(ctx context.Context, userID uuid.UUID) (*SalesmanPolicy, error)

	// FindByUsers returns the policies that exist for the given users
	FindByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*SalesmanPolicy, error)

	Save(ctx context.Context, p *SalesmanPolicy) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// CustomerDirectory reads the customer attributes the engine needs
type CustomerDirectory interface {
	// GetEligibilityField returns the named attribute of the customer. ok is
	// false when the attribute is not set. Unknown customers yield shared.ErrNotFound.
	GetEligibilityField(ctx context.Context, customerID uuid.UUID, fieldName string) (value string, ok bool, err error)

	// GetDisplayName returns the customer's name for messages
	GetDisplayName(ctx context.Context, customerID uuid.UUID) (string, error)
}

// UsageReader reads outstanding balances from the invoice store
type UsageReader interface {
	// GetOutstandingInvoices returns the submitted, non-return invoices of the
	// customer with a positive outstanding amount. Drafts are never included.
	GetOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]OutstandingInvoice, error)

	// GetWarehouseOutstanding sums the outstanding amounts of submitted, non-return
	// invoices that reference the warehouse and belong to customers whose
	// eligibility attribute equals marker.
	GetWarehouseOutstanding(ctx context.Context, warehouse, fieldName, marker string) (decimal.Decimal, error)

	// GetSalesmanOutstanding sums the outstanding amounts of submitted, non-return
	// invoices of the salesman across all customers whose eligibility attribute
	// equals marker.
	GetSalesmanOutstanding(ctx context.Context, salesmanUserID uuid.UUID, fieldName, marker string) (decimal.Decimal, error)
}

// ReportQuery selects invoices for the status reports
type ReportQuery struct {
	Company        string
	Since          *time.Time
	CustomerGroup  string
	Territory      string
	CustomerID     *uuid.UUID
	SalesmanUserID *uuid.UUID
}

// ReportSource lists report rows from the invoice store. Rows are submitted,
// non-return invoices with a positive outstanding amount.
type ReportSource interface {
	ListReportInvoices(ctx context.Context, q ReportQuery) ([]ReportInvoice, error)
}
