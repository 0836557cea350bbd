package tempcredit

import (
	"context"
	"errors"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettingsProvider serves the settings snapshot, typically from a cache.
// Invalidate must be called after every settings write.
type SettingsProvider interface {
	Get(ctx context.Context) (tempcredit.Settings, error)
	Invalidate(ctx context.Context) error
}

// SnapshotLoader fetches the read-only inputs of an evaluation. It holds no
// decision logic.
type SnapshotLoader struct {
	settings  SettingsProvider
	customers tempcredit.CustomerPolicyRepository
	salesmen  tempcredit.SalesmanPolicyRepository
	directory tempcredit.CustomerDirectory
	usage     tempcredit.UsageReader
}

// NewSnapshotLoader creates a new SnapshotLoader
func NewSnapshotLoader(
	settings SettingsProvider,
	customers tempcredit.CustomerPolicyRepository,
	salesmen tempcredit.SalesmanPolicyRepository,
	directory tempcredit.CustomerDirectory,
	usage tempcredit.UsageReader,
) *SnapshotLoader {
	return &SnapshotLoader{
		settings:  settings,
		customers: customers,
		salesmen:  salesmen,
		directory: directory,
		usage:     usage,
	}
}

// Settings returns the current settings
func (l *SnapshotLoader) Settings(ctx context.Context) (tempcredit.Settings, error) {
	return l.settings.Get(ctx)
}

// IsTempCreditCustomer reads the configured eligibility attribute of the customer
func (l *SnapshotLoader) IsTempCreditCustomer(ctx context.Context, s tempcredit.Settings, customerID uuid.UUID) (bool, error) {
	value, ok, err := l.directory.GetEligibilityField(ctx, customerID, s.EligibilityField())
	if err != nil {
		return false, err
	}
	return ok && tempcredit.MatchesTempCredit(s, value), nil
}

// CustomerPolicy returns the customer's policy, or nil when none exists
func (l *SnapshotLoader) CustomerPolicy(ctx context.Context, customerID uuid.UUID) (*tempcredit.CustomerPolicy, error) {
	p, err := l.customers.FindByCustomer(ctx, customerID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// SalesmanPolicy returns the user's policy, tempcredit.UnconfiguredSalesman when
// none is stored, or nil when no user is given
func (l *SnapshotLoader) SalesmanPolicy(ctx context.Context, userID *uuid.UUID) (*tempcredit.SalesmanPolicy, error) {
	if userID == nil || *userID == uuid.Nil {
		return nil, nil
	}
	p, err := l.salesmen.FindByUser(ctx, *userID)
	if errors.Is(err, shared.ErrNotFound) {
		return tempcredit.UnconfiguredSalesman(*userID), nil
	}
	return p, err
}

// Usage aggregates the customer's currently outstanding invoices. Drafts are
// never part of the result.
func (l *SnapshotLoader) Usage(ctx context.Context, customerID uuid.UUID) (tempcredit.InvoiceUsage, error) {
	invoices, err := l.usage.GetOutstandingInvoices(ctx, customerID)
	if err != nil {
		return tempcredit.InvoiceUsage{}, err
	}
	return tempcredit.AggregateUsage(invoices), nil
}

// WarehouseTotal returns the temp-credit outstanding of a warehouse
func (l *SnapshotLoader) WarehouseTotal(ctx context.Context, s tempcredit.Settings, warehouse string) (decimal.Decimal, error) {
	return l.usage.GetWarehouseOutstanding(ctx, warehouse, s.EligibilityField(), s.EligibilityValue())
}

// SalesmanTotal returns the temp-credit outstanding of a salesman across their customers
func (l *SnapshotLoader) SalesmanTotal(ctx context.Context, s tempcredit.Settings, userID uuid.UUID) (decimal.Decimal, error) {
	return l.usage.GetSalesmanOutstanding(ctx, userID, s.EligibilityField(), s.EligibilityValue())
}

// CustomerName returns the display name used in decision messages
func (l *SnapshotLoader) CustomerName(ctx context.Context, customerID uuid.UUID) (string, error) {
	return l.directory.GetDisplayName(ctx, customerID)
}
