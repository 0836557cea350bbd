package tempcredit

import (
	"strings"
	"time"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Hard fallbacks used when settings are absent or carry non-positive values.
const (
	FallbackCustomerLimit     = 700
	FallbackMaxUnpaidInvoices = 3
	FallbackWarehouseLimit    = 35000

	DefaultEligibilityField = "custom_payment_type"
	DefaultTempCreditValue  = "Temp Credit"
)

// Settings is the singleton temp-credit configuration edited by administrators.
// The engine treats it as a read-only snapshot passed explicitly into every call.
type Settings struct {
	Enabled                  bool
	DefaultCustomerLimit     decimal.Decimal
	DefaultMaxUnpaidInvoices int
	DefaultWarehouseLimit    decimal.Decimal
	EnableWarehouseLimit     bool
	EnableSalesmanLimit      bool
	DefaultSalesmanLimit     decimal.Decimal
	CustomerTCFieldname      string
	TempCreditValue          string
	ShowPopupOnAllow         bool
	UpdatedAt                time.Time
}

// DefaultSettings returns the settings used before an administrator saves any.
// The feature starts switched off.
func DefaultSettings() Settings {
	return Settings{
		Enabled:                  false,
		DefaultCustomerLimit:     decimal.NewFromInt(FallbackCustomerLimit),
		DefaultMaxUnpaidInvoices: FallbackMaxUnpaidInvoices,
		DefaultWarehouseLimit:    decimal.NewFromInt(FallbackWarehouseLimit),
		CustomerTCFieldname:      DefaultEligibilityField,
		TempCreditValue:          DefaultTempCreditValue,
	}
}

// EligibilityField returns the customer attribute that flags temp-credit customers
func (s Settings) EligibilityField() string {
	if f := strings.TrimSpace(s.CustomerTCFieldname); f != "" {
		return f
	}
	return DefaultEligibilityField
}

// EligibilityValue returns the attribute value that marks a customer as on temp credit
func (s Settings) EligibilityValue() string {
	if v := strings.TrimSpace(s.TempCreditValue); v != "" {
		return v
	}
	return DefaultTempCreditValue
}

// WarehouseLimit returns the pool limit per warehouse
func (s Settings) WarehouseLimit() decimal.Decimal {
	if s.DefaultWarehouseLimit.IsPositive() {
		return s.DefaultWarehouseLimit
	}
	return decimal.NewFromInt(FallbackWarehouseLimit)
}

// Validate checks administrator input before it is saved
func (s *Settings) Validate() error {
	if s.DefaultCustomerLimit.IsNegative() {
		return shared.NewDomainError("INVALID_SETTINGS", "Default customer limit cannot be negative")
	}
	if s.DefaultMaxUnpaidInvoices < 0 {
		return shared.NewDomainError("INVALID_SETTINGS", "Default max unpaid invoices cannot be negative")
	}
	if s.DefaultWarehouseLimit.IsNegative() {
		return shared.NewDomainError("INVALID_SETTINGS", "Default warehouse limit cannot be negative")
	}
	if s.DefaultSalesmanLimit.IsNegative() {
		return shared.NewDomainError("INVALID_SETTINGS", "Default salesman limit cannot be negative")
	}
	if len(s.CustomerTCFieldname) > 100 {
		return shared.NewDomainError("INVALID_SETTINGS", "Customer field name cannot exceed 100 characters")
	}
	return nil
}
