package models

import (
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettingsSingletonID is the primary key of the only settings row
const SettingsSingletonID = 1

// TempCreditSettingsModel is the persistence model for the settings singleton.
type TempCreditSettingsModel struct {
	ID                       int             `gorm:"primaryKey;autoIncrement:false"`
	Enabled                  bool            `gorm:"not null;default:false"`
	DefaultCustomerLimit     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:700"`
	DefaultMaxUnpaidInvoices int             `gorm:"not null;default:3"`
	DefaultWarehouseLimit    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:35000"`
	EnableWarehouseLimit     bool            `gorm:"not null;default:false"`
	EnableSalesmanLimit      bool            `gorm:"not null;default:false"`
	DefaultSalesmanLimit     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CustomerTCFieldname      string          `gorm:"column:customer_tc_fieldname;type:varchar(100)"`
	TempCreditValue          string          `gorm:"type:varchar(140)"`
	ShowPopupOnAllow         bool            `gorm:"not null;default:false"`
	UpdatedAt                time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TempCreditSettingsModel) TableName() string {
	return "temp_credit_settings"
}

// ToDomain converts the persistence model to domain Settings.
func (m *TempCreditSettingsModel) ToDomain() *tempcredit.Settings {
	return &tempcredit.Settings{
		Enabled:                  m.Enabled,
		DefaultCustomerLimit:     m.DefaultCustomerLimit,
		DefaultMaxUnpaidInvoices: m.DefaultMaxUnpaidInvoices,
		DefaultWarehouseLimit:    m.DefaultWarehouseLimit,
		EnableWarehouseLimit:     m.EnableWarehouseLimit,
		EnableSalesmanLimit:      m.EnableSalesmanLimit,
		DefaultSalesmanLimit:     m.DefaultSalesmanLimit,
		CustomerTCFieldname:      m.CustomerTCFieldname,
		TempCreditValue:          m.TempCreditValue,
		ShowPopupOnAllow:         m.ShowPopupOnAllow,
		UpdatedAt:                m.UpdatedAt,
	}
}

// SettingsModelFromDomain creates the singleton row from domain Settings.
func SettingsModelFromDomain(s *tempcredit.Settings) *TempCreditSettingsModel {
	return &TempCreditSettingsModel{
		ID:                       SettingsSingletonID,
		Enabled:                  s.Enabled,
		DefaultCustomerLimit:     s.DefaultCustomerLimit,
		DefaultMaxUnpaidInvoices: s.DefaultMaxUnpaidInvoices,
		DefaultWarehouseLimit:    s.DefaultWarehouseLimit,
		EnableWarehouseLimit:     s.EnableWarehouseLimit,
		EnableSalesmanLimit:      s.EnableSalesmanLimit,
		DefaultSalesmanLimit:     s.DefaultSalesmanLimit,
		CustomerTCFieldname:      s.CustomerTCFieldname,
		TempCreditValue:          s.TempCreditValue,
		ShowPopupOnAllow:         s.ShowPopupOnAllow,
		UpdatedAt:                s.UpdatedAt,
	}
}

// CustomerPolicyModel is the persistence model for a customer override record.
// Overrides are kept as entered so that bad values can be reported rather
// than lost on load.
type CustomerPolicyModel struct {
	BaseModel
	CustomerID                uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_policies_customer"`
	Enabled                   bool      `gorm:"not null;default:true"`
	CreditLimitOverride       *string   `gorm:"type:text"`
	MaxUnpaidInvoicesOverride *string   `gorm:"type:text"`
	IsBlacklisted             bool      `gorm:"not null;default:false"`
	BlacklistReason           string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerPolicyModel) TableName() string {
	return "temp_credit_customer_policies"
}

// ToDomain converts the persistence model to a domain CustomerPolicy.
func (m *CustomerPolicyModel) ToDomain() *tempcredit.CustomerPolicy {
	return &tempcredit.CustomerPolicy{
		BaseEntity:                m.BaseModel.ToDomain(),
		CustomerID:                m.CustomerID,
		Enabled:                   m.Enabled,
		CreditLimitOverride:       tempcredit.ParseAmountOverride(deref(m.CreditLimitOverride)),
		MaxUnpaidInvoicesOverride: tempcredit.ParseCountOverride(deref(m.MaxUnpaidInvoicesOverride)),
		IsBlacklisted:             m.IsBlacklisted,
		BlacklistReason:           m.BlacklistReason,
	}
}

// CustomerPolicyModelFromDomain creates a persistence model from a domain CustomerPolicy.
func CustomerPolicyModelFromDomain(p *tempcredit.CustomerPolicy) *CustomerPolicyModel {
	m := &CustomerPolicyModel{
		CustomerID:      p.CustomerID,
		Enabled:         p.Enabled,
		IsBlacklisted:   p.IsBlacklisted,
		BlacklistReason: p.BlacklistReason,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	if p.CreditLimitOverride.Present() {
		m.CreditLimitOverride = ptr(p.CreditLimitOverride.Raw())
	}
	if p.MaxUnpaidInvoicesOverride.Present() {
		m.MaxUnpaidInvoicesOverride = ptr(p.MaxUnpaidInvoicesOverride.Raw())
	}
	return m
}

// SalesmanPolicyModel is the persistence model for a salesman override record.
type SalesmanPolicyModel struct {
	BaseModel
	UserID              uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_salesman_policies_user"`
	Enabled             bool      `gorm:"not null;default:true"`
	MaxOutstandingLimit *string   `gorm:"type:text"`
	IsBlocked           bool      `gorm:"not null;default:false"`
	BlockReason         string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SalesmanPolicyModel) TableName() string {
	return "temp_credit_salesman_policies"
}

// ToDomain converts the persistence model to a domain SalesmanPolicy.
func (m *SalesmanPolicyModel) ToDomain() *tempcredit.SalesmanPolicy {
	return &tempcredit.SalesmanPolicy{
		BaseEntity:          m.BaseModel.ToDomain(),
		UserID:              m.UserID,
		Enabled:             m.Enabled,
		MaxOutstandingLimit: tempcredit.ParseAmountOverride(deref(m.MaxOutstandingLimit)),
		IsBlocked:           m.IsBlocked,
		BlockReason:         m.BlockReason,
	}
}

// SalesmanPolicyModelFromDomain creates a persistence model from a domain SalesmanPolicy.
func SalesmanPolicyModelFromDomain(p *tempcredit.SalesmanPolicy) *SalesmanPolicyModel {
	m := &SalesmanPolicyModel{
		UserID:      p.UserID,
		Enabled:     p.Enabled,
		IsBlocked:   p.IsBlocked,
		BlockReason: p.BlockReason,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	if p.MaxOutstandingLimit.Present() {
		m.MaxOutstandingLimit = ptr(p.MaxOutstandingLimit.Raw())
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	return &s
}
