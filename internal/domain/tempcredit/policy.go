package tempcredit

import (
	"strings"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	DefaultBlacklistReason = "Customer is blacklisted for Temp Credit."
	DefaultSalesmanBlock   = "Salesman blocked for Temp Credit."
)

// CustomerPolicy is the optional per-customer override record.
// Absence means no override and no blacklist.
type CustomerPolicy struct {
	shared.BaseEntity
	CustomerID                uuid.UUID
	Enabled                   bool
	CreditLimitOverride       AmountOverride
	MaxUnpaidInvoicesOverride CountOverride
	IsBlacklisted             bool
	BlacklistReason           string
}

// NewCustomerPolicy creates an enabled policy with no overrides
func NewCustomerPolicy(customerID uuid.UUID) (*CustomerPolicy, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	return &CustomerPolicy{
		BaseEntity: shared.NewBaseEntity(),
		CustomerID: customerID,
		Enabled:    true,
	}, nil
}

// SetOverrides replaces both limit overrides. Invalid values are rejected here;
// records written by other means are still tolerated at resolution time.
func (p *CustomerPolicy) SetOverrides(credit AmountOverride, invoices CountOverride) error {
	if credit.Present() && !credit.Valid() {
		return shared.NewDomainError("INVALID_OVERRIDE", "Credit limit override must be a non-negative amount")
	}
	if invoices.Present() && !invoices.Valid() {
		return shared.NewDomainError("INVALID_OVERRIDE", "Max unpaid invoices override must be a non-negative integer")
	}
	p.CreditLimitOverride = credit
	p.MaxUnpaidInvoicesOverride = invoices
	p.Touch()
	return nil
}

// SetEnabled toggles whether temp-credit rules apply to the customer at all
func (p *CustomerPolicy) SetEnabled(enabled bool) {
	p.Enabled = enabled
	p.Touch()
}

// Blacklist blocks the customer unconditionally
func (p *CustomerPolicy) Blacklist(reason string) {
	p.IsBlacklisted = true
	p.BlacklistReason = strings.TrimSpace(reason)
	p.Touch()
}

// ClearBlacklist lifts the blacklist
func (p *CustomerPolicy) ClearBlacklist() {
	p.IsBlacklisted = false
	p.BlacklistReason = ""
	p.Touch()
}

// EffectiveBlacklistReason returns the stored reason or the default text
func (p *CustomerPolicy) EffectiveBlacklistReason() string {
	if r := strings.TrimSpace(p.BlacklistReason); r != "" {
		return r
	}
	return DefaultBlacklistReason
}

// Warnings lists advisory data-quality issues that do not block saving
func (p *CustomerPolicy) Warnings() []string {
	var w []string
	if p.IsBlacklisted && strings.TrimSpace(p.BlacklistReason) == "" {
		w = append(w, "blacklist_reason is empty")
	}
	return w
}

// SalesmanPolicy is the optional per-user override record scoped to the
// salesman responsible for an invoice.
type SalesmanPolicy struct {
	shared.BaseEntity
	UserID              uuid.UUID
	Enabled             bool
	MaxOutstandingLimit AmountOverride
	IsBlocked           bool
	BlockReason         string
}

// NewSalesmanPolicy creates an enabled policy with no limit
func NewSalesmanPolicy(userID uuid.UUID) (*SalesmanPolicy, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return &SalesmanPolicy{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Enabled:    true,
	}, nil
}

// SetLimit replaces the outstanding limit
func (p *SalesmanPolicy) SetLimit(limit AmountOverride) error {
	if limit.Present() && !limit.Valid() {
		return shared.NewDomainError("INVALID_OVERRIDE", "Max outstanding limit must be a non-negative amount")
	}
	p.MaxOutstandingLimit = limit
	p.Touch()
	return nil
}

// SetEnabled toggles whether the policy is consulted
func (p *SalesmanPolicy) SetEnabled(enabled bool) {
	p.Enabled = enabled
	p.Touch()
}

// Block stops the salesman from placing temp-credit invoices
func (p *SalesmanPolicy) Block(reason string) {
	p.IsBlocked = true
	p.BlockReason = strings.TrimSpace(reason)
	p.Touch()
}

// Unblock lifts the block
func (p *SalesmanPolicy) Unblock() {
	p.IsBlocked = false
	p.BlockReason = ""
	p.Touch()
}

// EffectiveBlockReason returns the stored reason or the default text
func (p *SalesmanPolicy) EffectiveBlockReason() string {
	if r := strings.TrimSpace(p.BlockReason); r != "" {
		return r
	}
	return DefaultSalesmanBlock
}

// Warnings lists advisory data-quality issues that do not block saving
func (p *SalesmanPolicy) Warnings() []string {
	var w []string
	if p.IsBlocked && strings.TrimSpace(p.BlockReason) == "" {
		w = append(w, "block_reason is empty")
	}
	return w
}
