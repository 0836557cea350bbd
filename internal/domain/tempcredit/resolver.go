package tempcredit

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BlockSource identifies which tier forced a block
type BlockSource string

const (
	BlockNone     BlockSource = ""
	BlockCustomer BlockSource = "customer"
	BlockSalesman BlockSource = "salesman"
)

// EffectivePolicy is the merged result of settings, customer policy and
// salesman policy for one evaluation. It is never persisted.
type EffectivePolicy struct {
	MaxCredit        decimal.Decimal
	MaxInvoices      int
	Blocked          bool
	BlockReason      string
	BlockedBy        BlockSource
	CustomerLimit    decimal.Decimal
	SalesmanCeiling  decimal.Decimal
	InvalidOverrides []InvalidOverride
}

// HasSalesmanCeiling reports whether a salesman limit capped the credit
func (p EffectivePolicy) HasSalesmanCeiling() bool {
	return p.SalesmanCeiling.IsPositive()
}

// Resolution is the outcome of policy resolution. When Applicable is false the
// caller must skip evaluation entirely.
type Resolution struct {
	Applicable bool
	SkipReason SkipReason
	Policy     EffectivePolicy
}

// Resolve merges the three policy tiers. Either policy may be nil; a nil
// salesman policy means the invoice names no salesman. A salesman without a
// stored policy is passed as UnconfiguredSalesman so the settings default
// still caps them. A disabled salesman policy contributes only that default.
// Bad override data never raises; it is replaced by fallbacks and listed in
// Policy.InvalidOverrides.
func Resolve(s Settings, cp *CustomerPolicy, sp *SalesmanPolicy) Resolution {
	if cp != nil && !cp.Enabled {
		return Resolution{Applicable: false, SkipReason: SkipPolicyDisabled}
	}

	credit := NoAmountOverride()
	invoices := NoCountOverride()
	if cp != nil {
		credit = cp.CreditLimitOverride
		invoices = cp.MaxUnpaidInvoicesOverride
	}

	var ep EffectivePolicy
	var invalid *InvalidOverride

	ep.MaxCredit, invalid = ResolveCreditLimit(credit, s.DefaultCustomerLimit)
	if invalid != nil {
		ep.InvalidOverrides = append(ep.InvalidOverrides, *invalid)
	}
	ep.MaxInvoices, invalid = ResolveMaxInvoices(invoices, s.DefaultMaxUnpaidInvoices)
	if invalid != nil {
		ep.InvalidOverrides = append(ep.InvalidOverrides, *invalid)
	}
	ep.CustomerLimit = ep.MaxCredit

	if cp != nil && cp.IsBlacklisted {
		ep.Blocked = true
		ep.BlockedBy = BlockCustomer
		ep.BlockReason = cp.EffectiveBlacklistReason()
	}

	if s.EnableSalesmanLimit && sp != nil {
		if sp.Enabled && sp.IsBlocked && !ep.Blocked {
			ep.Blocked = true
			ep.BlockedBy = BlockSalesman
			ep.BlockReason = sp.EffectiveBlockReason()
		}
		if sp.Enabled && sp.MaxOutstandingLimit.Present() && !sp.MaxOutstandingLimit.Valid() {
			ep.InvalidOverrides = append(ep.InvalidOverrides, InvalidOverride{
				Field:  "max_outstanding_limit",
				Raw:    sp.MaxOutstandingLimit.Raw(),
				Reason: "not a non-negative amount",
			})
		}
		if ceiling, ok := SalesmanLimit(s, sp); ok {
			ep.SalesmanCeiling = ceiling
			if ceiling.LessThan(ep.MaxCredit) {
				ep.MaxCredit = ceiling
			}
		}
	}

	return Resolution{Applicable: true, Policy: ep}
}

// SalesmanLimit returns the exposure limit for a salesman: the enabled policy's
// positive limit, else the positive settings default. ok is false when neither
// applies.
func SalesmanLimit(s Settings, sp *SalesmanPolicy) (decimal.Decimal, bool) {
	if sp != nil && sp.Enabled {
		if v, ok := sp.MaxOutstandingLimit.Value(); ok && v.IsPositive() {
			return v, true
		}
	}
	if s.DefaultSalesmanLimit.IsPositive() {
		return s.DefaultSalesmanLimit, true
	}
	return decimal.Zero, false
}

// UnconfiguredSalesman stands in for a salesman with no stored policy. It
// carries no overrides and is never persisted.
func UnconfiguredSalesman(userID uuid.UUID) *SalesmanPolicy {
	return &SalesmanPolicy{UserID: userID, Enabled: true}
}

// SalesmanPool builds the exposure pool of a salesman, or nil when no limit
// applies. total must already include the in-flight invoice.
func SalesmanPool(s Settings, sp *SalesmanPolicy, name string, total decimal.Decimal) *PoolUsage {
	if !s.EnableSalesmanLimit || sp == nil {
		return nil
	}
	limit, ok := SalesmanLimit(s, sp)
	if !ok {
		return nil
	}
	return &PoolUsage{Name: name, Limit: limit, Total: total}
}
