package tempcredit

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutstandingInvoice is one submitted, non-return invoice with an unpaid balance
type OutstandingInvoice struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
}

// InvoiceUsage is the count and sum of a customer's outstanding invoices
type InvoiceUsage struct {
	Count            int
	TotalOutstanding decimal.Decimal
}

// AggregateUsage reduces outstanding invoices to usage. Rows with a non-positive
// amount are not outstanding and are skipped. Drafts never reach this function.
func AggregateUsage(invoices []OutstandingInvoice) InvoiceUsage {
	u := InvoiceUsage{TotalOutstanding: decimal.Zero}
	for _, inv := range invoices {
		if !inv.Amount.IsPositive() {
			continue
		}
		u.Count++
		u.TotalOutstanding = u.TotalOutstanding.Add(inv.Amount)
	}
	return u
}

// WithInFlight adds the invoice under evaluation to the usage. Negative amounts
// count as zero.
func (u InvoiceUsage) WithInFlight(amount decimal.Decimal) InvoiceUsage {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return InvoiceUsage{
		Count:            u.Count + 1,
		TotalOutstanding: u.TotalOutstanding.Add(amount),
	}
}

// PoolUsage is the temp-credit exposure shared by several customers, such as a
// warehouse or a salesman, including the in-flight invoice
type PoolUsage struct {
	Name  string
	Limit decimal.Decimal
	Total decimal.Decimal
}

// Exceeded reports whether the pool is strictly over its limit
func (p PoolUsage) Exceeded() bool {
	return p.Total.GreaterThan(p.Limit)
}

// Remaining returns the unused pool, floored at zero
func (p PoolUsage) Remaining() decimal.Decimal {
	return floorZero(p.Limit.Sub(p.Total))
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
