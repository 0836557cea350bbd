package tempcredit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used in messages when the caller does not supply one
const DefaultCurrency = "SAR"

// Verdict is the outcome class of an evaluation. NotApplicable is distinct
// from both Allowed and Blocked.
type Verdict string

const (
	VerdictNotApplicable Verdict = "not_applicable"
	VerdictAllowed       Verdict = "allowed"
	VerdictBlocked       Verdict = "blocked"
	VerdictUnavailable   Verdict = "unavailable"
)

// Decision titles
const (
	TitleExceeded          = "Temp Credit Limit Exceeded"
	TitleCustomerWarehouse = "Customer & Warehouse Temp Credit Limits Exceeded"
	TitleWarehouse         = "Warehouse Temp Credit Limit Exceeded"
	TitleSalesman          = "Salesman Temp Credit Limit Exceeded"
	TitleBlocked           = "Temp Credit Blocked"
	TitleWithinLimits      = "Temp Credit Within Limits"
)

// DecisionInput carries everything Decide needs. Usage must already include
// the in-flight invoice when one is being evaluated.
type DecisionInput struct {
	CustomerName     string
	Policy           EffectivePolicy
	Usage            InvoiceUsage
	InFlightAmount   decimal.Decimal
	Warehouse        *PoolUsage
	Salesman         *PoolUsage
	Currency         string
	ShowPopupOnAllow bool
}

// CreditDecision is the engine's answer for one evaluation
type CreditDecision struct {
	Verdict              Verdict
	SkipReason           SkipReason
	Exceeded             bool
	CustomerExceeded     bool
	WarehouseExceeded    bool
	SalesmanExceeded     bool
	RemainingCredit      decimal.Decimal
	RemainingInvoices    int
	RawRemainingCredit   decimal.Decimal
	RawRemainingInvoices int
	BlockedReason        string
	Title                string
	Message              string
	ShowPopup            bool
	Policy               EffectivePolicy
	Usage                InvoiceUsage
	InFlightAmount       decimal.Decimal
	Warehouse            *PoolUsage
	Salesman             *PoolUsage
}

// Applicable reports whether temp-credit rules were evaluated at all
func (d CreditDecision) Applicable() bool {
	return d.Verdict == VerdictAllowed || d.Verdict == VerdictBlocked
}

// NotApplicable builds the decision for a skipped evaluation
func NotApplicable(reason SkipReason) CreditDecision {
	return CreditDecision{Verdict: VerdictNotApplicable, SkipReason: reason}
}

// Unavailable builds the decision returned when an advisory evaluation failed
func Unavailable() CreditDecision {
	return CreditDecision{Verdict: VerdictUnavailable}
}

// Decide renders a decision. It performs no I/O and is used unchanged by the
// advisory and the authoritative paths.
func Decide(in DecisionInput) CreditDecision {
	p := in.Policy
	u := in.Usage

	d := CreditDecision{
		Policy:               p,
		Usage:                u,
		InFlightAmount:       in.InFlightAmount,
		Warehouse:            in.Warehouse,
		Salesman:             in.Salesman,
		RawRemainingCredit:   p.MaxCredit.Sub(u.TotalOutstanding),
		RawRemainingInvoices: p.MaxInvoices - u.Count,
	}
	d.RemainingCredit = floorZero(d.RawRemainingCredit)
	if d.RawRemainingInvoices > 0 {
		d.RemainingInvoices = d.RawRemainingInvoices
	}

	d.CustomerExceeded = u.Count > p.MaxInvoices || u.TotalOutstanding.GreaterThan(p.MaxCredit)
	if in.Warehouse != nil {
		d.WarehouseExceeded = in.Warehouse.Exceeded()
	}
	if in.Salesman != nil {
		d.SalesmanExceeded = in.Salesman.Exceeded()
	}

	switch {
	case p.Blocked:
		d.Exceeded = true
		d.BlockedReason = p.BlockReason
		d.Title = TitleBlocked
	case d.CustomerExceeded && d.WarehouseExceeded:
		d.Exceeded = true
		d.Title = TitleCustomerWarehouse
	case d.WarehouseExceeded:
		d.Exceeded = true
		d.Title = TitleWarehouse
	case d.SalesmanExceeded && !d.CustomerExceeded:
		d.Exceeded = true
		d.Title = TitleSalesman
	case d.CustomerExceeded || d.SalesmanExceeded:
		d.Exceeded = true
		d.Title = TitleExceeded
	default:
		d.Title = TitleWithinLimits
	}

	if d.Exceeded {
		d.Verdict = VerdictBlocked
		d.ShowPopup = true
	} else {
		d.Verdict = VerdictAllowed
		d.ShowPopup = in.ShowPopupOnAllow
	}
	d.Message = renderMessage(in, d)
	return d
}

func renderMessage(in DecisionInput, d CreditDecision) string {
	cur := in.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	money := func(v decimal.Decimal) string { return v.StringFixed(2) + " " + cur }

	var b strings.Builder
	if d.BlockedReason != "" {
		fmt.Fprintf(&b, "Reason: %s\n\n", d.BlockedReason)
	}
	b.WriteString("Temp Credit Customer Limit Info:\n")
	fmt.Fprintf(&b, "- Customer: %s\n", in.CustomerName)
	fmt.Fprintf(&b, "- Current Invoice: %s\n", money(in.InFlightAmount))
	fmt.Fprintf(&b, "- Total Unpaid Invoices (incl. this): %d\n", d.Usage.Count)
	fmt.Fprintf(&b, "- Total Outstanding (incl. this): %s\n", money(d.Usage.TotalOutstanding))
	fmt.Fprintf(&b, "- Customer Credit Limit: %s\n", money(d.Policy.MaxCredit))
	fmt.Fprintf(&b, "- Remaining Customer Credit: %s\n", money(d.RemainingCredit))
	fmt.Fprintf(&b, "- Max Unpaid Invoices: %d\n", d.Policy.MaxInvoices)
	fmt.Fprintf(&b, "- Remaining Invoices: %d", d.RemainingInvoices)
	if d.Policy.HasSalesmanCeiling() {
		fmt.Fprintf(&b, "\n- Salesman Limit: %s", money(d.Policy.SalesmanCeiling))
	}
	if w := in.Warehouse; w != nil {
		fmt.Fprintf(&b, "\n\nWarehouse Temp Credit Info (%s):\n", w.Name)
		fmt.Fprintf(&b, "- Warehouse Limit: %s\n", money(w.Limit))
		fmt.Fprintf(&b, "- Total Outstanding Temp Credit (incl. this): %s\n", money(w.Total))
		fmt.Fprintf(&b, "- Remaining Warehouse Temp Credit: %s", money(w.Remaining()))
	}
	if sm := in.Salesman; sm != nil {
		fmt.Fprintf(&b, "\n\nSalesman Temp Credit Info (%s):\n", sm.Name)
		fmt.Fprintf(&b, "- Salesman Limit: %s\n", money(sm.Limit))
		fmt.Fprintf(&b, "- Outstanding (incl. this): %s\n", money(sm.Total))
		fmt.Fprintf(&b, "- Remaining: %s", money(sm.Remaining()))
	}
	return b.String()
}
