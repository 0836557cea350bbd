package tempcredit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outstanding(amounts ...string) []OutstandingInvoice {
	out := make([]OutstandingInvoice, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, OutstandingInvoice{InvoiceID: uuid.New(), Amount: decimal.RequireFromString(a)})
	}
	return out
}

func decideDraft(s Settings, cp *CustomerPolicy, existing []OutstandingInvoice, draft string) CreditDecision {
	res := Resolve(s, cp, nil)
	amount := decimal.RequireFromString(draft)
	return Decide(DecisionInput{
		CustomerName:   "ACME Trading",
		Policy:         res.Policy,
		Usage:          AggregateUsage(existing).WithInFlight(amount),
		InFlightAmount: amount,
	})
}

func TestDecideScenarios(t *testing.T) {
	s := enabledSettings()

	t.Run("draft of 150 on 500 outstanding stays within limits", func(t *testing.T) {
		d := decideDraft(s, nil, outstanding("200", "300"), "150")

		assert.Equal(t, 3, d.Usage.Count)
		assert.Equal(t, "650.00", d.Usage.TotalOutstanding.StringFixed(2))
		assert.False(t, d.Exceeded)
		assert.Equal(t, VerdictAllowed, d.Verdict)
		assert.Equal(t, "50.00", d.RemainingCredit.StringFixed(2))
		assert.Equal(t, 0, d.RemainingInvoices)
	})

	t.Run("draft of 300 pushes total over the default", func(t *testing.T) {
		d := decideDraft(s, nil, outstanding("200", "300"), "300")

		assert.True(t, d.Usage.TotalOutstanding.Equal(decimal.NewFromInt(800)))
		assert.True(t, d.Exceeded)
		assert.Equal(t, VerdictBlocked, d.Verdict)
		assert.Equal(t, TitleExceeded, d.Title)
		assert.True(t, d.RemainingCredit.IsZero())
		assert.True(t, d.RawRemainingCredit.Equal(decimal.NewFromInt(-100)))
	})

	t.Run("customer override lifts the limit", func(t *testing.T) {
		cp := newCustomerPolicy(t)
		require.NoError(t, cp.SetOverrides(AmountOverrideOf(decimal.NewFromInt(2000)), NoCountOverride()))

		d := decideDraft(s, cp, outstanding("500"), "300")
		assert.True(t, d.Policy.MaxCredit.Equal(decimal.NewFromInt(2000)))
		assert.False(t, d.Exceeded)
	})
}

func TestDecideBoundaries(t *testing.T) {
	policy := EffectivePolicy{MaxCredit: decimal.RequireFromString("700.00"), MaxInvoices: 3}

	tests := []struct {
		name     string
		count    int
		total    string
		exceeded bool
	}{
		{"exactly at both limits", 3, "700.00", false},
		{"one invoice over", 4, "100", true},
		{"one cent over", 3, "700.01", true},
		{"just under the credit limit", 3, "699.99", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(DecisionInput{
				Policy: policy,
				Usage:  InvoiceUsage{Count: tt.count, TotalOutstanding: decimal.RequireFromString(tt.total)},
			})
			assert.Equal(t, tt.exceeded, d.Exceeded)
		})
	}

	t.Run("fractional amounts summed without rounding drift", func(t *testing.T) {
		u := AggregateUsage(outstanding("0.10", "0.20")).WithInFlight(decimal.RequireFromString("699.70"))
		d := Decide(DecisionInput{Policy: policy, Usage: u})
		assert.True(t, u.TotalOutstanding.Equal(decimal.NewFromInt(700)))
		assert.False(t, d.Exceeded)
	})
}

func TestDecideBlocked(t *testing.T) {
	cp := newCustomerPolicy(t)
	cp.Blacklist("legal dispute")

	d := decideDraft(enabledSettings(), cp, nil, "1")
	assert.True(t, d.Exceeded)
	assert.False(t, d.CustomerExceeded)
	assert.Equal(t, "legal dispute", d.BlockedReason)
	assert.Equal(t, TitleBlocked, d.Title)
	assert.Contains(t, d.Message, "Reason: legal dispute")
	assert.Equal(t, 2, d.RemainingInvoices)
}

func TestDecideRemainingNeverNegative(t *testing.T) {
	d := Decide(DecisionInput{
		Policy: EffectivePolicy{MaxCredit: decimal.NewFromInt(100), MaxInvoices: 1},
		Usage:  InvoiceUsage{Count: 9, TotalOutstanding: decimal.NewFromInt(5000)},
	})
	assert.True(t, d.RemainingCredit.IsZero())
	assert.Equal(t, 0, d.RemainingInvoices)
	assert.Equal(t, -8, d.RawRemainingInvoices)
}

func TestDecideWarehousePool(t *testing.T) {
	policy := EffectivePolicy{MaxCredit: decimal.NewFromInt(700), MaxInvoices: 3}
	within := InvoiceUsage{Count: 1, TotalOutstanding: decimal.NewFromInt(100)}
	over := InvoiceUsage{Count: 5, TotalOutstanding: decimal.NewFromInt(100)}
	pool := func(total int64) *PoolUsage {
		return &PoolUsage{Name: "Main WH", Limit: decimal.NewFromInt(35000), Total: decimal.NewFromInt(total)}
	}

	d := Decide(DecisionInput{Policy: policy, Usage: within, Warehouse: pool(35001)})
	assert.True(t, d.Exceeded)
	assert.Equal(t, TitleWarehouse, d.Title)

	d = Decide(DecisionInput{Policy: policy, Usage: over, Warehouse: pool(36000)})
	assert.Equal(t, TitleCustomerWarehouse, d.Title)

	d = Decide(DecisionInput{Policy: policy, Usage: within, Warehouse: pool(35000)})
	assert.False(t, d.Exceeded)
	assert.Contains(t, d.Message, "Warehouse Temp Credit Info (Main WH)")
}

func TestDecideSalesmanPool(t *testing.T) {
	policy := EffectivePolicy{MaxCredit: decimal.NewFromInt(700), MaxInvoices: 3}
	within := InvoiceUsage{Count: 1, TotalOutstanding: decimal.NewFromInt(100)}
	over := InvoiceUsage{Count: 1, TotalOutstanding: decimal.NewFromInt(900)}
	pool := func(total int64) *PoolUsage {
		return &PoolUsage{Name: "Sam", Limit: decimal.NewFromInt(400), Total: decimal.NewFromInt(total)}
	}

	d := Decide(DecisionInput{Policy: policy, Usage: within, Salesman: pool(600)})
	assert.True(t, d.Exceeded)
	assert.True(t, d.SalesmanExceeded)
	assert.False(t, d.CustomerExceeded)
	assert.Equal(t, TitleSalesman, d.Title)
	assert.Contains(t, d.Message, "Salesman Temp Credit Info (Sam)")
	assert.Contains(t, d.Message, "- Outstanding (incl. this): 600.00 SAR")

	d = Decide(DecisionInput{Policy: policy, Usage: over, Salesman: pool(900)})
	assert.Equal(t, TitleExceeded, d.Title)

	d = Decide(DecisionInput{
		Policy:    policy,
		Usage:     within,
		Salesman:  pool(600),
		Warehouse: &PoolUsage{Name: "Main WH", Limit: decimal.NewFromInt(10), Total: decimal.NewFromInt(20)},
	})
	assert.Equal(t, TitleWarehouse, d.Title)

	d = Decide(DecisionInput{Policy: policy, Usage: within, Salesman: pool(400)})
	assert.False(t, d.Exceeded)
	assert.Equal(t, TitleWithinLimits, d.Title)
}

func TestDecideMessage(t *testing.T) {
	d := Decide(DecisionInput{
		CustomerName:     "ACME Trading",
		Policy:           EffectivePolicy{MaxCredit: decimal.NewFromInt(700), MaxInvoices: 3},
		Usage:            InvoiceUsage{Count: 3, TotalOutstanding: decimal.NewFromInt(650)},
		InFlightAmount:   decimal.NewFromInt(150),
		ShowPopupOnAllow: true,
	})

	assert.True(t, d.ShowPopup)
	assert.Contains(t, d.Message, "- Customer: ACME Trading")
	assert.Contains(t, d.Message, "- Current Invoice: 150.00 SAR")
	assert.Contains(t, d.Message, "- Remaining Customer Credit: 50.00 SAR")
	assert.Contains(t, d.Message, "- Remaining Invoices: 0")

	d = Decide(DecisionInput{Policy: d.Policy, Usage: d.Usage, Currency: "AED"})
	assert.False(t, d.ShowPopup)
	assert.Contains(t, d.Message, "700.00 AED")
}

func TestNotApplicableIsDistinct(t *testing.T) {
	cp := newCustomerPolicy(t)
	cp.SetEnabled(false)
	res := Resolve(enabledSettings(), cp, nil)
	require.False(t, res.Applicable)

	d := NotApplicable(res.SkipReason)
	assert.Equal(t, VerdictNotApplicable, d.Verdict)
	assert.False(t, d.Applicable())
	assert.NotEqual(t, VerdictAllowed, d.Verdict)
	assert.NotEqual(t, VerdictBlocked, d.Verdict)
}

func TestAggregateUsage(t *testing.T) {
	u := AggregateUsage(outstanding("100", "0", "-20", "50.5"))
	assert.Equal(t, 2, u.Count)
	assert.True(t, u.TotalOutstanding.Equal(decimal.RequireFromString("150.5")))

	u = AggregateUsage(nil).WithInFlight(decimal.NewFromInt(-3))
	assert.Equal(t, 1, u.Count)
	assert.True(t, u.TotalOutstanding.IsZero())
}

func TestErrors(t *testing.T) {
	exceeded := &CreditLimitExceededError{Decision: CreditDecision{Title: TitleBlocked, BlockedReason: "fraud"}}
	assert.ErrorIs(t, exceeded, ErrCreditLimitExceeded)
	assert.Equal(t, "Temp Credit Blocked: fraud", exceeded.Error())
	assert.False(t, IsTransient(exceeded))

	wrapped := NewUnexpectedFailure("load usage", assert.AnError)
	assert.ErrorIs(t, wrapped, ErrUnexpectedFailure)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.True(t, IsTransient(wrapped))

	assert.Same(t, ErrLockTimeout, NewUnexpectedFailure("lock", ErrLockTimeout))
	assert.Nil(t, NewUnexpectedFailure("noop", nil))
}
