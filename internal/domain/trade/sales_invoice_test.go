package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T) *SalesInvoice {
	t.Helper()
	inv, err := NewSalesInvoice("SINV-0001", "ACME KSA", uuid.New(), "Customer", uuid.New(), "Sam", time.Now())
	require.NoError(t, err)
	return inv
}

func TestNewSalesInvoice(t *testing.T) {
	t.Run("creates draft invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.True(t, inv.GrandTotal.IsZero())
		assert.Equal(t, 1, inv.Version)
	})

	t.Run("fails without invoice number", func(t *testing.T) {
		_, err := NewSalesInvoice(" ", "ACME KSA", uuid.New(), "C", uuid.Nil, "", time.Now())
		assert.Contains(t, err.Error(), "Invoice number cannot be empty")
	})

	t.Run("fails without company", func(t *testing.T) {
		_, err := NewSalesInvoice("SINV-1", "", uuid.New(), "C", uuid.Nil, "", time.Now())
		assert.Contains(t, err.Error(), "Company cannot be empty")
	})
}

func TestSalesInvoice_Items(t *testing.T) {
	inv := newTestInvoice(t)

	item, err := inv.AddItem("ITEM-1", "Widget", "Main WH", decimal.NewFromInt(3), decimal.RequireFromString("50.005"))
	require.NoError(t, err)
	assert.Equal(t, "150.02", item.Amount.StringFixed(2))

	_, err = inv.AddItem("ITEM-2", "Gadget", "", decimal.NewFromInt(1), decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "250.02", inv.GrandTotal.StringFixed(2))
	assert.Equal(t, "Main WH", inv.EffectiveWarehouse())

	require.NoError(t, inv.SetDefaultWarehouse("North WH"))
	assert.Equal(t, "North WH", inv.EffectiveWarehouse())

	require.NoError(t, inv.RemoveItem(item.ID))
	assert.True(t, inv.GrandTotal.Equal(decimal.NewFromInt(100)))
	assert.Error(t, inv.RemoveItem(uuid.New()))

	_, err = inv.AddItem("ITEM-3", "Bad", "", decimal.Zero, decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestSalesInvoice_Lifecycle(t *testing.T) {
	t.Run("submit sets outstanding", func(t *testing.T) {
		inv := newTestInvoice(t)
		assert.Error(t, inv.Submit())

		_, err := inv.AddItem("ITEM-1", "Widget", "", decimal.NewFromInt(2), decimal.NewFromInt(75))
		require.NoError(t, err)
		assert.True(t, inv.CurrentAmount().Equal(decimal.NewFromInt(150)))

		require.NoError(t, inv.Submit())
		assert.True(t, inv.IsSubmitted())
		assert.NotNil(t, inv.SubmittedAt)
		assert.True(t, inv.OutstandingAmount.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, 2, inv.Version)

		assert.Error(t, inv.Submit())
		_, err = inv.AddItem("ITEM-2", "Late", "", decimal.NewFromInt(1), decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("payments reduce outstanding", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, _ = inv.AddItem("ITEM-1", "Widget", "", decimal.NewFromInt(1), decimal.NewFromInt(100))
		require.NoError(t, inv.Submit())

		require.NoError(t, inv.RecordPayment(decimal.NewFromInt(40)))
		assert.True(t, inv.OutstandingAmount.Equal(decimal.NewFromInt(60)))
		assert.Error(t, inv.RecordPayment(decimal.NewFromInt(61)))
		assert.Error(t, inv.RecordPayment(decimal.Zero))
	})

	t.Run("returns carry no receivable", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkAsReturn())
		_, _ = inv.AddItem("ITEM-1", "Widget", "", decimal.NewFromInt(1), decimal.NewFromInt(100))
		require.NoError(t, inv.Submit())
		assert.True(t, inv.OutstandingAmount.IsNegative())
	})

	t.Run("cancel clears balance", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, _ = inv.AddItem("ITEM-1", "Widget", "", decimal.NewFromInt(1), decimal.NewFromInt(100))
		require.NoError(t, inv.Submit())

		assert.Error(t, inv.Cancel(""))
		require.NoError(t, inv.Cancel("customer refused"))
		assert.True(t, inv.IsCancelled())
		assert.True(t, inv.OutstandingAmount.IsZero())
		assert.Error(t, inv.Cancel("again"))
	})
}

func TestInvoiceStatus(t *testing.T) {
	assert.True(t, InvoiceStatusDraft.IsValid())
	assert.False(t, InvoiceStatus("PAID").IsValid())
	assert.True(t, InvoiceStatusDraft.CanTransitionTo(InvoiceStatusSubmitted))
	assert.False(t, InvoiceStatusCancelled.CanTransitionTo(InvoiceStatusSubmitted))
}
