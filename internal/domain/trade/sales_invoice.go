package trade

import (
	"strings"
	"time"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the document status of a sales invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSubmitted InvoiceStatus = "SUBMITTED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSubmitted, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSubmitted || target == InvoiceStatusCancelled
	case InvoiceStatusSubmitted:
		return target == InvoiceStatusCancelled
	}
	return false
}

// SalesInvoiceItem represents a line item in a sales invoice
type SalesInvoiceItem struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	ItemCode  string
	ItemName  string
	Warehouse string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal // Quantity * UnitPrice
}

// SalesInvoice is the aggregate root for invoices. Submitting an invoice
// finalizes it and turns its grand total into an outstanding balance.
type SalesInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber     string
	CustomerID        uuid.UUID
	CustomerName      string
	Company           string
	PostingDate       time.Time
	Status            InvoiceStatus
	IsReturn          bool
	SetWarehouse      string
	SalesmanUserID    uuid.UUID // owner of the document
	SalesmanName      string
	Items             []SalesInvoiceItem
	GrandTotal        decimal.Decimal
	OutstandingAmount decimal.Decimal
	Remark            string
	SubmittedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string
}

// NewSalesInvoice creates a draft invoice
func NewSalesInvoice(invoiceNumber, company string, customerID uuid.UUID, customerName string, salesmanID uuid.UUID, salesmanName string, postingDate time.Time) (*SalesInvoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if strings.TrimSpace(company) == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company cannot be empty")
	}
	if postingDate.IsZero() {
		postingDate = time.Now()
	}

	return &SalesInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Company:           company,
		PostingDate:       postingDate,
		Status:            InvoiceStatusDraft,
		SalesmanUserID:    salesmanID,
		SalesmanName:      salesmanName,
		Items:             make([]SalesInvoiceItem, 0),
		GrandTotal:        decimal.Zero,
		OutstandingAmount: decimal.Zero,
	}, nil
}

// AddItem appends a line to a draft invoice
func (i *SalesInvoice) AddItem(itemCode, itemName, warehouse string, quantity, unitPrice decimal.Decimal) (*SalesInvoiceItem, error) {
	if !i.IsDraft() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot modify a non-draft invoice")
	}
	if strings.TrimSpace(itemCode) == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item code cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	item := SalesInvoiceItem{
		ID:        uuid.New(),
		InvoiceID: i.ID,
		ItemCode:  itemCode,
		ItemName:  itemName,
		Warehouse: strings.TrimSpace(warehouse),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    quantity.Mul(unitPrice).Round(2),
	}
	i.Items = append(i.Items, item)
	i.recalculateTotals()
	return &i.Items[len(i.Items)-1], nil
}

// RemoveItem removes a line from a draft invoice
func (i *SalesInvoice) RemoveItem(itemID uuid.UUID) error {
	if !i.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a non-draft invoice")
	}
	for idx, item := range i.Items {
		if item.ID == itemID {
			i.Items = append(i.Items[:idx], i.Items[idx+1:]...)
			i.recalculateTotals()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Invoice item not found")
}

// SetDefaultWarehouse sets the header warehouse
func (i *SalesInvoice) SetDefaultWarehouse(warehouse string) error {
	if !i.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a non-draft invoice")
	}
	i.SetWarehouse = strings.TrimSpace(warehouse)
	i.Touch()
	return nil
}

// MarkAsReturn flags the draft as a credit note
func (i *SalesInvoice) MarkAsReturn() error {
	if !i.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a non-draft invoice")
	}
	i.IsReturn = true
	i.Touch()
	return nil
}

// Submit finalizes a draft. The outstanding balance starts at the grand total;
// returns carry no receivable.
func (i *SalesInvoice) Submit() error {
	if !i.Status.CanTransitionTo(InvoiceStatusSubmitted) {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be submitted")
	}
	if len(i.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot submit an invoice without items")
	}

	now := time.Now()
	i.Status = InvoiceStatusSubmitted
	i.SubmittedAt = &now
	if i.IsReturn {
		i.OutstandingAmount = i.GrandTotal.Neg()
	} else {
		i.OutstandingAmount = i.GrandTotal
	}
	i.UpdatedAt = now
	i.IncrementVersion()
	return nil
}

// Cancel cancels the invoice and clears its balance
func (i *SalesInvoice) Cancel(reason string) error {
	if !i.Status.CanTransitionTo(InvoiceStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", "Invoice cannot be cancelled in its current state")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	i.OutstandingAmount = decimal.Zero
	i.UpdatedAt = now
	i.IncrementVersion()
	return nil
}

// RecordPayment reduces the outstanding balance of a submitted invoice
func (i *SalesInvoice) RecordPayment(amount decimal.Decimal) error {
	if !i.IsSubmitted() {
		return shared.NewDomainError("INVALID_STATE", "Payments apply to submitted invoices only")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(i.OutstandingAmount) {
		return shared.NewDomainError("OVERPAYMENT", "Payment exceeds outstanding amount")
	}
	i.OutstandingAmount = i.OutstandingAmount.Sub(amount)
	i.Touch()
	i.IncrementVersion()
	return nil
}

// EffectiveWarehouse returns the header warehouse, else the first item warehouse
func (i *SalesInvoice) EffectiveWarehouse() string {
	if i.SetWarehouse != "" {
		return i.SetWarehouse
	}
	for _, item := range i.Items {
		if item.Warehouse != "" {
			return item.Warehouse
		}
	}
	return ""
}

// CurrentAmount is the amount this invoice adds to the customer's exposure
func (i *SalesInvoice) CurrentAmount() decimal.Decimal {
	if i.OutstandingAmount.IsPositive() {
		return i.OutstandingAmount
	}
	return i.GrandTotal
}

func (i *SalesInvoice) recalculateTotals() {
	total := decimal.Zero
	for _, item := range i.Items {
		total = total.Add(item.Amount)
	}
	i.GrandTotal = total
	i.Touch()
}

// IsDraft returns true if the invoice is a draft
func (i *SalesInvoice) IsDraft() bool { return i.Status == InvoiceStatusDraft }

// IsSubmitted returns true if the invoice is submitted
func (i *SalesInvoice) IsSubmitted() bool { return i.Status == InvoiceStatusSubmitted }

// IsCancelled returns true if the invoice is cancelled
func (i *SalesInvoice) IsCancelled() bool { return i.Status == InvoiceStatusCancelled }
