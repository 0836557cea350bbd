package models

import (
	"time"

	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesInvoiceModel is the persistence model for the SalesInvoice aggregate root.
type SalesInvoiceModel struct {
	AggregateModel
	InvoiceNumber     string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_invoices_number"`
	CustomerID        uuid.UUID               `gorm:"type:uuid;not null;index:idx_sales_invoices_customer_status,priority:1"`
	CustomerName      string                  `gorm:"type:varchar(200);not null"`
	Company           string                  `gorm:"type:varchar(140);not null;index"`
	PostingDate       time.Time               `gorm:"type:date;not null;index"`
	Status            trade.InvoiceStatus     `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_sales_invoices_customer_status,priority:2"`
	IsReturn          bool                    `gorm:"not null;default:false"`
	SetWarehouse      string                  `gorm:"type:varchar(140);index"`
	SalesmanUserID    *uuid.UUID              `gorm:"type:uuid;index"`
	SalesmanName      string                  `gorm:"type:varchar(200)"`
	Items             []SalesInvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
	GrandTotal        decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	OutstandingAmount decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Remark            string                  `gorm:"type:text"`
	SubmittedAt       *time.Time
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SalesInvoiceModel) TableName() string {
	return "sales_invoices"
}

// ToDomain converts the persistence model to a domain SalesInvoice entity.
func (m *SalesInvoiceModel) ToDomain() *trade.SalesInvoice {
	inv := &trade.SalesInvoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Company:           m.Company,
		PostingDate:       m.PostingDate,
		Status:            m.Status,
		IsReturn:          m.IsReturn,
		SetWarehouse:      m.SetWarehouse,
		SalesmanName:      m.SalesmanName,
		GrandTotal:        m.GrandTotal,
		OutstandingAmount: m.OutstandingAmount,
		Remark:            m.Remark,
		SubmittedAt:       m.SubmittedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Items:             make([]trade.SalesInvoiceItem, len(m.Items)),
	}
	if m.SalesmanUserID != nil {
		inv.SalesmanUserID = *m.SalesmanUserID
	}
	for i, item := range m.Items {
		inv.Items[i] = item.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain SalesInvoice entity.
func (m *SalesInvoiceModel) FromDomain(inv *trade.SalesInvoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.CustomerName = inv.CustomerName
	m.Company = inv.Company
	m.PostingDate = inv.PostingDate
	m.Status = inv.Status
	m.IsReturn = inv.IsReturn
	m.SetWarehouse = inv.SetWarehouse
	m.SalesmanUserID = nil
	if inv.SalesmanUserID != uuid.Nil {
		id := inv.SalesmanUserID
		m.SalesmanUserID = &id
	}
	m.SalesmanName = inv.SalesmanName
	m.GrandTotal = inv.GrandTotal
	m.OutstandingAmount = inv.OutstandingAmount
	m.Remark = inv.Remark
	m.SubmittedAt = inv.SubmittedAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
	m.Items = make([]SalesInvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i].FromDomain(&inv.Items[i])
		m.Items[i].InvoiceID = inv.ID
	}
}

// SalesInvoiceModelFromDomain creates a new persistence model from a domain SalesInvoice entity.
func SalesInvoiceModelFromDomain(inv *trade.SalesInvoice) *SalesInvoiceModel {
	m := &SalesInvoiceModel{}
	m.FromDomain(inv)
	return m
}

// SalesInvoiceItemModel is the persistence model for a sales invoice line.
type SalesInvoiceItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemCode  string          `gorm:"type:varchar(140);not null"`
	ItemName  string          `gorm:"type:varchar(200)"`
	Warehouse string          `gorm:"type:varchar(140);index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SalesInvoiceItemModel) TableName() string {
	return "sales_invoice_items"
}

// ToDomain converts the persistence model to a domain SalesInvoiceItem.
func (m *SalesInvoiceItemModel) ToDomain() trade.SalesInvoiceItem {
	return trade.SalesInvoiceItem{
		ID:        m.ID,
		InvoiceID: m.InvoiceID,
		ItemCode:  m.ItemCode,
		ItemName:  m.ItemName,
		Warehouse: m.Warehouse,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Amount:    m.Amount,
	}
}

// FromDomain populates the persistence model from a domain SalesInvoiceItem.
func (m *SalesInvoiceItemModel) FromDomain(item *trade.SalesInvoiceItem) {
	m.ID = item.ID
	m.InvoiceID = item.InvoiceID
	m.ItemCode = item.ItemCode
	m.ItemName = item.ItemName
	m.Warehouse = item.Warehouse
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.Amount = item.Amount
}
