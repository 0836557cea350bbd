package persistence

import (
	"context"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/erp/tempcredit/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCreditUsageRepository reads temp credit exposure from sales invoices.
// It implements tempcredit.UsageReader and tempcredit.ReportSource.
type GormCreditUsageRepository struct {
	db *gorm.DB
}

// NewGormCreditUsageRepository creates a new GormCreditUsageRepository
func NewGormCreditUsageRepository(db *gorm.DB) *GormCreditUsageRepository {
	return &GormCreditUsageRepository{db: db}
}

// outstanding restricts q to submitted, non-return invoices with a positive balance
func outstanding(q *gorm.DB, table string) *gorm.DB {
	return q.Where(table+".status = ? AND "+table+".is_return = ? AND "+table+".outstanding_amount > ?",
		trade.InvoiceStatusSubmitted, false, 0)
}

// GetOutstandingInvoices returns the customer's outstanding invoices. Inside a
// guarded section it reads through the guard's transaction.
func (r *GormCreditUsageRepository) GetOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]tempcredit.OutstandingInvoice, error) {
	var rows []struct {
		ID                uuid.UUID
		OutstandingAmount decimal.Decimal
	}
	q := conn(ctx, r.db).Model(&models.SalesInvoiceModel{}).
		Select("sales_invoices.id, sales_invoices.outstanding_amount").
		Where("sales_invoices.customer_id = ?", customerID)
	if err := outstanding(q, "sales_invoices").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]tempcredit.OutstandingInvoice, len(rows))
	for i, row := range rows {
		out[i] = tempcredit.OutstandingInvoice{InvoiceID: row.ID, Amount: row.OutstandingAmount}
	}
	return out, nil
}

// GetWarehouseOutstanding sums the outstanding balance of temp credit
// customers' invoices that draw on the warehouse, by header or by any line.
func (r *GormCreditUsageRepository) GetWarehouseOutstanding(ctx context.Context, warehouse, fieldName, marker string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	lines := conn(ctx, r.db).Model(&models.SalesInvoiceItemModel{}).
		Select("1").
		Where("sales_invoice_items.invoice_id = sales_invoices.id AND sales_invoice_items.warehouse = ?", warehouse)

	q := conn(ctx, r.db).Model(&models.SalesInvoiceModel{}).
		Joins("JOIN customers ON customers.id = sales_invoices.customer_id").
		Where("(sales_invoices.set_warehouse = ? OR EXISTS (?))", warehouse, lines).
		Where("customers.attributes ->> ? = ?", fieldName, marker)
	if err := outstanding(q, "sales_invoices").Pluck("sales_invoices.outstanding_amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

// GetSalesmanOutstanding sums the outstanding balance of the salesman's
// invoices to temp credit customers
func (r *GormCreditUsageRepository) GetSalesmanOutstanding(ctx context.Context, salesmanUserID uuid.UUID, fieldName, marker string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	q := conn(ctx, r.db).Model(&models.SalesInvoiceModel{}).
		Joins("JOIN customers ON customers.id = sales_invoices.customer_id").
		Where("sales_invoices.salesman_user_id = ?", salesmanUserID).
		Where("customers.attributes ->> ? = ?", fieldName, marker)
	if err := outstanding(q, "sales_invoices").Pluck("sales_invoices.outstanding_amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

type reportRow struct {
	ID                uuid.UUID
	InvoiceNumber     string
	PostingDate       time.Time
	Company           string
	CustomerID        uuid.UUID
	CustomerName      string
	CustomerGroup     string
	Territory         string
	Attributes        string
	CreditLimit       decimal.Decimal
	SalesmanUserID    *uuid.UUID
	SalesmanName      string
	GrandTotal        decimal.Decimal
	OutstandingAmount decimal.Decimal
}

// ListReportInvoices returns outstanding invoices joined with their customer,
// newest posting date first
func (r *GormCreditUsageRepository) ListReportInvoices(ctx context.Context, q tempcredit.ReportQuery) ([]tempcredit.ReportInvoice, error) {
	query := conn(ctx, r.db).Model(&models.SalesInvoiceModel{}).
		Select(`sales_invoices.id, sales_invoices.invoice_number, sales_invoices.posting_date,
			sales_invoices.company, sales_invoices.customer_id, customers.name AS customer_name,
			customers.customer_group, customers.territory, customers.attributes, customers.credit_limit,
			sales_invoices.salesman_user_id, sales_invoices.salesman_name,
			sales_invoices.grand_total, sales_invoices.outstanding_amount`).
		Joins("JOIN customers ON customers.id = sales_invoices.customer_id")
	query = outstanding(query, "sales_invoices")

	if q.Company != "" {
		query = query.Where("sales_invoices.company = ?", q.Company)
	}
	if q.Since != nil {
		query = query.Where("sales_invoices.posting_date >= ?", *q.Since)
	}
	if q.CustomerGroup != "" {
		query = query.Where("customers.customer_group = ?", q.CustomerGroup)
	}
	if q.Territory != "" {
		query = query.Where("customers.territory = ?", q.Territory)
	}
	if q.CustomerID != nil {
		query = query.Where("sales_invoices.customer_id = ?", *q.CustomerID)
	}
	if q.SalesmanUserID != nil {
		query = query.Where("sales_invoices.salesman_user_id = ?", *q.SalesmanUserID)
	}

	var rows []reportRow
	if err := query.Order("sales_invoices.posting_date DESC, sales_invoices.invoice_number").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]tempcredit.ReportInvoice, len(rows))
	for i, row := range rows {
		out[i] = tempcredit.ReportInvoice{
			InvoiceID:           row.ID,
			InvoiceNo:           row.InvoiceNumber,
			PostingDate:         row.PostingDate,
			Company:             row.Company,
			CustomerID:          row.CustomerID,
			CustomerName:        row.CustomerName,
			CustomerGroup:       row.CustomerGroup,
			Territory:           row.Territory,
			CustomerAttributes:  tempcredit.Attributes(models.DecodeAttributes(row.Attributes)),
			StandardCreditLimit: row.CreditLimit,
			SalesmanName:        row.SalesmanName,
			GrandTotal:          row.GrandTotal,
			OutstandingAmount:   row.OutstandingAmount,
		}
		if row.SalesmanUserID != nil {
			out[i].SalesmanUserID = *row.SalesmanUserID
		}
	}
	return out, nil
}

var (
	_ tempcredit.UsageReader  = (*GormCreditUsageRepository)(nil)
	_ tempcredit.ReportSource = (*GormCreditUsageRepository)(nil)
)
