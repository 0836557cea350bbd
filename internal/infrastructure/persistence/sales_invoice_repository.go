package persistence

import (
	"context"
	"errors"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/erp/tempcredit/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesInvoiceRepository implements trade.SalesInvoiceRepository using GORM
type GormSalesInvoiceRepository struct {
	db    *gorm.DB
	scope *GormTransactionScope
}

// NewGormSalesInvoiceRepository creates a new GormSalesInvoiceRepository
func NewGormSalesInvoiceRepository(db *gorm.DB) *GormSalesInvoiceRepository {
	return &GormSalesInvoiceRepository{db: db, scope: NewGormTransactionScope(db)}
}

// FindByID finds a sales invoice with its items
func (r *GormSalesInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesInvoice, error) {
	var model models.SalesInvoiceModel
	if err := conn(ctx, r.db).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a sales invoice by invoice number
func (r *GormSalesInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*trade.SalesInvoice, error) {
	var model models.SalesInvoiceModel
	if err := conn(ctx, r.db).Preload("Items").
		Where("invoice_number = ?", invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a sales invoice and its items without a version check
func (r *GormSalesInvoiceRepository) Save(ctx context.Context, invoice *trade.SalesInvoice) error {
	model := models.SalesInvoiceModelFromDomain(invoice)
	return r.scope.Execute(ctx, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		if err := tx.Omit("Items").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(model).Error; err != nil {
			return err
		}
		return r.replaceItems(tx, invoice.ID, model.Items)
	})
}

// SaveWithLock updates an existing invoice only if the stored version is the
// one the caller loaded. The domain has already bumped invoice.Version.
func (r *GormSalesInvoiceRepository) SaveWithLock(ctx context.Context, invoice *trade.SalesInvoice) error {
	model := models.SalesInvoiceModelFromDomain(invoice)
	return r.scope.Execute(ctx, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		result := tx.Model(&models.SalesInvoiceModel{}).
			Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
			Updates(map[string]interface{}{
				"customer_name":      model.CustomerName,
				"set_warehouse":      model.SetWarehouse,
				"status":             model.Status,
				"is_return":          model.IsReturn,
				"grand_total":        model.GrandTotal,
				"outstanding_amount": model.OutstandingAmount,
				"remark":             model.Remark,
				"submitted_at":       model.SubmittedAt,
				"cancelled_at":       model.CancelledAt,
				"cancel_reason":      model.CancelReason,
				"version":            model.Version,
				"updated_at":         model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return r.replaceItems(tx, invoice.ID, model.Items)
	})
}

// replaceItems deletes lines that are gone and upserts the rest
func (r *GormSalesInvoiceRepository) replaceItems(tx *gorm.DB, invoiceID uuid.UUID, items []models.SalesInvoiceItemModel) error {
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	del := tx.Where("invoice_id = ?", invoiceID)
	if len(ids) > 0 {
		del = del.Where("id NOT IN ?", ids)
	}
	if err := del.Delete(&models.SalesInvoiceItemModel{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&items).Error
}

var _ trade.SalesInvoiceRepository = (*GormSalesInvoiceRepository)(nil)
