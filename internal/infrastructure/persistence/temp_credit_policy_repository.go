package persistence

import (
	"context"
	"errors"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerPolicyRepository implements tempcredit.CustomerPolicyRepository using GORM
type GormCustomerPolicyRepository struct {
	db *gorm.DB
}

// NewGormCustomerPolicyRepository creates a new GormCustomerPolicyRepository
func NewGormCustomerPolicyRepository(db *gorm.DB) *GormCustomerPolicyRepository {
	return &GormCustomerPolicyRepository{db: db}
}

// FindByCustomer finds the policy of one customer
func (r *GormCustomerPolicyRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*tempcredit.CustomerPolicy, error) {
	var model models.CustomerPolicyModel
	if err := conn(ctx, r.db).First(&model, "customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomers loads the policies of many customers in one query
func (r *GormCustomerPolicyRepository) FindByCustomers(ctx context.Context, customerIDs []uuid.UUID) (map[uuid.UUID]*tempcredit.CustomerPolicy, error) {
	out := make(map[uuid.UUID]*tempcredit.CustomerPolicy, len(customerIDs))
	if len(customerIDs) == 0 {
		return out, nil
	}
	var rows []models.CustomerPolicyModel
	if err := conn(ctx, r.db).Where("customer_id IN ?", customerIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].CustomerID] = rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or replaces the policy of a customer
func (r *GormCustomerPolicyRepository) Save(ctx context.Context, p *tempcredit.CustomerPolicy) error {
	model := models.CustomerPolicyModelFromDomain(p)
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled", "credit_limit_override", "max_unpaid_invoices_override",
			"is_blacklisted", "blacklist_reason", "updated_at",
		}),
	}).Create(model).Error
}

// DeleteByCustomer removes the policy of a customer
func (r *GormCustomerPolicyRepository) DeleteByCustomer(ctx context.Context, customerID uuid.UUID) error {
	result := conn(ctx, r.db).Where("customer_id = ?", customerID).Delete(&models.CustomerPolicyModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormSalesmanPolicyRepository implements tempcredit.SalesmanPolicyRepository using GORM
type GormSalesmanPolicyRepository struct {
	db *gorm.DB
}

// NewGormSalesmanPolicyRepository creates a new GormSalesmanPolicyRepository
func NewGormSalesmanPolicyRepository(db *gorm.DB) *GormSalesmanPolicyRepository {
	return &GormSalesmanPolicyRepository{db: db}
}

// FindByUser finds the policy of one salesman
func (r *GormSalesmanPolicyRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*tempcredit.SalesmanPolicy, error) {
	var model models.SalesmanPolicyModel
	if err := conn(ctx, r.db).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUsers loads the policies of many salesmen in one query
func (r *GormSalesmanPolicyRepository) FindByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*tempcredit.SalesmanPolicy, error) {
	out := make(map[uuid.UUID]*tempcredit.SalesmanPolicy, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.SalesmanPolicyModel
	if err := conn(ctx, r.db).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].UserID] = rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or replaces the policy of a salesman
func (r *GormSalesmanPolicyRepository) Save(ctx context.Context, p *tempcredit.SalesmanPolicy) error {
	model := models.SalesmanPolicyModelFromDomain(p)
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled", "max_outstanding_limit", "is_blocked", "block_reason", "updated_at",
		}),
	}).Create(model).Error
}

// DeleteByUser removes the policy of a salesman
func (r *GormSalesmanPolicyRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	result := conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.SalesmanPolicyModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ tempcredit.CustomerPolicyRepository = (*GormCustomerPolicyRepository)(nil)
	_ tempcredit.SalesmanPolicyRepository = (*GormSalesmanPolicyRepository)(nil)
)
