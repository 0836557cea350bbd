package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/tempcredit/internal/domain/partner"
	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements partner.CustomerRepository and
// tempcredit.CustomerDirectory using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a customer by its code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := conn(ctx, r.db).
		Where("code = ?", strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

// ExistsByCode checks if a customer with the given code exists
func (r *GormCustomerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.CustomerModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetEligibilityField returns one custom attribute of the customer
func (r *GormCustomerRepository) GetEligibilityField(ctx context.Context, customerID uuid.UUID, fieldName string) (string, bool, error) {
	var model models.CustomerModel
	if err := conn(ctx, r.db).
		Select("id", "attributes").
		First(&model, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, shared.ErrNotFound
		}
		return "", false, err
	}
	v, ok := models.DecodeAttributes(model.Attributes)[fieldName]
	return v, ok, nil
}

// GetDisplayName returns the customer's name
func (r *GormCustomerRepository) GetDisplayName(ctx context.Context, customerID uuid.UUID) (string, error) {
	var names []string
	err := conn(ctx, r.db).Model(&models.CustomerModel{}).
		Where("id = ?", customerID).
		Limit(1).
		Pluck("name", &names).Error
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", shared.ErrNotFound
	}
	return names[0], nil
}

var (
	_ partner.CustomerRepository   = (*GormCustomerRepository)(nil)
	_ tempcredit.CustomerDirectory = (*GormCustomerRepository)(nil)
)
