package persistence

import (
	"context"
	"errors"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository implements tempcredit.SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get loads the settings singleton
func (r *GormSettingsRepository) Get(ctx context.Context) (*tempcredit.Settings, error) {
	var model models.TempCreditSettingsModel
	if err := conn(ctx, r.db).First(&model, "id = ?", models.SettingsSingletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the settings singleton
func (r *GormSettingsRepository) Save(ctx context.Context, s *tempcredit.Settings) error {
	model := models.SettingsModelFromDomain(s)
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error
}

var _ tempcredit.SettingsRepository = (*GormSettingsRepository)(nil)
