package tempcredit

import (
	"context"
	"errors"
	"time"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"go.uber.org/zap"
)

// SettingsService administers the singleton settings
type SettingsService struct {
	repo     tempcredit.SettingsRepository
	provider SettingsProvider
	logger   *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo tempcredit.SettingsRepository, provider SettingsProvider, log *zap.Logger) *SettingsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsService{repo: repo, provider: provider, logger: log}
}

// Get returns the saved settings, or the defaults when none were saved
func (s *SettingsService) Get(ctx context.Context) (*SettingsResponse, error) {
	settings, err := s.repo.Get(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		d := tempcredit.DefaultSettings()
		return ToSettingsResponse(&d), nil
	}
	if err != nil {
		return nil, err
	}
	return ToSettingsResponse(settings), nil
}

// Update replaces the settings and invalidates the settings cache
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*SettingsResponse, error) {
	current, err := s.repo.Get(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		d := tempcredit.DefaultSettings()
		current = &d
	} else if err != nil {
		return nil, err
	}

	req.apply(current)
	if err := current.Validate(); err != nil {
		return nil, err
	}
	current.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, current); err != nil {
		return nil, err
	}
	if err := s.provider.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate temp credit settings cache", zap.Error(err))
	}

	s.logger.Info("Temp credit settings updated",
		zap.Bool("enabled", current.Enabled),
		zap.String("default_customer_limit", current.DefaultCustomerLimit.String()),
		zap.Int("default_max_unpaid_invoices", current.DefaultMaxUnpaidInvoices))
	return ToSettingsResponse(current), nil
}
