package service

import (
	"errors"
	"fmt"
	"log"
	"math"

	"jobmarket/internal/domain"
	"jobmarket/internal/repository"

	"gorm.io/gorm"
)

// CommissionService reads and updates the platform commission percentage.
// The value is read from settings on every call so admin changes apply to
// the next checkout without a restart.
type CommissionService struct {
	settings *repository.SettingRepository
	fallback float64
}

func NewCommissionService(settings *repository.SettingRepository, fallback float64) *CommissionService {
	return &CommissionService{settings: settings, fallback: fallback}
}

// Percentage returns override when given, otherwise the configured percentage.
func (s *CommissionService) Percentage(override *float64) (float64, error) {
	if override != nil {
		if *override < 0 || *override > 100 {
			return 0, domain.Validation("commission percentage must be between 0 and 100")
		}
		return *override, nil
	}
	pct, err := s.settings.Commission()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.fallback, nil
	case errors.Is(err, repository.ErrBadSetting):
		log.Printf("[commission] %v, using %v", err, s.fallback)
		return s.fallback, nil
	case err != nil:
		return 0, fmt.Errorf("read commission: %w", err)
	}
	return pct, nil
}

// Update stores pct rounded up to a whole percent.
func (s *CommissionService) Update(pct float64) (float64, error) {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return 0, domain.Validation("commission percentage must be between 0 and 100")
	}
	pct = math.Ceil(pct)
	if err := s.settings.SetCommission(pct); err != nil {
		return 0, err
	}
	return pct, nil
}
