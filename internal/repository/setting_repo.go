package repository

import (
	"errors"
	"fmt"
	"strconv"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrBadSetting means a stored setting does not parse as its expected type.
var ErrBadSetting = errors.New("malformed setting value")

// SettingRepository stores admin-tunable platform settings as key/value rows.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.Where("`key` = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
}

// SeedDefault stores value under key unless the key is already set, and
// reports whether it did.
func (r *SettingRepository) SeedDefault(key, value string) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&models.SystemSetting{Key: key, Value: value})
	return res.RowsAffected > 0, res.Error
}

// Commission returns the stored platform commission percentage.
// gorm.ErrRecordNotFound means it was never set.
func (r *SettingRepository) Commission() (float64, error) {
	raw, err := r.Get(domain.SettingAdminCommission)
	if err != nil {
		return 0, err
	}
	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s = %q", ErrBadSetting, domain.SettingAdminCommission, raw)
	}
	return pct, nil
}

func (r *SettingRepository) SetCommission(pct float64) error {
	return r.Set(domain.SettingAdminCommission, formatPercent(pct))
}

// SeedCommission stores the default commission on first start.
func (r *SettingRepository) SeedCommission(pct float64) (bool, error) {
	return r.SeedDefault(domain.SettingAdminCommission, formatPercent(pct))
}

func formatPercent(pct float64) string { return strconv.FormatFloat(pct, 'f', -1, 64) }

// Text returns a free-text setting, or "" when it was never set.
func (r *SettingRepository) Text(key string) (string, error) {
	raw, err := r.Get(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return raw, err
}
