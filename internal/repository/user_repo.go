package repository

import (
	"time"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("google_id = ?", googleID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByPayoutAccount(accountID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("payout_account_id = ?", accountID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	var list []models.User
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) SetDeviceToken(id uint, token string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("device_token", token).Error
}

func (r *UserRepository) SetPayoutAccount(id uint, accountID string, enabled bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"payout_account_id": accountID,
		"payouts_enabled":   enabled,
	}).Error
}

func (r *UserRepository) SetAccountStatus(id uint, status string) (int64, error) {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("account_status", status)
	return res.RowsAffected, res.Error
}

func (r *UserRepository) SetVerificationStatus(id uint, status string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("verification_status", status).Error
}

// SearchProviders matches active service providers by name.
func (r *UserRepository) SearchProviders(query string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{}).
		Where("role = ? AND account_status = ?", domain.RoleServiceProvider, domain.AccountActive).
		Where("full_name LIKE ? ESCAPE '!'", likePattern(query))
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

// Anonymize frees the account's email and sign-in methods and marks it deleted.
func (r *UserRepository) Anonymize(id uint, email string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"email":          email,
		"account_status": domain.AccountDelete,
		"password_hash":  "",
		"google_id":      nil,
		"device_token":   "",
	}).Error
}

// SetResetCode starts a password reset, replacing any reset in progress.
func (r *UserRepository) SetResetCode(id uint, codeHash string, expires time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"reset_code_hash":     codeHash,
		"reset_code_attempts": 0,
		"reset_key_hash":      "",
		"reset_expires_at":    expires,
	}).Error
}

func (r *UserRepository) RecordResetAttempt(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("reset_code_attempts", gorm.Expr("reset_code_attempts + 1")).Error
}

// ExchangeResetCode swaps a verified code for a reset key. It fails when
// another request consumed the code first.
func (r *UserRepository) ExchangeResetCode(id uint, codeHash, keyHash string, expires time.Time) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND reset_code_hash = ? AND reset_code_hash <> ''", id, codeHash).
		Updates(map[string]interface{}{
			"reset_code_hash":  "",
			"reset_key_hash":   keyHash,
			"reset_expires_at": expires,
		})
	return res.RowsAffected > 0, res.Error
}

// CompleteReset stores the new password if keyHash is still the active reset key.
func (r *UserRepository) CompleteReset(id uint, keyHash, passwordHash string) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND reset_key_hash = ? AND reset_key_hash <> ''", id, keyHash).
		Updates(map[string]interface{}{
			"password_hash":       passwordHash,
			"reset_code_hash":     "",
			"reset_code_attempts": 0,
			"reset_key_hash":      "",
			"reset_expires_at":    nil,
		})
	return res.RowsAffected > 0, res.Error
}
