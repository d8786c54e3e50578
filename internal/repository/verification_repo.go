package repository

import (
	"time"

	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(v *models.VerificationRequest) error {
	return r.db.Create(v).Error
}

func (r *VerificationRepository) GetByID(id uint) (*models.VerificationRequest, error) {
	var v models.VerificationRequest
	if err := r.db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepository) CountPendingForUser(userID uint, pending string) (int64, error) {
	var n int64
	err := r.db.Model(&models.VerificationRequest{}).Where("user_id = ? AND status = ?", userID, pending).Count(&n).Error
	return n, err
}

// Review moves a pending request to status and records the reviewer.
func (r *VerificationRepository) Review(id uint, pending, status, note string, reviewer uint) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.VerificationRequest{}).Where("id = ? AND status = ?", id, pending).Updates(map[string]interface{}{
		"status":      status,
		"note":        note,
		"reviewed_by": reviewer,
		"reviewed_at": now,
	})
	return res.RowsAffected > 0, res.Error
}

func (r *VerificationRepository) List(status string, page, limit int) ([]models.VerificationRequest, int64, error) {
	q := r.db.Model(&models.VerificationRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.VerificationRequest
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}
