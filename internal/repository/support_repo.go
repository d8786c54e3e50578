package repository

import (
	"time"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type SupportRepository struct {
	db *gorm.DB
}

func NewSupportRepository(db *gorm.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) Create(t *models.SupportTicket) error {
	return r.db.Create(t).Error
}

func (r *SupportRepository) GetByID(id uint) (*models.SupportTicket, error) {
	var t models.SupportTicket
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns tickets newest first. userID 0 and an empty status match all.
func (r *SupportRepository) List(userID uint, status string, page, limit int) ([]models.SupportTicket, int64, error) {
	q := r.db.Model(&models.SupportTicket{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.SupportTicket
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

// Reply answers a pending ticket and reports whether it was still pending.
func (r *SupportRepository) Reply(id, adminID uint, reply string, at time.Time) (bool, error) {
	res := r.db.Model(&models.SupportTicket{}).
		Where("id = ? AND status = ?", id, domain.SupportPending).
		Updates(map[string]interface{}{
			"status":      domain.SupportSolved,
			"admin_reply": reply,
			"replied_by":  adminID,
			"replied_at":  at,
		})
	return res.RowsAffected > 0, res.Error
}
