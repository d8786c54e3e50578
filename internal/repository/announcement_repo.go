package repository

import (
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(a *models.Announcement) error {
	return r.db.Create(a).Error
}

func (r *AnnouncementRepository) GetByID(id uint) (*models.Announcement, error) {
	var a models.Announcement
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) Save(a *models.Announcement) error {
	return r.db.Save(a).Error
}

func (r *AnnouncementRepository) Delete(id uint) (int64, error) {
	res := r.db.Delete(&models.Announcement{}, id)
	return res.RowsAffected, res.Error
}

// List returns announcements newest first; an empty status matches all.
func (r *AnnouncementRepository) List(status string, page, limit int) ([]models.Announcement, int64, error) {
	q := r.db.Model(&models.Announcement{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Announcement
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}
