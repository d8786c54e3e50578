package repository

import (
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Create(rt *models.Rating) error {
	return r.db.Create(rt).Error
}

func (r *RatingRepository) ExistsForOrder(orderID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.Rating{}).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, err
}

func (r *RatingRepository) ListByProvider(providerID uint, page, limit int) ([]models.Rating, int64, error) {
	q := r.db.Model(&models.Rating{}).Where("provider_id = ?", providerID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Rating
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

func (r *RatingRepository) Summary(providerID uint) (models.RatingSummary, error) {
	var s models.RatingSummary
	err := r.db.Model(&models.Rating{}).
		Select("COALESCE(AVG(stars), 0) as average, COUNT(*) as count").
		Where("provider_id = ?", providerID).
		Scan(&s).Error
	return s, err
}
