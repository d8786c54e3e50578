package repository

import (
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) ListByUserID(userID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return n, err
}

// MarkRead marks the given notifications read. An empty ids marks all of the user's.
func (r *NotificationRepository) MarkRead(ids []uint, userID uint) error {
	q := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	return q.Update("is_read", true).Error
}

func (r *NotificationRepository) Delete(ids []uint, userID uint) (int64, error) {
	res := r.db.Where("id IN ? AND user_id = ?", ids, userID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteForOffers removes notifications that reference any of offerIDs,
// either as the chain they belong to or as their deep-link target.
func (r *NotificationRepository) DeleteForOffers(offerIDs []uint) (int64, error) {
	if len(offerIDs) == 0 {
		return 0, nil
	}
	res := r.db.Where("original_offer_id IN ? OR data_offer_id IN ?", offerIDs, offerIDs).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
