package repository

import (
	"time"

	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListForUser returns orders where userID is customer or provider.
// completed filters on completion when non-nil.
func (r *OrderRepository) ListForUser(userID uint, completed *bool, page, limit int) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{}).Where("customer_id = ? OR provider_id = ?", userID, userID)
	if completed != nil {
		q = q.Where("is_completed = ?", *completed)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Order
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

// MarkComplete flips an incomplete order to complete. It reports false when
// the order was already complete.
func (r *OrderRepository) MarkComplete(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.Order{}).Where("id = ? AND is_completed = ?", id, false).Updates(map[string]interface{}{
		"is_completed":       true,
		"completed_at":       at,
		"delivery_requested": false,
		"status":             "",
	})
	return res.RowsAffected > 0, res.Error
}

// RevertComplete undoes MarkComplete.
func (r *OrderRepository) RevertComplete(id uint) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_completed":       false,
		"completed_at":       nil,
		"delivery_requested": true,
	}).Error
}

func (r *OrderRepository) SetDeliveryRequested(id, requestID uint) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"delivery_requested": true,
		"request_id":         requestID,
		"status":             "",
	}).Error
}

func (r *OrderRepository) SetDeclined(id uint, marker string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":             marker,
		"delivery_requested": false,
	}).Error
}

func (r *OrderRepository) Extend(id uint, date time.Time, message string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"delivery_date":   date,
		"is_extended":     true,
		"extends_date":    date,
		"extends_message": message,
	}).Error
}

func (r *OrderRepository) SetPayoutTransfer(id uint, transferID string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("payout_transfer_id", transferID).Error
}

// DeleteIncomplete removes the order unless it has been completed.
func (r *OrderRepository) DeleteIncomplete(id uint) (bool, error) {
	res := r.db.Where("id = ? AND is_completed = ?", id, false).Delete(&models.Order{})
	return res.RowsAffected > 0, res.Error
}

// CountOpenForUser counts the incomplete orders userID is a party to.
func (r *OrderRepository) CountOpenForUser(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Order{}).
		Where("is_completed = ? AND (customer_id = ? OR provider_id = ?)", false, userID, userID).
		Count(&n).Error
	return n, err
}
