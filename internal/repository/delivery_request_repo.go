package repository

import (
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type DeliveryRequestRepository struct {
	db *gorm.DB
}

func NewDeliveryRequestRepository(db *gorm.DB) *DeliveryRequestRepository {
	return &DeliveryRequestRepository{db: db}
}

func (r *DeliveryRequestRepository) Create(d *models.DeliveryRequest) error {
	return r.db.Create(d).Error
}

func (r *DeliveryRequestRepository) GetByID(id uint) (*models.DeliveryRequest, error) {
	var d models.DeliveryRequest
	if err := r.db.First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// InvalidatePrior marks every other request of requestType for the same
// (order, from, for) triple that is still in status as superseded.
func (r *DeliveryRequestRepository) InvalidatePrior(d *models.DeliveryRequest, status string) (int64, error) {
	res := r.db.Model(&models.DeliveryRequest{}).
		Where("order_id = ? AND from_user_id = ? AND for_user_id = ? AND request_type = ? AND request_status = ? AND id <> ?",
			d.OrderID, d.From, d.For, d.RequestType, status, d.ID).
		Update("is_valid", false)
	return res.RowsAffected, res.Error
}

// CompareAndSetStatus moves a valid request to status `to` if its current
// status is one of from.
func (r *DeliveryRequestRepository) CompareAndSetStatus(id uint, from []string, to string) (bool, error) {
	res := r.db.Model(&models.DeliveryRequest{}).
		Where("id = ? AND is_valid = ? AND request_status IN ?", id, true, from).
		Update("request_status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *DeliveryRequestRepository) SetStatus(id uint, status string) error {
	return r.db.Model(&models.DeliveryRequest{}).Where("id = ?", id).Update("request_status", status).Error
}

// ListByOrder returns requests of requestType for the order that were not declined.
func (r *DeliveryRequestRepository) ListByOrder(orderID uint, requestType, declined string) ([]models.DeliveryRequest, error) {
	var list []models.DeliveryRequest
	err := r.db.Where("order_id = ? AND request_type = ? AND request_status <> ?", orderID, requestType, declined).
		Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListForRecipient returns requests of requestType addressed to userID.
func (r *DeliveryRequestRepository) ListForRecipient(userID uint, requestType string, page, limit int) ([]models.DeliveryRequest, int64, error) {
	q := r.db.Model(&models.DeliveryRequest{}).Where("for_user_id = ? AND request_type = ?", userID, requestType)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.DeliveryRequest
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

func (r *DeliveryRequestRepository) DeleteByOrder(orderID uint) error {
	return r.db.Where("order_id = ?", orderID).Delete(&models.DeliveryRequest{}).Error
}
