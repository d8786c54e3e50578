package repository

import (
	"jobmarket/internal/domain"
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByOrder(orderID uint, kind string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("order_id = ? AND kind = ?", orderID, kind).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetChargeBySession returns the CHARGE recorded for a checkout session.
func (r *PaymentRepository) GetChargeBySession(sessionID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("checkout_session_id = ? AND kind = ?", sessionID, domain.PaymentKindCharge).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) SetStatus(orderID uint, kind, status string) error {
	return r.db.Model(&models.Payment{}).Where("order_id = ? AND kind = ?", orderID, kind).Update("status", status).Error
}

func (r *PaymentRepository) CountByOrder(orderID uint, kind string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Payment{}).Where("order_id = ? AND kind = ?", orderID, kind).Count(&n).Error
	return n, err
}

// ListForUser returns the charges a user paid and the payouts they received.
func (r *PaymentRepository) ListForUser(userID uint, page, limit int) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Payment
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}
