package repository

import (
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type OfferRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) Create(o *models.Offer) error {
	return r.db.Create(o).Error
}

func (r *OfferRepository) GetByID(id uint) (*models.Offer, error) {
	var o models.Offer
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CompareAndSetStatus moves the offer to status `to` only if its current
// status is one of from. It reports whether the row changed.
func (r *OfferRepository) CompareAndSetStatus(id uint, from []string, to string) (bool, error) {
	res := r.db.Model(&models.Offer{}).Where("id = ? AND status IN ?", id, from).Update("status", to)
	return res.RowsAffected > 0, res.Error
}

// UpdateWhileStatus applies updates only while the offer is still in status.
func (r *OfferRepository) UpdateWhileStatus(id uint, status string, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.Offer{}).Where("id = ? AND status = ?", id, status).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *OfferRepository) SetProjectID(ids []uint, projectID uint) error {
	return r.db.Model(&models.Offer{}).Where("id IN ?", ids).Update("project_id", projectID).Error
}

// ListChain returns every offer of the chain started by rootID, the root included.
func (r *OfferRepository) ListChain(rootID uint) ([]models.Offer, error) {
	var list []models.Offer
	err := r.db.Where("root_offer_id = ? OR id = ?", rootID, rootID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *OfferRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.Offer{}).Error
}

func (r *OfferRepository) ListReceived(userID uint, status string, page, limit int) ([]models.Offer, int64, error) {
	return r.list(r.db.Where("to_user_id = ?", userID), status, page, limit)
}

func (r *OfferRepository) ListSent(userID uint, status string, page, limit int) ([]models.Offer, int64, error) {
	return r.list(r.db.Where("form_user_id = ?", userID), status, page, limit)
}

func (r *OfferRepository) ListByProject(projectID uint) ([]models.Offer, error) {
	var list []models.Offer
	err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *OfferRepository) list(q *gorm.DB, status string, page, limit int) ([]models.Offer, int64, error) {
	q = q.Model(&models.Offer{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Offer
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}
