package repository

import (
	"time"

	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) live() *gorm.DB {
	return r.db.Where("is_deleted = ?", false)
}

func (r *PostRepository) Create(p *models.Post) error {
	return r.db.Create(p).Error
}

// GetByID returns a post that has not been soft-deleted.
func (r *PostRepository) GetByID(id uint) (*models.Post, error) {
	var p models.Post
	if err := r.live().First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) Save(p *models.Post) error {
	return r.db.Save(p).Error
}

func (r *PostRepository) ListByCreator(creatorID uint, page, limit int) ([]models.Post, int64, error) {
	var list []models.Post
	var total int64
	q := r.live().Model(&models.Post{}).Where("creator_id = ?", creatorID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

func (r *PostRepository) ListByIDs(ids []uint) ([]models.Post, error) {
	var list []models.Post
	if len(ids) == 0 {
		return list, nil
	}
	err := r.live().Where("id IN ?", ids).Find(&list).Error
	return list, err
}

// Search matches live posts by project name, category or sub-category.
func (r *PostRepository) Search(query string, page, limit int) ([]models.Post, int64, error) {
	pattern := likePattern(query)
	q := r.live().Model(&models.Post{}).
		Where("project_name LIKE ? ESCAPE '!' OR category LIKE ? ESCAPE '!' OR sub_category LIKE ? ESCAPE '!'", pattern, pattern, pattern)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Post
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

func (r *PostRepository) SoftDelete(id uint) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).Update("is_deleted", true).Error
}

// SetAccepted records offerID as the post's accepted offer. It only succeeds
// while no other offer is accepted.
func (r *PostRepository) SetAccepted(id, offerID uint, deadline *time.Time) (bool, error) {
	updates := map[string]interface{}{"accepted_offer_id": offerID}
	if deadline != nil {
		updates["deadline"] = *deadline
	}
	res := r.db.Model(&models.Post{}).
		Where("id = ? AND is_deleted = ? AND (accepted_offer_id IS NULL OR accepted_offer_id = ?)", id, false, offerID).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *PostRepository) MarkPaid(id uint) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_on_project": true,
		"is_paid":       true,
	}).Error
}
