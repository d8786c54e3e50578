package repository

import (
	"jobmarket/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRefRepository maintains the per-user back-reference lists.
type UserRefRepository struct {
	db *gorm.DB
}

func NewUserRefRepository(db *gorm.DB) *UserRefRepository {
	return &UserRefRepository{db: db}
}

// Append adds refID to the user's list of kind. Appending twice is a no-op.
func (r *UserRefRepository) Append(userID uint, kind string, refID uint) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRef{UserID: userID, Kind: kind, RefID: refID}).Error
}

func (r *UserRefRepository) Remove(userID uint, kind string, refID uint) error {
	return r.db.Where("user_id = ? AND kind = ? AND ref_id = ?", userID, kind, refID).
		Delete(&models.UserRef{}).Error
}

// RemoveEverywhere prunes refIDs from every user's lists of the given kinds.
func (r *UserRefRepository) RemoveEverywhere(kinds []string, refIDs []uint) error {
	if len(refIDs) == 0 {
		return nil
	}
	return r.db.Where("kind IN ? AND ref_id IN ?", kinds, refIDs).Delete(&models.UserRef{}).Error
}

func (r *UserRefRepository) List(userID uint, kind string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.UserRef{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at DESC").
		Pluck("ref_id", &ids).Error
	return ids, err
}

func (r *UserRefRepository) Has(userID uint, kind string, refID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserRef{}).
		Where("user_id = ? AND kind = ? AND ref_id = ?", userID, kind, refID).
		Count(&count).Error
	return count > 0, err
}
