package repository

import (
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(c *models.Category) error {
	return r.db.Create(c).Error
}

func (r *CategoryRepository) GetByID(id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.Preload("SubCategories").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Save(c *models.Category) error {
	return r.db.Omit("SubCategories").Save(c).Error
}

func (r *CategoryRepository) Delete(id uint) (int64, error) {
	if err := r.db.Where("category_id = ?", id).Delete(&models.SubCategory{}).Error; err != nil {
		return 0, err
	}
	res := r.db.Delete(&models.Category{}, id)
	return res.RowsAffected, res.Error
}

// List returns categories whose name contains search, with their sub-categories.
func (r *CategoryRepository) List(search string) ([]models.Category, error) {
	q := r.db.Preload("SubCategories").Order("name ASC")
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var list []models.Category
	err := q.Find(&list).Error
	return list, err
}

func (r *CategoryRepository) CreateSub(s *models.SubCategory) error {
	return r.db.Create(s).Error
}

func (r *CategoryRepository) RenameSub(id uint, name string) (int64, error) {
	res := r.db.Model(&models.SubCategory{}).Where("id = ?", id).Update("name", name)
	return res.RowsAffected, res.Error
}

func (r *CategoryRepository) DeleteSub(id uint) (int64, error) {
	res := r.db.Delete(&models.SubCategory{}, id)
	return res.RowsAffected, res.Error
}
