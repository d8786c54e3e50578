package repository

import (
	"jobmarket/internal/domain"
	"jobmarket/internal/models"

	"gorm.io/gorm"
)

// AdminRepository serves the admin back office: user listings, ledger views
// and the aggregates behind the overview.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) CountUsers(role string) (int64, error) {
	var n int64
	q := r.db.Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *AdminRepository) CountOrders(completed *bool) (int64, error) {
	var n int64
	q := r.db.Model(&models.Order{})
	if completed != nil {
		q = q.Where("is_completed = ?", *completed)
	}
	err := q.Count(&n).Error
	return n, err
}

// SumCommission totals the commission of ledger entries of kind in status.
func (r *AdminRepository) SumCommission(kind, status string) (float64, error) {
	var res struct{ Total float64 }
	err := r.db.Model(&models.Payment{}).
		Select("COALESCE(SUM(commission), 0) as total").
		Where("kind = ? AND status = ?", kind, status).
		Scan(&res).Error
	return res.Total, err
}

func (r *AdminRepository) ListUsers(search, role, status string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("full_name LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if status != "" {
		q = q.Where("account_status = ?", status)
	}
	var total int64
	q.Count(&total)
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&users).Error
	return users, total, err
}

func (r *AdminRepository) ListPayments(kind, status string, page, limit int) ([]models.Payment, int64, error) {
	q := r.db.Model(&models.Payment{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Payment
	err := q.Order("created_at DESC").Limit(limit).Offset(pageOffset(page, limit)).Find(&list).Error
	return list, total, err
}

// ActiveAdminIDs lists the admins and super admins who can act.
func (r *AdminRepository) ActiveAdminIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).
		Where("role IN ? AND account_status = ?", []string{domain.RoleAdmin, domain.RoleSuperAdmin}, domain.AccountActive).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteAdmin removes an ADMIN account. Super admins never match.
func (r *AdminRepository) DeleteAdmin(id uint) (int64, error) {
	res := r.db.Unscoped().Where("id = ? AND role = ?", id, domain.RoleAdmin).Delete(&models.User{})
	return res.RowsAffected, res.Error
}
