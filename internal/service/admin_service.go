package service

import (
	"context"
	"errors"
	"strings"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Overview struct {
	Users           int64   `json:"users"`
	Customers       int64   `json:"customers"`
	Providers       int64   `json:"providers"`
	Orders          int64   `json:"orders"`
	CompletedOrders int64   `json:"completedOrders"`
	Revenue         float64 `json:"revenue"`
}

type AdminService struct {
	store      *repository.Store
	commission *CommissionService
}

func NewAdminService(store *repository.Store, commission *CommissionService) *AdminService {
	return &AdminService{store: store, commission: commission}
}

// Overview computes the dashboard counters concurrently.
func (s *AdminService) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	completed := true
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) { o.Users, err = s.store.Admin.CountUsers(""); return })
	g.Go(func() (err error) { o.Customers, err = s.store.Admin.CountUsers(domain.RoleUser); return })
	g.Go(func() (err error) { o.Providers, err = s.store.Admin.CountUsers(domain.RoleServiceProvider); return })
	g.Go(func() (err error) { o.Orders, err = s.store.Admin.CountOrders(nil); return })
	g.Go(func() (err error) { o.CompletedOrders, err = s.store.Admin.CountOrders(&completed); return })
	g.Go(func() (err error) {
		o.Revenue, err = s.store.Admin.SumCommission(domain.PaymentKindPayout, domain.PaymentSuccess)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *AdminService) ListUsers(search, role, status string, page, limit int) ([]models.User, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Admin.ListUsers(search, role, status, page, limit)
}

type accountStatusInput struct {
	Status string `validate:"required,oneof=ACTIVE BLOCK DELETE REPORT"`
}

// SetAccountStatus changes a user's account status. Admins cannot change
// their own status, and only a super admin may change another admin's.
func (s *AdminService) SetAccountStatus(adminID, userID uint, status string) (*models.User, error) {
	if err := validateInput(&accountStatusInput{Status: status}); err != nil {
		return nil, err
	}
	if adminID == userID {
		return nil, domain.Forbidden("you cannot change your own account status")
	}
	admin, err := loadUser(s.store.Users, adminID)
	if err != nil {
		return nil, err
	}
	target, err := loadUser(s.store.Users, userID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() && admin.Role != domain.RoleSuperAdmin {
		return nil, domain.Forbidden("only a super admin can change an admin's status")
	}
	if _, err := s.store.Users.SetAccountStatus(target.ID, status); err != nil {
		return nil, err
	}
	target.AccountStatus = status
	return target, nil
}

func (s *AdminService) Commission() (float64, error) {
	return s.commission.Percentage(nil)
}

func (s *AdminService) UpdateCommission(pct float64) (float64, error) {
	return s.commission.Update(pct)
}

func (s *AdminService) Payments(kind, status string, page, limit int) ([]models.Payment, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Admin.ListPayments(kind, status, page, limit)
}

type NewAdminInput struct {
	FullName string `json:"fullName" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (s *AdminService) ListAdmins(page, limit int) ([]models.User, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Admin.ListUsers("", domain.RoleAdmin, "", page, limit)
}

// superAdmin loads actorID and requires the SUPER_ADMIN role.
func (s *AdminService) superAdmin(actorID uint) error {
	actor, err := loadActive(s.store.Users, actorID)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleSuperAdmin {
		return domain.Forbidden("only a super admin can manage admins")
	}
	return nil
}

func (s *AdminService) AddAdmin(actorID uint, in NewAdminInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if err := s.superAdmin(actorID); err != nil {
		return nil, err
	}
	_, err := s.store.Users.GetByEmail(in.Email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		FullName:           in.FullName,
		Email:              in.Email,
		PasswordHash:       string(hash),
		Role:               domain.RoleAdmin,
		AccountStatus:      domain.AccountActive,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := s.store.Users.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AdminService) DeleteAdmin(actorID, adminID uint) error {
	if actorID == adminID {
		return domain.Forbidden("you cannot delete your own account")
	}
	if err := s.superAdmin(actorID); err != nil {
		return err
	}
	n, err := s.store.Admin.DeleteAdmin(adminID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("admin not found")
	}
	return nil
}
