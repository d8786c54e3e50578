package service

import (
	"context"
	"fmt"
	"strings"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
)

type ProfileChanges struct {
	FullName     *string `json:"fullName" validate:"omitempty,min=1,max=128"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,url"`
}

type RatingInput struct {
	Stars   int    `json:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ProviderProfile is the public view of a service provider.
type ProviderProfile struct {
	User    *models.User         `json:"user"`
	Ratings models.RatingSummary `json:"ratings"`
}

// ProfileService covers a user's own account and the public provider pages.
type ProfileService struct {
	store  *repository.Store
	notify *NotificationService
	files  FileStore
}

func NewProfileService(store *repository.Store, notify *NotificationService, files FileStore) *ProfileService {
	return &ProfileService{store: store, notify: notify, files: files}
}

func (s *ProfileService) Update(ctx context.Context, userID uint, in ProfileChanges) (u *models.User, err error) {
	defer func() {
		if err != nil && in.ProfileImage != nil {
			discardUploads(ctx, s.files, *in.ProfileImage)
		}
	}()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	u, err = loadActive(s.store.Users, userID)
	if err != nil {
		return nil, err
	}
	old := ""
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, domain.Validation("fullName must not be empty")
		}
		u.FullName = name
	}
	if in.ProfileImage != nil && *in.ProfileImage != u.ProfileImage {
		old, u.ProfileImage = u.ProfileImage, *in.ProfileImage
	}
	if err := s.store.Users.Update(u); err != nil {
		return nil, err
	}
	discardUploads(ctx, s.files, old)
	return u, nil
}

// Delete closes the caller's account. Accounts with open orders stay until
// those orders finish.
func (s *ProfileService) Delete(ctx context.Context, userID uint) error {
	u, err := loadActive(s.store.Users, userID)
	if err != nil {
		return err
	}
	if u.IsAdmin() {
		return domain.Forbidden("admin accounts are removed by a super admin")
	}
	open, err := s.store.Orders.CountOpenForUser(u.ID)
	if err != nil {
		return err
	}
	if open > 0 {
		return domain.Conflict(fmt.Sprintf("you have %d open orders", open))
	}
	if err := s.store.Users.Anonymize(u.ID, fmt.Sprintf("deleted-%d@deleted.invalid", u.ID)); err != nil {
		return err
	}
	discardUploads(ctx, s.files, u.ProfileImage)
	return nil
}

func (s *ProfileService) Provider(id uint) (*ProviderProfile, error) {
	u, err := loadUser(s.store.Users, id)
	if err != nil {
		return nil, err
	}
	if !u.IsProvider() || !u.CanAct() {
		return nil, domain.NotFound("provider not found")
	}
	sum, err := s.store.Ratings.Summary(u.ID)
	if err != nil {
		return nil, err
	}
	return &ProviderProfile{User: u, Ratings: sum}, nil
}

func (s *ProfileService) ProviderRatings(providerID uint, page, limit int) ([]models.Rating, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Ratings.ListByProvider(providerID, page, limit)
}

// Rate records the customer's review of a completed order. Each order takes
// one rating.
func (s *ProfileService) Rate(ctx context.Context, customerID, orderID uint, in RatingInput) (*models.Rating, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	customer, err := loadActive(s.store.Users, customerID)
	if err != nil {
		return nil, err
	}
	order, err := s.store.Orders.GetByID(orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if order.CustomerID != customer.ID {
		return nil, domain.Unauthorized("only the order's customer can rate it")
	}
	if !order.IsCompleted {
		return nil, domain.Conflict("only completed orders can be rated")
	}
	rated, err := s.store.Ratings.ExistsForOrder(order.ID)
	if err != nil {
		return nil, err
	}
	if rated {
		return nil, domain.Conflict("this order is already rated")
	}
	r := &models.Rating{
		OrderID:    order.ID,
		CustomerID: customer.ID,
		ProviderID: order.ProviderID,
		PostID:     order.ProjectID,
		Stars:      in.Stars,
		Comment:    strings.TrimSpace(in.Comment),
	}
	if err := s.store.Ratings.Create(r); err != nil {
		return nil, err
	}
	s.notify.DispatchAll(ctx, &models.Notification{
		For:              order.ProviderID,
		NotificationType: domain.NotifyRating,
		Content:          fmt.Sprintf("%s rated your work %d/5", displayName(customer), in.Stars),
		Data:             models.NotificationData{OrderID: uintPtr(order.ID), Title: "New rating"},
	})
	return r, nil
}

func (s *ProfileService) SearchProviders(query string, page, limit int) ([]models.User, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, domain.Validation("search query is required")
	}
	page, limit = normalizePage(page, limit)
	return s.store.Users.SearchProviders(query, page, limit)
}
