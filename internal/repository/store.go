package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Store groups the repositories over one *gorm.DB so that a lifecycle
// operation can run every write inside the same transaction.
type Store struct {
	db *gorm.DB

	Users         *UserRepository
	Refs          *UserRefRepository
	Posts         *PostRepository
	Offers        *OfferRepository
	Orders        *OrderRepository
	Requests      *DeliveryRequestRepository
	Notifications *NotificationRepository
	Payments      *PaymentRepository
	Settings      *SettingRepository
	Categories    *CategoryRepository
	Announcements *AnnouncementRepository
	Verifications *VerificationRepository
	Ratings       *RatingRepository
	Support       *SupportRepository
	Admin         *AdminRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Refs:          NewUserRefRepository(db),
		Posts:         NewPostRepository(db),
		Offers:        NewOfferRepository(db),
		Orders:        NewOrderRepository(db),
		Requests:      NewDeliveryRequestRepository(db),
		Notifications: NewNotificationRepository(db),
		Payments:      NewPaymentRepository(db),
		Settings:      NewSettingRepository(db),
		Categories:    NewCategoryRepository(db),
		Announcements: NewAnnouncementRepository(db),
		Verifications: NewVerificationRepository(db),
		Ratings:       NewRatingRepository(db),
		Support:       NewSupportRepository(db),
		Admin:         NewAdminRepository(db),
	}
}

// Transaction runs fn with a Store bound to a database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB { return s.db }

// likePattern builds a substring match for "LIKE ? ESCAPE '!'".
func likePattern(q string) string {
	return "%" + strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(q) + "%"
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
