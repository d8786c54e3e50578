package service

import (
	"context"
	"log"
	"strings"
	"time"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
)

type SupportInput struct {
	Category string `json:"category" validate:"required,max=64"`
	Message  string `json:"message" validate:"required,max=5000"`
	Image    string `json:"image" validate:"omitempty,url"`
}

// SupportService carries help requests from users to the admin team.
type SupportService struct {
	store  *repository.Store
	notify *NotificationService
	files  FileStore
}

func NewSupportService(store *repository.Store, notify *NotificationService, files FileStore) *SupportService {
	return &SupportService{store: store, notify: notify, files: files}
}

// Open files a ticket and notifies every active admin.
func (s *SupportService) Open(ctx context.Context, userID uint, in SupportInput) (t *models.SupportTicket, err error) {
	defer func() {
		if err != nil {
			discardUploads(ctx, s.files, in.Image)
		}
	}()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	u, err := loadActive(s.store.Users, userID)
	if err != nil {
		return nil, err
	}
	t = &models.SupportTicket{
		UserID:   u.ID,
		Category: strings.TrimSpace(in.Category),
		Message:  strings.TrimSpace(in.Message),
		Image:    in.Image,
		Status:   domain.SupportPending,
	}
	if err := s.store.Support.Create(t); err != nil {
		return nil, err
	}
	admins, err := s.store.Admin.ActiveAdminIDs()
	if err != nil {
		log.Printf("[support] ticket %d: admin lookup: %v", t.ID, err)
		return t, nil
	}
	list := make([]*models.Notification, 0, len(admins))
	for _, id := range admins {
		list = append(list, &models.Notification{
			For:              id,
			NotificationType: domain.NotifySupport,
			Content:          "You have a support request from " + displayName(u),
			Data:             models.NotificationData{Title: "Support request"},
		})
	}
	s.notify.DispatchAll(ctx, list...)
	return t, nil
}

func (s *SupportService) Mine(userID uint, page, limit int) ([]models.SupportTicket, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Support.List(userID, "", page, limit)
}

func (s *SupportService) List(status string, page, limit int) ([]models.SupportTicket, int64, error) {
	if status != "" && status != domain.SupportPending && status != domain.SupportSolved {
		return nil, 0, domain.Validation("status must be PENDING or SOLVED")
	}
	page, limit = normalizePage(page, limit)
	return s.store.Support.List(0, status, page, limit)
}

// Reply answers a pending ticket, marks it solved and notifies its author.
func (s *SupportService) Reply(ctx context.Context, adminID, ticketID uint, message string) (*models.SupportTicket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.Validation("message is required")
	}
	t, err := s.store.Support.GetByID(ticketID)
	if err != nil {
		return nil, lookupErr(err, "support request")
	}
	ok, err := s.store.Support.Reply(t.ID, adminID, message, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Conflict("this support request is already answered")
	}
	t, err = s.store.Support.GetByID(t.ID)
	if err != nil {
		return nil, lookupErr(err, "support request")
	}
	s.notify.DispatchAll(ctx, &models.Notification{
		For:              t.UserID,
		NotificationType: domain.NotifySupport,
		Content:          "Support replied: " + message,
		Data:             models.NotificationData{Title: "Support reply"},
	})
	return t, nil
}
