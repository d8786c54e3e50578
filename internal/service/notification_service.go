package service

import (
	"context"
	"log"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
)

// NotificationService persists notifications and fans them out to the
// recipient's live channel and device.
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	live     Publisher
	push     Pusher
}

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, live Publisher, push Pusher) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, live: live, push: push}
}

// Dispatch stores n and emits it on "socket:<recipient>". Delivery failures
// after the row is stored are logged, not returned.
func (s *NotificationService) Dispatch(ctx context.Context, n *models.Notification) error {
	if err := s.repo.Create(n); err != nil {
		log.Printf("[notify] store for user %d: %v", n.For, err)
		return err
	}
	if s.live != nil {
		s.live.Publish(userChannel(n.For), n)
	}
	s.sendPush(ctx, n)
	return nil
}

// DispatchAll sends every notification, continuing past failures.
func (s *NotificationService) DispatchAll(ctx context.Context, list ...*models.Notification) {
	for _, n := range list {
		if n == nil {
			continue
		}
		_ = s.Dispatch(ctx, n)
	}
}

func (s *NotificationService) sendPush(ctx context.Context, n *models.Notification) {
	if s.push == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(n.For)
	if err != nil || u.DeviceToken == "" {
		return
	}
	data := map[string]interface{}{"notificationId": n.ID}
	if n.Data.OfferID != nil {
		data["offerId"] = *n.Data.OfferID
	}
	if n.Data.PostID != nil {
		data["postId"] = *n.Data.PostID
	}
	if n.Data.OrderID != nil {
		data["orderId"] = *n.Data.OrderID
	}
	if n.Data.RequestID != nil {
		data["requestId"] = *n.Data.RequestID
	}
	title := n.Data.Title
	if title == "" {
		title = "Job Market"
	}
	if err := s.push.SendToUser(ctx, u.DeviceToken, n.NotificationType, title, n.Content, data); err != nil {
		log.Printf("[notify] push to user %d: %v", n.For, err)
	}
}

func (s *NotificationService) List(userID uint, page, limit int) ([]models.Notification, int64, error) {
	page, limit = normalizePage(page, limit)
	list, err := s.repo.ListByUserID(userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(userID)
	return list, unread, err
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

// MarkRead marks ids read; no ids marks everything.
func (s *NotificationService) MarkRead(userID uint, ids []uint) error {
	return s.repo.MarkRead(ids, userID)
}

func (s *NotificationService) Delete(userID uint, ids []uint) error {
	if len(ids) == 0 {
		return domain.Validation("ids are required")
	}
	n, err := s.repo.Delete(ids, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("notification not found")
	}
	return nil
}

func userChannel(userID uint) string {
	return domain.ChannelUserPrefix + uitoa(userID)
}
