package service

import (
	"context"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
)

type VerificationInput struct {
	Document string   `json:"document" validate:"required,url"`
	Images   []string `json:"images" validate:"max=10,dive,url"`
}

// VerificationService handles provider identity checks.
type VerificationService struct {
	store  *repository.Store
	notify *NotificationService
	files  FileStore
}

func NewVerificationService(store *repository.Store, notify *NotificationService, files FileStore) *VerificationService {
	return &VerificationService{store: store, notify: notify, files: files}
}

// Submit files a verification request. A provider has at most one pending request.
func (s *VerificationService) Submit(ctx context.Context, userID uint, in VerificationInput) (req *models.VerificationRequest, err error) {
	defer func() {
		if err != nil {
			discardUploads(ctx, s.files, append([]string{in.Document}, in.Images...)...)
		}
	}()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	u, err := loadActive(s.store.Users, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsProvider() {
		return nil, domain.Forbidden("only service providers can be verified")
	}
	if u.VerificationStatus == domain.VerificationVerified {
		return nil, domain.Conflict("account is already verified")
	}
	req = &models.VerificationRequest{
		UserID:   u.ID,
		Document: in.Document,
		Images:   models.StringList(in.Images),
		Status:   domain.VerificationWaiting,
	}
	err = s.store.Transaction(func(tx *repository.Store) error {
		n, err := tx.Verifications.CountPendingForUser(u.ID, domain.VerificationWaiting)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Conflict("a verification request is already pending")
		}
		if err := tx.Verifications.Create(req); err != nil {
			return err
		}
		return tx.Users.SetVerificationStatus(u.ID, domain.VerificationWaiting)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *VerificationService) List(status string, page, limit int) ([]models.VerificationRequest, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Verifications.List(status, page, limit)
}

func (s *VerificationService) Get(id uint) (*models.VerificationRequest, error) {
	req, err := s.store.Verifications.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "verification request")
	}
	return req, nil
}

// Review approves (VERIFIED) or declines (REJECTED) a pending request and
// tells the provider.
func (s *VerificationService) Review(ctx context.Context, adminID, id uint, approve bool, note string) (*models.VerificationRequest, error) {
	req, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	status := domain.VerificationRejected
	if approve {
		status = domain.VerificationVerified
	}
	err = s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Verifications.Review(req.ID, domain.VerificationWaiting, status, note, adminID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("verification request was already reviewed")
		}
		return tx.Users.SetVerificationStatus(req.UserID, status)
	})
	if err != nil {
		return nil, err
	}

	content := "Your account has been verified."
	if !approve {
		content = "Your verification request was declined."
		if note != "" {
			content += " " + note
		}
	}
	s.notify.DispatchAll(ctx, &models.Notification{
		For:              req.UserID,
		Content:          content,
		NotificationType: domain.NotifyVerification,
		Data:             models.NotificationData{Title: "Verification"},
	})
	return s.Get(req.ID)
}
