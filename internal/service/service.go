package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
	"jobmarket/pkg/mailer"

	"gorm.io/gorm"
)

// Publisher emits live updates. Keys are "socket:<userID>" or a topic such
// as "socket:announcement".
type Publisher interface {
	Publish(key string, payload interface{})
}

// Pusher delivers a push notification to a registered device.
type Pusher interface {
	SendToUser(ctx context.Context, deviceToken, notifType, title, body string, data map[string]interface{}) error
}

type Mailer interface {
	SendReceipt(ctx context.Context, r mailer.Receipt) error
	SendResetCode(ctx context.Context, c mailer.ResetCode) error
}

// FileStore removes uploaded artifacts when the operation that referenced them fails.
type FileStore interface {
	DeleteByURL(ctx context.Context, url string) error
}

func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(what + " not found")
	}
	return fmt.Errorf("%s: %w", what, err)
}

func loadUser(users *repository.UserRepository, id uint) (*models.User, error) {
	u, err := users.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return u, nil
}

// loadActive loads a user and rejects blocked or deleted accounts.
func loadActive(users *repository.UserRepository, id uint) (*models.User, error) {
	u, err := loadUser(users, id)
	if err != nil {
		return nil, err
	}
	if !u.CanAct() {
		return nil, domain.Forbidden(fmt.Sprintf("account %d is %s", u.ID, u.AccountStatus))
	}
	return u, nil
}

func discardUploads(ctx context.Context, files FileStore, urls ...string) {
	if files == nil {
		return
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := files.DeleteByURL(ctx, u); err != nil {
			log.Printf("[upload] cleanup %s: %v", u, err)
		}
	}
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func uintPtr(v uint) *uint { return &v }

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func uitoa(v uint) string { return strconv.FormatUint(uint64(v), 10) }
