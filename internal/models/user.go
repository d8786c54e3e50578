package models

import (
	"time"

	"jobmarket/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	FullName           string         `gorm:"size:128" json:"fullName"`
	Email              string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash       string         `gorm:"size:255" json:"-"`
	Role               string         `gorm:"size:20;not null;index" json:"role"` // USER | SERVICE_PROVIDER | ADMIN | SUPER_ADMIN
	AccountStatus      string         `gorm:"size:20;not null;default:'ACTIVE';index" json:"accountStatus"`
	VerificationStatus string         `gorm:"size:20;not null;default:'UNVERIFIED'" json:"verificationStatus"`
	GoogleID           *string        `gorm:"uniqueIndex;size:255" json:"-"`
	ProfileImage       string         `gorm:"size:512" json:"profileImage"`
	DeviceToken        string         `gorm:"size:512" json:"-"` // FCM registration token
	PayoutAccountID    string         `gorm:"size:64" json:"-"`  // Stripe Connect account
	PayoutsEnabled     bool           `gorm:"default:false" json:"payoutsEnabled"`
	ResetCodeHash      string         `gorm:"size:255" json:"-"`
	ResetCodeAttempts  int            `gorm:"default:0" json:"-"`
	ResetKeyHash       string         `gorm:"size:255" json:"-"`
	ResetExpiresAt     *time.Time     `json:"-"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsCustomer() bool { return u.Role == domain.RoleUser }
func (u *User) IsProvider() bool { return u.Role == domain.RoleServiceProvider }
func (u *User) IsAdmin() bool {
	return u.Role == domain.RoleAdmin || u.Role == domain.RoleSuperAdmin
}

// HasPayoutAccount reports whether the user can receive transfers.
func (u *User) HasPayoutAccount() bool { return u.PayoutAccountID != "" && u.PayoutsEnabled }

// CanAct reports whether the account may take part in marketplace operations.
func (u *User) CanAct() bool {
	return u.AccountStatus != domain.AccountBlock && u.AccountStatus != domain.AccountDelete
}

// UserRef is one entry of a user's back-reference lists (offers, orders, jobs, favourites).
type UserRef struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_ref" json:"userId"`
	Kind      string    `gorm:"size:32;not null;uniqueIndex:idx_user_ref" json:"kind"`
	RefID     uint      `gorm:"not null;uniqueIndex:idx_user_ref;index" json:"refId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (UserRef) TableName() string { return "user_refs" }
