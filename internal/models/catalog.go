package models

import "time"

type Category struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Image         string        `gorm:"size:512" json:"image"`
	SubCategories []SubCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"subCategories,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (Category) TableName() string { return "categories" }

type SubCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"not null;index" json:"categoryId"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (SubCategory) TableName() string { return "sub_categories" }

type Announcement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Status    string    `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	CreatedBy uint      `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Announcement) TableName() string { return "announcements" }

// VerificationRequest is a provider's identity submission awaiting admin review.
type VerificationRequest struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"userId"`
	Document   string     `gorm:"size:512" json:"document"`
	Images     StringList `gorm:"type:text" json:"images"`
	Status     string     `gorm:"size:20;not null;index" json:"status"`
	Note       string     `gorm:"type:text" json:"note"`
	ReviewedBy *uint      `json:"reviewedBy"`
	ReviewedAt *time.Time `json:"reviewedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (VerificationRequest) TableName() string { return "verification_requests" }
