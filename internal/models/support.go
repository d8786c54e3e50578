package models

import "time"

// SupportTicket is a user's help request and the admin reply that closes it.
type SupportTicket struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"userId"`
	Category   string     `gorm:"size:64;not null" json:"category"`
	Message    string     `gorm:"type:text" json:"message"`
	Image      string     `gorm:"size:512" json:"image"`
	Status     string     `gorm:"size:20;not null;index" json:"status"`
	AdminReply string     `gorm:"type:text" json:"adminReply"`
	RepliedBy  *uint      `json:"repliedBy"`
	RepliedAt  *time.Time `json:"repliedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (SupportTicket) TableName() string { return "support_tickets" }
