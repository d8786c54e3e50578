package models

import "time"

// NotificationData is the typed payload clients use to deep-link a notification.
type NotificationData struct {
	Title     string `gorm:"size:255" json:"title,omitempty"`
	OfferID   *uint  `gorm:"index" json:"offerId,omitempty"`
	PostID    *uint  `json:"postId,omitempty"`
	OrderID   *uint  `json:"orderId,omitempty"`
	RequestID *uint  `json:"requestId,omitempty"`
	Image     string `gorm:"size:512" json:"image,omitempty"`
}

type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	For              uint             `gorm:"column:user_id;not null;index" json:"for"`
	Content          string           `gorm:"type:text" json:"content"`
	NotificationType string           `gorm:"size:50;not null;index" json:"notificationType"`
	IsRead           bool             `gorm:"default:false;index" json:"isRead"`
	OriginalOfferID  *uint            `gorm:"index" json:"originalOfferId,omitempty"`
	Data             NotificationData `gorm:"embedded;embeddedPrefix:data_" json:"data"`
	CreatedAt        time.Time        `json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
