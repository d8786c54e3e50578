package models

import "time"

// Rating is a customer's review of the provider who completed an order.
type Rating struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;uniqueIndex" json:"orderId"`
	CustomerID uint      `gorm:"not null;index" json:"customer"`
	ProviderID uint      `gorm:"not null;index" json:"provider"`
	PostID     *uint     `json:"post"`
	Stars      int       `gorm:"not null" json:"stars"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Rating) TableName() string { return "ratings" }

type RatingSummary struct {
	Average float64 `json:"averageRating"`
	Count   int64   `json:"totalRatings"`
}
