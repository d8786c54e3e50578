package models

import "time"

// Payment is a ledger entry. Each order has at most one CHARGE (captured
// checkout) and one PAYOUT (transfer to the provider).
type Payment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"userId"`
	OrderID           uint      `gorm:"not null;uniqueIndex:idx_payment_order_kind" json:"orderId"`
	Kind              string    `gorm:"size:10;not null;uniqueIndex:idx_payment_order_kind" json:"kind"`
	Amount            float64   `gorm:"not null" json:"amount"`
	Commission        float64   `gorm:"not null" json:"commission"`
	Currency          string    `gorm:"size:3;default:'usd'" json:"currency"`
	Status            string    `gorm:"size:20;not null;index" json:"status"`
	CheckoutSessionID string    `gorm:"size:255;index" json:"-"`
	TransferID        string    `gorm:"size:255" json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }
