package models

import "time"

type Order struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	OfferID              uint       `gorm:"not null;uniqueIndex" json:"offerId"`
	ProjectID            *uint      `gorm:"index" json:"projectId"`
	CustomerID           uint       `gorm:"not null;index" json:"customer"`
	ProviderID           uint       `gorm:"not null;index" json:"provider"`
	Budget               float64    `gorm:"not null" json:"budget"`
	CommissionPercentage float64    `json:"commissionPercentage"`
	DeliveryDate         *time.Time `json:"deliveryDate"`
	Status               string     `gorm:"size:20" json:"status"` // "" or DECLINE
	IsCompleted          bool       `gorm:"default:false;index" json:"isCompleted"`
	CompletedAt          *time.Time `json:"completedAt"`
	DeliveryRequested    bool       `gorm:"default:false" json:"deliveryRequested"`
	RequestID            *uint      `json:"requestId"`
	IsExtended           bool       `gorm:"default:false" json:"isExtended"`
	ExtendsDate          *time.Time `json:"extendsDate"`
	ExtendsMessage       string     `gorm:"type:text" json:"extendsMessage"`
	PayoutTransferID     string     `gorm:"size:64" json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) HasParty(userID uint) bool { return o.CustomerID == userID || o.ProviderID == userID }

// DeliveryRequest is a provider's delivery submission or time-extension request.
// IsValid is false once a newer request for the same order and parties supersedes it.
type DeliveryRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrderID          uint       `gorm:"not null;index" json:"orderID"`
	For              uint       `gorm:"column:for_user_id;not null;index" json:"for"`
	From             uint       `gorm:"column:from_user_id;not null;index" json:"from"`
	RequestType      string     `gorm:"size:20;not null" json:"requestType"`
	ProjectDoc       string     `gorm:"type:text" json:"projectDoc"`
	UploadedProject  string     `gorm:"size:512" json:"uploadedProject"`
	PDF              string     `gorm:"column:pdf;size:512" json:"pdf"`
	Images           StringList `gorm:"type:text" json:"images"`
	Reason           string     `gorm:"type:text" json:"reason"`
	NextExtendedDate *time.Time `json:"nextExtendedDate"`
	Location         string     `gorm:"size:255" json:"location"`
	RequestStatus    string     `gorm:"size:20;not null;index" json:"requestStatus"`
	IsValid          bool       `gorm:"not null;default:true" json:"isValid"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (DeliveryRequest) TableName() string { return "delivery_requests" }
