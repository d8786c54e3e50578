package models

import "time"

// Offer is a proposal from Form (sender) to To (recipient). Counter-offers
// keep the parties of the offer they answer, reference it through OfferID and
// the first offer of the chain through RootOfferID. AuthorID is whoever
// proposed these particular terms; only the other party may accept them.
type Offer struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	To             uint       `gorm:"column:to_user_id;not null;index" json:"to"`
	Form           uint       `gorm:"column:form_user_id;not null;index" json:"form"`
	ProjectID      *uint      `gorm:"index" json:"projectID"`
	ProjectName    string     `gorm:"size:255" json:"projectName"`
	Category       string     `gorm:"size:128" json:"category"`
	SubCategory    string     `gorm:"size:128" json:"subCategory"`
	Budget         float64    `gorm:"not null" json:"budget"`
	JobLocation    string     `gorm:"size:255" json:"jobLocation"`
	Lat            float64    `json:"lat"`
	Lng            float64    `json:"lng"`
	Deadline       *time.Time `json:"deadline"`
	ValidFor       *time.Time `json:"validFor"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	Description    string     `gorm:"type:text" json:"description"`
	Status         string     `gorm:"size:20;not null;index" json:"status"`
	TypeOfOffer    string     `gorm:"size:20;not null" json:"typeOfOffer"`
	OfferID        *uint      `gorm:"column:parent_offer_id;index" json:"offerId"`
	RootOfferID    *uint      `gorm:"index" json:"rootOfferId"`
	TrackOfferType string     `gorm:"size:32" json:"trackOfferType"`
	AuthorID       uint       `gorm:"not null;index" json:"author"`
	Images         StringList `gorm:"type:text" json:"images"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Offer) TableName() string { return "offers" }

// ChainRoot returns the id of the first offer in this offer's chain.
func (o *Offer) ChainRoot() uint {
	if o.RootOfferID != nil {
		return *o.RootOfferID
	}
	return o.ID
}

// HasParty reports whether userID is the sender or the recipient.
func (o *Offer) HasParty(userID uint) bool { return o.To == userID || o.Form == userID }

// DeliveryDate is the date an order created from this offer is due.
func (o *Offer) DeliveryDate() *time.Time {
	if o.Deadline != nil {
		return o.Deadline
	}
	return o.EndDate
}

// Responder is the party expected to accept or decline these terms.
func (o *Offer) Responder() uint {
	if o.AuthorID == o.To {
		return o.Form
	}
	return o.To
}
