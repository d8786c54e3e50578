package models

import "time"

// Post is a job published by a customer. Posts are soft-deleted through IsDeleted.
type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CreatorID       uint       `gorm:"not null;index" json:"creator"`
	ProjectName     string     `gorm:"size:255" json:"projectName"`
	Category        string     `gorm:"size:128;index" json:"category"`
	SubCategory     string     `gorm:"size:128" json:"subCategory"`
	Location        string     `gorm:"size:255" json:"location"`
	Lat             float64    `json:"lat"`
	Lng             float64    `json:"lng"`
	Deadline        *time.Time `json:"deadline"`
	JobDescription  string     `gorm:"type:text" json:"jobDescription"`
	CoverImage      string     `gorm:"size:512" json:"coverImage"`
	ShowcaseImages  StringList `gorm:"type:text" json:"showcaseImages"`
	AcceptedOfferID *uint      `gorm:"index" json:"acceptedOffer"`
	IsOnProject     bool       `gorm:"default:false" json:"isOnProject"`
	IsPaid          bool       `gorm:"default:false" json:"isPaid"`
	IsDeleted       bool       `gorm:"default:false;index" json:"isDeleted"`
	AutoCreated     bool       `gorm:"default:false" json:"autoCreated"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }
