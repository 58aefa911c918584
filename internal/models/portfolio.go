package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Portfolio is a freelancer's public showcase page.
type Portfolio struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"freelancer_id"`

	Title    string `gorm:"size:200" json:"title"`
	Bio      string `gorm:"type:text" json:"bio,omitempty"`
	IsPublic bool   `gorm:"default:true" json:"is_public"`

	ViewCount int `gorm:"default:0" json:"view_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Freelancer *User           `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Cases      []PortfolioCase `gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE" json:"cases,omitempty"`
}

type PortfolioCase struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	PortfolioID uint `gorm:"index;not null" json:"portfolio_id"`

	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ProjectURL  string `gorm:"size:500" json:"project_url,omitempty"`

	// Image URLs as a JSON array
	Images datatypes.JSON `json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
