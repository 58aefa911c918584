package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
	ProjectStatusClosed     ProjectStatus = "closed"
)

type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Budget      float64   `gorm:"type:numeric(18,2)" json:"budget"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	CategoryID uint      `gorm:"index" json:"category_id"`
	ClientID   uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`

	Status ProjectStatus `gorm:"type:varchar(20);default:open;index" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Client   *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Bids     []Bid     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"bids,omitempty"`
	Contract *Contract `gorm:"foreignKey:ProjectID" json:"contract,omitempty"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
