package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ContractID uint      `gorm:"index:idx_reviews_contract_reviewer,unique;not null" json:"contract_id"`
	ReviewerID uuid.UUID `gorm:"type:uuid;index:idx_reviews_contract_reviewer,unique;not null" json:"reviewer_id"`
	RevieweeID uuid.UUID `gorm:"type:uuid;index;not null" json:"reviewee_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Reviewer *User     `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Reviewee *User     `gorm:"foreignKey:RevieweeID" json:"reviewee,omitempty"`
}
