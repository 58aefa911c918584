package models

import (
	"time"

	"github.com/google/uuid"
)

type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusWithdrawn BidStatus = "withdrawn"
)

// Terminal reports whether the bid can no longer change state.
func (s BidStatus) Terminal() bool {
	return s == BidStatusAccepted || s == BidStatusRejected || s == BidStatusWithdrawn
}

type Bid struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"index;not null" json:"project_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	ProposedAmount        float64 `gorm:"type:numeric(18,2)" json:"proposed_amount"`
	EstimatedDurationDays int     `json:"estimated_duration_days"`
	CoverLetter           string  `gorm:"type:text;not null" json:"cover_letter"`

	Status BidStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}
