package models

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
	ContractStatusDisputed  ContractStatus = "disputed"
)

type Contract struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"uniqueIndex;not null" json:"project_id"`

	ClientID     uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	AgreedAmount float64    `gorm:"type:numeric(18,2)" json:"agreed_amount"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Terms        string     `gorm:"type:text" json:"terms,omitempty"`

	Status ContractStatus `gorm:"type:varchar(20);default:active;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project    *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Client     *User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User    `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

// Party reports whether userID is the contract's client or freelancer.
func (c *Contract) Party(userID uuid.UUID) bool {
	return c.ClientID == userID || c.FreelancerID == userID
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentTransaction is a ledger record against a contract. Gateway
// integration is out of scope; rows are written when a client records a
// payment and aggregated for freelancer earnings.
type PaymentTransaction struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ContractID uint `gorm:"index;not null" json:"contract_id"`

	Amount float64       `gorm:"type:numeric(18,2)" json:"amount"`
	Status PaymentStatus `gorm:"type:varchar(20);default:pending" json:"status"`
	Note   string        `gorm:"size:255" json:"note,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
}
