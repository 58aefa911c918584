package models

import "time"

// OtpRecord is a database-backed one-time passcode bound to an email.
// Stored in the database so codes survive restarts and work across
// multiple instances. Email is stored lowercased and carries a unique
// index: at most one live record exists per email, enforced by the
// database even when two generations race.
type OtpRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
