package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the PostgreSQL connection. TranslateError turns driver
// unique-violation errors into gorm.ErrDuplicatedKey so the store can map
// them onto its own sentinel.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}
