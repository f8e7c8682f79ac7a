package repository

import (
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"

	"gorm.io/gorm"
)

// Migrate creates or updates the notification tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Subscription{}, &auditRecord{}, &domain.SuppressedNotification{})
}
