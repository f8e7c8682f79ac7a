package repository

import (
	"context"
	"errors"
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("subscription not found")
	ErrEmptyCriteria = errors.New("delete criteria must not be empty")
)

// DeleteCriteria selects subscriptions to remove. Fields are combined with
// AND; UserID alone removes every subscription of the user.
type DeleteCriteria struct {
	ID               string
	UserID           string
	DeviceIdentifier string
	Destination      string
}

func (c DeleteCriteria) empty() bool {
	return c.ID == "" && c.UserID == "" && c.DeviceIdentifier == "" && c.Destination == ""
}

// PreferencesUpdate replaces the fields that are set. ClearWindow removes
// the delivery window.
type PreferencesUpdate struct {
	Window      *domain.QuietWindow
	ClearWindow bool
	Kinds       map[domain.Category]bool
	Permission  *bool
}

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	FindByUser(ctx context.Context, userID string) ([]*domain.Subscription, error)
	FindByDevice(ctx context.Context, userID, deviceID string) (*domain.Subscription, error)
	Upsert(ctx context.Context, userID, deviceID string, fields domain.SubscriptionFields) (*domain.Subscription, error)
	UpdatePreferences(ctx context.Context, userID, deviceID string, update PreferencesUpdate) (*domain.Subscription, error)
	Delete(ctx context.Context, criteria DeleteCriteria) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a gorm-backed SubscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// FindByUser returns every subscription of a user, oldest first
func (r *subscriptionRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	var subs []*domain.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) FindByDevice(ctx context.Context, userID, deviceID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND device_identifier = ?", userID, deviceID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// Upsert inserts or updates the subscription for (userID, deviceID) atomically
func (r *subscriptionRepository) Upsert(ctx context.Context, userID, deviceID string, fields domain.SubscriptionFields) (*domain.Subscription, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:                  uuid.New().String(),
		UserID:              userID,
		DeviceIdentifier:    deviceID,
		Platform:            fields.Platform,
		Destination:         fields.Destination,
		IsPermissionGranted: fields.IsPermissionGranted,
		NotificationKinds:   fields.NotificationKinds,
		Preferences:         fields.Preferences,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if sub.NotificationKinds == nil {
		sub.NotificationKinds = map[domain.Category]bool{}
	}

	// INSERT ... ON CONFLICT (user_id, device_identifier) DO UPDATE
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "device_identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"platform", "destination", "is_permission_granted",
			"notification_kinds", "preferences", "updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		return nil, err
	}

	return r.FindByDevice(ctx, userID, deviceID)
}

func (r *subscriptionRepository) UpdatePreferences(ctx context.Context, userID, deviceID string, update PreferencesUpdate) (*domain.Subscription, error) {
	if update.Window != nil {
		if err := update.Window.Validate(); err != nil {
			return nil, err
		}
	}
	for c := range update.Kinds {
		if _, err := domain.ParseCategory(string(c)); err != nil {
			return nil, &domain.ValidationError{Field: "notification_kinds", Err: err}
		}
	}

	var out *domain.Subscription
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub domain.Subscription
		err := tx.Where("user_id = ? AND device_identifier = ?", userID, deviceID).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		switch {
		case update.ClearWindow:
			sub.Preferences = nil
		case update.Window != nil:
			w := *update.Window
			sub.Preferences = &w
		}
		if update.Kinds != nil {
			sub.NotificationKinds = update.Kinds
		}
		if update.Permission != nil {
			sub.IsPermissionGranted = *update.Permission
		}
		sub.UpdatedAt = time.Now().UTC()

		// Select forces zero values (nil window, false permission) to be written
		if err := tx.Model(&sub).
			Select("preferences", "notification_kinds", "is_permission_granted", "updated_at").
			Updates(&sub).Error; err != nil {
			return err
		}
		out = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the subscriptions matching criteria and reports how many were removed
func (r *subscriptionRepository) Delete(ctx context.Context, criteria DeleteCriteria) (int64, error) {
	if criteria.empty() {
		return 0, ErrEmptyCriteria
	}

	q := r.db.WithContext(ctx)
	if criteria.ID != "" {
		q = q.Where("id = ?", criteria.ID)
	}
	if criteria.UserID != "" {
		q = q.Where("user_id = ?", criteria.UserID)
	}
	if criteria.DeviceIdentifier != "" {
		q = q.Where("device_identifier = ?", criteria.DeviceIdentifier)
	}
	if criteria.Destination != "" {
		q = q.Where("destination = ?", criteria.Destination)
	}

	res := q.Delete(&domain.Subscription{})
	return res.RowsAffected, res.Error
}
