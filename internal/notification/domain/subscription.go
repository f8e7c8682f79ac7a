package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Platform identifies the delivery channel of a subscription.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformEmail   Platform = "email"
)

// Platforms lists every supported platform.
var Platforms = []Platform{PlatformWeb, PlatformAndroid, PlatformIOS, PlatformEmail}

var ErrUnknownPlatform = errors.New("unknown platform")

// ParsePlatform accepts a platform name in any case.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformWeb, PlatformAndroid, PlatformIOS, PlatformEmail:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// IsPush reports whether the platform is a push channel (anything but email).
func (p Platform) IsPush() bool {
	return p != PlatformEmail
}

// Subscription is a registered (user, device) endpoint with its own preferences.
type Subscription struct {
	ID                  string            `json:"id" gorm:"primaryKey"`
	UserID              string            `json:"user_id" gorm:"not null;uniqueIndex:idx_subscriptions_user_device"`
	DeviceIdentifier    string            `json:"device_id" gorm:"not null;uniqueIndex:idx_subscriptions_user_device"`
	Platform            Platform          `json:"platform" gorm:"size:16;not null"`
	Destination         string            `json:"-" gorm:"not null;index"` // push registration, endpoint or email address
	IsPermissionGranted bool              `json:"permission_granted" gorm:"not null"`
	NotificationKinds   map[Category]bool `json:"notification_kinds" gorm:"serializer:json"`
	Preferences         *QuietWindow      `json:"preferences,omitempty" gorm:"serializer:json"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Wants reports whether the subscription opted in to the category.
func (s *Subscription) Wants(c Category) bool {
	return s.NotificationKinds[c]
}

// SubscriptionFields are the mutable fields written by an upsert.
type SubscriptionFields struct {
	Platform            Platform
	Destination         string
	IsPermissionGranted bool
	NotificationKinds   map[Category]bool
	Preferences         *QuietWindow
}

// Validate checks the fields required for an upsert.
func (f SubscriptionFields) Validate() error {
	if _, err := ParsePlatform(string(f.Platform)); err != nil {
		return &ValidationError{Field: "platform", Err: err}
	}
	if strings.TrimSpace(f.Destination) == "" {
		return &ValidationError{Field: "destination", Err: ErrRequired}
	}
	for c := range f.NotificationKinds {
		if _, err := ParseCategory(string(c)); err != nil {
			return &ValidationError{Field: "notification_kinds", Err: err}
		}
	}
	if f.Preferences != nil {
		if err := f.Preferences.Validate(); err != nil {
			return err
		}
	}
	return nil
}
