package usecase

import (
	"context"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
)

// Dispatcher fans a notification out to every subscription of its users
type Dispatcher interface {
	// SendNotification delivers payload to each user. Per-subscription
	// failures are recorded, not returned; only subscription store errors are.
	SendNotification(ctx context.Context, users []domain.UserRef, payload domain.NotificationPayload) error

	// SendAndLog sends to a single subscription bypassing policy, writing the
	// audit trail around the provider call
	SendAndLog(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload) (bool, error)
}

// SubscriptionUsecase manages a user's own subscriptions
type SubscriptionUsecase interface {
	Register(ctx context.Context, userID string, req RegisterRequest) (*domain.Subscription, error)
	UpdatePreferences(ctx context.Context, userID, deviceID string, req PreferencesRequest) (*domain.Subscription, error)
	Unsubscribe(ctx context.Context, userID, deviceID string) error
	List(ctx context.Context, userID string) ([]*domain.Subscription, error)
	History(ctx context.Context, userID string, limit int) ([]domain.Event, error)
}

// WindowRequest describes a delivery window in whole hours.
// Days use 0 for Sunday through 6 for Saturday.
type WindowRequest struct {
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Days      []int  `json:"days"`
	Timezone  string `json:"timezone"`
}

// RegisterRequest represents a device registration
type RegisterRequest struct {
	DeviceID          string         `json:"device_id" binding:"required"`
	Platform          string         `json:"platform" binding:"required"`
	Destination       string         `json:"destination" binding:"required"`
	PermissionGranted bool           `json:"permission_granted"`
	Kinds             []string       `json:"kinds"`
	Window            *WindowRequest `json:"window,omitempty"`
}

// PreferencesRequest updates the fields that are set
type PreferencesRequest struct {
	Window            *WindowRequest `json:"window,omitempty"`
	ClearWindow       bool           `json:"clear_window"`
	Kinds             []string       `json:"kinds"`
	PermissionGranted *bool          `json:"permission_granted,omitempty"`
}

// SendRequest asks for payload to be delivered to every listed user
type SendRequest struct {
	RequestID string                     `json:"request_id,omitempty"`
	UserIDs   []string                   `json:"user_ids"`
	Payload   domain.NotificationPayload `json:"payload"`
}

// Validate normalizes the category and requires at least one user
func (r *SendRequest) Validate() error {
	if len(r.UserIDs) == 0 {
		return &domain.ValidationError{Field: "user_ids", Err: domain.ErrRequired}
	}
	if c, err := domain.ParseCategory(string(r.Payload.Category)); err == nil {
		r.Payload.Category = c
	}
	return r.Payload.Validate()
}

// Users converts the request's ids to references
func (r *SendRequest) Users() []domain.UserRef {
	users := make([]domain.UserRef, 0, len(r.UserIDs))
	for _, id := range r.UserIDs {
		users = append(users, domain.UserRef{ID: id})
	}
	return users
}
