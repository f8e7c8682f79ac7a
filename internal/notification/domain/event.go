package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// EventKind tags the variant of an Event.
type EventKind string

const (
	KindNotification EventKind = "notification"
	KindRideView     EventKind = "ride_view"
	KindSearch       EventKind = "search"
)

// Envelope is shared by every event variant.
type Envelope struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    *string   `json:"user_id,omitempty"`
}

// Event is a closed union: AuditEvent, RideViewEvent or SearchEvent.
type Event interface {
	Kind() EventKind
	Meta() Envelope
	Validate() error
	event()
}

// sensitiveTerms may not appear anywhere in a persisted event.
var sensitiveTerms = []string{"password", "token", "secret", "key"}

func checkSensitive(field, text string) error {
	lower := strings.ToLower(text)
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return &ValidationError{Field: field, Err: ErrSensitiveContent}
		}
	}
	return nil
}

// RideViewEvent records that a user opened a ride.
type RideViewEvent struct {
	Envelope
	RideID string `json:"ride_id"`
}

func (RideViewEvent) Kind() EventKind  { return KindRideView }
func (e RideViewEvent) Meta() Envelope { return e.Envelope }
func (RideViewEvent) event()           {}

func (e RideViewEvent) Validate() error {
	if e.RideID == "" {
		return &ValidationError{Field: "ride_id", Err: ErrRequired}
	}
	return checkSensitive("ride_id", e.RideID)
}

// SearchEvent records a ride search. Location data makes it privacy-scoped,
// so a user reference is mandatory.
type SearchEvent struct {
	Envelope
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (SearchEvent) Kind() EventKind  { return KindSearch }
func (e SearchEvent) Meta() Envelope { return e.Envelope }
func (SearchEvent) event()           {}

func (e SearchEvent) Validate() error {
	if e.UserID == nil || *e.UserID == "" {
		return &ValidationError{Field: "user_id", Err: ErrRequired}
	}
	if err := checkSensitive("origin", e.Origin); err != nil {
		return err
	}
	return checkSensitive("destination", e.Destination)
}

// StatusEntry is one step of a delivery attempt.
type StatusEntry struct {
	Status    DeliveryStatus `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Details   string         `json:"details,omitempty"`
}

// AuditEvent is the immutable record of a notification delivery attempt.
// Each status transition is written as a new AuditEvent sharing AttemptID;
// StatusHistory holds every step up to and including the record's own.
type AuditEvent struct {
	Envelope
	AttemptID      string               `json:"attempt_id"`
	SubscriptionID *string              `json:"subscription_id,omitempty"`
	Platform       Platform             `json:"platform"`
	Category       Category             `json:"category"`
	Payload        *NotificationPayload `json:"payload,omitempty"`
	StatusHistory  []StatusEntry        `json:"status_history"`
	IsCritical     bool                 `json:"is_critical"`
}

func (AuditEvent) Kind() EventKind  { return KindNotification }
func (e AuditEvent) Meta() Envelope { return e.Envelope }
func (AuditEvent) event()           {}

// Status returns the latest status, or "" for an empty history.
func (e AuditEvent) Status() DeliveryStatus {
	if len(e.StatusHistory) == 0 {
		return ""
	}
	return e.StatusHistory[len(e.StatusHistory)-1].Status
}

func (e AuditEvent) Validate() error {
	hasSub := e.SubscriptionID != nil && *e.SubscriptionID != ""
	hasUser := e.UserID != nil && *e.UserID != ""
	if !hasSub && !hasUser {
		return &ValidationError{Field: "subscription_id", Err: ErrMissingReference}
	}
	if e.IsCritical && !hasUser {
		return &ValidationError{Field: "user_id", Err: ErrRequired}
	}
	if len(e.StatusHistory) == 0 {
		return &ValidationError{Field: "status_history", Err: ErrEmptyHistory}
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return &ValidationError{Field: "payload", Err: err}
		}
		if err := checkSensitive("payload", string(raw)); err != nil {
			return err
		}
	}
	for _, entry := range e.StatusHistory {
		if err := checkSensitive("status_history.details", entry.Details); err != nil {
			return err
		}
	}
	return nil
}

// SuppressedNotification records a decision not to send.
type SuppressedNotification struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"user_id" gorm:"index;not null"`
	SubscriptionID string    `json:"subscription_id" gorm:"index"`
	Category       Category  `json:"category" gorm:"size:32"`
	Reason         string    `json:"reason" gorm:"not null"`
	Timestamp      time.Time `json:"timestamp" gorm:"column:occurred_at;index;not null"`
}
