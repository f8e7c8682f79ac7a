package domain

import (
	"fmt"
	"time"
)

// DeliveryStatus is a state of the delivery attempt lifecycle.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusFailed    DeliveryStatus = "failed"
)

// IsTerminal reports whether no transition leaves the status.
func (s DeliveryStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusFailed
}

// CanTransition allows sent -> delivered and sent -> failed only.
func CanTransition(from, to DeliveryStatus) bool {
	return from == StatusSent && to.IsTerminal()
}

// Attempt tracks one delivery attempt through sent -> delivered | failed.
// It is not safe for concurrent use; each attempt belongs to one goroutine.
type Attempt struct {
	ID             string
	SubscriptionID string
	UserID         string
	Platform       Platform
	Category       Category
	Payload        NotificationPayload
	history        []StatusEntry
}

// NewAttempt starts an attempt in the sent state.
func NewAttempt(id string, sub *Subscription, payload NotificationPayload, at time.Time) *Attempt {
	return &Attempt{
		ID:             id,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Platform:       sub.Platform,
		Category:       payload.Category,
		Payload:        payload,
		history:        []StatusEntry{{Status: StatusSent, Timestamp: at}},
	}
}

// Status returns the current state.
func (a *Attempt) Status() DeliveryStatus {
	return a.history[len(a.history)-1].Status
}

// History returns a copy of the steps taken so far.
func (a *Attempt) History() []StatusEntry {
	out := make([]StatusEntry, len(a.history))
	copy(out, a.history)
	return out
}

// Transition moves the attempt to a terminal state.
func (a *Attempt) Transition(to DeliveryStatus, at time.Time, details string) error {
	from := a.Status()
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	a.history = append(a.history, StatusEntry{Status: to, Timestamp: at, Details: details})
	return nil
}

// Record snapshots the attempt as a new immutable AuditEvent. Failed
// records never carry the payload.
func (a *Attempt) Record(recordID string) *AuditEvent {
	history := a.History()
	last := history[len(history)-1]

	ev := &AuditEvent{
		Envelope: Envelope{
			ID:        recordID,
			Timestamp: last.Timestamp,
		},
		AttemptID:     a.ID,
		Platform:      a.Platform,
		Category:      a.Category,
		StatusHistory: history,
		IsCritical:    a.Category.IsCritical(),
	}
	if a.UserID != "" {
		uid := a.UserID
		ev.UserID = &uid
	}
	if a.SubscriptionID != "" {
		sid := a.SubscriptionID
		ev.SubscriptionID = &sid
	}
	if last.Status != StatusFailed {
		p := a.Payload
		ev.Payload = &p
	}
	return ev
}
