// Package policy decides whether a notification may be sent to a subscription.
package policy

import (
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/clock"
)

// Reasons returned by Decide when delivery is blocked.
const (
	ReasonPermissionDenied = "push permission not granted"
	ReasonCategoryDisabled = "category disabled by user"
	ReasonNoWindow         = "no delivery window configured"
	ReasonOutsideWindow    = "outside the user's delivery window"
)

// Decision is the outcome of evaluating a subscription.
type Decision struct {
	Allowed bool
	Reason  string
}

// Policy evaluates the per-subscription decision table.
type Policy struct {
	clock clock.Clock
}

// New creates a Policy reading the current instant from c.
func New(c clock.Clock) *Policy {
	return &Policy{clock: c}
}

// ShouldSend reports whether payload may be delivered to sub right now.
func (p *Policy) ShouldSend(sub *domain.Subscription, payload domain.NotificationPayload) bool {
	return p.Decide(sub, payload).Allowed
}

// Decide evaluates, in order: critical categories need only the permission
// flag; otherwise permission, category opt-in, a usable window and the
// window itself must all pass.
func (p *Policy) Decide(sub *domain.Subscription, payload domain.NotificationPayload) Decision {
	if payload.Category.IsCritical() {
		if sub.IsPermissionGranted {
			return Decision{Allowed: true}
		}
		return Decision{Reason: ReasonPermissionDenied}
	}
	if !sub.IsPermissionGranted {
		return Decision{Reason: ReasonPermissionDenied}
	}
	if !sub.Wants(payload.Category) {
		return Decision{Reason: ReasonCategoryDisabled}
	}
	if sub.Preferences == nil || sub.Preferences.WeekMask == 0 {
		return Decision{Reason: ReasonNoWindow}
	}
	if !IsAllowedNow(p.clock.Now(), *sub.Preferences) {
		return Decision{Reason: ReasonOutsideWindow}
	}
	return Decision{Allowed: true}
}
