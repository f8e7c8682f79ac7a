package provider

import (
	"context"
	"errors"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
)

// ErrDestinationRevoked means the destination was permanently rejected and
// the subscription has been removed.
var ErrDestinationRevoked = errors.New("destination permanently rejected")

// Provider delivers a payload over one channel. A nil error means the
// channel accepted the message.
type Provider interface {
	Send(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload) error
}

// Registry holds one provider per platform. A nil field marks the platform
// as unavailable.
type Registry struct {
	Web     Provider
	Android Provider
	IOS     Provider
	Email   Provider
}

// For returns the provider for p and whether one is configured.
func (r Registry) For(p domain.Platform) (Provider, bool) {
	var pr Provider
	switch p {
	case domain.PlatformWeb:
		pr = r.Web
	case domain.PlatformAndroid:
		pr = r.Android
	case domain.PlatformIOS:
		pr = r.IOS
	case domain.PlatformEmail:
		pr = r.Email
	}
	return pr, pr != nil
}
