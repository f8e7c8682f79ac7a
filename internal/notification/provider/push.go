package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/repository"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/fcm"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/logging"
)

// PushSender is implemented by *fcm.Client.
type PushSender interface {
	SendToDevice(ctx context.Context, registration string, target fcm.Target, n fcm.NotificationData) error
}

// SubscriptionRemover deletes subscriptions whose destination is dead.
type SubscriptionRemover interface {
	Delete(ctx context.Context, criteria repository.DeleteCriteria) (int64, error)
}

// PushProvider sends web, android and ios notifications through FCM.
type PushProvider struct {
	sender PushSender
	subs   SubscriptionRemover
	target fcm.Target
}

func NewPushProvider(sender PushSender, subs SubscriptionRemover, target fcm.Target) *PushProvider {
	return &PushProvider{sender: sender, subs: subs, target: target}
}

// TargetFor maps a push platform to its FCM target.
func TargetFor(p domain.Platform) (fcm.Target, bool) {
	switch p {
	case domain.PlatformWeb:
		return fcm.TargetWeb, true
	case domain.PlatformAndroid:
		return fcm.TargetAndroid, true
	case domain.PlatformIOS:
		return fcm.TargetAPNS, true
	}
	return "", false
}

func (p *PushProvider) Send(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload) error {
	data := fcm.NotificationData{
		Title:       payload.Title,
		Body:        payload.Body,
		Icon:        payload.Icon,
		ClickAction: payload.URL,
		Critical:    payload.Category.IsCritical(),
		Data: map[string]string{
			"category": string(payload.Category),
		},
	}

	err := p.sender.SendToDevice(ctx, sub.Destination, p.target, data)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fcm.ErrUnregistered) {
		return err
	}

	log := logging.Component("push")
	// Removal must outlive the caller's send deadline.
	n, delErr := p.subs.Delete(context.WithoutCancel(ctx), repository.DeleteCriteria{ID: sub.ID})
	if delErr != nil {
		log.Error().Err(delErr).Str("subscription_id", sub.ID).Msg("failed to remove revoked subscription")
	} else {
		log.Info().Str("subscription_id", sub.ID).Int64("removed", n).Msg("removed revoked subscription")
	}
	return fmt.Errorf("%s: %w", p.target, ErrDestinationRevoked)
}
