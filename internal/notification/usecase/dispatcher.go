package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/policy"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/provider"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/repository"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/clock"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/logging"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers     = 8
	defaultSendTimeout = 10 * time.Second
)

// DispatchConfig bounds concurrency and provider latency.
type DispatchConfig struct {
	Workers     int
	SendTimeout time.Duration
}

// SubscriptionFinder is the read side of the subscription store.
type SubscriptionFinder interface {
	FindByUser(ctx context.Context, userID string) ([]*domain.Subscription, error)
}

type dispatcher struct {
	subs         SubscriptionFinder
	audit        *AuditLog
	suppressions repository.SuppressionRepository
	policy       *policy.Policy
	providers    provider.Registry
	metrics      *metrics.Recorder
	clock        clock.Clock
	cfg          DispatchConfig
	log          zerolog.Logger
}

// NewDispatcher creates a new instance of dispatcher
func NewDispatcher(
	subs SubscriptionFinder,
	audit *AuditLog,
	suppressions repository.SuppressionRepository,
	pol *policy.Policy,
	providers provider.Registry,
	rec *metrics.Recorder,
	c clock.Clock,
	cfg DispatchConfig,
) Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	return &dispatcher{
		subs:         subs,
		audit:        audit,
		suppressions: suppressions,
		policy:       pol,
		providers:    providers,
		metrics:      rec,
		clock:        c,
		cfg:          cfg,
		log:          logging.Component("dispatcher"),
	}
}

func (d *dispatcher) SendNotification(ctx context.Context, users []domain.UserRef, payload domain.NotificationPayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(d.cfg.Workers)

	for _, user := range users {
		if user.ID == "" {
			d.log.Warn().Msg("skipping user reference without id")
			continue
		}
		g.Go(func() error {
			if err := d.dispatchUser(ctx, user, payload); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (d *dispatcher) dispatchUser(ctx context.Context, user domain.UserRef, payload domain.NotificationPayload) error {
	subs, err := d.subs.FindByUser(ctx, user.ID)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to load subscriptions")
		return fmt.Errorf("load subscriptions for user %s: %w", user.ID, err)
	}
	if len(subs) == 0 {
		d.log.Debug().Str("user_id", user.ID).Msg("no subscriptions, skipping user")
		return nil
	}

	var (
		reached atomic.Bool
		wg      sync.WaitGroup
	)
	for _, sub := range subs {
		if !sub.Platform.IsPush() {
			continue
		}

		decision := d.policy.Decide(sub, payload)
		if !decision.Allowed {
			d.suppress(ctx, sub, payload, decision.Reason)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.deliver(ctx, sub, payload) && sub.IsPermissionGranted {
				reached.Store(true)
			}
		}()
	}
	wg.Wait()

	if !payload.Category.IsCritical() || reached.Load() {
		return nil
	}

	email := firstEmail(subs)
	if email == nil {
		d.log.Warn().Str("user_id", user.ID).Str("category", string(payload.Category)).Msg("critical notification reached no device and user has no email subscription")
		return nil
	}

	d.metrics.Fallback(string(payload.Category))
	d.log.Info().Str("user_id", user.ID).Str("subscription_id", email.ID).Msg("falling back to email")
	d.deliver(ctx, email, payload)
	return nil
}

// deliver wraps SendAndLog for the fan-out path, where errors are logged
// and never stop sibling subscriptions.
func (d *dispatcher) deliver(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload) bool {
	ok, err := d.SendAndLog(ctx, sub, payload)
	if err != nil {
		event := d.log.Error().Err(err).Str("subscription_id", sub.ID).Str("user_id", sub.UserID)
		if domain.IsValidation(err) {
			event.Msg("audit record rejected")
		} else {
			event.Msg("failed to write audit record")
		}
		return false
	}
	return ok
}

func (d *dispatcher) SendAndLog(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload) (bool, error) {
	p, ok := d.providers.For(sub.Platform)
	if !ok {
		d.log.Debug().Str("platform", string(sub.Platform)).Str("subscription_id", sub.ID).Msg("no provider configured")
		return false, nil
	}

	attempt, err := d.audit.Begin(ctx, sub, payload)
	if err != nil {
		return false, err
	}

	sendErr := d.send(ctx, p, sub, payload)

	platform, category := string(sub.Platform), string(payload.Category)
	switch {
	case sendErr == nil:
		d.metrics.Delivered(platform, category)
	case errors.Is(sendErr, provider.ErrDestinationRevoked):
		d.metrics.Failed(platform, category)
		d.log.Info().Str("subscription_id", sub.ID).Msg("destination revoked, subscription removed")
	default:
		d.metrics.Failed(platform, category)
		d.log.Warn().Err(sendErr).Str("subscription_id", sub.ID).Str("platform", platform).Msg("send failed")
	}

	if err := d.audit.Complete(ctx, attempt, sendErr); err != nil {
		return false, err
	}
	return sendErr == nil, nil
}

// send calls the provider under the configured timeout. A provider that
// ignores its context still yields a timeout failure.
func (d *dispatcher) send(ctx context.Context, p provider.Provider, sub *domain.Subscription, payload domain.NotificationPayload) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.Send(sendCtx, sub, payload)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("send timed out after %s", d.cfg.SendTimeout)
		}
		return err
	case <-sendCtx.Done():
		if errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("send timed out after %s", d.cfg.SendTimeout)
		}
		return sendCtx.Err()
	}
}

func (d *dispatcher) suppress(ctx context.Context, sub *domain.Subscription, payload domain.NotificationPayload, reason string) {
	d.metrics.Suppressed(string(sub.Platform), string(payload.Category))
	record := &domain.SuppressedNotification{
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		Category:       payload.Category,
		Reason:         reason,
		Timestamp:      d.clock.Now(),
	}
	if err := d.suppressions.Append(ctx, record); err != nil {
		d.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to record suppression")
		return
	}
	d.log.Debug().Str("subscription_id", sub.ID).Str("reason", reason).Msg("notification suppressed")
}

// firstEmail returns the oldest email subscription. subs arrive ordered by
// creation time from the store.
func firstEmail(subs []*domain.Subscription) *domain.Subscription {
	for _, s := range subs {
		if s.Platform == domain.PlatformEmail {
			return s
		}
	}
	return nil
}
