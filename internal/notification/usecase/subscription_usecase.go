package usecase

import (
	"context"
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/repository"
)

type subscriptionUsecase struct {
	subs  repository.SubscriptionRepository
	audit repository.AuditRepository
}

// NewSubscriptionUsecase creates a new instance of subscriptionUsecase
func NewSubscriptionUsecase(subs repository.SubscriptionRepository, audit repository.AuditRepository) SubscriptionUsecase {
	return &subscriptionUsecase{subs: subs, audit: audit}
}

func (u *subscriptionUsecase) Register(ctx context.Context, userID string, req RegisterRequest) (*domain.Subscription, error) {
	if req.DeviceID == "" {
		return nil, &domain.ValidationError{Field: "device_id", Err: domain.ErrRequired}
	}
	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		return nil, &domain.ValidationError{Field: "platform", Err: err}
	}
	kinds, err := parseKinds(req.Kinds)
	if err != nil {
		return nil, err
	}

	fields := domain.SubscriptionFields{
		Platform:            platform,
		Destination:         req.Destination,
		IsPermissionGranted: req.PermissionGranted,
		NotificationKinds:   kinds,
	}
	if req.Window != nil {
		w, err := buildWindow(*req.Window)
		if err != nil {
			return nil, err
		}
		fields.Preferences = &w
	}

	return u.subs.Upsert(ctx, userID, req.DeviceID, fields)
}

func (u *subscriptionUsecase) UpdatePreferences(ctx context.Context, userID, deviceID string, req PreferencesRequest) (*domain.Subscription, error) {
	update := repository.PreferencesUpdate{
		ClearWindow: req.ClearWindow,
		Permission:  req.PermissionGranted,
	}
	if req.Kinds != nil {
		kinds, err := parseKinds(req.Kinds)
		if err != nil {
			return nil, err
		}
		update.Kinds = kinds
	}
	if req.Window != nil && !req.ClearWindow {
		w, err := buildWindow(*req.Window)
		if err != nil {
			return nil, err
		}
		update.Window = &w
	}
	return u.subs.UpdatePreferences(ctx, userID, deviceID, update)
}

func (u *subscriptionUsecase) Unsubscribe(ctx context.Context, userID, deviceID string) error {
	if deviceID == "" {
		return &domain.ValidationError{Field: "device_id", Err: domain.ErrRequired}
	}
	n, err := u.subs.Delete(ctx, repository.DeleteCriteria{UserID: userID, DeviceIdentifier: deviceID})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (u *subscriptionUsecase) List(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	return u.subs.FindByUser(ctx, userID)
}

func (u *subscriptionUsecase) History(ctx context.Context, userID string, limit int) ([]domain.Event, error) {
	return u.audit.ListByUser(ctx, userID, limit)
}

func parseKinds(names []string) (map[domain.Category]bool, error) {
	kinds := make(map[domain.Category]bool, len(names))
	for _, name := range names {
		c, err := domain.ParseCategory(name)
		if err != nil {
			return nil, &domain.ValidationError{Field: "kinds", Err: err}
		}
		kinds[c] = true
	}
	return kinds, nil
}

func buildWindow(req WindowRequest) (domain.QuietWindow, error) {
	days := make([]time.Weekday, 0, len(req.Days))
	for _, d := range req.Days {
		if d < 0 || d > 6 {
			return domain.QuietWindow{}, &domain.ValidationError{Field: "days", Err: domain.ErrInvalidWeekMask}
		}
		days = append(days, time.Weekday(d))
	}
	return domain.BuildQuietWindow(req.StartHour, req.EndHour, domain.DaysToMask(days...), req.Timezone)
}
