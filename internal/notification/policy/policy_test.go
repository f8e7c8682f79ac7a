package policy

import (
	"testing"
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/pkg/clock"

	"github.com/stretchr/testify/assert"
)

// monday returns 2025-03-10 (a Monday) at hh:mm UTC.
func monday(hh, mm int) time.Time {
	return time.Date(2025, 3, 10, hh, mm, 0, 0, time.UTC)
}

func TestIsAllowedNow_DayBitUnsetBlocksAllDay(t *testing.T) {
	for mask := 0; mask <= int(domain.FullWeek); mask++ {
		w := domain.QuietWindow{StartMinute: 0, EndMinute: 1439, WeekMask: uint8(mask), Timezone: "UTC"}
		mondayAllowed := w.AllowsDay(time.Monday)
		for _, hh := range []int{0, 6, 12, 18, 23} {
			assert.Equal(t, mondayAllowed, IsAllowedNow(monday(hh, 30), w), "mask %07b hour %d", mask, hh)
		}
	}
}

func TestIsAllowedNow_HalfOpenWindow(t *testing.T) {
	w := domain.QuietWindow{StartMinute: 540, EndMinute: 1080, WeekMask: domain.FullWeek, Timezone: "UTC"}

	assert.True(t, IsAllowedNow(monday(9, 0), w), "start minute is allowed")
	assert.True(t, IsAllowedNow(monday(17, 59), w))
	assert.False(t, IsAllowedNow(monday(18, 0), w), "end minute is blocked")
	assert.False(t, IsAllowedNow(monday(8, 59), w))
}

func TestIsAllowedNow_CrossingMidnight(t *testing.T) {
	w := domain.QuietWindow{StartMinute: 1320, EndMinute: 420, WeekMask: domain.FullWeek, Timezone: "UTC"}

	assert.True(t, IsAllowedNow(monday(23, 0), w))
	assert.True(t, IsAllowedNow(monday(6, 0), w))
	assert.True(t, IsAllowedNow(monday(22, 0), w))
	assert.False(t, IsAllowedNow(monday(7, 0), w))
	assert.False(t, IsAllowedNow(monday(10, 0), w))
}

func TestIsAllowedNow_ConvertsToWindowTimezone(t *testing.T) {
	// 02:00 UTC Monday is 23:00 Sunday in São Paulo (UTC-3)
	now := monday(2, 0)
	sundayOnly := domain.QuietWindow{StartMinute: 1320, EndMinute: 1410, WeekMask: domain.DaysToMask(time.Sunday), Timezone: "America/Sao_Paulo"}
	assert.True(t, IsAllowedNow(now, sundayOnly))

	mondayOnly := sundayOnly
	mondayOnly.WeekMask = domain.DaysToMask(time.Monday)
	assert.False(t, IsAllowedNow(now, mondayOnly))
}

func TestIsAllowedNow_UnknownTimezoneBlocks(t *testing.T) {
	w := domain.QuietWindow{StartMinute: 0, EndMinute: 1439, WeekMask: domain.FullWeek, Timezone: "Nowhere/City"}
	assert.False(t, IsAllowedNow(monday(12, 0), w))
}

func TestIsAllowedNow_NotCached(t *testing.T) {
	w := domain.QuietWindow{StartMinute: 540, EndMinute: 1080, WeekMask: domain.FullWeek, Timezone: "UTC"}
	assert.True(t, IsAllowedNow(monday(10, 0), w))
	assert.False(t, IsAllowedNow(monday(20, 0), w))
	assert.True(t, IsAllowedNow(monday(10, 0), w))
}

func openSubscription() *domain.Subscription {
	return &domain.Subscription{
		ID:                  "s1",
		UserID:              "u1",
		Platform:            domain.PlatformWeb,
		IsPermissionGranted: true,
		NotificationKinds:   map[domain.Category]bool{domain.CategoryRide: true},
		Preferences:         &domain.QuietWindow{StartMinute: 540, EndMinute: 1080, WeekMask: domain.FullWeek, Timezone: "UTC"},
	}
}

func TestShouldSend_DecisionTable(t *testing.T) {
	p := New(clock.NewManual(monday(10, 0)))
	ride := domain.NotificationPayload{Title: "Ride", Category: domain.CategoryRide}
	chat := domain.NotificationPayload{Title: "Chat", Category: domain.CategoryChat}

	cases := []struct {
		name    string
		mutate  func(*domain.Subscription)
		payload domain.NotificationPayload
		want    Decision
	}{
		{"all open", func(*domain.Subscription) {}, ride, Decision{Allowed: true}},
		{"permission denied", func(s *domain.Subscription) { s.IsPermissionGranted = false }, ride, Decision{Reason: ReasonPermissionDenied}},
		{"category absent", func(*domain.Subscription) {}, chat, Decision{Reason: ReasonCategoryDisabled}},
		{"category false", func(s *domain.Subscription) { s.NotificationKinds[domain.CategoryRide] = false }, ride, Decision{Reason: ReasonCategoryDisabled}},
		{"no window", func(s *domain.Subscription) { s.Preferences = nil }, ride, Decision{Reason: ReasonNoWindow}},
		{"zero mask", func(s *domain.Subscription) { s.Preferences.WeekMask = 0 }, ride, Decision{Reason: ReasonNoWindow}},
		{"outside window", func(s *domain.Subscription) { s.Preferences.StartMinute = 720 }, ride, Decision{Reason: ReasonOutsideWindow}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := openSubscription()
			tc.mutate(sub)
			assert.Equal(t, tc.want, p.Decide(sub, tc.payload))
			assert.Equal(t, tc.want.Allowed, p.ShouldSend(sub, tc.payload))
		})
	}
}

func TestShouldSend_CriticalBypassesWindowAndOptIn(t *testing.T) {
	p := New(clock.NewManual(monday(3, 0)))
	sub := openSubscription()
	sub.Preferences.WeekMask = 0
	sub.NotificationKinds = map[domain.Category]bool{domain.CategorySecurity: false}

	for _, c := range []domain.Category{domain.CategorySecurity, domain.CategorySystem} {
		assert.True(t, p.ShouldSend(sub, domain.NotificationPayload{Title: "x", Category: c}), c)
	}

	sub.Preferences = nil
	assert.True(t, p.ShouldSend(sub, domain.NotificationPayload{Title: "x", Category: domain.CategorySecurity}))
}

func TestShouldSend_CriticalStillNeedsPermission(t *testing.T) {
	p := New(clock.NewManual(monday(10, 0)))
	sub := openSubscription()
	sub.IsPermissionGranted = false

	for _, c := range domain.Categories {
		assert.False(t, p.ShouldSend(sub, domain.NotificationPayload{Title: "x", Category: c}), c)
	}
}

func TestShouldSend_FollowsClock(t *testing.T) {
	c := clock.NewManual(monday(10, 0))
	p := New(c)
	sub := openSubscription()
	ride := domain.NotificationPayload{Title: "Ride", Category: domain.CategoryRide}

	assert.True(t, p.ShouldSend(sub, ride))
	c.Set(monday(19, 0))
	assert.False(t, p.ShouldSend(sub, ride))
}
