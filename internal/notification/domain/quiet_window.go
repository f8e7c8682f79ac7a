package domain

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	minutesPerDay = 24 * 60
	// FullWeek allows every weekday.
	FullWeek uint8 = 0x7F
)

var (
	ErrInvalidMinute   = errors.New("minute of day out of range")
	ErrInvalidHour     = errors.New("hour out of range")
	ErrInvalidWeekMask = errors.New("week mask uses more than 7 bits")
	ErrInvalidTimezone = errors.New("unknown timezone")
)

// QuietWindow is the recurring local-time interval in which non-critical
// notifications may be delivered. Minutes are minute-of-day in Timezone;
// StartMinute > EndMinute means the interval crosses midnight. Bit i of
// WeekMask allows weekday i (0 = Sunday).
type QuietWindow struct {
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	WeekMask    uint8  `json:"week_mask"`
	Timezone    string `json:"timezone"`
}

// Validate checks ranges and that the timezone can be loaded.
func (w QuietWindow) Validate() error {
	if w.StartMinute < 0 || w.StartMinute >= minutesPerDay {
		return &ValidationError{Field: "start_minute", Err: ErrInvalidMinute}
	}
	if w.EndMinute < 0 || w.EndMinute >= minutesPerDay {
		return &ValidationError{Field: "end_minute", Err: ErrInvalidMinute}
	}
	if w.WeekMask > FullWeek {
		return &ValidationError{Field: "week_mask", Err: ErrInvalidWeekMask}
	}
	if _, err := time.LoadLocation(w.Timezone); err != nil || w.Timezone == "" {
		return &ValidationError{Field: "timezone", Err: fmt.Errorf("%w: %q", ErrInvalidTimezone, w.Timezone)}
	}
	return nil
}

// Crosses reports whether the window wraps midnight.
func (w QuietWindow) Crosses() bool {
	return w.StartMinute > w.EndMinute
}

// AllowsDay reports whether the weekday bit is set.
func (w QuietWindow) AllowsDay(d time.Weekday) bool {
	return w.WeekMask&(1<<uint(d)) != 0
}

// DaysToMask builds a week mask from weekdays.
func DaysToMask(days ...time.Weekday) uint8 {
	var mask uint8
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			continue
		}
		mask |= 1 << uint(d)
	}
	return mask
}

// MaskToDays is the inverse of DaysToMask, in ascending weekday order.
func MaskToDays(mask uint8) []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if mask&(1<<uint(d)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

// BuildQuietWindow converts whole local hours into a QuietWindow.
func BuildQuietWindow(startHour, endHour int, weekMask uint8, timezone string) (QuietWindow, error) {
	if startHour < 0 || startHour > 23 {
		return QuietWindow{}, &ValidationError{Field: "start_hour", Err: ErrInvalidHour}
	}
	if endHour < 0 || endHour > 23 {
		return QuietWindow{}, &ValidationError{Field: "end_hour", Err: ErrInvalidHour}
	}
	w := QuietWindow{
		StartMinute: startHour * 60,
		EndMinute:   endHour * 60,
		WeekMask:    weekMask,
		Timezone:    timezone,
	}
	if err := w.Validate(); err != nil {
		return QuietWindow{}, err
	}
	return w, nil
}
