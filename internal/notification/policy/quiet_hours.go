package policy

import (
	"time"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
)

// IsAllowedNow reports whether now falls on an allowed weekday and inside
// the window, both evaluated in the window's timezone. The window is
// half-open: StartMinute is allowed, EndMinute is not. A timezone that
// cannot be loaded blocks delivery.
func IsAllowedNow(now time.Time, w domain.QuietWindow) bool {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return false
	}
	local := now.In(loc)

	if !w.AllowsDay(local.Weekday()) {
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	if w.StartMinute <= w.EndMinute {
		return minute >= w.StartMinute && minute < w.EndMinute
	}
	return minute >= w.StartMinute || minute < w.EndMinute
}
