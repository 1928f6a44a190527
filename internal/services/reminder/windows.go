package reminder

import (
	"time"

	"github.com/calmerhq/calmer/internal/domain/notification"
)

const (
	WindowMorning = "morning"
	WindowEvening = "evening"
)

// Windows derives the two offset bands active for the given instant. A user
// is inside a band iff their stored UTC offset (minutes) puts their local
// clock in the configured reminder hour right now. Bands fully outside the
// ±720 offset domain are legal and simply match nobody.
func Windows(now time.Time, morningHour, eveningHour int) (morning, evening notification.Window) {
	h := now.UTC().Hour()
	morning = windowFor(WindowMorning, h, morningHour)
	evening = windowFor(WindowEvening, h, eveningHour)
	return morning, evening
}

func windowFor(label string, utcHour, localHour int) notification.Window {
	start := (utcHour - localHour) * 60
	return notification.Window{
		Label:              label,
		StartOffsetMinutes: start,
		EndOffsetMinutes:   start + 59,
	}
}
