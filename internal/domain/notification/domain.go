package notification

import (
	"time"

	"github.com/calmerhq/calmer/internal/domain/user"
)

// Window is a 60-minute band of UTC offsets (minutes) that is currently in
// a configured local reminder hour. Derived per invocation, never stored.
type Window struct {
	Label              string
	StartOffsetMinutes int
	EndOffsetMinutes   int
}

func (w Window) Contains(offset int) bool {
	return w.StartOffsetMinutes <= offset && offset <= w.EndOffsetMinutes
}

// Candidate is one row of the selection snapshot. TZOffsetRaw is kept as
// the raw text from the session data so the application layer re-parses it
// independently of whatever coercion the storage query applied.
type Candidate struct {
	UserID            string
	TZOffsetRaw       string
	Details           *user.NotificationDetails
	SessionFinishedAt *time.Time
}

// Recipient is the unit handed to the delivery transport.
type Recipient struct {
	FID     int64
	Details user.NotificationDetails
}

// Message is the fixed (title, body) pair of one window.
type Message struct {
	Title string
	Body  string
}
