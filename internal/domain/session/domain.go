package session

import "time"

// Session is one breathing-exercise run. FinishedAt stays nil while the
// exercise is in progress. Data is client-owned; the reminder engine only
// ever reads the tzOffset key out of it.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	Data map[string]any `json:"data,omitempty"`
}

// DataKeyTZOffset is the session data key holding the client-reported
// signed UTC offset in minutes.
const DataKeyTZOffset = "tzOffset"
