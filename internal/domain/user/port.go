package user

import "context"

type Repo interface {
	Create(ctx context.Context, u *User) error
	GetByKey(ctx context.Context, k Key) (*User, error)

	// SetNotificationDetails stores the push credential and stamps
	// notifications_enabled_at. The row must already exist.
	SetNotificationDetails(ctx context.Context, k Key, d *NotificationDetails) error

	// ClearNotificationDetails nulls notifications_enabled_at, making the
	// user ineligible for reminders. The credential itself is kept.
	ClearNotificationDetails(ctx context.Context, k Key) error
}
