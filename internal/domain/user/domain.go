package user

import "time"

// IdentityProvider tells how a user authenticated to the frame app.
type IdentityProvider string

const (
	ProviderFarcaster       IdentityProvider = "fc"
	ProviderAnonymous       IdentityProvider = "anon"
	ProviderFarcasterUnauth IdentityProvider = "fc_unauth"
)

// Key identifies a user: the external id plus the provider it came from.
// For Farcaster users the UserID is the decimal fid.
type Key struct {
	UserID           string           `json:"userId"`
	IdentityProvider IdentityProvider `json:"identityProvider"`
}

type Info struct {
	DisplayName  *string `json:"displayName,omitempty"`
	Username     *string `json:"username,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// NotificationDetails is the opaque push credential handed out by the
// Farcaster client when a user enables notifications for the frame.
type NotificationDetails struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type User struct {
	ID string `json:"id"`
	Key

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Info Info `json:"userInfo"`

	// Nil NotificationsEnabledAt means the user never enabled (or disabled)
	// reminders; such users are never selected for dispatch.
	NotificationsEnabledAt *time.Time           `json:"notificationsEnabledAt,omitempty"`
	NotificationDetails    *NotificationDetails `json:"notificationDetails,omitempty"`

	Data map[string]any `json:"data,omitempty"`
}
