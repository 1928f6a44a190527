package session

import "context"

type Repo interface {
	Create(ctx context.Context, s *Session) error

	// Update overwrites data and finished_at of an existing session.
	Update(ctx context.Context, s *Session) error

	// LatestByUser returns the most recently created session of a user,
	// or ErrNotFound when the user has none.
	LatestByUser(ctx context.Context, userID string) (*Session, error)
}
