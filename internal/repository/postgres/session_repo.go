package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/calmerhq/calmer/internal/domain/session"
)

var _ session.Repo = (*SessionRepo)(nil)

type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

const (
	qSessionInsert = `
INSERT INTO user_session (id, user_id, created_at, updated_at, data)
VALUES ($1, $2, now(), now(), $3)
RETURNING created_at, updated_at;`

	qSessionUpdate = `
UPDATE user_session
SET data = $2, finished_at = $3, updated_at = now()
WHERE id = $1
RETURNING created_at, updated_at;`

	qSessionLatest = `
SELECT id, user_id, created_at, updated_at, finished_at, data
FROM user_session
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1;`
)

func (r *SessionRepo) Create(ctx context.Context, s *session.Session) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	data, err := marshalJSON(s.Data)
	if err != nil {
		return err
	}
	if err := r.db.Pool.QueryRow(ctx, qSessionInsert, s.ID, s.UserID, data).
		Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("session insert: %w", err)
	}
	return nil
}

func (r *SessionRepo) Update(ctx context.Context, s *session.Session) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	data, err := marshalJSON(s.Data)
	if err != nil {
		return err
	}
	if err := r.db.Pool.QueryRow(ctx, qSessionUpdate, s.ID, data, s.FinishedAt).
		Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("session update: %w", err)
	}
	return nil
}

func (r *SessionRepo) LatestByUser(ctx context.Context, userID string) (*session.Session, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		s    session.Session
		data []byte
	)
	if err := r.db.Pool.QueryRow(ctx, qSessionLatest, userID).
		Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.UpdatedAt, &s.FinishedAt, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if err := unmarshalJSON(data, &s.Data); err != nil {
		return nil, err
	}
	return &s, nil
}
