package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/calmerhq/calmer/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserInsert = `
INSERT INTO calmer_user (id, user_id, identity_provider, created_at, updated_at,
                         user_info, notifications_enabled_at, notification_details, data)
VALUES ($1, $2, $3, now(), now(), $4, $5, $6, $7)
RETURNING created_at, updated_at;`

	qUserByKey = `
SELECT id, user_id, identity_provider, created_at, updated_at,
       user_info, notifications_enabled_at, notification_details, data
FROM calmer_user
WHERE user_id = $1 AND identity_provider = $2;`

	qUserSetDetails = `
UPDATE calmer_user
SET notification_details = $3, notifications_enabled_at = now(), updated_at = now()
WHERE user_id = $1 AND identity_provider = $2;`

	qUserClearDetails = `
UPDATE calmer_user
SET notifications_enabled_at = NULL, updated_at = now()
WHERE user_id = $1 AND identity_provider = $2;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	info, err := marshalJSON(u.Info)
	if err != nil {
		return err
	}
	details, err := marshalJSON(u.NotificationDetails)
	if err != nil {
		return err
	}
	data, err := marshalJSON(u.Data)
	if err != nil {
		return err
	}

	if err := r.db.Pool.QueryRow(ctx, qUserInsert,
		u.ID, u.UserID, u.IdentityProvider, info, u.NotificationsEnabledAt, details, data,
	).Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByKey(ctx context.Context, k user.Key) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByKey, k.UserID, k.IdentityProvider), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) SetNotificationDetails(ctx context.Context, k user.Key, d *user.NotificationDetails) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	details, err := marshalJSON(d)
	if err != nil {
		return err
	}
	cmd, err := r.db.Pool.Exec(ctx, qUserSetDetails, k.UserID, k.IdentityProvider, details)
	if err != nil {
		return fmt.Errorf("set notification details: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) ClearNotificationDetails(ctx context.Context, k user.Key) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qUserClearDetails, k.UserID, k.IdentityProvider)
	if err != nil {
		return fmt.Errorf("clear notification details: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, out *user.User) error {
	var (
		info    []byte
		details []byte
		data    []byte
	)
	if err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.IdentityProvider,
		&out.CreatedAt,
		&out.UpdatedAt,
		&info,
		&out.NotificationsEnabledAt,
		&details,
		&data,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	if err := unmarshalJSON(info, &out.Info); err != nil {
		return err
	}
	if len(details) > 0 {
		out.NotificationDetails = &user.NotificationDetails{}
		if err := unmarshalJSON(details, out.NotificationDetails); err != nil {
			return err
		}
	}
	return unmarshalJSON(data, &out.Data)
}
