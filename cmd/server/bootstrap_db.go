package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	config "github.com/calmerhq/calmer/internal/config/server"
	"github.com/calmerhq/calmer/internal/obs/retry"
	pg "github.com/calmerhq/calmer/internal/repository/postgres"
)

// initDB connects with a few backed-off attempts so the server survives a
// database that comes up slightly after it.
func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	var db *pg.DB
	err := retry.Do(ctx, func() error {
		var cerr error
		db, cerr = pg.New(ctx, cfg.DB)
		return cerr
	}, retry.Policy{
		Name:     "db-connect",
		Attempts: 5,
		Backoff:  retry.ExpoJitter{Base: 500 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		OnAttempt: func(attempt int, err error) {
			logger.Warn("db connect attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		},
	})
	return db, err
}
