package main

import (
	config "github.com/calmerhq/calmer/internal/config/server"
	"github.com/calmerhq/calmer/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
}
