package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/api"
	config "github.com/calmerhq/calmer/internal/config/server"
	"github.com/calmerhq/calmer/internal/obs"
	pg "github.com/calmerhq/calmer/internal/repository/postgres"
	"github.com/calmerhq/calmer/internal/repository/push"
	"github.com/calmerhq/calmer/internal/services/frames"
	"github.com/calmerhq/calmer/internal/services/reminder"
	"github.com/calmerhq/calmer/internal/services/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load(".env")

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	l, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting calmer server",
		zap.String("http_addr", cfg.Server.HTTPAddr),
		zap.Int("morning_hour", cfg.Reminder.MorningHour),
		zap.Int("evening_hour", cfg.Reminder.EveningHour),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := initDB(ctx, cfg, l)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// wiring
	userRepo := pg.NewUserRepo(db)
	sessionRepo := pg.NewSessionRepo(db)
	candidateRepo := pg.NewCandidateRepo(db)
	pushClient := push.New(cfg.Push, l)
	clock := reminder.SystemClock{}

	remindHandler := &reminder.Handler{
		UC:     reminder.NewUsecase(cfg.Reminder, candidateRepo, pushClient, l),
		Secret: cfg.Reminder.Secret,
		Clock:  clock,
		Log:    l,
	}
	webhookHandler := &frames.Handler{
		Users:  userRepo,
		Sender: pushClient,
		Verify: frames.ShapeVerifier{},
		Clock:  clock,
		Log:    l,
	}
	crudHandler := &users.Handler{Users: userRepo, Sessions: sessionRepo, Log: l}

	router := api.NewRouter(
		api.RouterConfig{CORSAllowOrigins: cfg.Server.CORSAllowOrigins},
		remindHandler,
		webhookHandler,
		crudHandler,
		func(hctx context.Context) error { return db.Pool.Ping(hctx) },
	)

	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	l.Info("bye")
}
