package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/calmerhq/calmer/internal/obs"
	"github.com/calmerhq/calmer/internal/services/frames"
	"github.com/calmerhq/calmer/internal/services/reminder"
	"github.com/calmerhq/calmer/internal/services/users"
)

type RouterConfig struct {
	CORSAllowOrigins []string
}

// NewRouter wires all HTTP surfaces: the reminder trigger, the frame
// webhook, the CRUD endpoints and the ops handlers.
func NewRouter(
	cfg RouterConfig,
	remind *reminder.Handler,
	webhook *frames.Handler,
	crud *users.Handler,
	health func(context.Context) error,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Get("/healthz", obs.HealthHandler(health))
	r.Method(http.MethodGet, "/metrics", obs.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/frames", func(r chi.Router) {
			r.Post("/webhook", webhook.Webhook)
			r.Get("/notifications/process", remind.Process)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", crud.Get)
			r.Post("/", crud.Create)
			r.Post("/{userID}/sessions", crud.CreateSession)
			r.Put("/{userID}/sessions/{sessionID}", crud.UpdateSession)
		})
	})

	return otelhttp.NewHandler(r, "http.server")
}
