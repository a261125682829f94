package handler

import (
	"log/slog"

	"profile-registry/internal/config"
	"profile-registry/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Profile   *ProfileHandler
	Regulator *RegulatorHandler
	Auth      *AuthHandler
	WebSocket *WebSocketHandler
	Health    *HealthHandler
}

func NewRouter(h Handlers, cfg *config.Config, gatherer prometheus.Gatherer, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", h.Auth.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", h.Auth.Refresh).Methods("POST", "OPTIONS")

	api.HandleFunc("/profiles/latest", h.Profile.Latest).Methods("GET", "OPTIONS")
	api.HandleFunc("/profiles", h.Profile.Submit).Methods("POST", "OPTIONS")
	api.HandleFunc("/profiles/history", h.Profile.History).Methods("GET", "OPTIONS")

	protected := api.PathPrefix("/regulator").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/history", h.Regulator.History).Methods("GET", "OPTIONS")
	protected.HandleFunc("/refresh", h.Regulator.Refresh).Methods("POST", "OPTIONS")
	protected.HandleFunc("/refresh", h.Regulator.LastRefresh).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws", h.WebSocket.HandleConnection)
	r.HandleFunc("/health", h.Health.Health).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return r
}
