package config

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupServer builds the router and HTTP server shell; route registration
// happens in the caller. Every request carries a deadline of
// RequestTimeoutDuration.
func SetupServer(cfg ServerConfig) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	router.Use(middleware.Timeout(cfg.RequestTimeoutDuration()))

	server := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	return server, router
}

func (c ServerConfig) RequestTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.ShutdownTimeout); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}
