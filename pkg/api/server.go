// Package api exposes stream inspection and repair over HTTP.
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the chi router with all routes configured.
func NewRouter(server *Server, metrics *Metrics) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.requireAPIKey)

		// Health check
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Stream operations
		r.Post("/inspect", metrics.InstrumentHandler("POST", "/api/v1/inspect", server.handleInspect))
		r.Post("/remux", metrics.InstrumentHandler("POST", "/api/v1/remux", server.handleRemux))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured
func StartServer(config ServerConfig) error {
	// Initialize metrics
	metrics := NewMetrics()

	server := NewServer(config, metrics)
	r := NewRouter(server, metrics)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	fmt.Printf("Starting oggmux REST API server on %s\n", addr)
	fmt.Printf("Metrics available at: http://%s/metrics\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))

	return nil
}
