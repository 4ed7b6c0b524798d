// Package server provides the HTTP API server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/karthikpt1/mcpforge/internal/app"
	"github.com/karthikpt1/mcpforge/internal/server/handlers"
	servermw "github.com/karthikpt1/mcpforge/internal/server/middleware"
)

// Server represents the HTTP server.
type Server struct {
	app    *app.App
	server *http.Server
	router *chi.Mux
}

// New creates a new Server.
func New(application *app.App) *Server {
	s := &Server{
		app:    application,
		router: chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", application.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(servermw.SecurityHeaders)
	s.router.Use(servermw.Logger(s.app.Logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	generateHandler := handlers.NewGenerateHandler(s.app)
	serversHandler := handlers.NewServersHandler(s.app)

	s.router.Get("/healthz", handlers.Healthz)

	limiter := servermw.NewRateLimiter(5, 10)
	s.router.Route("/api", func(r chi.Router) {
		r.Use(limiter.Limit)

		r.Post("/generate", generateHandler.Generate)
		r.Post("/detect", generateHandler.Detect)

		r.Get("/servers", serversHandler.List)
		r.Get("/servers/{slug}", serversHandler.Get)
		r.Get("/servers/{slug}/artifacts/{kind}", serversHandler.Artifact)
		r.Delete("/servers/{id}", serversHandler.Delete)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
