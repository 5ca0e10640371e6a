package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/alemana-chat/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/alemana-chat/internal/api/middlewares"
	"github.com/markdave123-py/alemana-chat/internal/config"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, chatHandler *handlers.ChatHandler, regHandler *handlers.RegistrationHandler, tokens *appMiddleware.VisitorTokens, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           newRouter(cfg, chatHandler, regHandler, tokens, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger,
	}
}

func newRouter(cfg *config.Config, chatHandler *handlers.ChatHandler, regHandler *handlers.RegistrationHandler, tokens *appMiddleware.VisitorTokens, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", handlers.Health)

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/chat/sessions", chatHandler.CreateSession)
		api.Post("/register", regHandler.Register)

		// visitor endpoints
		api.Group(func(visitor chi.Router) {
			visitor.Use(tokens.Middleware)
			visitor.Get("/chat/sessions/{sessionID}", chatHandler.GetSession)
			visitor.Post("/chat/sessions/{sessionID}/toggle", chatHandler.Toggle)
			visitor.Post("/chat/sessions/{sessionID}/identity", chatHandler.SubmitIdentity)
			visitor.Post("/chat/sessions/{sessionID}/messages", chatHandler.SendMessage)
			visitor.Post("/chat/sessions/{sessionID}/reset", chatHandler.Reset)
		})
	})

	// Serve the widget and the registration page
	if cfg.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))
	}

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
