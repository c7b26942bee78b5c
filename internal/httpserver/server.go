// internal/httpserver/server.go
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/notice/internal/config"
	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
	"github.com/MrSnakeDoc/notice/internal/httpserver/mw"
	"github.com/MrSnakeDoc/notice/internal/httpserver/routes"
	"github.com/MrSnakeDoc/notice/internal/logger"
)

// RateLimitMessage is written to the error log for every rejected request.
const RateLimitMessage = "Too many misc API requests"

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           Router(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:   s,
		logger: loggerClient,
	}
}

// Router returns the handler tree. Every route sits behind the rate limiter.
func Router(d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mw.Log(d.Logger, d.TrustProxy))
	r.Use(mw.CORS())
	r.Use(mw.HSTS(d.TrustProxy))
	r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
	r.Use(mw.RateLimit(mw.RateLimitConfig{
		Limiter:    d.Limiter,
		TrustProxy: d.TrustProxy,
		Logger:     d.Logger,
		OnReject: func(r *http.Request, addr string) {
			if err := d.ErrorLog.Write(RateLimitMessage, "IP "+addr); err != nil {
				d.Logger.Error("failed to write error log",
					logger.String("remote_ip", addr),
					logger.Error(err))
			}
		},
	}))

	routes.RegisterAll(r, d)

	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
