// Package server is the HTTP scaffolding for the backend binaries: a
// chi router wired with request ids, structured request logging,
// timeouts, panic recovery, and OpenTelemetry instrumentation.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	Router *chi.Mux
	Addr   string
	logger *slog.Logger
	http   *http.Server
}

func New(addr string, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(middleware.Recoverer)

	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "swiggy-agent")
	})

	return &Server{
		Router: r,
		Addr:   addr,
		logger: logger,
		http:   &http.Server{Addr: addr, Handler: r},
	}
}

// Start blocks serving requests until Shutdown is called or the
// listener fails. A clean shutdown surfaces as http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.String("addr", s.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
