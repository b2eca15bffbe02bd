package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"time"

	"linebot_responder/src/logger"
	"linebot_responder/src/model"
)

// Check reports whether a dependency is reachable
type Check func(ctx context.Context) error

const checkTimeout = 2 * time.Second

// Server exposes the webhook, metrics and health endpoints
type Server struct {
	config model.ServerConfig
	server *http.Server
}

// NewServer routes POST / to the webhook handler. metricsHandler may be nil.
// GET /healthz runs every check and answers 503 naming the first that fails.
func NewServer(config model.ServerConfig, webhook http.Handler, metricsHandler http.Handler, checks map[string]Check) *Server {
	mux := http.NewServeMux()
	mux.Handle("POST /{$}", webhook)
	mux.HandleFunc("GET /healthz", healthHandler(checks))
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		config: config,
		server: &http.Server{
			Addr:         config.Addr,
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
	}
}

func healthHandler(checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.Warn().Err(err).Str("check", name).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = io.WriteString(w, name+" unavailable")
				return
			}
		}
		_, _ = io.WriteString(w, "ok")
	}
}

// Handler returns the routed mux
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run listens on the configured address and serves until ctx is cancelled,
// then drains in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server started")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	logger.Info().Msg("HTTP server stopped")
	return nil
}
