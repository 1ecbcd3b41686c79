// ABOUTME: HTTP server lifecycle for the task board: pages, health and metrics
// ABOUTME: Run blocks until the context is canceled, then shuts down gracefully

package webui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/2389/taskboard/internal/assets"
	"github.com/2389/taskboard/internal/board"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr string

	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsHandler http.Handler
	MetricsPath    string
}

// Server serves the web UI plus the health and metrics endpoints.
type Server struct {
	config     ServerConfig
	board      *board.Service
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the mux and the http.Server. Nothing listens until Run.
func NewServer(svc *board.Service, cfg ServerConfig) (*Server, error) {
	ui, err := New(svc)
	if err != nil {
		return nil, fmt.Errorf("creating web UI: %w", err)
	}

	s := &Server{
		config: cfg,
		board:  svc,
		logger: slog.Default().With("component", "server"),
	}

	mux := http.NewServeMux()

	// Health endpoints - no session required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, cfg.MetricsHandler)
		s.logger.Info("metrics endpoint enabled", "path", path)
	}

	mux.Handle("GET "+assets.Prefix, http.StripPrefix(strings.TrimSuffix(assets.Prefix, "/"), assets.FileServer()))
	ui.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           Chain(s.logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and serves until ctx is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
		close(errCh)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case err, ok := <-errCh:
		if ok {
			s.logger.Error("server error", "error", err)
			serverErr = err
		}
	}

	shutdownErr := s.gracefulShutdown()
	// Wait for the serve goroutine to return.
	for range errCh {
	}

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout, since
// the caller's context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the profile can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	all, err := s.board.ListAccounts(r.Context())
	if err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("profile unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d accounts)", len(all))
}
