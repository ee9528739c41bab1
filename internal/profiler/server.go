// Package profiler serves net/http/pprof handlers while the TUI runs.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server is a pprof HTTP server bound to a single port.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int
	logger     zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a profiler server. Port 0 picks a free port.
func New(port int, opts ...Option) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s := &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		port:   port,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens and serves in the background. It returns an error when the
// listener cannot be created or the server fails right away.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("starting profiler server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("profiler server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down profiler server")
	return s.httpServer.Shutdown(ctx)
}
