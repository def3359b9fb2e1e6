// Package server owns the HTTP listener lifecycle: Start binds and serves in
// the background, Stop drains in-flight requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipehub/api/internal/config"
)

// ReadinessSetter is notified when the server starts and stops accepting traffic.
type ReadinessSetter interface {
	SetReady(ready bool)
}

type Option func(*Server)

func WithReadiness(r ReadinessSetter) Option {
	return func(s *Server) {
		s.readiness = r
	}
}

type Server struct {
	httpServer      *http.Server
	listener        net.Listener
	logger          *zap.Logger
	readiness       ReadinessSetter
	shutdownTimeout time.Duration

	done     chan error
	stopOnce sync.Once
	stopErr  error
}

// Start binds the configured address and begins serving in a goroutine.
// Bind failures such as a port already in use are returned synchronously.
func Start(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:          logger,
		shutdownTimeout: cfg.GracefulShutdownTimeout,
		done:            make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
		close(s.done)
	}()

	if s.readiness != nil {
		s.readiness.SetReady(true)
	}
	s.logger.Info("server started", zap.String("addr", s.Addr()))
	return s, nil
}

// Addr returns the bound address, which differs from the configured one when port 0 is used.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Done yields the serve loop's terminal error (nil after a clean Stop).
func (s *Server) Done() <-chan error {
	return s.done
}

// Stop marks the server not ready and gracefully shuts it down. It is safe to
// call more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if s.readiness != nil {
			s.readiness.SetReady(false)
		}
		s.logger.Info("shutting down server")

		if s.shutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.stopErr = fmt.Errorf("shutdown: %w", err)
			return
		}
		s.logger.Info("server exited gracefully")
	})
	return s.stopErr
}
