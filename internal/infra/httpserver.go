package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer runs the API's http.Server with the lifecycle the service
// wants: serve until the process context is cancelled, then drain in-flight
// requests within the configured idle timeout.
type HTTPServer struct {
	server        *http.Server
	drainDeadline time.Duration
}

// NewHTTPServer applies the service's timeout configuration to a server for
// the given handler.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	return &HTTPServer{server: srv, drainDeadline: cfg.HTTPIdleTimeout}
}

// Run blocks serving requests until ctx is cancelled or the listener fails.
// Cancellation triggers a graceful shutdown; a drained server returns nil.
func (s *HTTPServer) Run(ctx context.Context, logger Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.drainDeadline)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("http server drained")
	return nil
}
