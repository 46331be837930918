// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts and graceful shutdown.
//
// Production hardening recommends:
//
//   • ReadHeaderTimeout – abort slow-loris headers (5 s)
//   • ReadTimeout       – cap request body upload (10 s)
//   • WriteTimeout      – cap total response time (30 s); requests may
//                         briefly wait behind a running restore
//   • IdleTimeout       – close keep-alives on idle clients (60 s)
//
// This helper centralises those defaults so cmd/web doesn’t repeat boilerplate.
//

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ShutdownGrace bounds how long Serve waits for in-flight requests.
const ShutdownGrace = 15 * time.Second

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests for
// up to ShutdownGrace.  It returns nil after a clean shutdown.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zap.S().Infow("http shutting down", "grace", ShutdownGrace)
	shCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
