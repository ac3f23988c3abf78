// Package server exposes health and Prometheus endpoints for a running runtime.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rockae/internal/bootstrap"
	"rockae/internal/handlers"
	"rockae/internal/observability"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewHandlers wires the health probes to the runtime's database and cache.
func NewHandlers(rt *bootstrap.Runtime) (*handlers.Handlers, error) {
	sqlDB, err := rt.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	h := &handlers.Handlers{DB: handlers.PingFunc(sqlDB.PingContext)}
	if client := rt.Cache.Client(); client != nil {
		h.Cache = handlers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return h, nil
}

// NewMux routes /health, /ping and /metrics.
func NewMux(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// Run listens on addr until SIGINT or SIGTERM.
func Run(addr string, handler http.Handler) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return Serve(ln, handler, quit)
}

// Serve handles requests on ln until quit receives, then shuts down gracefully.
func Serve(ln net.Listener, handler http.Handler, quit <-chan os.Signal) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.Logger.Info("ops server listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
