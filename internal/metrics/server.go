// Package metrics exposes the Prometheus registry over HTTP.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/logger"
)

// Handler serves /metrics, /health and the pprof endpoints.
func Handler() http.Handler {
	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return &mux
}

// Serve listens on addr until ctx is done. It returns immediately; wait on
// the returned function to block until the server has stopped.
func Serve(ctx context.Context, addr string) (wait func()) {
	log := logger.Named("metrics").With(zap.String("addr", addr))
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutting down the server failed", zap.Error(err))
		}
	}()

	go func() {
		defer wg.Done()
		log.Info("starting server")
		switch err := srv.ListenAndServe(); {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			log.Info("stopping server")
		default:
			log.Warn("server stopped", zap.Error(err))
		}
	}()

	return wg.Wait
}
